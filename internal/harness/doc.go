// Package harness runs scripted multi-client retro sessions against the
// in-process backend and checks the outcome.
//
// # Scenario Format
//
//	name: drag_to_group
//	description: "Dropping a card on another groups them"
//	clients:
//	  - name: alice        # first client hosts
//	  - name: bob
//	    user: Bob
//	flow:
//	  - client: alice
//	    do: add_card
//	    args: { content: "CI is slow", x: 100, y: 100 }
//	  - client: bob
//	    do: drag
//	    args: { card: "Flaky tests", dx: -370, dy: -390 }
//	    expect: { outcome: grouped }
//	assertions:
//	  - type: card
//	    client: alice
//	    card: "Flaky tests"
//	    expect: { x: 112, y: 136, group: "CI is slow" }
//	  - type: trace_contains
//	    action: createGroup
//
// Cards are referenced by their content. After every step each client
// pulls the backend tables, unless the step sets no_sync.
//
// # Actions
//
// add_card, create_at, edit_card, recolor, categorize, delete_card, vote,
// drag, ungroup, rename_group, delete_group, pan, rename, leave, lose_key,
// restore_key, fail_next, advance.
//
// # Assertion Types
//
//   - card: subset match on one card's fields (x, y, color, category, group, votes, author)
//   - card_count, group_count: size of a client's board
//   - trace_contains, trace_count, trace_order: successful actions and confirmations
//
// # Deterministic Testing
//
// The clock is frozen unless advanced, record ids are sequential and
// session codes derive from the scenario seed, so traces can be compared
// against golden files.
package harness
