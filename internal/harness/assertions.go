package harness

import (
	"fmt"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s", ev.Seq, ev.Client, ev.Type, ev.Action)
			if ev.Error != "" {
				fmt.Fprintf(&buf, " (%s)", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	switch a.Type {
	case AssertCard:
		return assertCard(r, a)
	case AssertCardCount:
		if got := len(r.Boards[a.Client]); got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s has %d cards", a.Client, a.Count), Actual: fmt.Sprint(got)}
		}
	case AssertGroupCount:
		if got := r.Groups[a.Client]; got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s has %d groups", a.Client, a.Count), Actual: fmt.Sprint(got)}
		}
	case AssertTraceContains:
		if countActions(r.Trace, a) == 0 {
			return &AssertionError{Type: a.Type, Expected: describe(a), Actual: "not found in trace", Trace: r.Trace}
		}
	case AssertTraceCount:
		if got := countActions(r.Trace, a); got != a.Count {
			return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("%s %d times", describe(a), a.Count), Actual: fmt.Sprintf("%d times", got), Trace: r.Trace}
		}
	case AssertTraceOrder:
		return assertTraceOrder(r.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func describe(a Assertion) string {
	if a.Client != "" {
		return fmt.Sprintf("%s by %s", a.Action, a.Client)
	}
	return a.Action
}

// countActions counts successful trace events named a.Action (optionally
// restricted to a.Client).
func countActions(trace []TraceEvent, a Assertion) int {
	n := 0
	for _, ev := range trace {
		if ev.Action == a.Action && ev.Error == "" && (a.Client == "" || ev.Client == a.Client) {
			n++
		}
	}
	return n
}

// assertTraceOrder checks that the actions occur in order. Other events
// may be interleaved.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Actions) && ev.Action == a.Actions[next] && ev.Error == "" && (a.Client == "" || ev.Client == a.Client) {
			next++
		}
	}
	if next < len(a.Actions) {
		return &AssertionError{
			Type:     a.Type,
			Expected: strings.Join(a.Actions, " -> "),
			Actual:   fmt.Sprintf("stopped before %s", a.Actions[next]),
			Trace:    trace,
		}
	}
	return nil
}

func assertCard(r *Result, a Assertion) error {
	card, ok := r.Card(a.Client, a.Card)
	if !ok {
		return &AssertionError{Type: a.Type, Expected: fmt.Sprintf("card %q on %s's board", a.Card, a.Client), Actual: "missing"}
	}

	actual := map[string]any{
		"x":        card.X,
		"y":        card.Y,
		"color":    card.Color,
		"category": card.Category,
		"group":    card.Group,
		"votes":    float64(card.Votes),
		"author":   card.Author,
	}

	var diffs []string
	for key, want := range a.Expect {
		got, known := actual[key]
		if !known {
			return fmt.Errorf("card %q: unknown field %q", a.Card, key)
		}
		if !sameValue(got, want) {
			diffs = append(diffs, fmt.Sprintf("%s=%v (want %v)", key, got, want))
		}
	}
	if len(diffs) > 0 {
		sort.Strings(diffs)
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("card %q on %s's board matches %v", a.Card, a.Client, a.Expect),
			Actual:   strings.Join(diffs, ", "),
		}
	}
	return nil
}

// sameValue compares an actual card field with a YAML-decoded expectation.
// Numbers compare numerically; null matches the empty string.
func sameValue(got, want any) bool {
	switch w := want.(type) {
	case nil:
		return got == ""
	case int:
		g, ok := got.(float64)
		return ok && g == float64(w)
	case float64:
		g, ok := got.(float64)
		return ok && g == w
	default:
		return fmt.Sprint(got) == fmt.Sprint(w)
	}
}
