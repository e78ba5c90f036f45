package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted multi-client session.
//
// The first client hosts the session; the others join it by code. Flow
// steps drive the clients' board controllers; after every step each client
// pulls the authoritative tables, so assertions observe converged state.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Clients lists the participants. The first one hosts.
	Clients []ClientSpec `yaml:"clients"`

	// Flow contains the user actions, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and boards.
	Assertions []Assertion `yaml:"assertions"`

	// Seed makes session codes and host tokens reproducible.
	Seed uint64 `yaml:"seed,omitempty"`
}

// ClientSpec is a participant.
type ClientSpec struct {
	// Name identifies the client in steps and assertions.
	Name string `yaml:"name"`

	// User is the display name. Defaults to Name.
	User string `yaml:"user,omitempty"`
}

// DisplayName returns the user name the client joins with.
func (c ClientSpec) DisplayName() string {
	if c.User != "" {
		return c.User
	}
	return c.Name
}

// FlowStep is one user action.
type FlowStep struct {
	// Client performs the action.
	Client string `yaml:"client"`

	// Do is the action name (see Actions).
	Do string `yaml:"do"`

	// Args are the action arguments. Cards are referenced by content.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect validates the action outcome. Nil expects success.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// NoSync skips the pull after this step.
	NoSync bool `yaml:"no_sync,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Outcome is the expected outcome ("ok", "grouped", "repositioned",
	// "cancelled", "voted", "unvoted").
	Outcome string `yaml:"outcome,omitempty"`

	// Error is a substring the step's error must contain.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or a client's final board.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Client selects the board for card, card_count and group_count.
	Client string `yaml:"client,omitempty"`

	// Card is the content of the card under test.
	Card string `yaml:"card,omitempty"`

	// Expect lists the card fields to check (subset match): x, y, color,
	// category, group, votes, author.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Action is the action or task name for trace assertions.
	Action string `yaml:"action,omitempty"`

	// Actions is the expected order for trace_order.
	Actions []string `yaml:"actions,omitempty"`

	// Count is the expected number for *_count assertions.
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertCard          = "card"
	AssertCardCount     = "card_count"
	AssertGroupCount    = "group_count"
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// FindScenarios returns the .yaml/.yml files under dir whose base name
// (without extension) matches filter, sorted by path. An empty filter
// matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			base := filepath.Base(path)
			ok, err := filepath.Match(filter, base[:len(base)-len(ext)])
			if err != nil {
				return fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Clients) == 0 {
		return fmt.Errorf("clients list is required and must be non-empty")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	clients := make(map[string]bool, len(s.Clients))
	for i, c := range s.Clients {
		if c.Name == "" {
			return fmt.Errorf("clients[%d]: name is required", i)
		}
		if clients[c.Name] {
			return fmt.Errorf("clients[%d]: duplicate client %q", i, c.Name)
		}
		clients[c.Name] = true
	}

	for i, step := range s.Flow {
		if !clients[step.Client] {
			return fmt.Errorf("flow[%d]: unknown client %q", i, step.Client)
		}
		if _, ok := actions[step.Do]; !ok {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Do)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, clients); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, clients map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertCard:
		if a.Card == "" || len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: card and expect are required for card", index)
		}
	case AssertCardCount, AssertGroupCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
		return nil
	case AssertTraceCount:
		if a.Action == "" || a.Count < 0 {
			return fmt.Errorf("assertions[%d]: action and a non-negative count are required for trace_count", index)
		}
		return nil
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	if !clients[a.Client] {
		return fmt.Errorf("assertions[%d]: unknown client %q", index, a.Client)
	}
	return nil
}
