package harness

// Trace event types.
const (
	EventAction = "action" // a user action performed through the controller
	EventTask   = "task"   // a backend confirmation dispatched by an action
)

// TraceEvent is one entry of a scenario trace.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	Type    string         `json:"type"`
	Client  string         `json:"client"`
	Action  string         `json:"action"`
	Args    map[string]any `json:"args,omitempty"`
	Outcome string         `json:"outcome,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// CardView is a card as a client sees it, with ids replaced by content so
// boards compare across runs.
type CardView struct {
	Content  string  `json:"content"`
	Color    string  `json:"color"`
	Category string  `json:"category,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`

	// Group is the smallest member content of the card's group, or "".
	Group string `json:"group,omitempty"`

	Votes  int    `json:"votes"`
	Author string `json:"author"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains the actions and their confirmations in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	Errors []string `json:"errors,omitempty"`

	// Boards holds each client's final cards, sorted by content.
	Boards map[string][]CardView `json:"boards"`

	// Groups holds each client's final group count.
	Groups map[string]int `json:"groups"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Boards: make(map[string][]CardView),
		Groups: make(map[string]int),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Card returns the card with content on client's board.
func (r *Result) Card(client, content string) (CardView, bool) {
	for _, c := range r.Boards[client] {
		if c.Content == content {
			return c, true
		}
	}
	return CardView{}, false
}
