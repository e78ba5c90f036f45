package harness

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/theonlysinjin/team-retro/internal/backend/inmem"
	"github.com/theonlysinjin/team-retro/internal/board"
	"github.com/theonlysinjin/team-retro/internal/canvas"
	"github.com/theonlysinjin/team-retro/internal/clock"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/ids"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/session"
	"github.com/theonlysinjin/team-retro/internal/state"
	"github.com/theonlysinjin/team-retro/internal/syncer"
	"github.com/theonlysinjin/team-retro/internal/testutil"
)

// StartTime is the frozen wall clock every scenario starts at (ms).
const StartTime = 1_700_000_000_000

// Harness runs one scenario against an in-process backend.
//
// Every source of nondeterminism is pinned: the clock only moves on
// "advance" steps, record ids come from a sequence, session codes from a
// seeded generator, and confirmations run inline.
type Harness struct {
	ctx     context.Context
	backend *inmem.Backend
	clock   *testutil.FixedClock
	layout  canvas.Layout
	logger  *slog.Logger

	clients map[string]*client
	order   []string
	code    string
	seq     int64
}

type client struct {
	spec    ClientSpec
	store   *state.Store
	keyring *codec.Keyring
	sync    *syncer.Synchronizer
	tasks   *board.Dispatcher
	board   *board.Controller
	session *session.Manager
}

// Option configures a run.
type Option func(*Harness)

// WithLogger routes component logs to l. Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithLayout overrides the spatial constants.
func WithLayout(l canvas.Layout) Option {
	return func(h *Harness) { h.layout = l }
}

// Run executes a scenario and returns its result. An error is returned only
// when the scenario cannot be set up; failed expectations and assertions
// are reported in the result.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		ctx:     context.Background(),
		clock:   testutil.NewFixedClock(StartTime),
		layout:  canvas.DefaultLayout(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		clients: make(map[string]*client),
	}
	for _, opt := range opts {
		opt(h)
	}

	var seed [32]byte
	binary.LittleEndian.PutUint64(seed[:], s.Seed)
	h.backend = inmem.New(
		inmem.WithClock(h.clock),
		inmem.WithIDs(ids.NewSequence("rec")),
		inmem.WithRand(rand.NewChaCha8(seed)),
		inmem.WithLogger(h.logger),
	)

	if err := h.connect(s.Clients); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range s.Flow {
		h.execute(i, step, result)
	}

	h.snapshot(result)
	for _, msg := range EvaluateAssertions(result, s.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) connect(specs []ClientSpec) error {
	for i, spec := range specs {
		c := h.newClient(spec)
		if i == 0 {
			ticket, err := c.session.Host(h.ctx, spec.DisplayName())
			if err != nil {
				return fmt.Errorf("client %s: host: %w", spec.Name, err)
			}
			h.code = ticket.Code
		} else if _, err := c.session.Join(h.ctx, h.code, spec.DisplayName()); err != nil {
			return fmt.Errorf("client %s: join: %w", spec.Name, err)
		}
		h.clients[spec.Name] = c
		h.order = append(h.order, spec.Name)
	}
	return h.pullAll()
}

func (h *Harness) newClient(spec ClientSpec) *client {
	logger := h.logger.With("client", spec.Name)
	st := state.New(
		state.WithStamper(clock.NewStamper(h.clock)),
		state.WithIDs(ids.NewSequence(spec.Name)),
		state.WithLogger(logger),
	)
	kr := &codec.Keyring{}
	sy := syncer.New(st, kr, syncer.WithClient(h.backend), syncer.WithLogger(logger))
	tasks := board.NewDispatcher(h.ctx, board.Inline(), board.WithResults(64), board.WithDispatchLogger(logger))
	return &client{
		spec:    spec,
		store:   st,
		keyring: kr,
		sync:    sy,
		tasks:   tasks,
		board: board.New(st, kr, h.backend, tasks,
			board.WithLayout(h.layout),
			board.WithLogger(logger),
			board.WithPicker(func(int) int { return 0 })),
		session: session.NewManager(h.backend, st, sy, session.WithLogger(logger)),
	}
}

// pullAll refreshes every client still in the session. A client without
// a key keeps its last-known board.
func (h *Harness) pullAll() error {
	for _, name := range h.order {
		c := h.clients[name]
		sc, ok := c.store.Session()
		if !ok {
			continue
		}
		_, err := c.sync.Pull(h.ctx, sc.SessionID)
		if err != nil && !errors.Is(err, codec.ErrKeyNotReady) {
			return fmt.Errorf("client %s: %w", name, err)
		}
	}
	return nil
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

func (h *Harness) execute(i int, step FlowStep, result *Result) {
	c := h.clients[step.Client]
	outcome, err := actions[step.Do](h, c, step.Args)

	ev := TraceEvent{Seq: h.next(), Type: EventAction, Client: step.Client, Action: step.Do, Args: step.Args, Outcome: outcome}
	if err != nil {
		ev.Outcome = "error"
		ev.Error = err.Error()
	}
	result.Trace = append(result.Trace, ev)
	h.drainTasks(step.Client, c, result)

	label := fmt.Sprintf("flow[%d] %s %s", i, step.Client, step.Do)
	switch {
	case step.Expect != nil && step.Expect.Error != "":
		if err == nil || !strings.Contains(err.Error(), step.Expect.Error) {
			result.AddError(fmt.Sprintf("%s: expected error containing %q, got %v", label, step.Expect.Error, err))
		}
	case err != nil:
		result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
	case step.Expect != nil && step.Expect.Outcome != "" && step.Expect.Outcome != outcome:
		result.AddError(fmt.Sprintf("%s: expected outcome %q, got %q", label, step.Expect.Outcome, outcome))
	}

	if step.NoSync {
		return
	}
	if err := h.pullAll(); err != nil {
		result.AddError(fmt.Sprintf("%s: pull: %v", label, err))
	}
}

func (h *Harness) drainTasks(name string, c *client, result *Result) {
	for {
		select {
		case r := <-c.tasks.Results():
			ev := TraceEvent{Seq: h.next(), Type: EventTask, Client: name, Action: r.Name, Outcome: "ok"}
			if r.Err != nil {
				ev.Outcome = "error"
				ev.Error = r.Err.Error()
			}
			result.Trace = append(result.Trace, ev)
		default:
			return
		}
	}
}

// snapshot records every client's final board.
func (h *Harness) snapshot(result *Result) {
	for _, name := range h.order {
		c := h.clients[name]
		cards := c.store.Cards()

		label := make(map[string]string)
		for _, card := range cards {
			if card.GroupID == "" {
				continue
			}
			if cur, ok := label[card.GroupID]; !ok || card.Content < cur {
				label[card.GroupID] = card.Content
			}
		}

		views := make([]CardView, 0, len(cards))
		for _, card := range cards {
			v := CardView{
				Content: card.Content,
				Color:   card.Color,
				X:       card.Position.X,
				Y:       card.Position.Y,
				Group:   label[card.GroupID],
				Votes:   c.store.VoteCount(card.ID),
				Author:  card.AuthorName,
			}
			if card.Category != nil {
				v.Category = string(*card.Category)
			}
			views = append(views, v)
		}
		sort.SliceStable(views, func(i, j int) bool { return views[i].Content < views[j].Content })
		result.Boards[name] = views
		result.Groups[name] = len(c.store.Groups())
	}
}

type actionFunc func(h *Harness, c *client, args map[string]any) (outcome string, err error)

// actions maps step names to their implementation.
var actions = map[string]actionFunc{
	"add_card": func(h *Harness, c *client, args map[string]any) (string, error) {
		cat, err := category(args)
		if err != nil {
			return "", err
		}
		return "ok", c.board.AddCard(str(args, "content"), str(args, "color"), cat, pos(args, "x", "y"))
	},
	"create_at": func(h *Harness, c *client, args map[string]any) (string, error) {
		return "ok", c.board.CreateCardAt(board.Gesture{Viewport: pos(args, "x", "y")})
	},
	"edit_card": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		return "ok", c.board.EditCard(card.ID, str(args, "content"))
	}),
	"recolor": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		return "ok", c.board.RecolorCard(card.ID, str(args, "color"))
	}),
	"categorize": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		cat, err := category(args)
		if err != nil {
			return "", err
		}
		return "ok", c.board.SetCategory(card.ID, cat)
	}),
	"delete_card": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		return "ok", c.board.DeleteCard(card.ID)
	}),
	"vote": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		voted, err := c.board.ToggleVote(card.ID)
		if voted {
			return "voted", err
		}
		return "unvoted", err
	}),
	"drag": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		start := model.Position{}
		if err := c.board.BeginDrag(card.ID, start); err != nil {
			return "", err
		}
		res, err := c.board.EndDrag(pos(args, "dx", "dy"))
		return res.Outcome.String(), err
	}),
	"ungroup": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		return "ok", c.board.RemoveFromGroup(card.ID)
	}),
	"rename_group": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		if card.GroupID == "" {
			return "", fmt.Errorf("card %q is not grouped", card.Content)
		}
		return "ok", c.board.RenameGroup(card.GroupID, str(args, "name"))
	}),
	"delete_group": withCard(func(h *Harness, c *client, card model.Card, args map[string]any) (string, error) {
		if card.GroupID == "" {
			return "", fmt.Errorf("card %q is not grouped", card.Content)
		}
		return "ok", c.board.DeleteGroup(card.GroupID)
	}),
	"pan": func(h *Harness, c *client, args map[string]any) (string, error) {
		c.board.Wheel(num(args, "dx"), num(args, "dy"))
		return "ok", nil
	},
	"rename": func(h *Harness, c *client, args map[string]any) (string, error) {
		return "ok", c.session.Rename(h.ctx, str(args, "name"))
	},
	"leave": func(h *Harness, c *client, args map[string]any) (string, error) {
		return "ok", c.session.Leave(h.ctx)
	},
	"lose_key": func(h *Harness, c *client, args map[string]any) (string, error) {
		c.keyring.Reset()
		return "ok", nil
	},
	"restore_key": func(h *Harness, c *client, args map[string]any) (string, error) {
		c.sync.SetSessionCode(h.code)
		return "ok", nil
	},
	"fail_next": func(h *Harness, c *client, args map[string]any) (string, error) {
		op := str(args, "op")
		if op == "" {
			return "", errors.New("fail_next: op is required")
		}
		msg := str(args, "error")
		if msg == "" {
			msg = "injected failure"
		}
		h.backend.FailNext(op, errors.New(msg))
		return "ok", nil
	},
	"advance": func(h *Harness, c *client, args map[string]any) (string, error) {
		h.clock.Advance(int64(num(args, "ms")))
		return "ok", nil
	},
}

func withCard(fn func(h *Harness, c *client, card model.Card, args map[string]any) (string, error)) actionFunc {
	return func(h *Harness, c *client, args map[string]any) (string, error) {
		content := str(args, "card")
		for _, card := range c.store.Cards() {
			if card.Content == content {
				return fn(h, c, card, args)
			}
		}
		return "", fmt.Errorf("no card %q on %s's board", content, c.spec.Name)
	}
}

func str(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func num(args map[string]any, key string) float64 {
	switch v := args[key].(type) {
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float64:
		return v
	}
	return 0
}

func pos(args map[string]any, x, y string) model.Position {
	return model.Position{X: num(args, x), Y: num(args, y)}
}

func category(args map[string]any) (*model.Category, error) {
	s := str(args, "category")
	if s == "" {
		return nil, nil
	}
	c := model.Category(s)
	if !c.Valid() {
		return nil, fmt.Errorf("unknown category %q", s)
	}
	return &c, nil
}
