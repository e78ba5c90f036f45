package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/theonlysinjin/team-retro/internal/backend/inmem"
	"github.com/theonlysinjin/team-retro/internal/board"
	"github.com/theonlysinjin/team-retro/internal/clock"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/presence"
	"github.com/theonlysinjin/team-retro/internal/session"
	"github.com/theonlysinjin/team-retro/internal/state"
	"github.com/theonlysinjin/team-retro/internal/syncer"
)

// DemoOptions holds flags for the demo command.
type DemoOptions struct {
	*RootOptions
	Host  string
	Guest string
}

// DemoCard is a card as printed by the demo.
type DemoCard struct {
	Content  string  `json:"content"`
	Color    string  `json:"color"`
	Category string  `json:"category,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Group    string  `json:"group,omitempty"`
	Votes    int     `json:"votes"`
	Author   string  `json:"author"`
}

// DemoBoard is the host's board at the end of the demo.
type DemoBoard struct {
	Code      string            `json:"code"`
	ShareLink string            `json:"share_link"`
	HostLink  string            `json:"host_link"`
	Members   []presence.Member `json:"members"`
	Cards     []DemoCard        `json:"cards"`
	Groups    int               `json:"groups"`
}

// NewDemoCommand creates the demo command.
func NewDemoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DemoOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a short session against an in-memory backend",
		Long: `Host a session on an in-memory backend, add a few cards, drag one onto
another to group them, vote, and print the host's decrypted board.

With --guest a second participant joins and adds a card of their own, which
reaches the host through the same sync path a remote client would use.`,
		Example: `  retro demo --host Alice
  retro demo --host Alice --guest Bob --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "host display name")
	cmd.Flags().StringVar(&opts.Guest, "guest", "", "optional second participant")
	_ = cmd.MarkFlagRequired("host")

	return cmd
}

type demoClient struct {
	store   *state.Store
	sync    *syncer.Synchronizer
	board   *board.Controller
	session *session.Manager
}

func newDemoClient(ctx context.Context, b *inmem.Backend, opts *DemoOptions, logger *slog.Logger) *demoClient {
	st := state.New(state.WithStamper(clock.NewStamper(clock.System{})), state.WithLogger(logger))
	kr := &codec.Keyring{}
	sy := syncer.New(st, kr, syncer.WithClient(b), syncer.WithLogger(logger))
	tasks := board.NewDispatcher(ctx, board.Inline(), board.WithDispatchLogger(logger))
	return &demoClient{
		store: st,
		sync:  sy,
		board: board.New(st, kr, b, tasks,
			board.WithLayout(opts.Config.Layout()),
			board.WithLogger(logger)),
		session: session.NewManager(b, st, sy, session.WithLogger(logger)),
	}
}

func (c *demoClient) pull(ctx context.Context) error {
	sc, ok := c.store.Session()
	if !ok {
		return session.ErrNotInSession
	}
	_, err := c.sync.Pull(ctx, sc.SessionID)
	return err
}

func (c *demoClient) card(content string) (model.Card, error) {
	for _, card := range c.store.Cards() {
		if card.Content == content {
			return card, nil
		}
	}
	return model.Card{}, fmt.Errorf("card %q not on the board", content)
}

// dragOnto drags the card with content src so it lands exactly on dst.
func (c *demoClient) dragOnto(src, dst string) (board.DragResult, error) {
	from, err := c.card(src)
	if err != nil {
		return board.DragResult{}, err
	}
	to, err := c.card(dst)
	if err != nil {
		return board.DragResult{}, err
	}
	var origin model.Position
	if err := c.board.BeginDrag(from.ID, origin); err != nil {
		return board.DragResult{}, err
	}
	return c.board.EndDrag(origin.Add(to.Position.X-from.Position.X, to.Position.Y-from.Position.Y))
}

func runDemo(ctx context.Context, opts *DemoOptions, cmd *cobra.Command) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	f := opts.formatter(cmd)
	b := inmem.New(inmem.WithLogger(logger))

	host := newDemoClient(ctx, b, opts, logger.With("client", "host"))
	ticket, err := host.session.Host(ctx, opts.Host)
	if err != nil {
		return WrapExitError(ExitCommandError, "host session", err)
	}
	f.VerboseLog("hosted session %s", ticket.Code)

	well, badly := model.CategoryWell, model.CategoryBadly
	blue, _ := model.LookupCardColor("Blue")
	steps := []struct {
		content  string
		color    string
		category *model.Category
		pos      model.Position
	}{
		{"Shipped the beta", "", &well, model.Position{X: 100, Y: 100}},
		{"Release went smoothly", blue.Value, &well, model.Position{X: 420, Y: 120}},
		{"Flaky CI", "", &badly, model.Position{X: 100, Y: 400}},
	}
	for _, s := range steps {
		if err := host.board.AddCard(s.content, s.color, s.category, s.pos); err != nil {
			return WrapExitError(ExitFailure, "add card", err)
		}
	}
	if err := host.pull(ctx); err != nil {
		return WrapExitError(ExitFailure, "pull", err)
	}

	res, err := host.dragOnto("Release went smoothly", "Shipped the beta")
	if err != nil {
		return WrapExitError(ExitFailure, "drag", err)
	}
	f.VerboseLog("drag: %s", res.Outcome)

	target, err := host.card("Shipped the beta")
	if err != nil {
		return WrapExitError(ExitFailure, "vote", err)
	}
	if _, err := host.board.ToggleVote(target.ID); err != nil {
		return WrapExitError(ExitFailure, "vote", err)
	}

	if opts.Guest != "" {
		guest := newDemoClient(ctx, b, opts, logger.With("client", "guest"))
		if _, err := guest.session.Join(ctx, ticket.Code, opts.Guest); err != nil {
			return WrapExitError(ExitFailure, "join session", err)
		}
		if err := guest.board.AddCard("More pairing", "", nil, model.Position{X: 420, Y: 400}); err != nil {
			return WrapExitError(ExitFailure, "add card", err)
		}
		if err := guest.pull(ctx); err != nil {
			return WrapExitError(ExitFailure, "pull", err)
		}
		if _, err := guest.board.ToggleVote(target.ID); err != nil {
			return WrapExitError(ExitFailure, "vote", err)
		}
	}

	if err := host.pull(ctx); err != nil {
		return WrapExitError(ExitFailure, "pull", err)
	}

	view := demoView(host, ticket.Code, opts.Config.BaseURL)
	return f.Success(renderDemo(view), view)
}

func demoView(c *demoClient, code, base string) DemoBoard {
	sc, _ := c.store.Session()
	view := DemoBoard{
		Code:      code,
		ShareLink: c.session.ShareLink(base),
		HostLink:  c.session.HostLink(base),
		Members:   presence.Roster(c.store.Presence(), sc.UserName),
		Groups:    len(c.store.Groups()),
	}

	// Unnamed groups are labelled by their first member content.
	labels := make(map[string]string)
	for _, g := range c.store.Groups() {
		var names []string
		for _, m := range c.store.GroupMembers(g.ID) {
			names = append(names, m.Content)
		}
		sort.Strings(names)
		if g.Name != nil && *g.Name != "" {
			labels[g.ID] = *g.Name
		} else if len(names) > 0 {
			labels[g.ID] = names[0]
		}
	}

	for _, card := range c.store.Cards() {
		dc := DemoCard{
			Content: card.Content,
			Color:   card.Color,
			X:       card.Position.X,
			Y:       card.Position.Y,
			Votes:   c.store.VoteCount(card.ID),
			Author:  card.AuthorName,
		}
		if card.Category != nil {
			dc.Category = string(*card.Category)
		}
		if card.GroupID != "" {
			dc.Group = labels[card.GroupID]
		}
		view.Cards = append(view.Cards, dc)
	}
	sort.Slice(view.Cards, func(i, j int) bool { return view.Cards[i].Content < view.Cards[j].Content })
	return view
}

func renderDemo(v DemoBoard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session %s\n", v.Code)
	fmt.Fprintf(&b, "Share:   %s\n", v.ShareLink)
	if v.HostLink != "" {
		fmt.Fprintf(&b, "Host:    %s\n", v.HostLink)
	}

	names := make([]string, 0, len(v.Members))
	for _, m := range v.Members {
		n := m.Name
		if m.Self {
			n += " (you)"
		}
		names = append(names, n)
	}
	fmt.Fprintf(&b, "Online:  %s\n\n", strings.Join(names, ", "))

	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONTENT\tCOLOR\tCATEGORY\tPOSITION\tGROUP\tVOTES\tAUTHOR")
	for _, c := range v.Cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\t(%g, %g)\t%s\t%d\t%s\n",
			c.Content, c.Color, dash(c.Category), c.X, c.Y, dash(c.Group), c.Votes, c.Author)
	}
	tw.Flush()
	fmt.Fprintf(&b, "\n%d cards, %d groups", len(v.Cards), v.Groups)
	return b.String()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
