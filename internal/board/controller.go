package board

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/theonlysinjin/team-retro/internal/backend"
	"github.com/theonlysinjin/team-retro/internal/canvas"
	"github.com/theonlysinjin/team-retro/internal/codec"
	"github.com/theonlysinjin/team-retro/internal/model"
	"github.com/theonlysinjin/team-retro/internal/state"
)

// Placeholders are the prompts a card created by double-click starts with.
var Placeholders = []string{
	"What's on your mind?",
	"Share your thoughts...",
	"Tell us more!",
	"What happened?",
	"Any ideas?",
	"Your feedback here...",
}

// Controller turns user actions into optimistic store changes and backend
// confirmations.
type Controller struct {
	store   *state.Store
	keyring *codec.Keyring
	client  backend.Client
	tasks   *Dispatcher
	layout  canvas.Layout
	logger  *slog.Logger
	pick    func(n int) int

	mu      sync.Mutex
	drag    canvas.Drag
	pan     canvas.Pan
	tickets map[string]*groupTicket
}

// Option configures a Controller.
type Option func(*Controller)

// WithLayout sets the spatial constants.
func WithLayout(l canvas.Layout) Option {
	return func(c *Controller) { c.layout = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithPicker sets the function choosing a placeholder index in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(c *Controller) { c.pick = pick }
}

// New creates a Controller.
func New(store *state.Store, keyring *codec.Keyring, client backend.Client, tasks *Dispatcher, opts ...Option) *Controller {
	c := &Controller{
		store:   store,
		keyring: keyring,
		client:  client,
		tasks:   tasks,
		layout:  canvas.DefaultLayout(),
		logger:  slog.Default(),
		pick:    rand.IntN,
		tickets: make(map[string]*groupTicket),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout returns the spatial constants in use.
func (c *Controller) Layout() canvas.Layout {
	return c.layout
}

func (c *Controller) session() (state.SessionContext, error) {
	s, ok := c.store.Session()
	if !ok {
		return state.SessionContext{}, ErrNoSession
	}
	return s, nil
}

func (c *Controller) key() (codec.Key, error) {
	k, err := c.keyring.Key()
	if err != nil {
		return codec.Key{}, fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return k, nil
}

// Gesture is a double-activation on the canvas.
type Gesture struct {
	// Viewport is the pointer position in the viewport frame.
	Viewport model.Position

	// Container is the canvas container's origin in the viewport frame.
	Container model.Position

	// OnCard is true when the gesture hit an existing card.
	OnCard bool
}

// CreateCardAt creates a placeholder card where the gesture happened.
// Gestures on existing cards are ignored.
func (c *Controller) CreateCardAt(g Gesture) error {
	if g.OnCard {
		return nil
	}
	frame := canvas.Frame{Container: g.Container, Offset: c.store.CanvasOffset()}
	pos := frame.ToCanvas(g.Viewport)
	content := Placeholders[c.pick(len(Placeholders))]
	return c.createCard(model.CardPayload{Content: content, Color: model.DefaultCardColor.Value}, pos)
}

// AddCard creates a card with explicit content at a canvas position.
// An empty color means the default palette color.
func (c *Controller) AddCard(content, color string, category *model.Category, pos model.Position) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyContent
	}
	if color == "" {
		color = model.DefaultCardColor.Value
	}
	cc, ok := model.LookupCardColor(color)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownColor, color)
	}
	return c.createCard(model.CardPayload{Content: content, Color: cc.Value, Category: category}, pos)
}

func (c *Controller) createCard(p model.CardPayload, pos model.Position) error {
	sess, err := c.session()
	if err != nil {
		return err
	}
	key, err := c.key()
	if err != nil {
		return err
	}
	data, err := codec.SealCard(key, p)
	if err != nil {
		return fmt.Errorf("create card: %w", err)
	}

	c.logger.Debug("creating card", "x", pos.X, "y", pos.Y, "author", sess.UserName)
	c.tasks.Go("createCard", func(ctx context.Context) error {
		_, err := c.client.CreateCard(ctx, sess.SessionID, data, pos, sess.UserName)
		return err
	})
	return nil
}
