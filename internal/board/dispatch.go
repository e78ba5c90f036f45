package board

import (
	"context"
	"log/slog"
	"sync"

	"github.com/theonlysinjin/team-retro/internal/backend"
)

// Result is the completion of a dispatched task.
type Result struct {
	Name string
	Err  error
}

// Dispatcher runs backend confirmations without blocking the caller.
//
// Each task runs in its own goroutine (or synchronously in inline mode).
// Outcomes are logged and, when a result channel is configured, delivered
// on it without blocking; results that do not fit are dropped.
type Dispatcher struct {
	ctx     context.Context
	inline  bool
	logger  *slog.Logger
	results chan Result
	wg      sync.WaitGroup
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// Inline runs tasks synchronously inside Go. Used by tests and scenario
// runs to observe confirmations deterministically.
func Inline() DispatcherOption {
	return func(d *Dispatcher) { d.inline = true }
}

// WithResults delivers task results on a channel of capacity n.
func WithResults(n int) DispatcherOption {
	return func(d *Dispatcher) { d.results = make(chan Result, n) }
}

// WithDispatchLogger sets the logger.
func WithDispatchLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// NewDispatcher creates a dispatcher whose tasks run under ctx.
func NewDispatcher(ctx context.Context, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{ctx: ctx, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Go runs fn as the task name.
func (d *Dispatcher) Go(name string, fn func(ctx context.Context) error) {
	if d.inline {
		d.finish(name, fn(d.ctx))
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.finish(name, fn(d.ctx))
	}()
}

func (d *Dispatcher) finish(name string, err error) {
	switch {
	case err == nil:
		d.logger.Debug("confirmed", "task", name)
	case backend.IsDuplicateVote(err) || backend.IsVoteNotFound(err):
		d.logger.Debug("rejected, awaiting snapshot", "task", name, "error", err)
	case backend.IsNotFound(err):
		d.logger.Warn("target gone, change abandoned", "task", name, "error", err)
	default:
		d.logger.Error("confirmation failed", "task", name, "error", err)
	}

	if d.results == nil {
		return
	}
	select {
	case d.results <- Result{Name: name, Err: err}:
	default:
	}
}

// Results returns the result channel, or nil when none was configured.
func (d *Dispatcher) Results() <-chan Result {
	return d.results
}

// Wait blocks until every task started so far has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
