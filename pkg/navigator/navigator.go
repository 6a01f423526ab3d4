// Package navigator keeps the stack of opened screens, the queue of screens
// waiting for the current one to close, and the signals callers wait on.
//
// Open, Close and Replace share a single busy guard. A call made while
// another one is in flight is dropped: it returns a nil screen and a nil
// error. Open can opt out of the guard with OpenOptions.AllowConcurrent.
// EnqueueNext is never dropped: while the guard is held it queues.
//
// Stack and queue are mutated before any transition is awaited. A
// cancelled operation therefore leaves its stack change in place with the
// screen only partly shown or hidden, and returns the wrapped ctx error.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pragma/screennav/internal/engine"
	"github.com/pragma/screennav/pkg/animation"
	ncontext "github.com/pragma/screennav/pkg/context"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/screen"
	"github.com/pragma/screennav/pkg/signal"
	"github.com/pragma/screennav/pkg/types"
)

// Options configures a Navigator.
type Options struct {
	// Factory creates screen instances. Defaults to screen.DefaultFactory.
	Factory screen.Factory
	// Container hosts the created visuals. Defaults to a new screen.Root.
	Container screen.Container
	Logger    logger.Logger
	// CloseSignalOnHideStart sends the close signal when hiding starts
	// instead of when it completes.
	CloseSignalOnHideStart bool
	// Preload creates an instance of every template in New.
	Preload bool
	// OnTransitionFailed is called whenever a transition reports failure.
	OnTransitionFailed func(s *screen.Screen, phase types.Phase)
}

// Navigator drives screens through open, close and replace operations.
type Navigator struct {
	templates []*screen.Template
	byTag     map[string]*screen.Template
	factory   screen.Factory
	container screen.Container
	logger    logger.Logger
	opts      Options

	signals *signal.Registry
	flight  engine.Flight
	stats   counters

	mu    sync.Mutex
	pool  []*screen.Screen
	stack *Stack
	queue *Queue
}

// New creates a navigator over a fixed set of templates.
func New(templates []*screen.Template, opts Options) (*Navigator, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	factory := opts.Factory
	if factory == nil {
		factory = screen.DefaultFactory{Logger: log}
	}

	container := opts.Container
	if container == nil {
		container = screen.NewRoot()
	}

	byTag := make(map[string]*screen.Template, len(templates))
	for _, tpl := range templates {
		if tpl == nil {
			return nil, screen.ErrNilTemplate
		}
		if tpl.Tag == "" {
			return nil, screen.ErrEmptyTag
		}
		if _, dup := byTag[tpl.Tag]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTemplate, tpl.Tag)
		}
		byTag[tpl.Tag] = tpl
	}

	owned := make([]*screen.Template, len(templates))
	copy(owned, templates)

	n := &Navigator{
		templates: owned,
		byTag:     byTag,
		factory:   factory,
		container: container,
		logger:    log,
		opts:      opts,
		signals:   signal.NewRegistry(),
		stack:     NewStack(),
		queue:     NewQueue(),
	}

	if opts.Preload {
		for _, tpl := range owned {
			if _, err := n.resolve(ByTag(tpl.Tag)); err != nil {
				return nil, err
			}
		}
		log.Debug("Preloaded screens", logger.WithField("count", len(owned)))
	}

	return n, nil
}

// Open pushes target on top of the stack, blurs the previous screen, then
// shows and focuses target. Opening the current screen changes nothing but
// still sends the open signal.
func (n *Navigator) Open(ctx context.Context, target Target, opts OpenOptions) (*screen.Screen, error) {
	ctx = ncontext.EnrichContext(ctx, "open")
	log := logger.WithContext(ctx, n.logger)

	if !n.enter(opts.AllowConcurrent) {
		n.reject(log, "open", target)
		return nil, nil
	}
	defer n.flight.Release()

	s, err := n.resolveLogged(log, target)
	if err != nil {
		return nil, err
	}
	return n.open(ctx, log, s, opts.Popup, opts)
}

// OpenIfNeeded opens target unless it vetoes through NeedToOpen. A veto
// returns (nil, nil) and mutates nothing.
func (n *Navigator) OpenIfNeeded(ctx context.Context, target Target, opts OpenOptions) (*screen.Screen, error) {
	s, err := n.resolveLogged(n.logger, target)
	if err != nil {
		return nil, err
	}
	if !s.NeedToOpen() {
		n.logger.WithScreen(s.Name()).Debug("Screen does not need to open")
		return nil, nil
	}
	return n.Open(ctx, ByScreen(s), opts)
}

// Close pops the current screen, blurs and hides it. If it was not a popup
// and a screen is queued, the queued screen is opened next, overlapping
// the hide when both transitions allow it. Otherwise the new current
// screen is focused. Closing an empty stack does nothing.
func (n *Navigator) Close(ctx context.Context, opts CloseOptions) error {
	ctx = ncontext.EnrichContext(ctx, "close")
	log := logger.WithContext(ctx, n.logger)

	if !n.flight.TryAcquire() {
		n.reject(log, "close", Target{})
		return nil
	}
	defer n.flight.Release()

	return n.close(ctx, log, opts.SkipNext, opts)
}

// Replace closes the current screen without pulling the queue, then opens
// target. Target is resolved and checked against the stack before anything
// is closed: a target open below the current screen fails with
// ErrAlreadyOpen and leaves the stack untouched.
func (n *Navigator) Replace(ctx context.Context, target Target, opts ReplaceOptions) (*screen.Screen, error) {
	ctx = ncontext.EnrichContext(ctx, "replace")
	log := logger.WithContext(ctx, n.logger)

	if !n.flight.TryAcquire() {
		n.reject(log, "replace", target)
		return nil, nil
	}
	defer n.flight.Release()

	s, err := n.resolveLogged(log, target)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	buried := n.stack.Contains(s) && n.stack.Peek() != s
	n.mu.Unlock()
	if buried {
		log.WithScreen(s.Name()).Warn("Screen is already open below the current screen")
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, s.Name())
	}

	if err := n.close(ctx, log, true, CloseOptions{Animation: opts.CloseAnimation}); err != nil {
		return nil, err
	}

	opened, err := n.open(ctx, log, s, opts.Popup, OpenOptions{Animation: opts.OpenAnimation})
	if err == nil && opened != nil {
		n.stats.replaced.Inc()
	}
	return opened, err
}

// ReplaceIfNeeded replaces with target unless it vetoes through
// NeedToOpen.
func (n *Navigator) ReplaceIfNeeded(ctx context.Context, target Target, opts ReplaceOptions) (*screen.Screen, error) {
	s, err := n.resolveLogged(n.logger, target)
	if err != nil {
		return nil, err
	}
	if !s.NeedToOpen() {
		n.logger.WithScreen(s.Name()).Debug("Screen does not need to open")
		return nil, nil
	}
	return n.Replace(ctx, ByScreen(s), opts)
}

// EnqueueNext queues target to be opened when the current screen closes.
// With an empty stack and no operation in flight target is opened right
// away. If another operation is in flight target is queued behind it even
// when the stack is still empty. A screen that is already opened or queued
// is ignored.
func (n *Navigator) EnqueueNext(ctx context.Context, target Target) error {
	ctx = ncontext.EnrichContext(ctx, "enqueue")
	log := logger.WithContext(ctx, n.logger)

	s, err := n.resolveLogged(log, target)
	if err != nil {
		return err
	}

	if n.IsEmpty() && n.flight.TryAcquire() {
		defer n.flight.Release()

		// The stack may have been filled between the check and the guard.
		if n.IsEmpty() {
			_, err := n.open(ctx, log, s, false, OpenOptions{})
			return err
		}
	}

	n.mu.Lock()
	if n.stack.Contains(s) || n.queue.Contains(s) {
		n.mu.Unlock()
		log.WithScreen(s.Name()).Debug("Screen already opened or queued")
		return nil
	}
	n.queue.Enqueue(s)
	depth := n.queue.Len()
	n.mu.Unlock()

	log.WithScreen(s.Name()).Info("Screen queued", logger.WithField("queue", depth))
	return nil
}

// EnqueueNextIfNeeded queues target unless it vetoes through NeedToOpen.
func (n *Navigator) EnqueueNextIfNeeded(ctx context.Context, target Target) error {
	s, err := n.resolveLogged(n.logger, target)
	if err != nil {
		return err
	}
	if !s.NeedToOpen() {
		n.logger.WithScreen(s.Name()).Debug("Screen does not need to open")
		return nil
	}
	return n.EnqueueNext(ctx, ByScreen(s))
}

// Wait returns a channel closed by the next kind signal of target. Waiters
// of the same screen and kind share one channel.
func (n *Navigator) Wait(target Target, kind types.SignalKind) (<-chan struct{}, error) {
	s, err := n.resolveLogged(n.logger, target)
	if err != nil {
		return nil, err
	}
	return n.signals.Wait(s, kind), nil
}

// WaitSignal blocks until the next kind signal of target or until ctx is
// done.
func (n *Navigator) WaitSignal(ctx context.Context, target Target, kind types.SignalKind) error {
	s, err := n.resolveLogged(n.logger, target)
	if err != nil {
		return err
	}
	return n.WaitScreenSignal(ctx, s, kind)
}

// WaitScreenSignal implements screen.Navigator
func (n *Navigator) WaitScreenSignal(ctx context.Context, s *screen.Screen, kind types.SignalKind) error {
	return n.signals.WaitContext(ctx, s, kind)
}

// Current returns the top of the stack, or nil.
func (n *Navigator) Current() *screen.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.Peek()
}

// CurrentName returns the name of the current screen, or "".
func (n *Navigator) CurrentName() string {
	if cur := n.Current(); cur != nil {
		return cur.Name()
	}
	return ""
}

// Opened returns the opened screens, bottom first.
func (n *Navigator) Opened() []*screen.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.Items()
}

// Queued returns the queued screens, first in line first.
func (n *Navigator) Queued() []*screen.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue.Items()
}

// Screens returns every instance created so far.
func (n *Navigator) Screens() []*screen.Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]*screen.Screen, len(n.pool))
	copy(out, n.pool)
	return out
}

// Templates returns the templates the navigator was built with.
func (n *Navigator) Templates() []*screen.Template {
	out := make([]*screen.Template, len(n.templates))
	copy(out, n.templates)
	return out
}

// Busy reports whether an operation is in flight.
func (n *Navigator) Busy() bool {
	return n.flight.Busy()
}

// IsEmpty reports whether no screen is open.
func (n *Navigator) IsEmpty() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.stack.IsEmpty()
}

// Stats returns a snapshot of the operation counters.
func (n *Navigator) Stats() Stats {
	return n.stats.snapshot()
}

func (n *Navigator) enter(allowConcurrent bool) bool {
	if allowConcurrent {
		n.flight.Acquire()
		return true
	}
	return n.flight.TryAcquire()
}

func (n *Navigator) reject(log logger.Logger, op string, target Target) {
	n.stats.rejected.Inc()
	log.Debug("Operation rejected, another one is in flight",
		logger.WithField("operation", op),
		logger.WithField("target", target.String()))
}

// open runs the open sequence without touching the busy guard.
func (n *Navigator) open(ctx context.Context, log logger.Logger, s *screen.Screen, popup bool, opts OpenOptions) (*screen.Screen, error) {
	slog := log.WithScreen(s.Name())

	n.mu.Lock()
	if n.stack.Peek() == s {
		n.mu.Unlock()
		slog.Debug("Screen is already current")
		n.signals.Send(s, types.SignalOpen)
		return s, nil
	}
	if n.stack.Contains(s) {
		n.mu.Unlock()
		slog.Warn("Screen is already open below the current screen")
		return nil, fmt.Errorf("%w: %s", ErrAlreadyOpen, s.Name())
	}

	n.queue.Remove(s)
	s.SetPopup(popup)
	prev := n.stack.Peek()
	s.SetOrder(n.stack.Len())
	n.stack.Push(s)
	n.mu.Unlock()

	n.stats.opened.Inc()

	if prev != nil {
		ok := prev.Blur(ctx, nil)
		if err := n.settle(ctx, log, prev, types.PhaseBlur, ok); err != nil {
			return nil, err
		}
	}

	ok := s.Show(ctx, opts.Animation)
	if err := n.settle(ctx, log, s, types.PhaseShow, ok); err != nil {
		return nil, err
	}

	ok = s.Focus(ctx, nil)
	if err := n.settle(ctx, log, s, types.PhaseFocus, ok); err != nil {
		return nil, err
	}

	n.signals.Send(s, types.SignalOpen)
	slog.Success("Screen opened",
		logger.WithField("popup", popup),
		logger.WithField("depth", s.Order()))
	return s, nil
}

// close runs the close sequence without touching the busy guard.
func (n *Navigator) close(ctx context.Context, log logger.Logger, skipNext bool, opts CloseOptions) error {
	n.mu.Lock()
	popped := n.stack.Pop()
	n.mu.Unlock()

	if popped == nil {
		log.Debug("Nothing to close")
		return nil
	}
	n.stats.closed.Inc()

	ok := popped.Blur(ctx, nil)
	if err := n.settle(ctx, log, popped, types.PhaseBlur, ok); err != nil {
		return err
	}

	var next *screen.Screen
	if !skipNext && !popped.IsPopup() {
		n.mu.Lock()
		next = n.queue.Dequeue()
		n.mu.Unlock()
	}

	if next != nil {
		if popped.AllowOverlapOnHide() && next.AllowOverlapOnShow() {
			log.Debug("Overlapping hide with next open",
				logger.WithField("closing", popped.Name()),
				logger.WithField("next", next.Name()))

			g, _ := engine.NewSafeGroup(ctx, n.logger)
			g.Go(func() error {
				return n.hide(ctx, log, popped, opts.Animation)
			})
			g.Go(func() error {
				_, err := n.open(ctx, log, next, false, OpenOptions{})
				return err
			})
			return g.Wait()
		}

		if err := n.hide(ctx, log, popped, opts.Animation); err != nil {
			return err
		}
		_, err := n.open(ctx, log, next, false, OpenOptions{})
		return err
	}

	if err := n.hide(ctx, log, popped, opts.Animation); err != nil {
		return err
	}

	if !skipNext && !popped.IsPopup() {
		// A screen queued while the last screen was hiding opens now.
		n.mu.Lock()
		var late *screen.Screen
		if n.stack.IsEmpty() {
			late = n.queue.Dequeue()
		}
		n.mu.Unlock()

		if late != nil {
			_, err := n.open(ctx, log, late, false, OpenOptions{})
			return err
		}
	}

	if cur := n.Current(); cur != nil {
		ok := cur.Focus(ctx, nil)
		if err := n.settle(ctx, log, cur, types.PhaseFocus, ok); err != nil {
			return err
		}
	}
	return nil
}

func (n *Navigator) hide(ctx context.Context, log logger.Logger, s *screen.Screen, block *animation.Block) error {
	if n.opts.CloseSignalOnHideStart {
		n.signals.Send(s, types.SignalClose)
	}

	ok := s.Hide(ctx, block)
	if err := n.settle(ctx, log, s, types.PhaseHide, ok); err != nil {
		return err
	}

	if !n.opts.CloseSignalOnHideStart {
		n.signals.Send(s, types.SignalClose)
	}
	log.WithScreen(s.Name()).Info("Screen closed")
	return nil
}

// settle turns the outcome of one transition into an error. Cancellation
// is returned; a failed animation is only logged and counted.
func (n *Navigator) settle(ctx context.Context, log logger.Logger, s *screen.Screen, phase types.Phase, ok bool) error {
	if err := ctx.Err(); err != nil {
		n.stats.cancelled.Inc()
		log.WithScreen(s.Name()).Debug("Transition cancelled",
			logger.WithField("phase", string(phase)))
		return fmt.Errorf("%s %s: %w", phase, s.Name(), err)
	}
	if ok {
		return nil
	}

	n.stats.failed.Inc()
	log.WithScreen(s.Name()).Warn("Transition failed",
		logger.WithField("phase", string(phase)))
	if n.opts.OnTransitionFailed != nil {
		n.opts.OnTransitionFailed(s, phase)
	}
	return nil
}

func (n *Navigator) resolveLogged(log logger.Logger, target Target) (*screen.Screen, error) {
	s, err := n.resolve(target)
	if err != nil {
		log.Error("Failed to resolve screen",
			logger.WithField("target", target.String()),
			logger.WithError(err))
	}
	return s, err
}

// resolve finds the pooled instance for target or creates one from its
// template. The factory runs outside the lock; when two callers race, the
// first instance to enter the pool wins.
func (n *Navigator) resolve(target Target) (*screen.Screen, error) {
	if target.IsZero() {
		return nil, ErrInvalidTarget
	}

	n.mu.Lock()
	if s := n.lookup(target); s != nil {
		n.mu.Unlock()
		return s, nil
	}
	n.mu.Unlock()

	var created *screen.Screen
	if tpl := n.template(target); tpl != nil {
		s, err := n.factory.Create(tpl, n.container)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrScreenNotFound, target, err)
		}
		created = s
	} else if target.screen != nil {
		created = target.screen
	} else {
		return nil, fmt.Errorf("%w: %s", ErrScreenNotFound, target)
	}

	n.mu.Lock()
	if s := n.lookup(target); s != nil {
		n.mu.Unlock()
		return s, nil
	}
	n.pool = append(n.pool, created)
	n.mu.Unlock()

	created.Initialize(n)
	n.logger.WithScreen(created.Name()).Debug("Screen created",
		logger.WithField("tag", created.Tag()),
		logger.WithField("id", created.ID()))
	return created, nil
}

// lookup searches the pool. Callers hold n.mu.
func (n *Navigator) lookup(target Target) *screen.Screen {
	for _, s := range n.pool {
		switch {
		case target.screen != nil:
			if s == target.screen || s.Tag() == target.screen.Tag() {
				return s
			}
		case target.tag != "":
			if s.Tag() == target.tag {
				return s
			}
		case target.name != "":
			if s.Name() == target.name {
				return s
			}
		}
	}
	return nil
}

func (n *Navigator) template(target Target) *screen.Template {
	switch {
	case target.screen != nil:
		return n.byTag[target.screen.Tag()]
	case target.tag != "":
		return n.byTag[target.tag]
	default:
		for _, tpl := range n.templates {
			if tpl.DisplayName() == target.name {
				return tpl
			}
		}
		return nil
	}
}

// IsNotFound reports whether err is a resolution failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScreenNotFound)
}
