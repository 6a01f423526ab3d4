// Package screen implements the navigable unit: a visual with four
// transition turntables, a popup flag, a lifecycle state and typed hooks
// for the sub-components that live on it.
package screen

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pragma/screennav/pkg/animation"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/types"
)

// State is the lifecycle state of a screen.
type State int

const (
	StateHidden State = iota
	StateShowing
	StateShown
	StateHiding
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateShowing:
		return "showing"
	case StateShown:
		return "shown"
	case StateHiding:
		return "hiding"
	default:
		return "unknown"
	}
}

// Navigator is the part of the owning navigator a screen talks back to.
type Navigator interface {
	WaitScreenSignal(ctx context.Context, s *Screen, kind types.SignalKind) error
}

// Turntables groups the four transition turntables of a screen. A nil
// turntable plays nothing.
type Turntables struct {
	Show  *animation.Turntable
	Hide  *animation.Turntable
	Focus *animation.Turntable
	Blur  *animation.Turntable
}

// Screen is a single navigable screen instance. Identity is the pointer.
type Screen struct {
	id     string
	tag    string
	name   string
	visual animation.Visual
	tables map[types.Phase]*animation.Turntable
	log    logger.Logger

	mu       sync.RWMutex
	handlers []interface{}
	nav      Navigator
	state    State
	focused  bool
	popup    bool
	order    int
	shown    chan struct{}
	hidden   chan struct{}
}

// New creates a hidden screen and binds every turntable to visual. A nil
// visual gets a detached headless Node.
func New(tag, name string, visual animation.Visual, tables Turntables, log logger.Logger) *Screen {
	if name == "" {
		name = tag
	}
	if visual == nil {
		visual = NewNode(name)
	}
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Screen{
		id:     uuid.New().String(),
		tag:    tag,
		name:   name,
		visual: visual,
		log:    log.WithScreen(name),
		tables: map[types.Phase]*animation.Turntable{
			types.PhaseShow:  orEmpty(tables.Show),
			types.PhaseHide:  orEmpty(tables.Hide),
			types.PhaseFocus: orEmpty(tables.Focus),
			types.PhaseBlur:  orEmpty(tables.Blur),
		},
		shown:  make(chan struct{}),
		hidden: make(chan struct{}),
	}
	close(s.hidden)

	for _, t := range s.tables {
		t.Bind(visual)
	}
	visual.SetActive(false)

	return s
}

func orEmpty(t *animation.Turntable) *animation.Turntable {
	if t != nil {
		return t
	}
	empty, _ := animation.NewTurntable(nil, false)
	return empty
}

// ID returns the unique instance id
func (s *Screen) ID() string { return s.id }

// Tag returns the stable type tag shared by every instance of a template
func (s *Screen) Tag() string { return s.tag }

// Name returns the display name
func (s *Screen) Name() string { return s.name }

// Visual returns the visual the screen animates
func (s *Screen) Visual() animation.Visual { return s.visual }

// Turntable returns the turntable of a transition phase
func (s *Screen) Turntable(phase types.Phase) *animation.Turntable {
	return s.tables[phase]
}

// AllowOverlapOnShow reports whether the show transition may overlap the
// hide transition of the previous screen.
func (s *Screen) AllowOverlapOnShow() bool {
	return s.tables[types.PhaseShow].AllowOverlap()
}

// AllowOverlapOnHide reports whether the hide transition may overlap the
// show transition of the next screen.
func (s *Screen) AllowOverlapOnHide() bool {
	return s.tables[types.PhaseHide].AllowOverlap()
}

// AddHandler attaches a sub-component. It is called for every hook
// interface it implements, in attach order.
func (s *Screen) AddHandler(h interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Initialize stores the owning navigator and initializes handlers.
func (s *Screen) Initialize(nav Navigator) {
	s.mu.Lock()
	s.nav = nav
	s.mu.Unlock()

	for _, h := range s.snapshot() {
		if i, ok := h.(Initializer); ok {
			i.Initialize(s)
		}
	}
}

// Initialized reports whether Initialize was called
func (s *Screen) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav != nil
}

// WaitSignal blocks until the owning navigator sends kind for this screen.
func (s *Screen) WaitSignal(ctx context.Context, kind types.SignalKind) error {
	s.mu.RLock()
	nav := s.nav
	s.mu.RUnlock()

	if nav == nil {
		return ErrNotInitialized
	}
	return nav.WaitScreenSignal(ctx, s, kind)
}

// NeedToOpen reports whether the screen agrees to be opened. Any OpenGate
// handler returning false vetoes.
func (s *Screen) NeedToOpen() bool {
	for _, h := range s.snapshot() {
		if g, ok := h.(OpenGate); ok && !g.NeedToOpen() {
			return false
		}
	}
	return true
}

// IsPopup reports whether the screen was opened as a popup
func (s *Screen) IsPopup() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.popup
}

// SetPopup sets the popup flag
func (s *Screen) SetPopup(popup bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.popup = popup
}

// Order returns the sibling index last assigned by the navigator
func (s *Screen) Order() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order
}

// SetOrder moves the visual to the given sibling index
func (s *Screen) SetOrder(index int) {
	s.mu.Lock()
	s.order = index
	s.mu.Unlock()

	s.visual.SetSiblingIndex(index)
}

// State returns the lifecycle state
func (s *Screen) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Focused reports whether the screen has input priority
func (s *Screen) Focused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.focused
}

// WaitShown blocks until the screen has started showing.
func (s *Screen) WaitShown(ctx context.Context) error {
	s.mu.RLock()
	ch := s.shown
	s.mu.RUnlock()
	return wait(ctx, ch)
}

// WaitHidden blocks until the screen has finished hiding. A screen that
// was never shown counts as hidden.
func (s *Screen) WaitHidden(ctx context.Context) error {
	s.mu.RLock()
	ch := s.hidden
	s.mu.RUnlock()
	return wait(ctx, ch)
}

func wait(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Show activates the visual and plays the show turntable between the
// show hooks. It returns the turntable result; when ctx is cancelled the
// completion hooks are skipped and the screen stays in StateShowing.
func (s *Screen) Show(ctx context.Context, block *animation.Block) bool {
	s.mu.Lock()
	s.state = StateShowing
	closeOnce(s.shown)
	s.hidden = make(chan struct{})
	s.mu.Unlock()

	s.visual.SetActive(true)

	for _, h := range s.snapshot() {
		if sh, ok := h.(ShowHandler); ok {
			sh.OnShow(ctx)
		}
	}

	ok := s.tables[types.PhaseShow].Play(ctx, block)
	if ctx.Err() != nil {
		return false
	}

	for _, h := range s.snapshot() {
		if sh, ok := h.(ShowCompletedHandler); ok {
			sh.OnShowCompleted(ctx)
		}
	}

	s.setState(StateShown)
	s.log.Debug("Screen shown", logger.WithField("ok", ok))
	return ok
}

// Hide plays the hide turntable between the hide hooks and deactivates
// the visual. When ctx is cancelled the screen stays in StateHiding with
// its visual active.
func (s *Screen) Hide(ctx context.Context, block *animation.Block) bool {
	s.setState(StateHiding)

	for _, h := range s.snapshot() {
		if hh, ok := h.(HideHandler); ok {
			hh.OnHide(ctx)
		}
	}

	ok := s.tables[types.PhaseHide].Play(ctx, block)
	if ctx.Err() != nil {
		return false
	}

	for _, h := range s.snapshot() {
		if hh, ok := h.(HideCompletedHandler); ok {
			hh.OnHideCompleted(ctx)
		}
	}

	s.visual.SetActive(false)

	s.mu.Lock()
	s.state = StateHidden
	s.focused = false
	s.popup = false
	closeOnce(s.hidden)
	s.shown = make(chan struct{})
	s.mu.Unlock()

	s.log.Debug("Screen hidden", logger.WithField("ok", ok))
	return ok
}

// Focus gives the screen input priority and plays the focus turntable.
func (s *Screen) Focus(ctx context.Context, block *animation.Block) bool {
	s.mu.Lock()
	s.focused = true
	s.mu.Unlock()

	for _, h := range s.snapshot() {
		if fh, ok := h.(FocusHandler); ok {
			fh.OnFocus(ctx)
		}
	}

	return s.tables[types.PhaseFocus].Play(ctx, block)
}

// Blur takes input priority away and plays the blur turntable.
func (s *Screen) Blur(ctx context.Context, block *animation.Block) bool {
	s.mu.Lock()
	s.focused = false
	s.mu.Unlock()

	for _, h := range s.snapshot() {
		if bh, ok := h.(BlurHandler); ok {
			bh.OnBlur(ctx)
		}
	}

	return s.tables[types.PhaseBlur].Play(ctx, block)
}

func (s *Screen) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Screen) snapshot() []interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]interface{}, len(s.handlers))
	copy(out, s.handlers)
	return out
}

// closeOnce closes ch unless it is already closed. Callers hold s.mu.
func closeOnce(ch chan struct{}) {
	select {
	case <-ch:
	default:
		close(ch)
	}
}
