// Package mocks provides test doubles for animations, screen handlers and
// factories. They record what happened into a shared Recorder so tests can
// assert on ordering across screens.
package mocks

import (
	"context"
	"errors"
	"sync"

	"github.com/pragma/screennav/pkg/animation"
	"github.com/pragma/screennav/pkg/screen"
)

// Recorder is an ordered, concurrency-safe event log.
type Recorder struct {
	mu     sync.Mutex
	events []string
}

// NewRecorder creates an empty recorder
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends an event
func (r *Recorder) Record(event string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of all recorded events
func (r *Recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many times event was recorded
func (r *Recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

// Index returns the position of the first occurrence of event, or -1.
func (r *Recorder) Index(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e == event {
			return i
		}
	}
	return -1
}

// Reset drops every recorded event
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// MockAnimation records "<id>:start" and "<id>:end" around each run and
// returns a fixed result. With a gate it blocks until Release is called or
// the context is cancelled.
type MockAnimation struct {
	id     string
	result bool
	rec    *Recorder

	mu          sync.Mutex
	gate        chan struct{}
	started     chan struct{}
	startOnce   sync.Once
	releaseOnce sync.Once
	visual      animation.Visual
	runs        int
	rewindFirst int
	rewindLast  int
}

// NewMockAnimation creates a mock animation
func NewMockAnimation(id string, result bool, rec *Recorder) *MockAnimation {
	return &MockAnimation{
		id:      id,
		result:  result,
		rec:     rec,
		started: make(chan struct{}),
	}
}

// NewGatedAnimation creates a mock animation that blocks until released.
func NewGatedAnimation(id string, result bool, rec *Recorder) *MockAnimation {
	m := NewMockAnimation(id, result, rec)
	m.gate = make(chan struct{})
	return m
}

// Builder returns an animation.Builder that always hands out m.
func (m *MockAnimation) Builder() animation.Builder {
	return func() animation.Animation { return m }
}

// ID implements animation.Animation
func (m *MockAnimation) ID() string { return m.id }

// Bind implements animation.Animation
func (m *MockAnimation) Bind(v animation.Visual) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visual = v
}

// Visual returns the bound visual
func (m *MockAnimation) Visual() animation.Visual {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visual
}

// Run implements animation.Animation
func (m *MockAnimation) Run(ctx context.Context) bool {
	m.mu.Lock()
	m.runs++
	gate := m.gate
	m.mu.Unlock()

	m.rec.Record(m.id + ":start")
	m.startOnce.Do(func() { close(m.started) })

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			m.rec.Record(m.id + ":cancelled")
			return false
		}
	}

	m.rec.Record(m.id + ":end")
	return m.result
}

// RewindToFirstFrame implements animation.Animation
func (m *MockAnimation) RewindToFirstFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewindFirst++
}

// RewindToLastFrame implements animation.Animation
func (m *MockAnimation) RewindToLastFrame() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rewindLast++
}

// Started is closed when the first run begins
func (m *MockAnimation) Started() <-chan struct{} {
	return m.started
}

// Release opens the gate; safe to call more than once
func (m *MockAnimation) Release() {
	if m.gate == nil {
		return
	}
	m.releaseOnce.Do(func() { close(m.gate) })
}

// Runs returns how many times Run was called
func (m *MockAnimation) Runs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs
}

// Rewinds returns how many first/last frame rewinds were requested
func (m *MockAnimation) Rewinds() (first, last int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rewindFirst, m.rewindLast
}

// RecordingHandler implements every screen hook and records
// "<name>:<hook>" for each call.
type RecordingHandler struct {
	Name string
	Rec  *Recorder

	mu          sync.Mutex
	initialized *screen.Screen
}

// NewRecordingHandler creates a handler recording into rec
func NewRecordingHandler(name string, rec *Recorder) *RecordingHandler {
	return &RecordingHandler{Name: name, Rec: rec}
}

func (h *RecordingHandler) Initialize(s *screen.Screen) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.initialized = s
}

// InitializedWith returns the screen passed to Initialize
func (h *RecordingHandler) InitializedWith() *screen.Screen {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.initialized
}

func (h *RecordingHandler) OnShow(ctx context.Context)          { h.Rec.Record(h.Name + ":show") }
func (h *RecordingHandler) OnShowCompleted(ctx context.Context) { h.Rec.Record(h.Name + ":shown") }
func (h *RecordingHandler) OnHide(ctx context.Context)          { h.Rec.Record(h.Name + ":hide") }
func (h *RecordingHandler) OnHideCompleted(ctx context.Context) { h.Rec.Record(h.Name + ":hidden") }
func (h *RecordingHandler) OnFocus(ctx context.Context)         { h.Rec.Record(h.Name + ":focus") }
func (h *RecordingHandler) OnBlur(ctx context.Context)          { h.Rec.Record(h.Name + ":blur") }

// StaticGate vetoes or allows opening
type StaticGate struct {
	Need bool
}

// NeedToOpen implements screen.OpenGate
func (g StaticGate) NeedToOpen() bool { return g.Need }

// ErrFactoryFailed is returned by FailingFactory
var ErrFactoryFailed = errors.New("mock factory failure")

// FailingFactory never manages to create a screen
type FailingFactory struct{}

// Create implements screen.Factory
func (FailingFactory) Create(tpl *screen.Template, parent screen.Container) (*screen.Screen, error) {
	return nil, ErrFactoryFailed
}

// CountingFactory wraps another factory and counts creations per tag
type CountingFactory struct {
	Inner screen.Factory

	mu     sync.Mutex
	counts map[string]int
}

// Create implements screen.Factory
func (f *CountingFactory) Create(tpl *screen.Template, parent screen.Container) (*screen.Screen, error) {
	f.mu.Lock()
	if f.counts == nil {
		f.counts = make(map[string]int)
	}
	f.counts[tpl.Tag]++
	f.mu.Unlock()

	inner := f.Inner
	if inner == nil {
		inner = screen.DefaultFactory{}
	}
	return inner.Create(tpl, parent)
}

// Created returns how many screens of tag were created
func (f *CountingFactory) Created(tag string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[tag]
}
