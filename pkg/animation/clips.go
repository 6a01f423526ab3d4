package animation

import (
	"context"
	"sync"
	"time"
)

// Tween is a timed clip that advances its progress in equal steps and
// reports it to the bound visual when the visual is a ProgressSink.
type Tween struct {
	id       string
	duration time.Duration
	steps    int

	mu       sync.Mutex
	visual   Visual
	progress float64
}

// NewTween creates a tween. steps <= 0 defaults to 10.
func NewTween(id string, duration time.Duration, steps int) *Tween {
	if steps <= 0 {
		steps = 10
	}
	return &Tween{id: id, duration: duration, steps: steps}
}

// NewInstant creates a clip that jumps straight to its last frame.
func NewInstant(id string) *Tween {
	return NewTween(id, 0, 1)
}

// ID implements Animation
func (t *Tween) ID() string { return t.id }

// Bind implements Animation
func (t *Tween) Bind(v Visual) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.visual = v
}

// Progress returns the normalized progress in [0, 1].
func (t *Tween) Progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

// Run implements Animation
func (t *Tween) Run(ctx context.Context) bool {
	t.RewindToFirstFrame()

	if t.duration <= 0 {
		if ctx.Err() != nil {
			return false
		}
		t.RewindToLastFrame()
		return true
	}

	interval := t.duration / time.Duration(t.steps)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for step := 1; step <= t.steps; step++ {
		select {
		case <-ctx.Done():
			return false
		case <-timer.C:
		}
		t.setProgress(float64(step) / float64(t.steps))
		timer.Reset(interval)
	}
	return true
}

// RewindToFirstFrame implements Animation
func (t *Tween) RewindToFirstFrame() { t.setProgress(0) }

// RewindToLastFrame implements Animation
func (t *Tween) RewindToLastFrame() { t.setProgress(1) }

func (t *Tween) setProgress(p float64) {
	t.mu.Lock()
	t.progress = p
	v := t.visual
	t.mu.Unlock()

	if sink, ok := v.(ProgressSink); ok {
		sink.SetProgress(t.id, p)
	}
}

// Func adapts a plain function into an Animation; handy for one-off custom
// animations passed through Block.Extra.
type Func struct {
	id string
	fn func(ctx context.Context, v Visual) bool

	mu     sync.Mutex
	visual Visual
}

// NewFunc creates a function-backed animation.
func NewFunc(id string, fn func(ctx context.Context, v Visual) bool) *Func {
	return &Func{id: id, fn: fn}
}

// NewFailing creates an animation that always reports failure.
func NewFailing(id string) *Func {
	return NewFunc(id, func(context.Context, Visual) bool { return false })
}

// ID implements Animation
func (f *Func) ID() string { return f.id }

// Bind implements Animation
func (f *Func) Bind(v Visual) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visual = v
}

// Run implements Animation
func (f *Func) Run(ctx context.Context) bool {
	f.mu.Lock()
	v := f.visual
	f.mu.Unlock()
	return f.fn(ctx, v)
}

// RewindToFirstFrame implements Animation
func (f *Func) RewindToFirstFrame() {}

// RewindToLastFrame implements Animation
func (f *Func) RewindToLastFrame() {}
