// Package signal implements one-shot completion handles keyed by screen
// and signal kind.
//
// A handle is created lazily by the first waiter and shared by every
// waiter of the same key until a matching Send resolves and removes it.
// Waiting after a signal was sent registers a fresh handle that waits for
// the next send. Sending with no waiter is a no-op.
package signal

import (
	"context"
	"sync"

	"github.com/pragma/screennav/pkg/types"
)

type key struct {
	owner interface{}
	kind  types.SignalKind
}

// Registry maps (owner, kind) to a pending handle. Owners are compared by
// identity, so pass pointers.
type Registry struct {
	mu      sync.Mutex
	pending map[key]chan struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{pending: make(map[key]chan struct{})}
}

// Wait returns the pending handle for (owner, kind), creating it if
// needed. The channel is closed by the next matching Send.
func (r *Registry) Wait(owner interface{}, kind types.SignalKind) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{owner: owner, kind: kind}
	ch, ok := r.pending[k]
	if !ok {
		ch = make(chan struct{})
		r.pending[k] = ch
	}
	return ch
}

// WaitContext blocks until the next matching Send or until ctx is done.
// An abandoned handle stays registered for other waiters.
func (r *Registry) WaitContext(ctx context.Context, owner interface{}, kind types.SignalKind) error {
	ch := r.Wait(owner, kind)
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send resolves and removes the pending handle for (owner, kind). It
// reports whether a handle was resolved.
func (r *Registry) Send(owner interface{}, kind types.SignalKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key{owner: owner, kind: kind}
	ch, ok := r.pending[k]
	if !ok {
		return false
	}
	delete(r.pending, k)
	close(ch)
	return true
}

// Pending returns the number of unresolved handles
func (r *Registry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
