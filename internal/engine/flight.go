package engine

import "go.uber.org/atomic"

// Flight counts operations in flight. It is not a lock: TryAcquire fails
// while anything is in flight and the caller is expected to drop the
// request, while Acquire always succeeds for callers that opted into
// concurrent operations.
//
// The zero value is ready to use.
type Flight struct {
	n atomic.Int32
}

// TryAcquire enters the flight only when nothing else is in it.
func (f *Flight) TryAcquire() bool {
	return f.n.CompareAndSwap(0, 1)
}

// Acquire enters the flight unconditionally.
func (f *Flight) Acquire() {
	f.n.Inc()
}

// Release leaves the flight.
func (f *Flight) Release() {
	if f.n.Dec() < 0 {
		f.n.Store(0)
	}
}

// Busy reports whether any operation is in flight.
func (f *Flight) Busy() bool {
	return f.n.Load() > 0
}

// InFlight returns the number of operations in flight.
func (f *Flight) InFlight() int {
	return int(f.n.Load())
}
