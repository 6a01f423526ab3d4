package navigator

import "github.com/pragma/screennav/pkg/screen"

// Stack is the LIFO of opened screens. The top entry is the current
// screen. Stack is not safe for concurrent use; the navigator guards it.
type Stack struct {
	entries []*screen.Screen
}

// NewStack creates a new empty stack.
func NewStack() *Stack {
	return &Stack{
		entries: make([]*screen.Screen, 0),
	}
}

// Push adds a screen on top.
func (s *Stack) Push(sc *screen.Screen) {
	s.entries = append(s.entries, sc)
}

// Pop removes and returns the top screen.
// Returns nil if the stack is empty.
func (s *Stack) Pop() *screen.Screen {
	if len(s.entries) == 0 {
		return nil
	}
	top := s.entries[len(s.entries)-1]
	s.entries[len(s.entries)-1] = nil
	s.entries = s.entries[:len(s.entries)-1]
	return top
}

// Peek returns the top screen without removing it.
// Returns nil if the stack is empty.
func (s *Stack) Peek() *screen.Screen {
	if len(s.entries) == 0 {
		return nil
	}
	return s.entries[len(s.entries)-1]
}

// Contains reports whether sc is anywhere in the stack.
func (s *Stack) Contains(sc *screen.Screen) bool {
	for _, e := range s.entries {
		if e == sc {
			return true
		}
	}
	return false
}

// Len returns the number of screens in the stack.
func (s *Stack) Len() int {
	return len(s.entries)
}

// IsEmpty returns true if the stack has no screens.
func (s *Stack) IsEmpty() bool {
	return len(s.entries) == 0
}

// Items returns a copy of the stack, bottom first.
func (s *Stack) Items() []*screen.Screen {
	out := make([]*screen.Screen, len(s.entries))
	copy(out, s.entries)
	return out
}

// Queue is the FIFO of screens waiting for the current screen to close.
type Queue struct {
	entries []*screen.Screen
}

// NewQueue creates a new empty queue.
func NewQueue() *Queue {
	return &Queue{
		entries: make([]*screen.Screen, 0),
	}
}

// Enqueue appends a screen.
func (q *Queue) Enqueue(sc *screen.Screen) {
	q.entries = append(q.entries, sc)
}

// Dequeue removes and returns the first screen.
// Returns nil if the queue is empty.
func (q *Queue) Dequeue() *screen.Screen {
	if len(q.entries) == 0 {
		return nil
	}
	first := q.entries[0]
	q.entries[0] = nil
	q.entries = q.entries[1:]
	return first
}

// Remove drops sc from the queue and reports whether it was queued.
func (q *Queue) Remove(sc *screen.Screen) bool {
	for i, e := range q.entries {
		if e == sc {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether sc is queued.
func (q *Queue) Contains(sc *screen.Screen) bool {
	for _, e := range q.entries {
		if e == sc {
			return true
		}
	}
	return false
}

// Len returns the number of queued screens.
func (q *Queue) Len() int {
	return len(q.entries)
}

// Items returns a copy of the queue, first in line first.
func (q *Queue) Items() []*screen.Screen {
	out := make([]*screen.Screen, len(q.entries))
	copy(out, q.entries)
	return out
}
