package screen

import "errors"

var (
	// ErrNotInitialized is returned by operations that need the owning
	// navigator before Initialize was called.
	ErrNotInitialized = errors.New("screen is not initialized")
	// ErrNilTemplate is returned when a factory is asked to build nothing.
	ErrNilTemplate = errors.New("nil screen template")
	// ErrEmptyTag is returned for templates without a tag.
	ErrEmptyTag = errors.New("screen template has no tag")
)
