package navigator

import "errors"

var (
	// ErrScreenNotFound is returned when a target matches no pooled
	// instance and no template.
	ErrScreenNotFound = errors.New("screen not found")
	// ErrAlreadyOpen is returned when opening a screen that is already in
	// the stack below the current screen.
	ErrAlreadyOpen = errors.New("screen is already open")
	// ErrInvalidTarget is returned for a zero Target.
	ErrInvalidTarget = errors.New("invalid navigation target")
	// ErrDuplicateTemplate is returned by New when two templates share a tag.
	ErrDuplicateTemplate = errors.New("duplicate screen template")
)
