package navigator

import (
	"github.com/pragma/screennav/pkg/animation"
	"github.com/pragma/screennav/pkg/screen"
)

// Target identifies the screen an operation acts on.
type Target struct {
	screen *screen.Screen
	tag    string
	name   string
}

// ByScreen targets an instance. A foreign instance resolves to the pooled
// instance with the same tag when there is one.
func ByScreen(s *screen.Screen) Target { return Target{screen: s} }

// ByTag targets the instance of a template tag.
func ByTag(tag string) Target { return Target{tag: tag} }

// ByName targets the instance whose display name matches.
func ByName(name string) Target { return Target{name: name} }

// IsZero reports whether the target names nothing
func (t Target) IsZero() bool {
	return t.screen == nil && t.tag == "" && t.name == ""
}

func (t Target) String() string {
	switch {
	case t.screen != nil:
		return "screen:" + t.screen.Name()
	case t.tag != "":
		return "tag:" + t.tag
	case t.name != "":
		return "name:" + t.name
	default:
		return "<none>"
	}
}

// OpenOptions tunes Open.
type OpenOptions struct {
	// Popup marks the screen as a popup. Closing a popup never pulls the
	// next queued screen.
	Popup bool
	// Animation overrides the show transition.
	Animation *animation.Block
	// AllowConcurrent lets Open proceed while another operation is in
	// flight.
	AllowConcurrent bool
}

// CloseOptions tunes Close.
type CloseOptions struct {
	// SkipNext keeps the next queued screen in the queue.
	SkipNext bool
	// Animation overrides the hide transition.
	Animation *animation.Block
}

// ReplaceOptions tunes Replace.
type ReplaceOptions struct {
	Popup          bool
	CloseAnimation *animation.Block
	OpenAnimation  *animation.Block
}
