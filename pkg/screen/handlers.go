package screen

import "context"

// ShowHandler is called before the show animation starts.
type ShowHandler interface {
	OnShow(ctx context.Context)
}

// ShowCompletedHandler is called after the show animation finished.
type ShowCompletedHandler interface {
	OnShowCompleted(ctx context.Context)
}

// HideHandler is called before the hide animation starts.
type HideHandler interface {
	OnHide(ctx context.Context)
}

// HideCompletedHandler is called after the hide animation finished and
// before the visual is deactivated.
type HideCompletedHandler interface {
	OnHideCompleted(ctx context.Context)
}

// FocusHandler is called when the screen gains input priority.
type FocusHandler interface {
	OnFocus(ctx context.Context)
}

// BlurHandler is called when the screen loses input priority.
type BlurHandler interface {
	OnBlur(ctx context.Context)
}

// OpenGate lets a sub-component veto opening its screen.
type OpenGate interface {
	NeedToOpen() bool
}

// Initializer is called once when the screen is initialized by its
// navigator.
type Initializer interface {
	Initialize(s *Screen)
}
