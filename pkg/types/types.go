// Package types provides the shared enums and configuration types of screennav
package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SignalKind identifies the navigator signal a caller can wait for.
type SignalKind string

const (
	// SignalOpen fires once a screen finished show and focus after an open.
	SignalOpen SignalKind = "open"
	// SignalClose fires once a screen's hide finished after a close.
	SignalClose SignalKind = "close"
)

// ParseSignalKind converts a config or CLI string into a SignalKind.
func ParseSignalKind(s string) (SignalKind, error) {
	switch SignalKind(strings.ToLower(strings.TrimSpace(s))) {
	case SignalOpen, "":
		return SignalOpen, nil
	case SignalClose:
		return SignalClose, nil
	default:
		return "", fmt.Errorf("unknown signal kind: %q", s)
	}
}

// Phase names one of the four transitions a screen owns a turntable for.
type Phase string

const (
	PhaseShow  Phase = "show"
	PhaseHide  Phase = "hide"
	PhaseFocus Phase = "focus"
	PhaseBlur  Phase = "blur"
)

// ProcessorKind selects a show processor strategy in configuration.
type ProcessorKind string

const (
	ProcessorParallel   ProcessorKind = "parallel"
	ProcessorSequential ProcessorKind = "sequential"
)

// AnimationKind selects an animation implementation in configuration.
type AnimationKind string

const (
	AnimationTween   AnimationKind = "tween"
	AnimationInstant AnimationKind = "instant"
	AnimationFail    AnimationKind = "fail"
)

// Duration wraps time.Duration so configs can say "250ms".
type Duration struct {
	time.Duration
}

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts either a duration string or a number of milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return d.set(raw)
}

// UnmarshalText lets TOML and YAML decoders hand us plain strings.
func (d *Duration) UnmarshalText(text []byte) error {
	return d.set(string(text))
}

func (d *Duration) set(raw interface{}) error {
	switch v := raw.(type) {
	case float64:
		d.Duration = time.Duration(v) * time.Millisecond
	case int64:
		d.Duration = time.Duration(v) * time.Millisecond
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration value: %v", raw)
	}
	return nil
}

// AnimationConfig describes one animation unit of a turntable.
type AnimationConfig struct {
	ID       string        `json:"id" yaml:"id" toml:"id"`
	Kind     AnimationKind `json:"kind" yaml:"kind" toml:"kind"`
	Duration Duration      `json:"duration,omitempty" yaml:"duration,omitempty" toml:"duration,omitempty"`
	Steps    int           `json:"steps,omitempty" yaml:"steps,omitempty" toml:"steps,omitempty"`
}

// TurntableConfig describes the animations of one transition phase.
type TurntableConfig struct {
	Processor    ProcessorKind     `json:"processor,omitempty" yaml:"processor,omitempty" toml:"processor,omitempty"`
	AllowOverlap bool              `json:"allowOverlap,omitempty" yaml:"allowOverlap,omitempty" toml:"allowOverlap,omitempty"`
	Animations   []AnimationConfig `json:"animations,omitempty" yaml:"animations,omitempty" toml:"animations,omitempty"`
}

// ScreenConfig describes one screen template.
type ScreenConfig struct {
	Tag        string          `json:"tag" yaml:"tag" toml:"tag"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	NeedToOpen *bool           `json:"needToOpen,omitempty" yaml:"needToOpen,omitempty" toml:"needToOpen,omitempty"`
	Show       TurntableConfig `json:"show,omitempty" yaml:"show,omitempty" toml:"show,omitempty"`
	Hide       TurntableConfig `json:"hide,omitempty" yaml:"hide,omitempty" toml:"hide,omitempty"`
	Focus      TurntableConfig `json:"focus,omitempty" yaml:"focus,omitempty" toml:"focus,omitempty"`
	Blur       TurntableConfig `json:"blur,omitempty" yaml:"blur,omitempty" toml:"blur,omitempty"`
}

// DisplayName returns Name, falling back to Tag.
func (c ScreenConfig) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Tag
}

// Turntable returns the config of the given phase.
func (c ScreenConfig) Turntable(phase Phase) TurntableConfig {
	switch phase {
	case PhaseShow:
		return c.Show
	case PhaseHide:
		return c.Hide
	case PhaseFocus:
		return c.Focus
	default:
		return c.Blur
	}
}

// NavigatorSettings tunes navigator behavior.
type NavigatorSettings struct {
	// CloseSignalOnHideStart sends the close signal when hide begins
	// instead of when it completes.
	CloseSignalOnHideStart bool `json:"closeSignalOnHideStart,omitempty" yaml:"closeSignalOnHideStart,omitempty" toml:"closeSignalOnHideStart,omitempty"`
	// Preload instantiates every template at startup.
	Preload *bool `json:"preload,omitempty" yaml:"preload,omitempty" toml:"preload,omitempty"`
}

// NavigatorConfig is the root configuration file.
type NavigatorConfig struct {
	Version   string            `json:"version" yaml:"version" toml:"version"`
	LogLevel  string            `json:"logLevel,omitempty" yaml:"logLevel,omitempty" toml:"logLevel,omitempty"`
	Navigator NavigatorSettings `json:"navigator,omitempty" yaml:"navigator,omitempty" toml:"navigator,omitempty"`
	Screens   []ScreenConfig    `json:"screens" yaml:"screens" toml:"screens"`
}

// StepOp names a scenario script operation.
type StepOp string

const (
	StepOpen         StepOp = "open"
	StepOpenIfNeeded StepOp = "open_if_needed"
	StepClose        StepOp = "close"
	StepReplace      StepOp = "replace"
	StepEnqueue      StepOp = "enqueue"
	StepWait         StepOp = "wait"
	StepSleep        StepOp = "sleep"
)

// Step is one scenario instruction.
type Step struct {
	Op       StepOp   `json:"op" yaml:"op" toml:"op"`
	Screen   string   `json:"screen,omitempty" yaml:"screen,omitempty" toml:"screen,omitempty"`
	Popup    bool     `json:"popup,omitempty" yaml:"popup,omitempty" toml:"popup,omitempty"`
	SkipNext bool     `json:"skipNext,omitempty" yaml:"skipNext,omitempty" toml:"skipNext,omitempty"`
	Signal   string   `json:"signal,omitempty" yaml:"signal,omitempty" toml:"signal,omitempty"`
	Async    bool     `json:"async,omitempty" yaml:"async,omitempty" toml:"async,omitempty"`
	Duration Duration `json:"duration,omitempty" yaml:"duration,omitempty" toml:"duration,omitempty"`
	// Animations restricts the played units to these ids.
	Animations []string      `json:"animations,omitempty" yaml:"animations,omitempty" toml:"animations,omitempty"`
	Processor  ProcessorKind `json:"processor,omitempty" yaml:"processor,omitempty" toml:"processor,omitempty"`
}

// Script is an ordered scenario run by the engine.
type Script struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Steps []Step `json:"steps" yaml:"steps" toml:"steps"`
}
