// Package config handles navigator configuration and scenario scripts
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pragma/screennav/pkg/types"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the only config version understood.
const CurrentVersion = "1.0"

// ErrUnsupportedFormat is returned when a file parses as none of the
// supported formats.
var ErrUnsupportedFormat = errors.New("failed to parse as JSON, YAML or TOML")

// Manager handles configuration operations
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// LoadConfig loads and validates a navigator configuration file
func (m *Manager) LoadConfig(path string) (*types.NavigatorConfig, error) {
	var cfg types.NavigatorConfig
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := m.ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadScript loads a scenario script file
func (m *Manager) LoadScript(path string) (*types.Script, error) {
	var script types.Script
	if err := decodeFile(path, &script); err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &script, nil
}

// ValidateConfig validates a configuration
func (m *Manager) ValidateConfig(config *types.NavigatorConfig) error {
	if config.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %s", config.Version)
	}

	if len(config.Screens) == 0 {
		return fmt.Errorf("no screens defined")
	}

	tags := make(map[string]bool)
	names := make(map[string]bool)
	for i, sc := range config.Screens {
		if sc.Tag == "" {
			return fmt.Errorf("screen %d: missing tag", i)
		}
		if tags[sc.Tag] {
			return fmt.Errorf("duplicate screen tag: %s", sc.Tag)
		}
		tags[sc.Tag] = true

		if names[sc.DisplayName()] {
			return fmt.Errorf("duplicate screen name: %s", sc.DisplayName())
		}
		names[sc.DisplayName()] = true

		for _, phase := range []types.Phase{types.PhaseShow, types.PhaseHide, types.PhaseFocus, types.PhaseBlur} {
			if err := validateTurntable(sc.Turntable(phase)); err != nil {
				return fmt.Errorf("screen '%s' %s: %w", sc.Tag, phase, err)
			}
		}
	}

	return nil
}

// ValidateScript checks a script against the screens of config
func (m *Manager) ValidateScript(script *types.Script, config *types.NavigatorConfig) error {
	known := make(map[string]bool)
	for _, sc := range config.Screens {
		known[sc.Tag] = true
		known[sc.DisplayName()] = true
	}

	for i, step := range script.Steps {
		switch step.Op {
		case types.StepOpen, types.StepOpenIfNeeded, types.StepReplace, types.StepEnqueue, types.StepWait:
			if step.Screen == "" {
				return fmt.Errorf("step %d (%s): missing screen", i, step.Op)
			}
			if !known[step.Screen] {
				return fmt.Errorf("step %d (%s): unknown screen %q", i, step.Op, step.Screen)
			}
		case types.StepClose:
		case types.StepSleep:
			if step.Duration.Duration <= 0 {
				return fmt.Errorf("step %d (sleep): duration must be positive", i)
			}
		default:
			return fmt.Errorf("step %d: unknown op %q", i, step.Op)
		}

		if step.Op == types.StepWait {
			if _, err := types.ParseSignalKind(step.Signal); err != nil {
				return fmt.Errorf("step %d (wait): %w", i, err)
			}
		}
		if err := validateProcessor(step.Processor); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}

	return nil
}

// GetDefaultConfig returns a small two-screen configuration
func (m *Manager) GetDefaultConfig() *types.NavigatorConfig {
	fade := func(id string) types.AnimationConfig {
		return types.AnimationConfig{ID: id, Kind: types.AnimationTween, Duration: types.Duration{Duration: 150 * time.Millisecond}, Steps: 5}
	}

	return &types.NavigatorConfig{
		Version:  CurrentVersion,
		LogLevel: "info",
		Screens: []types.ScreenConfig{
			{
				Tag:  "main",
				Name: "Main Menu",
				Show: types.TurntableConfig{Processor: types.ProcessorParallel, Animations: []types.AnimationConfig{fade("fade-in")}},
				Hide: types.TurntableConfig{Processor: types.ProcessorParallel, AllowOverlap: true, Animations: []types.AnimationConfig{fade("fade-out")}},
			},
			{
				Tag:  "settings",
				Name: "Settings",
				Show: types.TurntableConfig{
					Processor:    types.ProcessorSequential,
					AllowOverlap: true,
					Animations:   []types.AnimationConfig{fade("slide-in"), {ID: "settle", Kind: types.AnimationInstant}},
				},
				Hide: types.TurntableConfig{Animations: []types.AnimationConfig{fade("slide-out")}},
			},
		},
	}
}

// Private methods

func validateTurntable(tt types.TurntableConfig) error {
	if err := validateProcessor(tt.Processor); err != nil {
		return err
	}

	ids := make(map[string]bool)
	for i, a := range tt.Animations {
		if a.ID == "" {
			return fmt.Errorf("animation %d: missing id", i)
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate animation id: %s", a.ID)
		}
		ids[a.ID] = true

		switch a.Kind {
		case types.AnimationTween, types.AnimationInstant, types.AnimationFail:
		default:
			return fmt.Errorf("animation '%s': unknown kind %q", a.ID, a.Kind)
		}
		if a.Duration.Duration < 0 {
			return fmt.Errorf("animation '%s': negative duration", a.ID)
		}
	}
	return nil
}

func validateProcessor(kind types.ProcessorKind) error {
	switch kind {
	case "", types.ProcessorParallel, types.ProcessorSequential:
		return nil
	default:
		return fmt.Errorf("unknown processor: %q", kind)
	}
}

// decodeFile parses TOML by extension, otherwise JSON then YAML. YAML and
// TOML are normalized through JSON so every format shares the JSON
// decoding rules of the target types.
func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var tomlData map[string]interface{}
		if err := toml.Unmarshal(data, &tomlData); err != nil {
			return fmt.Errorf("failed to parse TOML: %w", err)
		}
		return viaJSON(tomlData, out, false)
	}

	// Try JSON first
	if err := json.Unmarshal(data, out); err == nil {
		return nil
	} else if strings.HasPrefix(strings.TrimSpace(string(data)), "{") {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	// Try YAML. Almost any text is a valid YAML mapping, so its keys must
	// be fields of the target.
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil || yamlData == nil {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err := viaJSON(yamlData, out, true); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func viaJSON(in map[string]interface{}, out interface{}, strict bool) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(out)
}
