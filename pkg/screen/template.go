package screen

import (
	"fmt"

	"github.com/pragma/screennav/pkg/animation"
	"github.com/pragma/screennav/pkg/logger"
)

// TurntableTemplate describes how to build one turntable.
type TurntableTemplate struct {
	Processor    animation.ShowProcessor
	AllowOverlap bool
	Animations   []animation.Builder
}

// Build creates a turntable with fresh animation units.
func (t TurntableTemplate) Build() (*animation.Turntable, error) {
	units := make([]animation.Animation, 0, len(t.Animations))
	for _, b := range t.Animations {
		units = append(units, b())
	}
	return animation.NewTurntable(t.Processor, t.AllowOverlap, units...)
}

// Template is the static description of a screen. Templates are immutable
// once handed to a navigator.
type Template struct {
	Tag   string
	Name  string
	Show  TurntableTemplate
	Hide  TurntableTemplate
	Focus TurntableTemplate
	Blur  TurntableTemplate
	// Handlers returns fresh sub-components for a new instance.
	Handlers func() []interface{}
}

// DisplayName returns Name, falling back to Tag.
func (t *Template) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Tag
}

// Container hosts the visuals of created screens.
type Container interface {
	Attach(name string) animation.Visual
}

// Factory creates independent screen instances from templates.
type Factory interface {
	Create(tpl *Template, parent Container) (*Screen, error)
}

// DefaultFactory builds headless screens. A nil parent yields detached
// nodes.
type DefaultFactory struct {
	Logger logger.Logger
}

// Create implements Factory
func (f DefaultFactory) Create(tpl *Template, parent Container) (*Screen, error) {
	if tpl == nil {
		return nil, ErrNilTemplate
	}
	if tpl.Tag == "" {
		return nil, ErrEmptyTag
	}

	var tables Turntables
	for _, p := range []struct {
		name string
		tpl  TurntableTemplate
		dst  **animation.Turntable
	}{
		{"show", tpl.Show, &tables.Show},
		{"hide", tpl.Hide, &tables.Hide},
		{"focus", tpl.Focus, &tables.Focus},
		{"blur", tpl.Blur, &tables.Blur},
	} {
		t, err := p.tpl.Build()
		if err != nil {
			return nil, fmt.Errorf("screen %s: %s turntable: %w", tpl.Tag, p.name, err)
		}
		*p.dst = t
	}

	var visual animation.Visual
	if parent != nil {
		visual = parent.Attach(tpl.DisplayName())
	}

	s := New(tpl.Tag, tpl.DisplayName(), visual, tables, f.Logger)
	if tpl.Handlers != nil {
		for _, h := range tpl.Handlers() {
			s.AddHandler(h)
		}
	}
	return s, nil
}
