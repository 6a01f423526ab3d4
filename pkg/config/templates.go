package config

import (
	"fmt"

	"github.com/pragma/screennav/pkg/animation"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/screen"
	"github.com/pragma/screennav/pkg/types"
)

// needToOpen is the OpenGate behind ScreenConfig.NeedToOpen
type needToOpen bool

func (n needToOpen) NeedToOpen() bool { return bool(n) }

// BuildTemplates turns a validated configuration into screen templates.
func BuildTemplates(cfg *types.NavigatorConfig, log logger.Logger) ([]*screen.Template, error) {
	templates := make([]*screen.Template, 0, len(cfg.Screens))

	for _, sc := range cfg.Screens {
		tpl := &screen.Template{Tag: sc.Tag, Name: sc.Name}

		for _, p := range []struct {
			phase types.Phase
			dst   *screen.TurntableTemplate
		}{
			{types.PhaseShow, &tpl.Show},
			{types.PhaseHide, &tpl.Hide},
			{types.PhaseFocus, &tpl.Focus},
			{types.PhaseBlur, &tpl.Blur},
		} {
			tt, err := buildTurntable(sc.Turntable(p.phase), log)
			if err != nil {
				return nil, fmt.Errorf("screen '%s' %s: %w", sc.Tag, p.phase, err)
			}
			*p.dst = tt
		}

		if sc.NeedToOpen != nil {
			gate := needToOpen(*sc.NeedToOpen)
			tpl.Handlers = func() []interface{} { return []interface{}{gate} }
		}

		templates = append(templates, tpl)
	}

	return templates, nil
}

// BuildBlock turns the animation overrides of a script step into a block.
// It returns nil when the step overrides nothing.
func BuildBlock(step types.Step, log logger.Logger) (*animation.Block, error) {
	if step.Processor == "" && step.Animations == nil {
		return nil, nil
	}

	block := &animation.Block{IDs: step.Animations}
	if step.Processor != "" {
		p, err := animation.ProcessorFor(step.Processor, log)
		if err != nil {
			return nil, err
		}
		block.Processor = p
	}
	return block, nil
}

func buildTurntable(cfg types.TurntableConfig, log logger.Logger) (screen.TurntableTemplate, error) {
	processor, err := animation.ProcessorFor(cfg.Processor, log)
	if err != nil {
		return screen.TurntableTemplate{}, err
	}

	builders := make([]animation.Builder, 0, len(cfg.Animations))
	for _, a := range cfg.Animations {
		b, err := animationBuilder(a)
		if err != nil {
			return screen.TurntableTemplate{}, err
		}
		builders = append(builders, b)
	}

	return screen.TurntableTemplate{
		Processor:    processor,
		AllowOverlap: cfg.AllowOverlap,
		Animations:   builders,
	}, nil
}

func animationBuilder(a types.AnimationConfig) (animation.Builder, error) {
	switch a.Kind {
	case types.AnimationTween:
		return func() animation.Animation {
			return animation.NewTween(a.ID, a.Duration.Duration, a.Steps)
		}, nil
	case types.AnimationInstant:
		return func() animation.Animation { return animation.NewInstant(a.ID) }, nil
	case types.AnimationFail:
		return func() animation.Animation { return animation.NewFailing(a.ID) }, nil
	default:
		return nil, fmt.Errorf("animation '%s': unknown kind %q", a.ID, a.Kind)
	}
}
