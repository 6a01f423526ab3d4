// Package scenario runs scripted navigator sessions built from configuration
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pragma/screennav/internal/engine"
	"github.com/pragma/screennav/pkg/animation"
	"github.com/pragma/screennav/pkg/config"
	ncontext "github.com/pragma/screennav/pkg/context"
	"github.com/pragma/screennav/pkg/logger"
	"github.com/pragma/screennav/pkg/navigator"
	"github.com/pragma/screennav/pkg/notifier"
	"github.com/pragma/screennav/pkg/screen"
	"github.com/pragma/screennav/pkg/types"
)

// DefaultWaitTimeout bounds every wait step.
const DefaultWaitTimeout = 5 * time.Second

// ErrWaitTimeout is returned when an async wait is still pending once the
// wait timeout has passed after the last step.
var ErrWaitTimeout = errors.New("signal wait timed out")

// Options configures a Runner.
type Options struct {
	Logger logger.Logger
	// Notifier receives failed transitions and the run outcome; optional.
	Notifier *notifier.RunNotifier
	// Factory overrides screen.DefaultFactory.
	Factory screen.Factory
	// WaitTimeout bounds synchronous waits, and async waits once the last
	// step has run. Defaults to DefaultWaitTimeout.
	WaitTimeout time.Duration
}

// Failure is a transition that reported failure during a run.
type Failure struct {
	Screen string      `json:"screen"`
	Phase  types.Phase `json:"phase"`
}

// Report describes the navigator after a run.
type Report struct {
	Script   string          `json:"script"`
	Steps    int             `json:"steps"`
	Stack    []string        `json:"stack"`
	Queue    []string        `json:"queue"`
	Failures []Failure       `json:"failures,omitempty"`
	Stats    navigator.Stats `json:"stats"`
	Duration time.Duration   `json:"duration"`
}

// Runner executes scripts. Every Run starts from a fresh navigator.
type Runner struct {
	config    *types.NavigatorConfig
	templates []*screen.Template
	tags      map[string]bool
	opts      Options
	logger    logger.Logger
}

// New creates a runner over a validated configuration.
func New(cfg *types.NavigatorConfig, opts Options) (*Runner, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}

	templates, err := config.BuildTemplates(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build screens: %w", err)
	}

	tags := make(map[string]bool, len(templates))
	for _, tpl := range templates {
		tags[tpl.Tag] = true
	}

	return &Runner{
		config:    cfg,
		templates: templates,
		tags:      tags,
		opts:      opts,
		logger:    log,
	}, nil
}

// Run executes script step by step. On error the report still describes
// the navigator at the failing step.
func (r *Runner) Run(ctx context.Context, script *types.Script) (*Report, error) {
	ctx = ncontext.EnrichContext(ctx, "scenario")
	log := logger.WithContext(ctx, r.logger)

	var (
		mu       sync.Mutex
		failures []Failure
	)
	nav, err := navigator.New(r.templates, navigator.Options{
		Factory:                r.opts.Factory,
		Logger:                 r.logger,
		CloseSignalOnHideStart: r.config.Navigator.CloseSignalOnHideStart,
		Preload:                r.config.Navigator.Preload != nil && *r.config.Navigator.Preload,
		OnTransitionFailed: func(s *screen.Screen, phase types.Phase) {
			mu.Lock()
			failures = append(failures, Failure{Screen: s.Name(), Phase: phase})
			mu.Unlock()
			if r.opts.Notifier != nil {
				r.opts.Notifier.NotifyTransitionFailed(s.Name(), phase)
			}
		},
	})
	if err != nil {
		return nil, err
	}

	log.Info(fmt.Sprintf("Running scenario %s", script.Name),
		logger.WithField("steps", len(script.Steps)))

	waitCtx, cancelWaits := context.WithCancelCause(ctx)
	defer cancelWaits(nil)
	waits, _ := engine.NewSafeGroup(waitCtx, log)

	runErr := r.steps(ctx, waitCtx, log, nav, waits, script)
	if runErr != nil {
		cancelWaits(runErr)
		_ = waits.Wait()
	} else {
		timer := time.AfterFunc(r.opts.WaitTimeout, func() {
			cancelWaits(fmt.Errorf("%w after %s", ErrWaitTimeout, r.opts.WaitTimeout))
		})
		runErr = waits.Wait()
		timer.Stop()
	}

	mu.Lock()
	report := &Report{
		Script:   script.Name,
		Steps:    len(script.Steps),
		Stack:    names(nav.Opened()),
		Queue:    names(nav.Queued()),
		Failures: append([]Failure(nil), failures...),
		Stats:    nav.Stats(),
		Duration: ncontext.GetDuration(ctx),
	}
	mu.Unlock()

	if runErr != nil {
		log.Error(fmt.Sprintf("Scenario %s failed", script.Name), logger.WithError(runErr))
		if r.opts.Notifier != nil {
			r.opts.Notifier.NotifyRunFailure(script.Name, runErr)
		}
		return report, runErr
	}

	log.Success(fmt.Sprintf("Scenario %s finished", script.Name),
		logger.WithField("stack", report.Stack),
		logger.WithField("failed", len(report.Failures)),
		logger.WithField("duration", report.Duration))
	if r.opts.Notifier != nil {
		r.opts.Notifier.NotifyRunComplete(script.Name, report.Stack, len(report.Failures), report.Duration)
	}
	return report, nil
}

func (r *Runner) steps(ctx, waitCtx context.Context, log logger.Logger, nav *navigator.Navigator, waits *engine.SafeGroup, script *types.Script) error {
	for i, step := range script.Steps {
		log.Debug("Step",
			logger.WithField("index", i),
			logger.WithField("op", step.Op),
			logger.WithField("screen", step.Screen))

		if err := r.step(ctx, waitCtx, nav, waits, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

func (r *Runner) step(ctx, waitCtx context.Context, nav *navigator.Navigator, waits *engine.SafeGroup, step types.Step) error {
	block, err := config.BuildBlock(step, r.logger)
	if err != nil {
		return err
	}
	target := r.target(step.Screen)

	switch step.Op {
	case types.StepWait:
		return r.wait(ctx, waitCtx, nav, waits, step, target)
	case types.StepSleep:
		select {
		case <-time.After(step.Duration.Duration):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if step.Async {
		waits.Go(func() error {
			if err := r.navigate(ctx, nav, step, target, block); err != nil {
				return fmt.Errorf("async %s %s: %w", step.Op, step.Screen, err)
			}
			return nil
		})
		return nil
	}
	return r.navigate(ctx, nav, step, target, block)
}

// navigate runs a navigation op. Async opens bypass the busy guard so
// they can overlap the steps that follow.
func (r *Runner) navigate(ctx context.Context, nav *navigator.Navigator, step types.Step, target navigator.Target, block *animation.Block) error {
	var err error
	switch step.Op {
	case types.StepOpen:
		_, err = nav.Open(ctx, target, navigator.OpenOptions{Popup: step.Popup, Animation: block, AllowConcurrent: step.Async})
	case types.StepOpenIfNeeded:
		_, err = nav.OpenIfNeeded(ctx, target, navigator.OpenOptions{Popup: step.Popup, Animation: block, AllowConcurrent: step.Async})
	case types.StepClose:
		err = nav.Close(ctx, navigator.CloseOptions{SkipNext: step.SkipNext, Animation: block})
	case types.StepReplace:
		_, err = nav.Replace(ctx, target, navigator.ReplaceOptions{Popup: step.Popup, OpenAnimation: block})
	case types.StepEnqueue:
		err = nav.EnqueueNext(ctx, target)
	default:
		err = fmt.Errorf("unknown op %q", step.Op)
	}
	return err
}

func (r *Runner) wait(ctx, waitCtx context.Context, nav *navigator.Navigator, waits *engine.SafeGroup, step types.Step, target navigator.Target) error {
	kind, err := types.ParseSignalKind(step.Signal)
	if err != nil {
		return err
	}

	if !step.Async {
		wctx, cancel := context.WithTimeout(ctx, r.opts.WaitTimeout)
		defer cancel()
		return nav.WaitSignal(wctx, target, kind)
	}

	ch, err := nav.Wait(target, kind)
	if err != nil {
		return err
	}
	waits.Go(func() error {
		select {
		case <-ch:
			return nil
		case <-waitCtx.Done():
			return fmt.Errorf("wait %s %s: %w", step.Screen, kind, context.Cause(waitCtx))
		}
	})
	return nil
}

// target prefers tags over display names.
func (r *Runner) target(ref string) navigator.Target {
	if r.tags[ref] {
		return navigator.ByTag(ref)
	}
	return navigator.ByName(ref)
}

func names(screens []*screen.Screen) []string {
	out := make([]string, 0, len(screens))
	for _, s := range screens {
		out = append(out, s.Name())
	}
	return out
}
