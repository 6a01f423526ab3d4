package scenario_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pragma/screennav/internal/scenario"
	"github.com/pragma/screennav/pkg/mocks"
	"github.com/pragma/screennav/pkg/navigator"
	"github.com/pragma/screennav/pkg/notifier"
	"github.com/pragma/screennav/pkg/types"
)

func ms(n int) types.Duration {
	return types.Duration{Duration: time.Duration(n) * time.Millisecond}
}

func testConfig() *types.NavigatorConfig {
	instant := func(id string) types.TurntableConfig {
		return types.TurntableConfig{Animations: []types.AnimationConfig{{ID: id, Kind: types.AnimationInstant}}}
	}
	return &types.NavigatorConfig{
		Version: "1.0",
		Screens: []types.ScreenConfig{
			{
				Tag:  "main",
				Name: "Main Menu",
				Show: types.TurntableConfig{Animations: []types.AnimationConfig{{ID: "fade", Kind: types.AnimationTween, Duration: ms(30), Steps: 3}}},
				Hide: instant("fade-out"),
			},
			{Tag: "settings", Name: "Settings", Show: instant("slide-in"), Hide: instant("slide-out")},
			{Tag: "broken", Show: types.TurntableConfig{Animations: []types.AnimationConfig{{ID: "glitch", Kind: types.AnimationFail}}}},
		},
	}
}

func newRunner(t *testing.T, opts scenario.Options) *scenario.Runner {
	t.Helper()
	r, err := scenario.New(testConfig(), opts)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRun_Steps(t *testing.T) {
	tests := []struct {
		name      string
		steps     []types.Step
		wantStack []string
		wantQueue []string
	}{
		{
			name:      "open by tag and name",
			steps:     []types.Step{{Op: types.StepOpen, Screen: "main"}, {Op: types.StepOpen, Screen: "Settings"}},
			wantStack: []string{"Main Menu", "Settings"},
			wantQueue: []string{},
		},
		{
			name: "enqueue then close opens the queued screen",
			steps: []types.Step{
				{Op: types.StepOpen, Screen: "main"},
				{Op: types.StepEnqueue, Screen: "settings"},
				{Op: types.StepClose},
			},
			wantStack: []string{"Settings"},
			wantQueue: []string{},
		},
		{
			name: "skip next keeps the queue",
			steps: []types.Step{
				{Op: types.StepOpen, Screen: "main"},
				{Op: types.StepEnqueue, Screen: "settings"},
				{Op: types.StepClose, SkipNext: true},
			},
			wantStack: []string{},
			wantQueue: []string{"Settings"},
		},
		{
			name: "replace",
			steps: []types.Step{
				{Op: types.StepOpen, Screen: "main"},
				{Op: types.StepReplace, Screen: "settings", Animations: []string{"slide-in"}},
			},
			wantStack: []string{"Settings"},
			wantQueue: []string{},
		},
		{
			name: "open if needed and sleep",
			steps: []types.Step{
				{Op: types.StepOpenIfNeeded, Screen: "settings"},
				{Op: types.StepSleep, Duration: ms(5)},
			},
			wantStack: []string{"Settings"},
			wantQueue: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRunner(t, scenario.Options{})

			report, err := r.Run(context.Background(), &types.Script{Name: tt.name, Steps: tt.steps})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !equal(report.Stack, tt.wantStack) {
				t.Errorf("expected stack %v, got %v", tt.wantStack, report.Stack)
			}
			if !equal(report.Queue, tt.wantQueue) {
				t.Errorf("expected queue %v, got %v", tt.wantQueue, report.Queue)
			}
			if report.Steps != len(tt.steps) || report.Script != tt.name {
				t.Errorf("unexpected report header %+v", report)
			}
		})
	}
}

func TestRun_FreshNavigatorPerRun(t *testing.T) {
	r := newRunner(t, scenario.Options{})
	script := &types.Script{Name: "twice", Steps: []types.Step{{Op: types.StepOpen, Screen: "main"}}}

	for i := 0; i < 2; i++ {
		report, err := r.Run(context.Background(), script)
		if err != nil {
			t.Fatal(err)
		}
		if report.Stats.Opened != 1 || len(report.Stack) != 1 {
			t.Errorf("run %d: expected a fresh navigator, got %+v", i, report)
		}
	}
}

func TestRun_AsyncWaitResolves(t *testing.T) {
	r := newRunner(t, scenario.Options{WaitTimeout: time.Second})

	report, err := r.Run(context.Background(), &types.Script{Steps: []types.Step{
		{Op: types.StepWait, Screen: "settings", Signal: "open", Async: true},
		{Op: types.StepWait, Screen: "main", Signal: "close", Async: true},
		{Op: types.StepOpen, Screen: "main"},
		{Op: types.StepEnqueue, Screen: "settings"},
		{Op: types.StepClose},
	}})
	if err != nil {
		t.Fatalf("waits should resolve: %v", err)
	}
	if !equal(report.Stack, []string{"Settings"}) {
		t.Errorf("unexpected stack %v", report.Stack)
	}
}

func TestRun_AsyncWaitTimesOut(t *testing.T) {
	r := newRunner(t, scenario.Options{WaitTimeout: 30 * time.Millisecond})

	report, err := r.Run(context.Background(), &types.Script{Steps: []types.Step{
		{Op: types.StepWait, Screen: "settings", Async: true},
		{Op: types.StepOpen, Screen: "main"},
	}})
	if !errors.Is(err, scenario.ErrWaitTimeout) {
		t.Fatalf("expected wait timeout, got %v", err)
	}
	if report == nil || !equal(report.Stack, []string{"Main Menu"}) {
		t.Errorf("report should describe the navigator, got %+v", report)
	}
}

func TestRun_SyncWaitOnBackgroundOpen(t *testing.T) {
	r := newRunner(t, scenario.Options{WaitTimeout: time.Second})

	report, err := r.Run(context.Background(), &types.Script{Steps: []types.Step{
		{Op: types.StepOpen, Screen: "main", Async: true},
		{Op: types.StepWait, Screen: "main", Signal: "open"},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !equal(report.Stack, []string{"Main Menu"}) {
		t.Errorf("unexpected stack %v", report.Stack)
	}
}

func TestRun_BusyGuardRejectsOverlappingClose(t *testing.T) {
	r := newRunner(t, scenario.Options{})

	report, err := r.Run(context.Background(), &types.Script{Steps: []types.Step{
		{Op: types.StepOpen, Screen: "main", Async: true},
		{Op: types.StepSleep, Duration: ms(5)},
		{Op: types.StepClose},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if report.Stats.Rejected != 1 {
		t.Errorf("close during the open should be rejected, got %+v", report.Stats)
	}
	if !equal(report.Stack, []string{"Main Menu"}) {
		t.Errorf("unexpected stack %v", report.Stack)
	}
}

func TestRun_StepError(t *testing.T) {
	r := newRunner(t, scenario.Options{})

	report, err := r.Run(context.Background(), &types.Script{Steps: []types.Step{
		{Op: types.StepOpen, Screen: "main"},
		{Op: types.StepOpen, Screen: "nowhere"},
	}})
	if !errors.Is(err, navigator.ErrScreenNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if !strings.Contains(err.Error(), "step 1 (open)") {
		t.Errorf("error should name the step, got %v", err)
	}
	if report == nil || !equal(report.Stack, []string{"Main Menu"}) {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestRun_Cancelled(t *testing.T) {
	r := newRunner(t, scenario.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, &types.Script{Steps: []types.Step{{Op: types.StepSleep, Duration: ms(50)}}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestRun_FailedTransitionsAreReported(t *testing.T) {
	var (
		mu   sync.Mutex
		sent []string
	)
	n := notifier.New(notifier.Config{Enabled: true, Send: func(title, message string) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, message)
		return nil
	}}, nil)

	r := newRunner(t, scenario.Options{Notifier: n})

	report, err := r.Run(context.Background(), &types.Script{Name: "glitchy", Steps: []types.Step{
		{Op: types.StepOpen, Screen: "broken"},
	}})
	if err != nil {
		t.Fatalf("failed transitions are not fatal: %v", err)
	}
	if len(report.Failures) != 1 || report.Failures[0] != (scenario.Failure{Screen: "broken", Phase: types.PhaseShow}) {
		t.Errorf("unexpected failures %+v", report.Failures)
	}
	if report.Stats.FailedTransitions != 1 {
		t.Errorf("expected 1 failed transition, got %+v", report.Stats)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(sent) != 2 || !strings.Contains(sent[0], "broken: show") || !strings.Contains(sent[1], "1 failed transitions") {
		t.Errorf("unexpected notifications %v", sent)
	}
}

func TestRun_CustomFactory(t *testing.T) {
	factory := &mocks.CountingFactory{}
	r := newRunner(t, scenario.Options{Factory: factory})

	if _, err := r.Run(context.Background(), &types.Script{Steps: []types.Step{
		{Op: types.StepOpen, Screen: "main"},
		{Op: types.StepClose},
		{Op: types.StepOpen, Screen: "main"},
	}}); err != nil {
		t.Fatal(err)
	}
	if got := factory.Created("main"); got != 1 {
		t.Errorf("instances should be reused within a run, created %d", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Screens[0].Show.Processor = "zigzag"

	if _, err := scenario.New(cfg, scenario.Options{}); err == nil {
		t.Error("expected error for unknown processor")
	}
}
