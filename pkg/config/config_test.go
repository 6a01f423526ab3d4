package config_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pragma/screennav/pkg/config"
	"github.com/pragma/screennav/pkg/navigator"
	"github.com/pragma/screennav/pkg/screen"
	"github.com/pragma/screennav/pkg/types"
	"gopkg.in/yaml.v3"
)

func testConfig() map[string]interface{} {
	return map[string]interface{}{
		"version": "1.0",
		"screens": []map[string]interface{}{
			{
				"tag":  "main",
				"name": "Main Menu",
				"show": map[string]interface{}{
					"processor": "sequential",
					"animations": []map[string]interface{}{
						{"id": "fade", "kind": "tween", "duration": "20ms", "steps": 2},
						{"id": "pop", "kind": "instant"},
					},
				},
				"hide": map[string]interface{}{
					"allowOverlap": true,
					"animations": []map[string]interface{}{
						{"id": "fade-out", "kind": "tween", "duration": 10},
					},
				},
			},
			{
				"tag":        "ads",
				"needToOpen": false,
			},
		},
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertLoaded(t *testing.T, cfg *types.NavigatorConfig) {
	t.Helper()

	if cfg.Version != "1.0" {
		t.Errorf("expected version 1.0, got %s", cfg.Version)
	}
	if len(cfg.Screens) != 2 {
		t.Fatalf("expected 2 screens, got %d", len(cfg.Screens))
	}

	main := cfg.Screens[0]
	if main.Show.Processor != types.ProcessorSequential {
		t.Errorf("expected sequential processor, got %s", main.Show.Processor)
	}
	if got := main.Show.Animations[0].Duration.Duration; got != 20*time.Millisecond {
		t.Errorf("expected 20ms, got %v", got)
	}
	if got := main.Hide.Animations[0].Duration.Duration; got != 10*time.Millisecond {
		t.Errorf("numeric durations are milliseconds, got %v", got)
	}
	if !main.Hide.AllowOverlap {
		t.Error("expected hide overlap")
	}
	if ads := cfg.Screens[1]; ads.NeedToOpen == nil || *ads.NeedToOpen {
		t.Error("expected needToOpen=false on ads")
	}
}

func TestLoadConfig_Formats(t *testing.T) {
	jsonData, _ := json.Marshal(testConfig())
	yamlData, _ := yaml.Marshal(testConfig())
	tomlData, err := toml.Marshal(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"json", "screennav.json", jsonData},
		{"yaml", "screennav.yaml", yamlData},
		{"toml", "screennav.toml", tomlData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)

			cfg, err := config.NewManager().LoadConfig(path)
			if err != nil {
				t.Fatalf("failed to load config: %v", err)
			}
			assertLoaded(t, cfg)
		})
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		data string
		want string
	}{
		{"garbage", "cfg.yaml", "::: not [ valid", "failed to parse YAML"},
		{"misspelled yaml key", "cfg.yaml", "version: \"1.0\"\nscreenz: []\n", "unknown field \"screenz\""},
		{"yaml scalar", "cfg.yaml", "just some words", "failed to parse as JSON, YAML or TOML"},
		{"bad json", "cfg.json", `{"version": "1.0", "screens": [`, "failed to parse JSON"},
		{"bad toml", "cfg.toml", "version = ", "failed to parse TOML"},
		{"bad duration", "cfg.json", `{"version":"1.0","screens":[{"tag":"a","show":{"animations":[{"id":"x","kind":"tween","duration":"soon"}]}}]}`, "invalid duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, []byte(tt.data))

			_, err := config.NewManager().LoadConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := config.NewManager().LoadConfig(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() *types.NavigatorConfig {
		return config.NewManager().GetDefaultConfig()
	}

	tests := []struct {
		name    string
		mutate  func(*types.NavigatorConfig)
		wantErr string
	}{
		{"default is valid", func(*types.NavigatorConfig) {}, ""},
		{"version", func(c *types.NavigatorConfig) { c.Version = "2.0" }, "unsupported config version"},
		{"no screens", func(c *types.NavigatorConfig) { c.Screens = nil }, "no screens"},
		{"missing tag", func(c *types.NavigatorConfig) { c.Screens[0].Tag = "" }, "missing tag"},
		{"duplicate tag", func(c *types.NavigatorConfig) { c.Screens[1].Tag = "main" }, "duplicate screen tag"},
		{"duplicate name", func(c *types.NavigatorConfig) { c.Screens[1].Name = "Main Menu" }, "duplicate screen name"},
		{"processor", func(c *types.NavigatorConfig) { c.Screens[0].Show.Processor = "random" }, "unknown processor"},
		{"kind", func(c *types.NavigatorConfig) { c.Screens[0].Show.Animations[0].Kind = "spin" }, "unknown kind"},
		{"duplicate id", func(c *types.NavigatorConfig) {
			c.Screens[1].Show.Animations[1].ID = c.Screens[1].Show.Animations[0].ID
		}, "duplicate animation id"},
		{"missing id", func(c *types.NavigatorConfig) { c.Screens[0].Hide.Animations[0].ID = "" }, "missing id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := config.NewManager().ValidateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadScript(t *testing.T) {
	script := map[string]interface{}{
		"steps": []map[string]interface{}{
			{"op": "wait", "screen": "settings", "signal": "open", "async": true},
			{"op": "open", "screen": "main"},
			{"op": "enqueue", "screen": "settings"},
			{"op": "sleep", "duration": "5ms"},
			{"op": "close", "processor": "sequential", "animations": []string{"fade-out"}},
		},
	}
	data, _ := yaml.Marshal(script)
	path := writeFile(t, "boot.yaml", data)

	m := config.NewManager()
	s, err := m.LoadScript(path)
	if err != nil {
		t.Fatal(err)
	}

	if s.Name != "boot" {
		t.Errorf("expected name from file, got %q", s.Name)
	}
	if len(s.Steps) != 5 || !s.Steps[0].Async || s.Steps[3].Duration.Duration != 5*time.Millisecond {
		t.Errorf("unexpected steps %+v", s.Steps)
	}
	if err := m.ValidateScript(s, m.GetDefaultConfig()); err != nil {
		t.Errorf("script should be valid: %v", err)
	}
}

func TestValidateScript(t *testing.T) {
	m := config.NewManager()
	cfg := m.GetDefaultConfig()

	tests := []struct {
		name string
		step types.Step
		want string
	}{
		{"unknown op", types.Step{Op: "jump"}, "unknown op"},
		{"missing screen", types.Step{Op: types.StepOpen}, "missing screen"},
		{"unknown screen", types.Step{Op: types.StepReplace, Screen: "nope"}, "unknown screen"},
		{"by name", types.Step{Op: types.StepOpen, Screen: "Main Menu"}, ""},
		{"bad signal", types.Step{Op: types.StepWait, Screen: "main", Signal: "focus"}, "unknown signal kind"},
		{"sleep without duration", types.Step{Op: types.StepSleep}, "duration must be positive"},
		{"bad processor", types.Step{Op: types.StepClose, Processor: "zigzag"}, "unknown processor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.ValidateScript(&types.Script{Steps: []types.Step{tt.step}}, cfg)
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildTemplates(t *testing.T) {
	data, _ := json.Marshal(testConfig())
	cfg, err := config.NewManager().LoadConfig(writeFile(t, "cfg.json", data))
	if err != nil {
		t.Fatal(err)
	}

	templates, err := config.BuildTemplates(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(templates) != 2 || templates[0].DisplayName() != "Main Menu" || templates[1].DisplayName() != "ads" {
		t.Fatalf("unexpected templates %+v", templates)
	}

	nav, err := navigator.New(templates, navigator.Options{})
	if err != nil {
		t.Fatal(err)
	}

	main, err := nav.Open(context.Background(), navigator.ByName("Main Menu"), navigator.OpenOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if got := len(main.Turntable(types.PhaseShow).Animations()); got != 2 {
		t.Errorf("expected 2 show animations, got %d", got)
	}
	if !main.AllowOverlapOnHide() || main.AllowOverlapOnShow() {
		t.Error("overlap flags should follow the config")
	}
	node, ok := main.Visual().(*screen.Node)
	if !ok {
		t.Fatalf("expected headless node, got %T", main.Visual())
	}
	if p, _ := node.Progress("fade"); p != 1 {
		t.Errorf("tween should finish at progress 1, got %v", p)
	}

	if s, err := nav.OpenIfNeeded(context.Background(), navigator.ByTag("ads"), navigator.OpenOptions{}); s != nil || err != nil {
		t.Errorf("needToOpen=false should veto, got %v, %v", s, err)
	}
}

func TestBuildBlock(t *testing.T) {
	block, err := config.BuildBlock(types.Step{Op: types.StepClose}, nil)
	if err != nil || block != nil {
		t.Fatalf("no overrides should give no block, got %v, %v", block, err)
	}

	block, err = config.BuildBlock(types.Step{Processor: types.ProcessorSequential, Animations: []string{"fade"}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if block.Processor == nil || len(block.IDs) != 1 {
		t.Errorf("unexpected block %+v", block)
	}

	if _, err := config.BuildBlock(types.Step{Processor: "nope"}, nil); err == nil {
		t.Error("expected error for unknown processor")
	}
}

func TestDiffScreens(t *testing.T) {
	base := &types.NavigatorConfig{Screens: []types.ScreenConfig{
		{Tag: "main", Name: "Main Menu"},
		{Tag: "ads"},
		{Tag: "settings"},
	}}

	tests := []struct {
		name   string
		before *types.NavigatorConfig
		after  *types.NavigatorConfig
		want   config.ScreenDiff
		str    string
	}{
		{
			name:   "unchanged",
			before: base,
			after:  base,
			str:    "screens unchanged",
		},
		{
			name:   "from nothing",
			before: nil,
			after:  &types.NavigatorConfig{Screens: []types.ScreenConfig{{Tag: "b"}, {Tag: "a"}}},
			want:   config.ScreenDiff{Added: []string{"a", "b"}},
			str:    "added a, b",
		},
		{
			name:   "added removed changed",
			before: base,
			after: &types.NavigatorConfig{Screens: []types.ScreenConfig{
				{Tag: "main", Name: "Home"},
				{Tag: "settings"},
				{Tag: "credits"},
			}},
			want: config.ScreenDiff{Added: []string{"credits"}, Removed: []string{"ads"}, Changed: []string{"main"}},
			str:  "added credits; removed ads; changed main",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := config.DiffScreens(tt.before, tt.after)

			if !equalStrings(got.Added, tt.want.Added) || !equalStrings(got.Removed, tt.want.Removed) || !equalStrings(got.Changed, tt.want.Changed) {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if got.String() != tt.str {
				t.Errorf("expected %q, got %q", tt.str, got.String())
			}
		})
	}
}

func equalStrings(a, b []string) bool {
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

func TestReloadManager_Reload(t *testing.T) {
	data, _ := json.Marshal(testConfig())
	path := writeFile(t, "cfg.json", data)

	rm := config.NewReloadManager(path, nil)
	var got []config.Reload
	var errs []error
	rm.AddCallback(func(r config.Reload, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		got = append(got, r)
	})

	rm.Reload()
	if len(got) != 1 {
		t.Fatalf("expected one reload, got %d", len(got))
	}
	assertLoaded(t, got[0].Config)
	if !equalStrings(got[0].Diff.Added, []string{"ads", "main"}) {
		t.Errorf("first load should add every screen, got %+v", got[0].Diff)
	}

	rm.Reload()
	if len(got) != 1 {
		t.Error("an unchanged file must not be reported")
	}

	if err := os.WriteFile(path, []byte(`{"version": "1.0", "screens": [`), 0644); err != nil {
		t.Fatal(err)
	}
	rm.Reload()
	if len(errs) != 1 || len(got) != 1 {
		t.Errorf("a broken file should be reported as an error, got %d errors", len(errs))
	}
}

func TestReloadManager_WatchesFile(t *testing.T) {
	cfg := testConfig()
	data, _ := json.Marshal(cfg)
	path := writeFile(t, "cfg.json", data)

	current, err := config.NewManager().LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	rm := config.NewReloadManager(path, nil)
	rm.SetDebouncePeriod(10 * time.Millisecond)

	reloaded := make(chan config.Reload, 4)
	rm.AddCallback(func(r config.Reload, err error) {
		if err == nil {
			reloaded <- r
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rm.Start(ctx, current); err != nil {
		t.Fatal(err)
	}
	defer rm.Stop()

	if err := rm.Start(ctx, current); !errors.Is(err, config.ErrAlreadyWatching) {
		t.Errorf("second Start should fail, got %v", err)
	}

	cfg["screens"] = append(cfg["screens"].([]map[string]interface{}), map[string]interface{}{"tag": "extra"})
	data, _ = json.Marshal(cfg)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case r := <-reloaded:
		if len(r.Config.Screens) != 3 {
			t.Errorf("expected 3 screens after reload, got %d", len(r.Config.Screens))
		}
		if r.Diff.String() != "added extra" {
			t.Errorf("unexpected diff %q", r.Diff)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("file change was not picked up")
	}

	rm.Stop()
	rm.Stop()
}
