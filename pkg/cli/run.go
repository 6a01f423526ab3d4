package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pragma/screennav/internal/scenario"
	"github.com/pragma/screennav/internal/state"
	"github.com/pragma/screennav/pkg/config"
	"github.com/pragma/screennav/pkg/notifier"
	"github.com/pragma/screennav/pkg/types"
	"github.com/spf13/cobra"
)

func (c *CLI) newRunCmd() *cobra.Command {
	var watch bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "run <script>",
		Short: "Run a navigation script",
		Long: `Build the navigator from the configuration file and run the steps of a script
against it. The final stack, queue and failed transitions are printed and
recorded for the status command.

With --watch the script is run again whenever the configuration changes,
until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScript(cmd.Context(), args[0], watch, asJSON)
		},
	}

	flags := cmd.Flags()
	flags.BoolVarP(&watch, "watch", "w", false, "rerun when the configuration changes")
	flags.BoolVar(&asJSON, "json", false, "print the report as JSON")
	flags.Bool("notify", false, "send desktop notifications for failures and results")
	flags.Duration("wait-timeout", scenario.DefaultWaitTimeout, "how long wait steps may block")

	_ = c.viper.BindPFlag("notify", flags.Lookup("notify"))
	_ = c.viper.BindPFlag("wait-timeout", flags.Lookup("wait-timeout"))

	return cmd
}

func (c *CLI) runScript(ctx context.Context, scriptPath string, watch, asJSON bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	configPath := c.getConfigPath()
	manager := config.NewManager()

	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.LogLevel != "" && !c.verbosityOverridden() {
		c.logger = c.newLogger(cfg.LogLevel)
	}

	script, err := manager.LoadScript(scriptPath)
	if err != nil {
		return fmt.Errorf("failed to load script: %w", err)
	}
	if err := manager.ValidateScript(script, cfg); err != nil {
		return fmt.Errorf("invalid script: %w", err)
	}

	store := state.NewStore(c.config.ProjectRoot, c.logger)
	notify := notifier.New(notifier.Config{Enabled: c.config.Notify}, c.logger)

	err = c.runOnce(ctx, cfg, script, store, notify, asJSON)
	if !watch {
		return err
	}
	if err != nil {
		c.printError(err.Error())
	}

	return c.watch(ctx, configPath, cfg, script, store, notify, asJSON)
}

func (c *CLI) runOnce(ctx context.Context, cfg *types.NavigatorConfig, script *types.Script, store *state.Store, notify *notifier.RunNotifier, asJSON bool) error {
	runner, err := scenario.New(cfg, scenario.Options{
		Logger:      c.logger,
		Notifier:    notify,
		WaitTimeout: c.config.WaitTimeout,
	})
	if err != nil {
		return err
	}

	report, runErr := runner.Run(ctx, script)

	if _, err := store.Record(script.Name, report, runErr); err != nil {
		c.printWarning(fmt.Sprintf("Failed to record run: %v", err))
	}

	if report != nil {
		if asJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(c.output, string(data))
		} else {
			fmt.Fprintln(c.output, renderReport(report))
		}
	}

	return runErr
}

func (c *CLI) watch(ctx context.Context, configPath string, cfg *types.NavigatorConfig, script *types.Script, store *state.Store, notify *notifier.RunNotifier, asJSON bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reloads := make(chan *types.NavigatorConfig, 1)

	rm := config.NewReloadManager(configPath, c.logger)
	rm.SetDebouncePeriod(200 * time.Millisecond)
	rm.AddCallback(func(r config.Reload, err error) {
		if err != nil {
			c.printError(fmt.Sprintf("Configuration reload failed: %v", err))
			return
		}
		c.printInfo(fmt.Sprintf("Configuration changed: %s", r.Diff))
		select {
		case <-reloads:
		default:
		}
		reloads <- r.Config
	})

	if err := rm.Start(ctx, cfg); err != nil {
		return err
	}
	defer rm.Stop()

	c.printInfo(fmt.Sprintf("Watching %s for changes", configPath))

	manager := config.NewManager()
	for {
		select {
		case <-ctx.Done():
			c.printInfo("Stopped watching")
			return nil
		case cfg := <-reloads:
			if err := manager.ValidateScript(script, cfg); err != nil {
				c.printError(fmt.Sprintf("Script no longer matches the configuration: %v", err))
				continue
			}
			if err := c.runOnce(ctx, cfg, script, store, notify, asJSON); err != nil {
				c.printError(err.Error())
			}
		}
	}
}
