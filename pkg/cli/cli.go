// Package cli provides the command-line interface for screennav
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pragma/screennav/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI encapsulates the command-line interface. Each instance owns its
// viper so several can run side by side in tests.
type CLI struct {
	config   *Config
	viper    *viper.Viper
	rootCmd  *cobra.Command
	logger   logger.Logger
	output   io.Writer
	errorOut io.Writer
}

// NewCLI creates a new CLI instance with the given configuration
func NewCLI(config *Config) *CLI {
	if config == nil {
		config = NewConfig()
	}

	cli := &CLI{
		config:   config,
		viper:    viper.New(),
		output:   os.Stdout,
		errorOut: os.Stderr,
	}

	cli.setupCommands()
	return cli
}

// NewCLIWithOutput creates a CLI with custom output writers (for testing)
func NewCLIWithOutput(config *Config, output, errorOut io.Writer) *CLI {
	cli := NewCLI(config)
	cli.output = output
	cli.errorOut = errorOut
	cli.rootCmd.SetOut(output)
	cli.rootCmd.SetErr(errorOut)
	return cli
}

// Execute runs the CLI with the given arguments
func (c *CLI) Execute(args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.Execute()
}

// ExecuteContext runs the CLI with context support
func (c *CLI) ExecuteContext(ctx context.Context, args []string) error {
	c.rootCmd.SetArgs(args)
	return c.rootCmd.ExecuteContext(ctx)
}

func (c *CLI) setupCommands() {
	c.rootCmd = &cobra.Command{
		Use:   "screennav",
		Short: "Drive a screen navigator from configuration and scripts",
		Long: `screennav builds a screen stack from a configuration file and runs scripted
navigation scenarios against it: open, close, replace, queue and wait for
screens, with their show, hide, focus and blur animations.`,

		PersistentPreRunE: c.initializeConfig,
		SilenceUsage:      true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	c.setupFlags()

	c.rootCmd.Version = c.config.Version
	c.rootCmd.SetVersionTemplate("screennav v{{.Version}}\n")

	c.rootCmd.AddCommand(c.newRunCmd())
	c.rootCmd.AddCommand(c.newValidateCmd())
	c.rootCmd.AddCommand(c.newListCmd())
	c.rootCmd.AddCommand(c.newStatusCmd())
	c.rootCmd.AddCommand(c.newInitCmd())
	c.rootCmd.AddCommand(c.newVersionCmd())
}

func (c *CLI) setupFlags() {
	flags := c.rootCmd.PersistentFlags()

	flags.StringVar(&c.config.ConfigFile, "config", "", "config file (default: screennav.yaml in the project root)")
	flags.StringVar(&c.config.ProjectRoot, "root", ".", "project root directory")
	flags.StringVarP(&c.config.Verbosity, "verbosity", "v", "info", "log level (debug, info, warn, error)")

	for _, name := range []string{"config", "root", "verbosity"} {
		_ = c.viper.BindPFlag(name, flags.Lookup(name))
	}
}

func (c *CLI) initializeConfig(cmd *cobra.Command, args []string) error {
	c.viper.SetEnvPrefix("SCREENNAV")
	c.viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.viper.AutomaticEnv()

	c.config.ConfigFile = c.viper.GetString("config")
	c.config.ProjectRoot = c.viper.GetString("root")
	c.config.Verbosity = c.viper.GetString("verbosity")
	c.config.Notify = c.viper.GetBool("notify")
	if d := c.viper.GetDuration("wait-timeout"); d > 0 {
		c.config.WaitTimeout = d
	}

	c.logger = c.newLogger(c.config.Verbosity)

	c.logger.Debug("Configuration resolved",
		logger.WithField("config", c.getConfigPath()),
		logger.WithField("root", c.config.ProjectRoot))

	return nil
}

func (c *CLI) newLogger(level string) logger.Logger {
	if c.output == os.Stdout {
		return logger.CreateLogger("", level)
	}
	return logger.CreateLoggerWithOutput(level, c.output)
}

// verbosityOverridden reports whether the log level came from a flag or
// the environment rather than the default.
func (c *CLI) verbosityOverridden() bool {
	if c.rootCmd.PersistentFlags().Changed("verbosity") {
		return true
	}
	_, ok := os.LookupEnv("SCREENNAV_VERBOSITY")
	return ok
}

// Helper methods for structured output

func (c *CLI) printSuccess(message string) {
	c.logger.Success(message)
}

func (c *CLI) printError(message string) {
	c.logger.Error(message)
}

func (c *CLI) printInfo(message string) {
	c.logger.Info(message)
}

func (c *CLI) printWarning(message string) {
	c.logger.Warn(message)
}

// getConfigPath returns the configured file, or the first known config
// name present in the project root.
func (c *CLI) getConfigPath() string {
	if c.config.ConfigFile != "" {
		return c.config.ConfigFile
	}
	for _, name := range configNames {
		path := filepath.Join(c.config.ProjectRoot, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(c.config.ProjectRoot, configNames[0])
}

// ExecuteWithVersion runs the CLI on os.Args
func ExecuteWithVersion(version string) error {
	config := NewConfig()
	config.Version = version
	cli := NewCLI(config)
	return cli.Execute(os.Args[1:])
}
