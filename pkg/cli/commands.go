package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pragma/screennav/internal/state"
	"github.com/pragma/screennav/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (c *CLI) newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [script...]",
		Short: "Validate the configuration file and scripts",
		Long: `Check that the configuration file is valid. Scripts given as arguments are
checked against the configured screens.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args)
		},
	}
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configured screens",
		Long:  `List the screens defined in the configuration file with their turntables.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList()
		},
	}
}

func (c *CLI) newStatusCmd() *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of previous runs",
		Long:  `Display the recorded outcome of every script run in this project.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStatus(clean)
		},
	}

	cmd.Flags().BoolVar(&clean, "clean", false, "remove all recorded runs")

	return cmd
}

func (c *CLI) newInitCmd() *cobra.Command {
	var format string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a starter configuration",
		Long:  `Write a two-screen starter configuration to the project root.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInit(format, force)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "config format (yaml, json, toml)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration")

	return cmd
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(c.output, "screennav v%s\n", c.config.Version)
		},
	}
}

func (c *CLI) runValidate(scripts []string) error {
	configPath := c.getConfigPath()
	manager := config.NewManager()

	cfg, err := manager.LoadConfig(configPath)
	if err != nil {
		c.printError(fmt.Sprintf("Invalid configuration: %v", err))
		return err
	}
	c.printSuccess(fmt.Sprintf("Configuration is valid (%d screens)", len(cfg.Screens)))

	if _, err := config.BuildTemplates(cfg, c.logger); err != nil {
		c.printError(fmt.Sprintf("Invalid screens: %v", err))
		return err
	}

	for _, path := range scripts {
		script, err := manager.LoadScript(path)
		if err != nil {
			c.printError(fmt.Sprintf("Invalid script %s: %v", path, err))
			return err
		}
		if err := manager.ValidateScript(script, cfg); err != nil {
			c.printError(fmt.Sprintf("Invalid script %s: %v", script.Name, err))
			return err
		}
		c.printSuccess(fmt.Sprintf("Script %s is valid (%d steps)", script.Name, len(script.Steps)))
	}

	return nil
}

func (c *CLI) runList() error {
	cfg, err := config.NewManager().LoadConfig(c.getConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintln(c.output, renderScreens(cfg))
	return nil
}

func (c *CLI) runStatus(clean bool) error {
	store := state.NewStore(c.config.ProjectRoot, c.logger)

	states, err := store.Discover()
	if err != nil {
		return err
	}

	if clean {
		for script := range states {
			if err := store.Remove(script); err != nil {
				return err
			}
		}
		c.printSuccess(fmt.Sprintf("Removed %d recorded runs", len(states)))
		return nil
	}

	if len(states) == 0 {
		c.printInfo("No runs recorded yet")
		return nil
	}

	fmt.Fprintln(c.output, renderStates(states))
	return nil
}

func (c *CLI) runInit(format string, force bool) error {
	var ext string
	switch format {
	case "yaml", "yml":
		ext = ".yaml"
	case "json":
		ext = ".json"
	case "toml":
		ext = ".toml"
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	configPath := c.config.ConfigFile
	if configPath == "" {
		configPath = filepath.Join(c.config.ProjectRoot, "screennav"+ext)
	}

	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration already exists. Use --force to overwrite")
	}

	data, err := encodeConfig(config.NewManager().GetDefaultConfig(), ext)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	c.printSuccess(fmt.Sprintf("Created configuration at %s", configPath))
	c.printInfo("Edit the configuration to describe your screens and their animations")

	return nil
}

// encodeConfig writes through JSON first so durations keep their string
// form in every format.
func encodeConfig(cfg interface{}, ext string) ([]byte, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil || ext == ".json" {
		return data, err
	}

	var generic map[string]interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}

	if ext == ".toml" {
		return toml.Marshal(generic)
	}
	return yaml.Marshal(generic)
}
