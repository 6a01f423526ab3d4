package cli

import "time"

// Config holds all CLI configuration. Flags and SCREENNAV_* environment
// variables are resolved into it before any command runs.
type Config struct {
	ConfigFile  string
	ProjectRoot string
	Verbosity   string
	Version     string
	Notify      bool
	WaitTimeout time.Duration
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		ProjectRoot: ".",
		Verbosity:   "info",
	}
}

// configNames are searched in the project root when no config file is given
var configNames = []string{"screennav.yaml", "screennav.yml", "screennav.json", "screennav.toml"}
