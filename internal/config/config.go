package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete runlet configuration
type Config struct {
	Run     RunConfig     `mapstructure:"run"`
	Logging LoggingConfig `mapstructure:"logging"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Output  OutputConfig  `mapstructure:"output"`
}

// RunConfig controls task execution defaults. Command-line flags override
// every field here.
type RunConfig struct {
	// MaxParallel is the default worker count for the parallel phase
	// (0 = one worker per CPU)
	MaxParallel int `mapstructure:"max_parallel"`
	// TimeoutSeconds overrides every task's own timeout when positive
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// SaveOutputs writes one log file per executed task (default: true)
	SaveOutputs bool `mapstructure:"save_outputs"`
	// OutputDir receives task logs; empty means <root>/rundata
	OutputDir string `mapstructure:"output_dir"`
	// ContinueOnError keeps a worker running its chunk after a failure
	ContinueOnError bool `mapstructure:"continue_on_error"`
}

// LoggingConfig controls the debug log
type LoggingConfig struct {
	// Level is the minimum level written to the log file
	// Options: "debug", "info", "warn", "error"
	Level string `mapstructure:"level"`
	// Dir is where debug.log lives; empty logs to stderr
	Dir string `mapstructure:"dir"`
	// MaxSizeMB rotates the log file when it exceeds this size (0 = no rotation)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is how many rotated files to keep
	MaxBackups int `mapstructure:"max_backups"`
}

// WatchConfig controls watch mode
type WatchConfig struct {
	// DebounceMs is the quiet period after a file change before re-running
	DebounceMs int `mapstructure:"debounce_ms"`
}

// OutputConfig controls result rendering
type OutputConfig struct {
	// Format is the default render format
	// Options: "jsonl", "json", "md"
	Format string `mapstructure:"format"`
	// Pretty indents JSON output
	Pretty bool `mapstructure:"pretty"`
}

// Debounce returns the watch debounce as a duration.
func (w *WatchConfig) Debounce() time.Duration {
	return time.Duration(w.DebounceMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			MaxParallel:     0,
			TimeoutSeconds:  0,
			SaveOutputs:     true,
			OutputDir:       "",
			ContinueOnError: false,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Dir:        "",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Watch: WatchConfig{
			DebounceMs: 500,
		},
		Output: OutputConfig{
			Format: "jsonl",
			Pretty: false,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("run.max_parallel", defaults.Run.MaxParallel)
	viper.SetDefault("run.timeout_seconds", defaults.Run.TimeoutSeconds)
	viper.SetDefault("run.save_outputs", defaults.Run.SaveOutputs)
	viper.SetDefault("run.output_dir", defaults.Run.OutputDir)
	viper.SetDefault("run.continue_on_error", defaults.Run.ContinueOnError)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.pretty", defaults.Output.Pretty)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "runlet")
	}
	// Fall back to ~/.config/runlet
	home, err := os.UserHomeDir()
	if err != nil {
		return ".runlet"
	}
	return filepath.Join(home, ".config", "runlet")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
