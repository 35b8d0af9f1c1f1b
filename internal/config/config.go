package config

import (
	"os"
	"path/filepath"

	"github.com/Iron-Ham/resumer/internal/checkpoint"
	"github.com/spf13/viper"
)

// Config represents the complete resumer configuration
type Config struct {
	Run     RunConfig     `mapstructure:"run" yaml:"run"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// RunConfig describes the run directory to inspect
type RunConfig struct {
	// Dir is the run directory holding pretraining checkpoints and one
	// subdirectory per task
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Phase is the training phase to resume: "pretrain" or "target_train"
	// (default: "pretrain")
	Phase string `mapstructure:"phase" yaml:"phase"`
	// Tasks lists fine-tuning tasks in training order. Only used for the
	// target_train phase.
	Tasks []string `mapstructure:"tasks" yaml:"tasks"`
	// LoadModel enables resuming from checkpoints (default: true).
	// When false no checkpoint is ever selected.
	LoadModel bool `mapstructure:"load_model" yaml:"load_model"`
}

// OutputConfig controls how results are printed
type OutputConfig struct {
	// Format is one of "text", "json", "yaml" (default: "text")
	Format string `mapstructure:"format" yaml:"format"`
	// Color enables styled text output (default: true)
	Color bool `mapstructure:"color" yaml:"color"`
}

// LoggingConfig controls structured logging
type LoggingConfig struct {
	// Enabled turns on JSON logging (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where resumer.log is written. Empty means stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// CheckpointTasks returns the configured task names as checkpoint tasks.
func (r RunConfig) CheckpointTasks() []checkpoint.Task {
	return checkpoint.TaskNames(r.Tasks...)
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Dir:       "",
			Phase:     string(checkpoint.PhasePretrain),
			Tasks:     []string{},
			LoadModel: true,
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
		Logging: LoggingConfig{
			Enabled: false,
			Level:   "info",
			Dir:     "",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Run defaults
	viper.SetDefault("run.dir", defaults.Run.Dir)
	viper.SetDefault("run.phase", defaults.Run.Phase)
	viper.SetDefault("run.tasks", defaults.Run.Tasks)
	viper.SetDefault("run.load_model", defaults.Run.LoadModel)

	// Output defaults
	viper.SetDefault("output.format", defaults.Output.Format)
	viper.SetDefault("output.color", defaults.Output.Color)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
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

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "resumer")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".resumer"
	}
	return filepath.Join(home, ".config", "resumer")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
