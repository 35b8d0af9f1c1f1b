// Package cmd implements the resumer command line.
package cmd

import (
	"errors"
	"strings"

	"github.com/Iron-Ham/resumer/internal/checkpoint"
	"github.com/Iron-Ham/resumer/internal/config"
	"github.com/Iron-Ham/resumer/internal/logging"
	"github.com/Iron-Ham/resumer/internal/report"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "resumer",
	Short: "Find the checkpoint a training run should resume from",
	Long: `Resumer scans a training run directory for checkpoint state files and
decides which checkpoint a resumed run should load.

Pretraining checkpoints live at the top of the run directory; fine-tuning
checkpoints live in one subdirectory per task. A checkpoint is only usable
when its model, task, training and metric state files all exist.`,
	SilenceUsage: true,
}

// flagBindings maps persistent flags to config keys
var flagBindings = map[string]string{
	"config":     "config",
	"dir":        "run.dir",
	"phase":      "run.phase",
	"task":       "run.tasks",
	"load-model": "run.load_model",
	"format":     "output.format",
	"color":      "output.color",
	"log":        "logging.enabled",
	"log-level":  "logging.level",
	"log-dir":    "logging.dir",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/resumer/config.yaml)")
	flags.StringP("dir", "d", "", "run directory")
	flags.StringP("phase", "p", string(checkpoint.PhasePretrain), "training phase (pretrain/target_train)")
	flags.StringSliceP("task", "t", nil, "task names in training order (repeatable)")
	flags.Bool("load-model", true, "resume from existing checkpoints")
	flags.StringP("format", "o", report.FormatText, "output format (text/json/yaml)")
	flags.Bool("color", true, "style text output")
	flags.Bool("log", false, "write structured logs")
	flags.String("log-level", "info", "log level (debug/info/warn/error)")
	flags.String("log-dir", "", "directory for resumer.log (default: stderr)")
}

func initConfig() {
	// Bindings are refreshed on every run so a viper reset does not lose them
	for flag, key := range flagBindings {
		_ = viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}

	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RESUMER")
	// e.g., RESUMER_RUN_DIR for run.dir
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// env bundles what every subcommand needs.
type env struct {
	cfg      *config.Config
	logger   *logging.Logger
	resolver *checkpoint.Resolver
	printer  *report.Printer
}

// newEnv loads the configuration and builds the resolver and printer for cmd.
// The caller must close env.logger.
func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.NopLogger()
	if cfg.Logging.Enabled {
		logger, err = logging.NewLogger(cfg.Logging.Dir, cfg.Logging.Level)
		if err != nil {
			return nil, err
		}
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		resolver: checkpoint.NewResolver(afero.NewOsFs(), logger.With("command", cmd.Name())),
		printer:  report.NewPrinter(cmd.OutOrStdout(), cfg.Output.Format, cfg.Output.Color),
	}, nil
}

var errNoRunDir = errors.New("run directory is required (use --dir or set run.dir)")

func (e *env) runDir() (string, error) {
	if e.cfg.Run.Dir == "" {
		return "", errNoRunDir
	}
	return e.cfg.Run.Dir, nil
}

// taskArg returns the optional task positional argument.
func taskArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
