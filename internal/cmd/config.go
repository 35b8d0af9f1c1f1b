package cmd

import (
	"fmt"

	"github.com/Iron-Ham/resumer/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View resumer configuration",
	Long: `View resumer configuration.

Without arguments, displays the effective configuration after merging
defaults, the config file, RESUMER_* environment variables and flags.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Close()

	return e.printer.Value(e.cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = config.ConfigFile()
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
	return err
}
