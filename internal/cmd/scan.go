package cmd

import (
	"path/filepath"

	"github.com/Iron-Ham/resumer/internal/checkpoint"
	"github.com/spf13/cobra"
)

var lastCmd = &cobra.Command{
	Use:   "last [task]",
	Short: "Show the highest complete checkpoint in a directory",
	Long: `Show the highest-epoch complete checkpoint of the configured phase.

Without a task the run directory itself is searched; with a task, its
subdirectory is.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLast,
}

var listCmd = &cobra.Command{
	Use:   "list [task]",
	Short: "List every complete checkpoint in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

var bestCmd = &cobra.Command{
	Use:   "best [task]",
	Short: "Print the path of the best model state",
	Long: `Print the path of the model state file of the highest-epoch best
checkpoint. Only the model file has to exist.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBest,
}

func init() {
	rootCmd.AddCommand(lastCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(bestCmd)
}

func runLast(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Close()

	dir, err := e.runDir()
	if err != nil {
		return err
	}
	ckpt, err := e.resolver.FindLastEpoch(dir, checkpoint.Phase(e.cfg.Run.Phase), taskArg(args))
	if err != nil {
		return err
	}
	return e.printer.Checkpoint(ckpt)
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Close()

	dir, err := e.runDir()
	if err != nil {
		return err
	}
	task := taskArg(args)
	all, err := e.resolver.Scan(dir, checkpoint.Phase(e.cfg.Run.Phase), task)
	if err != nil {
		return err
	}
	if task != "" {
		dir = filepath.Join(dir, task)
	}
	return e.printer.Checkpoints(dir, all)
}

func runBest(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Close()

	dir, err := e.runDir()
	if err != nil {
		return err
	}
	path, err := e.resolver.BestModelPath(dir, checkpoint.Phase(e.cfg.Run.Phase), taskArg(args))
	if err != nil {
		return err
	}
	return e.printer.Path(path)
}
