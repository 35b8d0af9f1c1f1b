package cmd

import (
	"github.com/Iron-Ham/resumer/internal/checkpoint"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Decide which checkpoint to resume from",
	Long: `Decide which checkpoint a run should resume from.

For the pretrain phase the run directory itself is searched. For
target_train, tasks are searched from the last to the first in the order
given, and the first one with a complete checkpoint is resumed at its
highest epoch.

Examples:
  # Resume pretraining
  resumer resolve --dir runs/exp1

  # Resume fine-tuning across tasks, as JSON
  resumer resolve --dir runs/exp1 --phase target_train -t mrpc -t sst -o json

  # Fail if a fresh run would overwrite checkpoints
  resumer resolve --dir runs/exp1 --load-model=false --strict`,
	Args: cobra.NoArgs,
	RunE: runResolve,
}

var resolveStrict bool

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().BoolVar(&resolveStrict, "strict", false, "fail when model loading is off but checkpoints exist")
}

func runResolve(cmd *cobra.Command, args []string) error {
	e, err := newEnv(cmd)
	if err != nil {
		return err
	}
	defer e.logger.Close()

	dir, err := e.runDir()
	if err != nil {
		return err
	}
	run := e.cfg.Run
	phase := checkpoint.Phase(run.Phase)
	tasks := run.CheckpointTasks()

	if resolveStrict {
		if err := e.resolver.GuardOverwrite(dir, tasks, phase, run.LoadModel); err != nil {
			return err
		}
	}

	ckpt, err := e.resolver.CheckPrevious(dir, tasks, phase, run.LoadModel)
	if err != nil {
		return err
	}
	return e.printer.Checkpoint(ckpt)
}
