// Package checkpoint locates the checkpoint a training run should resume from.
//
// A training run writes its state into a run directory. Each checkpoint is a
// set of four files, one per [Kind], sharing a common suffix:
//
//	model_state_pretrain_epoch_3.best.th
//	task_state_pretrain_epoch_3.best.th
//	training_state_pretrain_epoch_3.best.th
//	metric_state_pretrain_epoch_3.best.th
//
// Pretraining checkpoints live at the top of the run directory. Fine-tuning
// ([PhaseTargetTrain]) checkpoints live in one subdirectory per task.
//
// # Completeness
//
// An epoch is only usable when all four kinds exist with an identical suffix.
// A best file and a plain file for the same epoch are different checkpoints:
// "model_state_pretrain_epoch_2.th" does not complete
// "task_state_pretrain_epoch_2.best.th". Incomplete sets are skipped without
// error, as are file names that do not match the naming scheme.
//
// # Basic Usage
//
//	r := checkpoint.NewResolver(afero.NewOsFs(), logger)
//
//	// Most advanced pretraining checkpoint
//	ckpt, err := r.FindLastEpoch(runDir, checkpoint.PhasePretrain, "")
//
//	// Resume target for fine-tuning across tasks
//	ckpt, err = r.CheckPrevious(runDir, tasks, checkpoint.PhaseTargetTrain, true)
//	if err != nil {
//	    return err
//	}
//	if ckpt.Found() {
//	    paths := ckpt.Paths() // one file per Kind
//	}
//
// # Testing
//
// The resolver reads through an [afero.Fs], so tests can lay out a run
// directory in memory with afero.NewMemMapFs().
//
// # Thread Safety
//
// A [Resolver] holds no mutable state and never writes to the file system.
// It is safe for concurrent use.
package checkpoint
