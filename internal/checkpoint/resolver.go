package checkpoint

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/Iron-Ham/resumer/internal/logging"
	"github.com/spf13/afero"
)

// Sentinel errors returned by the resolver
var (
	// ErrEmptyRunDir is returned when no run directory was given.
	ErrEmptyRunDir = errors.New("run directory must not be empty")
	// ErrNoBestCheckpoint is returned by BestModelPath when no best model
	// state exists for the phase.
	ErrNoBestCheckpoint = errors.New("no best checkpoint found")
	// ErrExistingCheckpoints is returned by GuardOverwrite when a run
	// directory already holds checkpoints that a fresh run would overwrite.
	ErrExistingCheckpoints = errors.New("existing checkpoints would be overwritten")
	// ErrInvalidTaskName is returned when a task name is not a single path
	// element and would resolve outside the run directory.
	ErrInvalidTaskName = errors.New("invalid task name")
)

// NoEpoch is the epoch reported when no complete checkpoint exists.
const NoEpoch = -1

// Task is anything that can name a fine-tuning task. The name is used as the
// subdirectory of the run directory holding that task's checkpoints.
type Task interface {
	Name() string
}

// TaskName is a Task identified only by its name.
type TaskName string

// Name implements Task.
func (t TaskName) Name() string { return string(t) }

// TaskNames wraps plain names as tasks, preserving order.
func TaskNames(names ...string) []Task {
	tasks := make([]Task, 0, len(names))
	for _, n := range names {
		tasks = append(tasks, TaskName(n))
	}
	return tasks
}

// Checkpoint identifies one complete set of state files.
type Checkpoint struct {
	// Dir is the directory holding the state files.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
	// Task is the task subdirectory name, empty for pretraining.
	Task   string `json:"task" yaml:"task"`
	Phase  Phase  `json:"phase,omitempty" yaml:"phase,omitempty"`
	Epoch  int    `json:"epoch" yaml:"epoch"`
	Best   bool   `json:"best" yaml:"best"`
	Suffix string `json:"suffix" yaml:"suffix"`
}

// NotFound returns the sentinel result for "no complete checkpoint".
func NotFound() Checkpoint {
	return Checkpoint{Epoch: NoEpoch}
}

// Found reports whether c refers to a real checkpoint.
func (c Checkpoint) Found() bool {
	return c.Epoch != NoEpoch && c.Suffix != ""
}

// Paths returns the state file path for every kind. It returns nil when the
// checkpoint was not found.
func (c Checkpoint) Paths() map[Kind]string {
	if !c.Found() {
		return nil
	}
	paths := make(map[Kind]string, len(AllKinds()))
	for _, k := range AllKinds() {
		paths[k] = filepath.Join(c.Dir, FileName(k, c.Suffix))
	}
	return paths
}

// Resolver scans run directories for resumable checkpoints.
type Resolver struct {
	fs     afero.Fs
	logger *logging.Logger
}

// NewResolver creates a Resolver reading from fsys. A nil logger discards
// all output.
func NewResolver(fsys afero.Fs, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Resolver{fs: fsys, logger: logger}
}

// Scan returns every complete checkpoint of the given phase in dir (or in
// dir/taskName when taskName is not empty), ordered by epoch with plain
// checkpoints before best ones of the same epoch. A missing directory yields
// no checkpoints and no error. A taskName that is not a single path element
// returns ErrInvalidTaskName.
func (r *Resolver) Scan(dir string, phase Phase, taskName string) ([]Checkpoint, error) {
	if dir == "" {
		return nil, ErrEmptyRunDir
	}
	target, err := targetDir(dir, taskName)
	if err != nil {
		return nil, err
	}
	log := r.logger.WithPhase(string(phase))
	if taskName != "" {
		log = log.WithTask(taskName)
	}
	log = log.With("dir", target)

	names, err := r.listNames(target)
	if err != nil {
		return nil, err
	}

	type group struct {
		name  Name
		kinds map[Kind]bool
	}
	groups := make(map[string]*group)
	for _, n := range names {
		if n.Phase != phase {
			continue
		}
		key := n.Suffix()
		g, ok := groups[key]
		if !ok {
			g = &group{name: n, kinds: make(map[Kind]bool, 4)}
			groups[key] = g
		}
		g.kinds[n.Kind] = true
	}

	var found []Checkpoint
	for suffix, g := range groups {
		if missing := missingKinds(g.kinds); len(missing) > 0 {
			log.Debug("skipping incomplete checkpoint", "suffix", suffix, "missing", missing)
			continue
		}
		found = append(found, Checkpoint{
			Dir:    target,
			Task:   taskName,
			Phase:  phase,
			Epoch:  g.name.Epoch,
			Best:   g.name.Best,
			Suffix: suffix,
		})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].Epoch != found[j].Epoch {
			return found[i].Epoch < found[j].Epoch
		}
		if found[i].Best != found[j].Best {
			return !found[i].Best
		}
		return found[i].Suffix < found[j].Suffix
	})
	return found, nil
}

// FindLastEpoch returns the complete checkpoint with the highest epoch in dir
// (or dir/taskName). When a plain and a best checkpoint are both complete for
// that epoch, the best one is returned. If nothing complete exists the result
// is NotFound().
func (r *Resolver) FindLastEpoch(dir string, phase Phase, taskName string) (Checkpoint, error) {
	all, err := r.Scan(dir, phase, taskName)
	if err != nil {
		return NotFound(), err
	}
	if len(all) == 0 {
		return NotFound(), nil
	}
	return all[len(all)-1], nil
}

// CheckPrevious decides which checkpoint a run in baseDir should resume from.
//
// When loadModel is false nothing is resumed. Pretraining checkpoints are
// looked up at the top of baseDir and tasks are ignored. For fine-tuning,
// tasks are trained in list order, so the last task in the list that has any
// complete checkpoint is the furthest along; its own highest epoch is
// returned. Task names that are not a single path element are skipped.
// Unknown phases resolve to NotFound().
func (r *Resolver) CheckPrevious(baseDir string, tasks []Task, phase Phase, loadModel bool) (Checkpoint, error) {
	if baseDir == "" {
		return NotFound(), ErrEmptyRunDir
	}
	log := r.logger.WithPhase(string(phase)).With("dir", baseDir)
	if !loadModel {
		log.Debug("model loading disabled, not resuming")
		return NotFound(), nil
	}

	var (
		ckpt Checkpoint
		err  error
	)
	switch phase {
	case PhasePretrain:
		ckpt, err = r.FindLastEpoch(baseDir, PhasePretrain, "")
	case PhaseTargetTrain:
		ckpt, err = r.lastTaskCheckpoint(baseDir, tasks)
	default:
		log.Warn("unknown phase, not resuming")
		return NotFound(), nil
	}
	if err != nil {
		return NotFound(), err
	}

	if ckpt.Found() {
		log.Info("found checkpoint", "task", ckpt.Task, "epoch", ckpt.Epoch, "suffix", ckpt.Suffix)
	} else {
		log.Info("no checkpoint found")
	}
	return ckpt, nil
}

func (r *Resolver) lastTaskCheckpoint(baseDir string, tasks []Task) (Checkpoint, error) {
	for i := len(tasks) - 1; i >= 0; i-- {
		if tasks[i] == nil || tasks[i].Name() == "" {
			continue
		}
		name := tasks[i].Name()
		log := r.logger.WithPhase(string(PhaseTargetTrain)).WithTask(name)
		if !validTaskName(name) {
			log.Warn("skipping task name outside run directory")
			continue
		}
		ckpt, err := r.FindLastEpoch(baseDir, PhaseTargetTrain, name)
		if err != nil {
			return NotFound(), fmt.Errorf("failed to scan task %s: %w", name, err)
		}
		if ckpt.Found() {
			return ckpt, nil
		}
		log.Debug("no complete checkpoint for task")
	}
	return NotFound(), nil
}

// GuardOverwrite returns an error wrapping ErrExistingCheckpoints when
// loadModel is false but baseDir already holds a complete checkpoint for the
// phase. Starting fresh in such a directory would overwrite them.
func (r *Resolver) GuardOverwrite(baseDir string, tasks []Task, phase Phase, loadModel bool) error {
	if loadModel {
		return nil
	}
	ckpt, err := r.CheckPrevious(baseDir, tasks, phase, true)
	if err != nil {
		return err
	}
	if ckpt.Found() {
		return fmt.Errorf("%w: %s holds %s (enable model loading to resume, or remove them)",
			ErrExistingCheckpoints, ckpt.Dir, ckpt.Suffix)
	}
	return nil
}

// BestModelPath returns the path of the model state file of the
// highest-epoch best checkpoint for the phase. Only the model file needs to
// exist; the other kinds are not required for evaluation.
func (r *Resolver) BestModelPath(baseDir string, phase Phase, taskName string) (string, error) {
	if baseDir == "" {
		return "", ErrEmptyRunDir
	}
	target, err := targetDir(baseDir, taskName)
	if err != nil {
		return "", err
	}
	names, err := r.listNames(target)
	if err != nil {
		return "", err
	}

	var (
		best  Name
		found bool
	)
	for _, n := range names {
		if n.Kind != KindModel || n.Phase != phase || !n.Best {
			continue
		}
		if !found || n.Epoch > best.Epoch || (n.Epoch == best.Epoch && n.Suffix() > best.Suffix()) {
			best, found = n, true
		}
	}
	if !found {
		return "", fmt.Errorf("%w for %s in %s", ErrNoBestCheckpoint, phase, target)
	}
	return filepath.Join(target, best.FileName()), nil
}

// listNames returns the parsed checkpoint names of the regular files in dir.
// A missing directory, or a path that is not a directory, has no names.
func (r *Resolver) listNames(dir string) ([]Name, error) {
	info, err := r.fs.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		r.logger.Debug("checkpoint path is not a directory", "dir", dir)
		return nil, nil
	}

	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	names := make([]Name, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n, ok := ParseName(e.Name()); ok {
			names = append(names, n)
		}
	}
	return names, nil
}

func targetDir(dir, taskName string) (string, error) {
	if taskName == "" {
		return dir, nil
	}
	if !validTaskName(taskName) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskName, taskName)
	}
	return filepath.Join(dir, taskName), nil
}

// validTaskName reports whether name is a single path element below the run
// directory.
func validTaskName(name string) bool {
	return name != "." && name != ".." && filepath.Base(name) == name
}

func missingKinds(have map[Kind]bool) []Kind {
	var missing []Kind
	for _, k := range AllKinds() {
		if !have[k] {
			missing = append(missing, k)
		}
	}
	return missing
}
