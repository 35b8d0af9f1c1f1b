package checkpoint

import (
	"fmt"
	"regexp"
	"strconv"
)

// Kind is one of the four state components that make up a checkpoint.
type Kind string

// State kinds written for every checkpoint
const (
	KindModel    Kind = "model"
	KindTask     Kind = "task"
	KindTraining Kind = "training"
	KindMetric   Kind = "metric"
)

// AllKinds returns the state kinds a complete checkpoint must contain.
func AllKinds() []Kind {
	return []Kind{KindModel, KindTask, KindTraining, KindMetric}
}

// Phase is the training stage a checkpoint belongs to.
type Phase string

// Training phases
const (
	// PhasePretrain checkpoints are shared across tasks and stored at the
	// top level of the run directory.
	PhasePretrain Phase = "pretrain"
	// PhaseTargetTrain checkpoints are per-task and stored in a
	// subdirectory named after the task.
	PhaseTargetTrain Phase = "target_train"
)

// ValidPhases returns the list of valid phase values.
func ValidPhases() []Phase {
	return []Phase{PhasePretrain, PhaseTargetTrain}
}

// IsValidPhase checks if the given phase is known.
func IsValidPhase(p Phase) bool {
	for _, valid := range ValidPhases() {
		if p == valid {
			return true
		}
	}
	return false
}

// bestMarker is appended to the epoch of the best-performing checkpoint.
const bestMarker = ".best"

// nameRegex matches <kind>_state_<phase>_epoch_<N>[.best].th
var nameRegex = regexp.MustCompile(`^(model|task|training|metric)_state_(pretrain|target_train)_epoch_([0-9]+)(\.best)?\.th$`)

// Name is a parsed checkpoint file name.
type Name struct {
	Kind  Kind
	Phase Phase
	Epoch int
	Best  bool

	// suffix is the suffix exactly as spelled on disk, e.g. with a
	// zero-padded epoch. Empty for names built in code.
	suffix string
}

// ParseName parses a base file name. It returns false for anything that does
// not follow the checkpoint naming scheme.
func ParseName(name string) (Name, bool) {
	m := nameRegex.FindStringSubmatch(name)
	if m == nil {
		return Name{}, false
	}
	epoch, err := strconv.Atoi(m[3])
	if err != nil {
		// Out of range for int
		return Name{}, false
	}
	return Name{
		Kind:   Kind(m[1]),
		Phase:  Phase(m[2]),
		Epoch:  epoch,
		Best:   m[4] != "",
		suffix: name[len(m[1])+1:],
	}, true
}

// Suffix returns the portion of the file name shared by every kind of the
// same checkpoint, e.g. "state_pretrain_epoch_3.best.th". A parsed name
// keeps the epoch as written, so "epoch_01" is not reported as "epoch_1".
func (n Name) Suffix() string {
	if n.suffix != "" {
		return n.suffix
	}
	return FormatSuffix(n.Phase, n.Epoch, n.Best)
}

// FileName returns the full base file name, e.g. "model_state_pretrain_epoch_3.th".
func (n Name) FileName() string {
	return FileName(n.Kind, n.Suffix())
}

// FormatSuffix builds the shared suffix for a phase and epoch.
func FormatSuffix(phase Phase, epoch int, best bool) string {
	s := fmt.Sprintf("state_%s_epoch_%d", phase, epoch)
	if best {
		s += bestMarker
	}
	return s + ".th"
}

// FileName joins a kind with a checkpoint suffix.
func FileName(kind Kind, suffix string) string {
	return string(kind) + "_" + suffix
}
