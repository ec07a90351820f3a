package pipeline

import "fmt"

// Stage is one step of a run. Stages execute strictly in declaration order.
type Stage int

const (
	StageSelectAsset Stage = iota
	StageComposite
	StageDiffHeatmap
	StageScore
	StagePersist
)

var stageNames = [...]string{
	StageSelectAsset: "select_asset",
	StageComposite:   "composite",
	StageDiffHeatmap: "diff_heatmap",
	StageScore:       "score",
	StagePersist:     "persist",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

// StageError records which stage aborted a run. Earlier stages' files are
// left in place.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
