package model

import "fmt"

// ExecutionStage enumerates the phases of a single engine invocation.
// Transitions never move backwards; moving to the current stage again is
// allowed.
type ExecutionStage int

const (
	StageSetup ExecutionStage = iota
	StageDiscovery
	StagePluginLoading
	StageConfiguration
	StageRuntime
	StageShutdown
)

func (s ExecutionStage) String() string {
	switch s {
	case StageSetup:
		return "Setup"
	case StageDiscovery:
		return "Discovery"
	case StagePluginLoading:
		return "PluginLoading"
	case StageConfiguration:
		return "Configuration"
	case StageRuntime:
		return "Runtime"
	case StageShutdown:
		return "Shutdown"
	default:
		return fmt.Sprintf("ExecutionStage(%d)", int(s))
	}
}

// StageTracker enforces that stage transitions only ever move forward.
type StageTracker struct {
	current ExecutionStage
}

func NewStageTracker() *StageTracker {
	return &StageTracker{current: StageSetup}
}

func (t *StageTracker) Current() ExecutionStage {
	return t.current
}

// TransitionTo moves to the given stage, failing if it would go backwards.
func (t *StageTracker) TransitionTo(stage ExecutionStage) error {
	if stage < t.current {
		return fmt.Errorf("cannot move execution stage backwards from %s to %s", t.current, stage)
	}
	t.current = stage
	return nil
}
