package eventbus

// Kind is one of the event kinds listed in the event stream contract (§6).
type Kind string

const (
	KindBuildStarted        Kind = "build-started"
	KindBuildLayerStarted   Kind = "build-layer-started"
	KindBuildLayerCompleted Kind = "build-layer-completed"
	KindJobStarted          Kind = "job-started"
	KindJobFinished         Kind = "job-finished"
	KindJobFailed           Kind = "job-failed"
	KindBuildCompleted      Kind = "build-completed"
	KindBuildFailed         Kind = "build-failed"
	KindScriptLog           Kind = "script-log"
	KindCommandStdout       Kind = "command-stdout"
	KindCommandStderr       Kind = "command-stderr"
	KindCacheHit            Kind = "cache-hit"
	KindCacheMiss           Kind = "cache-miss"
)

type Level string

const (
	LevelTrace Level = "trace"
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is a single typed record in the event stream (§6). Emission must
// be lossless: Sinks are never permitted to silently drop an Event.
type Event struct {
	TimestampMillis int64                  `json:"timestamp_millis"`
	Level           Level                  `json:"level"`
	ContextID       string                 `json:"context_id"`
	ParentContextID string                 `json:"parent_context_id,omitempty"`
	Kind            Kind                   `json:"kind"`
	Payload         map[string]interface{} `json:"payload,omitempty"`
}

func NewEvent(scope *Scope, level Level, kind Kind, payload map[string]interface{}) Event {
	return Event{
		Level:           level,
		ContextID:       scope.ID,
		ParentContextID: scope.ParentID,
		Kind:            kind,
		Payload:         payload,
	}
}
