package eventbus

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"github.com/forgebuild/forge/common/logger"
	"github.com/forgebuild/forge/common/model"
)

// LogrusSink forwards every event to a logger.Log at a level derived from
// the event's own Level, attaching the event kind as a structured field.
type LogrusSink struct {
	log logger.Log
}

func NewLogrusSink(log logger.Log) *LogrusSink {
	return &LogrusSink{log: log}
}

func (s *LogrusSink) Emit(e Event) {
	log := s.log.WithField("kind", string(e.Kind)).WithField("context", e.ContextID)
	msg := ""
	if e.Payload != nil {
		if m, ok := e.Payload["message"]; ok {
			if str, ok := m.(string); ok {
				msg = str
			}
		}
	}
	switch e.Level {
	case LevelTrace, LevelDebug:
		log.Debug(msg)
	case LevelWarn:
		log.Warn(msg)
	case LevelError:
		log.Error(msg)
	default:
		log.Info(msg)
	}
}

// ReplaySink accumulates events for a single artifact build into
// model.ReplayLogEntry values, so a later cache hit can replay them
// verbatim under a new context id (§4.G, §8 scenario 4).
type ReplaySink struct {
	mu      sync.Mutex
	entries []model.ReplayLogEntry
}

func NewReplaySink() *ReplaySink {
	return &ReplaySink{}
}

func (s *ReplaySink) Emit(e Event) {
	msg := ""
	fields := make(map[string]string)
	for k, v := range e.Payload {
		if k == "message" {
			if str, ok := v.(string); ok {
				msg = str
				continue
			}
		}
		fields[k] = toString(v)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, model.ReplayLogEntry{
		TimestampMillis: e.TimestampMillis,
		Level:           string(e.Level),
		Kind:            string(e.Kind),
		Message:         msg,
		Fields:          fields,
	})
}

// Entries returns a copy of the entries recorded so far.
func (s *ReplaySink) Entries() []model.ReplayLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ReplayLogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Replay re-emits a previously recorded log (from an ArtifactCacheEntry)
// onto bus under the given scope, preserving kind/level/message/fields but
// stamping a fresh timestamp and the new build's context id.
func Replay(bus *Bus, scope *Scope, entries []model.ReplayLogEntry) {
	for _, entry := range entries {
		payload := map[string]interface{}{"message": entry.Message, "replayed": true}
		for k, v := range entry.Fields {
			payload[k] = v
		}
		bus.Emit(Event{
			Level:           Level(entry.Level),
			ContextID:       scope.ID,
			ParentContextID: scope.ParentID,
			Kind:            Kind(entry.Kind),
			Payload:         payload,
		})
	}
}

func toString(v interface{}) string {
	if str, ok := v.(string); ok {
		return str
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// NDJSONSink writes each event as a line of JSON to an io.Writer, for the
// optional HTTP event-stream/diagnostics surface.
type NDJSONSink struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewNDJSONSink(w io.Writer) *NDJSONSink {
	return &NDJSONSink{w: bufio.NewWriter(w)}
}

func (s *NDJSONSink) Emit(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	s.w.Write(b)
	s.w.WriteByte('\n')
	s.w.Flush()
}
