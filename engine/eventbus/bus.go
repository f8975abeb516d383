package eventbus

import (
	"sync"

	"github.com/benbjohnson/clock"
)

// Sink receives every Event emitted on a Bus. Implementations must not
// drop events (§6: "Emission MUST be lossless").
type Sink interface {
	Emit(Event)
}

// SinkToken identifies a Sink previously registered with AddSink, so it
// can later be unregistered with RemoveSink.
type SinkToken uint64

type sinkEntry struct {
	token SinkToken
	sink  Sink
}

// Bus fans emitted events out to every registered Sink.
type Bus struct {
	mu     sync.Mutex
	sinks  []sinkEntry
	nextID SinkToken
	clock  clock.Clock
}

func NewBus(c clock.Clock) *Bus {
	if c == nil {
		c = clock.New()
	}
	return &Bus{clock: c}
}

// AddSink registers a Sink and returns a token RemoveSink can later use to
// unregister it. Safe to call concurrently with Emit.
func (b *Bus) AddSink(s Sink) SinkToken {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	token := b.nextID
	b.sinks = append(b.sinks, sinkEntry{token: token, sink: s})
	return token
}

// RemoveSink unregisters the Sink returned by the matching AddSink call.
// Callers that attach a sink scoped to one build or one HTTP connection
// (a ReplaySink, an NDJSONSink streaming to a client) must call this once
// that scope ends, or the sink leaks and every future Emit keeps invoking
// it. A no-op if token is unknown or was already removed.
func (b *Bus) RemoveSink(token SinkToken) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, entry := range b.sinks {
		if entry.token == token {
			b.sinks = append(b.sinks[:i], b.sinks[i+1:]...)
			return
		}
	}
}

// Emit stamps the event with the bus's clock and fans it out to every
// sink.
func (b *Bus) Emit(e Event) {
	e.TimestampMillis = b.clock.Now().UnixMilli()
	b.mu.Lock()
	sinks := make([]Sink, len(b.sinks))
	for i, entry := range b.sinks {
		sinks[i] = entry.sink
	}
	b.mu.Unlock()
	for _, s := range sinks {
		s.Emit(e)
	}
}
