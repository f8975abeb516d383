package executor

import (
	"bufio"
	"bytes"

	"github.com/forgebuild/forge/engine/eventbus"
)

// lineEmitter is an io.Writer that splits arbitrary writes on newlines and
// emits one event per complete line, buffering any trailing partial line
// until the next write or Close.
type lineEmitter struct {
	bus   *eventbus.Bus
	scope *eventbus.Scope
	kind  eventbus.Kind
	buf   bytes.Buffer
}

func newLineEmitter(bus *eventbus.Bus, scope *eventbus.Scope, kind eventbus.Kind) *lineEmitter {
	return &lineEmitter{bus: bus, scope: scope, kind: kind}
}

func (w *lineEmitter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	scanner := bufio.NewScanner(bytes.NewReader(w.buf.Bytes()))
	var consumed int
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		consumed += len(scanner.Bytes()) + 1
	}
	if consumed > 0 && consumed <= w.buf.Len() {
		remaining := make([]byte, w.buf.Len()-consumed)
		copy(remaining, w.buf.Bytes()[consumed:])
		w.buf.Reset()
		w.buf.Write(remaining)
	}
	for _, line := range lines {
		w.bus.Emit(eventbus.NewEvent(w.scope, eventbus.LevelInfo, w.kind, map[string]interface{}{"line": line}))
	}
	return len(p), nil
}
