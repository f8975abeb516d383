package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const defaultLogLevel = logrus.InfoLevel

var levelMap = map[string]logrus.Level{
	"trace": logrus.TraceLevel,
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
}

// LogLevelConfig is a comma-separated "subsystem=level" list, e.g.
// "Executor=debug,ArtifactCache=trace".
type LogLevelConfig string

// LogRegistry tracks the configured level for each named subsystem.
type LogRegistry struct {
	mu               sync.Mutex
	loggerBySystem   map[string]*logrus.Logger
	levelBySubsystem map[string]logrus.Level
}

func NewLogRegistry(config LogLevelConfig) (*LogRegistry, error) {
	r := &LogRegistry{
		loggerBySystem:   make(map[string]*logrus.Logger),
		levelBySubsystem: make(map[string]logrus.Level),
	}
	if config == "" {
		return r, nil
	}
	for _, pair := range strings.Split(string(config), ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid log level entry %q", pair)
		}
		level, ok := levelMap[parts[1]]
		if !ok {
			return nil, fmt.Errorf("invalid log level %q for subsystem %q", parts[1], parts[0])
		}
		r.levelBySubsystem[parts[0]] = level
	}
	return r, nil
}

func (r *LogRegistry) GetLogLevel(subsystem string) logrus.Level {
	r.mu.Lock()
	defer r.mu.Unlock()
	if level, ok := r.levelBySubsystem[subsystem]; ok {
		return level
	}
	return defaultLogLevel
}

func (r *LogRegistry) RegisterLogger(subsystem string, log *logrus.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loggerBySystem[subsystem] = log
}
