package appboot

import "time"

// Log stages reported by Application.
const (
	StageConfig    = "config"
	StageOptions   = "options"
	StageSettings  = "settings"
	StageBootstrap = "bootstrap"
	StageRun       = "run"
	StageEvaluate  = "evaluate"
)

// LogEntry describes one orchestration step for logging.
type LogEntry struct {
	Stage       string
	Environment string
	Detail      string
	Fields      map[string]any
	Duration    time.Duration
	Err         error
}

// Logger records orchestration steps.
type Logger interface {
	Log(LogEntry)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(LogEntry)

// Log implements Logger.
func (f LoggerFunc) Log(entry LogEntry) {
	if f != nil {
		f(entry)
	}
}

type noopLogger struct{}

func (noopLogger) Log(LogEntry) {}

// WithLogger attaches logger to the Application.
func WithLogger(logger Logger) Option {
	return func(cfg *applicationConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}
