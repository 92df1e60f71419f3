package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event messages written by the evaluator.
const (
	EventEval           = "eval"
	EventMalformed      = "malformed expression"
	EventSpawn          = "spawn"
	EventExit           = "exit"
	EventExecFailed     = "exec failed"
	EventRedirectFailed = "redirect failed"
	EventPipe           = "pipe"
	EventBackground     = "background"
	EventJobStarted     = "job started"
	EventJobFinished    = "job finished"
	EventJobReaped      = "job reaped"
	EventUnownedReaped  = "unowned child reaped"
)

// SessionKey is the field holding the session ID.
const SessionKey = "session"

// ParseLevel converts a config level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return level, fmt.Errorf("unknown log level %q", name)
	}
	return level, nil
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	cfg.StacktraceKey = ""
	return cfg
}

// NewJSONLinesCore creates a core that writes events at or above level to w
// in newline delimited JSON object format.
func NewJSONLinesCore(w io.Writer, level zapcore.LevelEnabler) zapcore.Core {
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.Lock(zapcore.AddSync(w)), level)
}

// NewConsoleCore creates a human readable core for diagnostics.
func NewConsoleCore(w io.Writer, level zapcore.LevelEnabler) zapcore.Core {
	cfg := encoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(zapcore.AddSync(w)), level)
}

// New creates a Logger writing JSON lines to w.
func New(w io.Writer, level zapcore.LevelEnabler) *zap.Logger {
	return zap.New(NewJSONLinesCore(w, level))
}

// NewSession returns a logger that tags every event with a fresh session ID
// along with the ID.
func NewSession(l *zap.Logger) (*zap.Logger, string) {
	id := uuid.New().String()
	return l.With(zap.String(SessionKey, id)), id
}
