package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]struct {
		expected zapcore.Level
		wantErr  bool
	}{
		"debug":   {zapcore.DebugLevel, false},
		"INFO":    {zapcore.InfoLevel, false},
		"warn":    {zapcore.WarnLevel, false},
		"error":   {zapcore.ErrorLevel, false},
		"verbose": {0, true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			level, err := ParseLevel(name)
			if tc.wantErr {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, tc.expected, level)
		})
	}
}

func TestNewSession(t *testing.T) {
	buf := &bytes.Buffer{}
	log, id := NewSession(New(buf, zapcore.DebugLevel))
	assert.Len(t, id, 36)

	log.Info(EventEval, zap.String("expr", "true"))

	var entries []*LogEntry
	assert.Nil(t, ReadJSONLinesLog(buf, func(le *LogEntry) { entries = append(entries, le) }))
	assert.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].SessionID)
	assert.Equal(t, EventEval, entries[0].Message)
	assert.Equal(t, "true", entries[0].Expr)
	assert.Equal(t, "info", entries[0].Level)
	assert.NotZero(t, entries[0].Timestamp)
}

func TestReport(t *testing.T) {
	buf := &bytes.Buffer{}
	base := New(buf, zapcore.DebugLevel)
	first, _ := NewSession(base)
	second, _ := NewSession(base)

	first.Debug(EventEval, zap.String("expr", "ls | wc"))
	first.Debug(EventSpawn, zap.Strings("argv", []string{"ls", "-l"}), zap.Int("pid", 10))
	first.Debug(EventExit, zap.Int("pid", 10), zap.Int("status", 0))
	first.Debug(EventPipe, zap.Int("job", 1))
	first.Debug(EventJobStarted, zap.Int("job", 1), zap.String("kind", "pipeline"))
	first.Debug(EventJobFinished, zap.Int("job", 1), zap.String("kind", "pipeline"), zap.Int("status", 0))
	second.Info(EventExecFailed, zap.Strings("argv", []string{"nope"}), zap.Error(errors.New("not found")))
	second.Info(EventExecFailed, zap.Strings("argv", []string{"nope"}), zap.Error(errors.New("not found")))
	second.Info(EventRedirectFailed, zap.Error(errors.New("redirection failed: denied")))
	second.Debug(EventSpawn, zap.Strings("argv", []string{"ls"}), zap.Int("pid", 11))
	second.Debug(EventExit, zap.Int("pid", 11), zap.Int("status", 139))
	base.Debug(EventJobReaped, zap.Int("job", 1), zap.String("kind", "pipeline"), zap.Int("status", 0))
	base.Debug(EventUnownedReaped, zap.Int("pid", 12))
	second.Debug(EventMalformed, zap.Error(errors.New("malformed expression: Pipe needs two operands")))
	base.Debug("something else")

	report := NewReport()
	assert.Nil(t, ReadJSONLinesLog(buf, report.Update))

	assert.Equal(t, 15, report.LogEntries)
	assert.Equal(t, 2, report.Sessions)
	assert.Equal(t, 1, report.Evaluations)
	assert.Equal(t, 1, report.Pipes)
	assert.Equal(t, 2, report.Commands.Get("ls"))
	assert.Equal(t, 1, report.ExitStatuses.Get("0"))
	assert.Equal(t, 1, report.ExitStatuses.Get("139"))
	assert.Equal(t, 1, report.Jobs.Get("pipeline"))
	assert.Equal(t, 1, report.JobStatuses.Get("0"))
	assert.Equal(t, 1, report.ReapedJobs.Get("pipeline"))
	assert.Equal(t, 1, report.Malformed)
	assert.Equal(t, 2, report.ExecFailures.Get("nope", "not found"))
	assert.Equal(t, 1, report.RedirectFailures.Get("redirection failed: denied"))
	assert.Equal(t, 1, report.UnownedReaped)
	assert.Equal(t, 1, report.InvalidEntries.Get("something else"))
}

func TestReadJSONLinesLog_Invalid(t *testing.T) {
	err := ReadJSONLinesLog(strings.NewReader(`{"msg": "eval"} {not json`), func(*LogEntry) {})
	assert.NotNil(t, err)
}

func TestPathCounter_MarshalJSON(t *testing.T) {
	ctr := NewPathCounter("command", "error")
	ctr.Increment("a", "x")
	ctr.Increment("b", "y")
	ctr.Increment("b", "y")
	ctr.Increment("a", "w")

	out, err := json.Marshal(ctr)
	assert.Nil(t, err)
	assert.JSONEq(t, `[
		{"count": 2, "event": {"command": "b", "error": "y"}},
		{"count": 1, "event": {"command": "a", "error": "w"}},
		{"count": 1, "event": {"command": "a", "error": "x"}}
	]`, string(out))

	assert.Panics(t, func() { ctr.Increment("too", "many", "columns") })
}

func TestStrCounter_MarshalJSON(t *testing.T) {
	var ctr StrCounter
	ctr.Increment("ls")
	ctr.Increment("ls")
	ctr.Increment("cat")

	out, err := json.Marshal(ctr)
	assert.Nil(t, err)
	assert.JSONEq(t, `{"ls": 2, "cat": 1}`, string(out))
}
