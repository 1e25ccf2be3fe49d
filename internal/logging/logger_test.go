package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(cfg Config) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg.Output = buf
	return New(cfg), buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) Entry {
	t.Helper()
	var e Entry
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("parse JSON log output %q: %v", buf.String(), err)
	}
	return e
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tc := range tests {
		if got := ParseLevel(tc.input); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.level.String(); got != tc.want {
			t.Errorf("Level(%d).String() = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"json", FormatJSON},
		{"text", FormatText},
		{"yaml", FormatJSON},
		{"", FormatJSON},
	}
	for _, tc := range tests {
		if got := ParseFormat(tc.input); got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.input, got, tc.want)
		}
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	l.Info("test message")

	e := decodeEntry(t, buf)
	if e.Message != "test message" {
		t.Errorf("message = %q, want %q", e.Message, "test message")
	}
	if e.Level != "info" {
		t.Errorf("level = %q, want %q", e.Level, "info")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelWarn, Format: FormatJSON})

	l.Debug("debug msg")
	l.Info("info msg")
	l.Infof("info msg", map[string]any{"k": "v"})
	if buf.Len() > 0 {
		t.Errorf("debug/info should be filtered at warn level, got %q", buf.String())
	}

	l.Warn("warn msg")
	if buf.Len() == 0 {
		t.Error("warn should be logged at warn level")
	}
}

func TestLoggerLeveledMethods(t *testing.T) {
	tests := []struct {
		name string
		emit func(*Logger)
		want string
	}{
		{"Debugf", func(l *Logger) { l.Debugf("m", map[string]any{"k": "v"}) }, "debug"},
		{"Infof", func(l *Logger) { l.Infof("m", map[string]any{"k": "v"}) }, "info"},
		{"Warnf", func(l *Logger) { l.Warnf("m", map[string]any{"k": "v"}) }, "warn"},
		{"Errorf", func(l *Logger) { l.Errorf("m", map[string]any{"k": "v"}) }, "error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, buf := newTestLogger(Config{Level: LevelDebug, Format: FormatJSON})
			tc.emit(l)
			e := decodeEntry(t, buf)
			if e.Level != tc.want {
				t.Errorf("level = %q, want %q", e.Level, tc.want)
			}
			if e.Fields["k"] != "v" {
				t.Errorf("fields[k] = %v, want %q", e.Fields["k"], "v")
			}
		})
	}
}

func TestLoggerWithFields(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	l.With(map[string]any{"table": "t1"}).Info("with fields")

	e := decodeEntry(t, buf)
	if e.Fields["table"] != "t1" {
		t.Errorf("fields[table] = %v, want %q", e.Fields["table"], "t1")
	}
}

func TestLoggerPerCallFieldsOverrideBound(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	l.With(map[string]any{"stage": "bound"}).Infof("m", map[string]any{"stage": "call"})

	e := decodeEntry(t, buf)
	if e.Fields["stage"] != "call" {
		t.Errorf("fields[stage] = %v, want per-call value to win", e.Fields["stage"])
	}
}

func TestLoggerWithCorrelationID(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	l.WithCorrelationID("corr-123").Info("with correlation id")

	e := decodeEntry(t, buf)
	if e.CorrelationID != "corr-123" {
		t.Errorf("correlationId = %q, want %q", e.CorrelationID, "corr-123")
	}
}

func TestLoggerCaller(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelDebug, Format: FormatJSON, AddCaller: true})

	l.Debug("with caller info")

	e := decodeEntry(t, buf)
	if !strings.HasSuffix(e.File, "logger_test.go") {
		t.Errorf("file = %q, want suffix logger_test.go", e.File)
	}
	if e.Line == 0 {
		t.Error("line should be non-zero when AddCaller is set")
	}
}

func TestLoggerNoCallerByDefault(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelDebug, Format: FormatJSON})

	l.Debug("without caller info")

	e := decodeEntry(t, buf)
	if e.File != "" || e.Line != 0 {
		t.Errorf("caller = %q:%d, want empty without AddCaller", e.File, e.Line)
	}
}

func TestLoggerTextFormat(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatText})

	l.WithCorrelationID("corr-123").Info("text message")

	out := buf.String()
	if !strings.Contains(out, "[info] text message") {
		t.Errorf("text output = %q, want level and message", out)
	}
	if !strings.Contains(out, "correlationId=corr-123") {
		t.Errorf("text output = %q, want correlationId", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Errorf("text output should end with newline, got %q", out)
	}
}

func TestLoggerTextFieldsSorted(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatText})

	l.Infof("m", map[string]any{"zebra": "z", "alpha": "a", "mid": 7})

	out := buf.String()
	alpha := strings.Index(out, "alpha=a")
	mid := strings.Index(out, "mid=7")
	zebra := strings.Index(out, "zebra=z")
	if alpha < 0 || mid < 0 || zebra < 0 {
		t.Fatalf("text output = %q, want all fields", out)
	}
	if !(alpha < mid && mid < zebra) {
		t.Errorf("text output = %q, want fields in sorted key order", out)
	}
}

func TestLoggerTextNonStringField(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatText})

	l.Infof("m", map[string]any{"offsets": []int{1, 2}})

	if out := buf.String(); !strings.Contains(out, "offsets=[1,2]") {
		t.Errorf("text output = %q, want JSON-encoded field value", out)
	}
}

func TestLoggerDerivedSharesOutput(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	l.With(map[string]any{"a": 1}).WithCorrelationID("c").Info("derived")

	if buf.Len() == 0 {
		t.Error("derived logger should write to the parent's output")
	}
}

func TestLoggerWithDoesNotMutateOriginal(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	_ = l.With(map[string]any{"added": "field"})
	l.Info("original logger")

	e := decodeEntry(t, buf)
	if len(e.Fields) > 0 {
		t.Errorf("original logger fields = %v, want none", e.Fields)
	}
}

func TestLoggerWithCorrelationIDDoesNotMutateOriginal(t *testing.T) {
	l, buf := newTestLogger(Config{Level: LevelInfo, Format: FormatJSON})

	_ = l.WithCorrelationID("corr-123")
	l.Info("original logger")

	e := decodeEntry(t, buf)
	if e.CorrelationID != "" {
		t.Errorf("original correlationId = %q, want empty", e.CorrelationID)
	}
}

func TestNewNilOutputDefaultsToStderr(t *testing.T) {
	l := New(Config{Level: LevelInfo})
	if l.out == nil {
		t.Error("nil Output should default to a writer")
	}
}
