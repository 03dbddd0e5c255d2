package logger

import (
	"bytes"
	"strings"
	"testing"
)

func newBufferLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.Colorize = false
	cfg.ShowTime = false
	cfg.Output = &buf
	return New(cfg), &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger(WARN)

	l.Infof("hidden %d", 1)
	l.Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("INFO message should be filtered at WARN level: %q", out)
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("WARN message missing: %q", out)
	}
}

func TestWithFields(t *testing.T) {
	l, buf := newBufferLogger(DEBUG)
	l.WithFields(Fields{"frames": 42}).Debug("extracted")

	out := buf.String()
	if !strings.Contains(out, "frames=42") || !strings.Contains(out, "extracted") {
		t.Errorf("structured fields missing: %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"Error":   ERROR,
		"fatal":   FATAL,
		"bogus":   INFO,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
