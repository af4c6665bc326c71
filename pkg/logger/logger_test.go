package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/papyri/bookvec/pkg/logger"
)

func TestDebugLevelGatesOutput(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriters(false, &buf)

	log.Debug("hidden")
	log.Info("shown")
	_ = log.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("debug message emitted at info level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("info message missing from output")
	}
}

func TestDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewLoggerWithWriters(true, &buf)

	log.Debug("visible")
	_ = log.Sync()

	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug message missing when debug enabled")
	}
}

func TestMultipleWriters(t *testing.T) {
	var a, b bytes.Buffer
	log := logger.NewLoggerWithWriters(false, &a, &b)

	log.Info("fanout")
	_ = log.Sync()

	if !strings.Contains(a.String(), "fanout") || !strings.Contains(b.String(), "fanout") {
		t.Error("log record not fanned out to all writers")
	}
}
