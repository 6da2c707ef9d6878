package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/visualtest/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("test") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("test") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("test") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(10 * time.Millisecond)
	prog.done("Removed 3 artifacts")

	if !strings.Contains(buf.String(), "Removed 3 artifacts") {
		t.Errorf("output = %q", buf.String())
	}
	if prog.elapsed() < 10*time.Millisecond {
		t.Errorf("elapsed = %v", prog.elapsed())
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext should fall back to the default logger")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if loggerFromContext(ctx) != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestLogHooks(t *testing.T) {
	defer observability.Reset()

	var buf bytes.Buffer
	installHooks(newLogger(&buf, log.DebugLevel))

	ctx := context.Background()
	observability.Runner().OnRunStart(ctx, 4, 2)
	observability.Runner().OnWorkerComplete(ctx, 1, 6, time.Millisecond)
	observability.Runner().OnStyleSkipped(ctx, "roads", errors.New("redis down"))
	observability.Runner().OnStyleComplete(ctx, "lines", 3, time.Millisecond, nil)
	observability.Runner().OnStyleComplete(ctx, "broken", 1, time.Millisecond, errors.New("bad tiles"))
	observability.Datasource().OnOpen(ctx, "csv", 2, time.Millisecond, nil)
	observability.Datasource().OnOpen(ctx, "redis", 0, time.Millisecond, errors.New("refused"))

	out := buf.String()
	for _, want := range []string{
		"run started", "worker finished", "style skipped", "style evaluated",
		"style failed", "data source opened", "data source failed",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestLogHooksQuietAtInfo(t *testing.T) {
	defer observability.Reset()

	var buf bytes.Buffer
	installHooks(newLogger(&buf, log.InfoLevel))
	observability.Runner().OnRunStart(context.Background(), 1, 1)
	if buf.Len() != 0 {
		t.Errorf("debug hooks logged at info level: %q", buf.String())
	}
}
