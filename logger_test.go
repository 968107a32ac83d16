package courier

import (
	"bytes"
	"log"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func newBufferedSimpleLogger() (*SimpleLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &SimpleLogger{logger: log.New(&buf, "", 0)}, &buf
}

func TestSimpleLoggerOutputShape(t *testing.T) {
	logger, buf := newBufferedSimpleLogger()

	logger.Debug("request started", "method", "GET", "endpoint", "/users")
	line := strings.TrimSpace(buf.String())

	if !strings.HasPrefix(line, "DEBUG request started") {
		t.Errorf("line %q missing level and message prefix", line)
	}
	for _, want := range []string{"method=GET", "endpoint=/users"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
}

func TestSimpleLoggerLevels(t *testing.T) {
	logger, buf := newBufferedSimpleLogger()

	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	out := buf.String()
	for _, level := range []string{"INFO i", "WARN w", "ERROR e"} {
		if !strings.Contains(out, level) {
			t.Errorf("output %q missing %q", out, level)
		}
	}
}

func TestSimpleLoggerIgnoresDanglingKey(t *testing.T) {
	logger, buf := newBufferedSimpleLogger()

	logger.Debug("msg", "key", "value", "dangling")
	line := strings.TrimSpace(buf.String())

	if !strings.Contains(line, "key=value") {
		t.Errorf("line %q missing paired kv", line)
	}
	if strings.Contains(line, "dangling") {
		t.Errorf("line %q must drop the unpaired trailing key", line)
	}
}

func TestFieldsPairing(t *testing.T) {
	got := fields([]any{"method", "GET", "status", 200})
	if len(got) != 2 || got["method"] != "GET" || got["status"] != 200 {
		t.Errorf("fields = %v", got)
	}

	if got := fields([]any{"only-key"}); len(got) != 0 {
		t.Errorf("odd-length kv must yield no fields, got %v", got)
	}
	if got := fields(nil); len(got) != 0 {
		t.Errorf("nil kv must yield no fields, got %v", got)
	}
}

func TestLogrusLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	base := logrus.New()
	base.SetOutput(&buf)
	base.SetLevel(logrus.DebugLevel)

	logger := NewLogrusLogger(base)
	logger.Debug("cache hit", "cacheKey", "users")

	out := buf.String()
	if !strings.Contains(out, "cache hit") || !strings.Contains(out, "cacheKey=users") {
		t.Errorf("logrus output %q missing message or field", out)
	}
}

func TestNewLogrusLoggerDefaultsToStandardLogger(t *testing.T) {
	logger := NewLogrusLogger(nil)
	if logger.logger != logrus.StandardLogger() {
		t.Error("nil logger must fall back to the logrus standard logger")
	}
}

func TestDefaultDebugConfig(t *testing.T) {
	cfg := DefaultDebugConfig()

	if cfg.Enabled {
		t.Error("debug must start disabled")
	}
	if !cfg.LogRequests || !cfg.LogRetries || !cfg.LogCache || !cfg.LogDedup {
		t.Error("every concern must log once debug is enabled")
	}
	if cfg.RequestIDGen == nil {
		t.Fatal("default request id generator must be set")
	}
	if a, b := cfg.RequestIDGen(), cfg.RequestIDGen(); a == "" || a == b {
		t.Errorf("request ids must be non-empty and unique, got %q, %q", a, b)
	}
}
