package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Director != "logs" {
		t.Errorf("expected Director 'logs', got '%s'", cfg.Director)
	}
	if cfg.Level != "info" {
		t.Errorf("expected Level 'info', got '%s'", cfg.Level)
	}
	if !cfg.LogInTerminal {
		t.Error("expected LogInTerminal to be true")
	}
}

func TestConfigTransportLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"unknown", zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := Config{Level: tt.level}
			if got := cfg.TransportLevel(); got != tt.expected {
				t.Errorf("TransportLevel() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.applyDefaults()

	if cfg.Format != "json" || cfg.MaxSize != 100 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !cfg.LogInTerminal {
		t.Error("a logger without Director must fall back to the terminal")
	}
}

func TestLevelFilesAreSplit(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Director = dir
	cfg.LogInTerminal = false
	cfg.Level = "info"

	logger := NewLogger(cfg)
	logger.Info("rendered", zap.String("profile", "login"))
	logger.Error("font failed")
	_ = logger.Sync()

	date := time.Now().Format("2006-01-02")
	info, err := os.ReadFile(filepath.Join(dir, date, "info.log"))
	if err != nil {
		t.Fatalf("read info.log: %v", err)
	}
	if !strings.Contains(string(info), `"profile":"login"`) {
		t.Errorf("info.log missing field: %s", info)
	}
	if strings.Contains(string(info), "font failed") {
		t.Error("error entry leaked into info.log")
	}

	errLog, err := os.ReadFile(filepath.Join(dir, date, "error.log"))
	if err != nil {
		t.Fatalf("read error.log: %v", err)
	}
	if !strings.Contains(string(errLog), "font failed") {
		t.Errorf("error.log missing entry: %s", errLog)
	}
}

func TestLevelWriterRollsOnDateChange(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Director = dir

	day := time.Date(2026, 3, 1, 23, 59, 0, 0, time.Local)
	w := newLevelWriter(cfg, "info")
	w.now = func() time.Time { return day }

	if _, err := w.Write([]byte("a\n")); err != nil {
		t.Fatal(err)
	}
	day = day.Add(2 * time.Minute)
	if _, err := w.Write([]byte("b\n")); err != nil {
		t.Fatal(err)
	}
	_ = w.Close()

	for _, d := range []string{"2026-03-01", "2026-03-02"} {
		if _, err := os.Stat(filepath.Join(dir, d, "info.log")); err != nil {
			t.Errorf("expected file for %s: %v", d, err)
		}
	}
}

func TestWithContextAddsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	ctx := SetTraceID(context.Background(), "trace-1")
	ctx = SetClient(ctx, "10.0.0.1")
	WithContext(logger, ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != "trace-1" || fields["client"] != "10.0.0.1" {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestWithContextNilContext(t *testing.T) {
	logger := Nop()
	//nolint:staticcheck
	if got := WithContext(logger, nil); got != logger {
		t.Error("nil context should return the same logger")
	}
}

func TestContextLoggerStorage(t *testing.T) {
	logger := Nop().Named("stored")
	ctx := ToContext(context.Background(), logger)

	if FromContext(ctx) != logger {
		t.Error("FromContext should return the stored logger")
	}
	if FromContext(context.Background()) == nil {
		t.Error("FromContext should fall back to the global logger")
	}
}

func TestSetGlobal(t *testing.T) {
	prev := Global()
	t.Cleanup(func() { SetGlobal(prev) })

	core, logs := observer.New(zapcore.InfoLevel)
	SetGlobal(FromZap(zap.New(core)))
	Info("via global")
	Named("sub").Warn("named")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	if logs.All()[1].LoggerName != "sub" {
		t.Errorf("unexpected logger name %q", logs.All()[1].LoggerName)
	}
}

func TestHTTPMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	h := HTTPMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if FromContext(r.Context()) == Global() {
			t.Error("request logger not stored in context")
		}
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("png"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/captcha/default", nil))

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["status"] != int64(http.StatusTeapot) || fields["bytes"] != int64(3) {
		t.Errorf("unexpected fields: %v", fields)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := RecoveryMiddleware(FromZap(zap.New(core)))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	if logs.FilterMessage("http.panic.recovered").Len() != 1 {
		t.Error("panic was not logged")
	}
}
