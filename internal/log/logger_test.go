package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/paylinehq/adminctl/internal/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name:   "default config",
			config: DefaultConfig(),
		},
		{
			name:   "development config",
			config: DevelopmentConfig(),
		},
		{
			name: "custom json to buffer",
			config: Config{
				Level:  LevelDebug,
				Format: FormatJSON,
				Output: NewOutput(&bytes.Buffer{}),
			},
		},
		{
			name: "custom text to buffer",
			config: Config{
				Level:  LevelWarn,
				Format: FormatText,
				Output: NewOutput(&bytes.Buffer{}),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.config)
			if logger == nil {
				t.Fatal("expected logger, got nil")
			}
			if logger.Config().Level != tt.config.Level {
				t.Errorf("expected level %v, got %v", tt.config.Level, logger.Config().Level)
			}
		})
	}
}

func TestJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  LevelDebug,
		Format: FormatJSON,
		Output: NewOutput(&buf),
	})

	logger.Info("session restored", "realm", "agence")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected valid JSON record: %v", err)
	}
	if record["msg"] != "session restored" {
		t.Errorf("msg = %v, want %q", record["msg"], "session restored")
	}
	if record["realm"] != "agence" {
		t.Errorf("realm = %v, want %q", record["realm"], "agence")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  LevelWarn,
		Format: FormatText,
		Output: NewOutput(&buf),
	})

	logger.Debug("not emitted")
	logger.Info("not emitted either")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "not emitted") {
		t.Errorf("output contains filtered records: %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Errorf("output missing warn record: %q", out)
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  LevelDebug,
		Format: FormatJSON,
		Output: NewOutput(&buf),
	})

	err := errors.NewStatusError(503, "maintenance window")
	logger.WithError(err).Error("fetch failed")

	var record map[string]any
	if jsonErr := json.Unmarshal(buf.Bytes(), &record); jsonErr != nil {
		t.Fatalf("expected valid JSON record: %v", jsonErr)
	}
	if record["error_code"] != string(errors.ErrCodeHTTPServer) {
		t.Errorf("error_code = %v, want %s", record["error_code"], errors.ErrCodeHTTPServer)
	}
	if record["error_kind"] != "server" {
		t.Errorf("error_kind = %v, want %q", record["error_kind"], "server")
	}
}

func TestWithErrorNil(t *testing.T) {
	logger := Default()
	if got := logger.WithError(nil); got != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestEnabled(t *testing.T) {
	logger := New(Config{Level: LevelWarn, Format: FormatJSON, Output: NewOutput(&bytes.Buffer{})})
	ctx := context.Background()

	if logger.Enabled(ctx, LevelDebug) {
		t.Error("debug should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestDefaultLoggerGlobal(t *testing.T) {
	custom := Development()
	SetDefaultLogger(custom)
	if DefaultLogger() != custom {
		t.Error("DefaultLogger should return the configured logger")
	}
	SetDefaultLogger(nil)
	if DefaultLogger() == nil {
		t.Error("DefaultLogger should lazily initialize")
	}
}
