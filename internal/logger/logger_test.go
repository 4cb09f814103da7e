package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

// resetLogger resets the logger to default state for test isolation
func resetLogger() {
	Init(Options{})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"INFO", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"Warning", slog.LevelWarn, false},
		{"warn", slog.LevelWarn, false},
		{" error ", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestInit_DefaultLevel_Info(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	Info("test info")
	if !strings.Contains(buf.String(), "test info") {
		t.Error("Info message should be logged at default level")
	}

	buf.Reset()

	Debug("test debug")
	if strings.Contains(buf.String(), "test debug") {
		t.Error("Debug message should not be logged at default level")
	}
}

func TestInit_LevelString(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Level: "warn", Output: buf})
	defer resetLogger()

	Info("quiet info")
	Warn("loud warning")

	output := buf.String()
	if strings.Contains(output, "quiet info") {
		t.Error("Info should not be logged at warn level")
	}
	if !strings.Contains(output, "loud warning") {
		t.Error("Warn should be logged at warn level")
	}
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Level: "chatty", Output: buf})
	defer resetLogger()

	Debug("hidden")
	Info("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("Debug should not be logged after fallback to info")
	}
	if !strings.Contains(output, "shown") {
		t.Error("Info should be logged after fallback to info")
	}
}

func TestInit_DebugFlagOverridesLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Level: "error", Debug: true, Output: buf})
	defer resetLogger()

	Debug("test debug message")
	if !strings.Contains(buf.String(), "test debug message") {
		t.Error("Debug message should be logged when Debug=true")
	}
}

func TestQuiet_OverridesDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Quiet: true, Output: buf})
	defer resetLogger()

	Debug("debug message")
	Info("info message")
	Error("error message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Debug should not be logged when Quiet=true")
	}
	if strings.Contains(output, "info message") {
		t.Error("Info should not be logged when Quiet=true")
	}
	if !strings.Contains(output, "error message") {
		t.Error("Error should be logged when Quiet=true")
	}
}

func TestInit_JSONFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{JSON: true, Output: buf})
	defer resetLogger()

	Info("test message", "stage", "extract")

	output := buf.String()
	if !strings.HasPrefix(strings.TrimSpace(output), "{") {
		t.Errorf("JSON format should produce JSON output, got %q", output)
	}
	if !strings.Contains(output, `"stage":"extract"`) {
		t.Errorf("JSON output should contain attributes, got %q", output)
	}
}

func TestInit_CustomLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))
	Init(Options{Logger: custom, Quiet: true})
	defer resetLogger()

	Info("from custom logger")
	if !strings.Contains(buf.String(), "from custom logger") {
		t.Error("custom logger should be used as-is, ignoring Quiet")
	}
}

func TestWith_ReturnsLoggerWithAttrs(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Output: buf})
	defer resetLogger()

	l := With("url", "https://example.com")
	l.Info("acquiring")

	output := buf.String()
	if !strings.Contains(output, "acquiring") || !strings.Contains(output, "https://example.com") {
		t.Errorf("expected message and attributes in output, got %q", output)
	}
}

func TestContextVariants(t *testing.T) {
	buf := &bytes.Buffer{}
	Init(Options{Debug: true, Output: buf})
	defer resetLogger()

	ctx := context.Background()
	DebugContext(ctx, "debug with context")
	InfoContext(ctx, "info with context")
	WarnContext(ctx, "warn with context")
	ErrorContext(ctx, "error with context")

	output := buf.String()
	for _, msg := range []string{"debug with context", "info with context", "warn with context", "error with context"} {
		if !strings.Contains(output, msg) {
			t.Errorf("expected %q in output", msg)
		}
	}
}
