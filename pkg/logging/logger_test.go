package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestStructuredLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test-service", "1.2.3", InfoLevel)
	logger.SetOutput(&buf)

	logger.Info(context.Background(), "hello", Fields{"key": "value"})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if entry.Level != "INFO" {
		t.Errorf("Level = %q, want %q", entry.Level, "INFO")
	}
	if entry.Service != "test-service" {
		t.Errorf("Service = %q, want %q", entry.Service, "test-service")
	}
	if entry.Message != "hello" {
		t.Errorf("Message = %q, want %q", entry.Message, "hello")
	}
	if entry.Fields["key"] != "value" {
		t.Errorf("Fields[key] = %v, want %q", entry.Fields["key"], "value")
	}
}

func TestStructuredLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.0", WarnLevel)
	logger.SetOutput(&buf)

	logger.Debug(context.Background(), "debug", nil)
	logger.Info(context.Background(), "info", nil)
	if buf.Len() != 0 {
		t.Errorf("below-threshold messages should be suppressed, got %q", buf.String())
	}

	logger.Warn(context.Background(), "warn", nil)
	if buf.Len() == 0 {
		t.Error("warn message should pass the threshold")
	}
}

func TestStructuredLogger_RequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.0", InfoLevel)
	logger.SetOutput(&buf)

	ctx := context.WithValue(context.Background(), "request_id", "req-42")
	logger.Info(ctx, "with id", nil)

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.RequestID != "req-42" {
		t.Errorf("RequestID = %q, want %q", entry.RequestID, "req-42")
	}
}

func TestStructuredLogger_ErrorIncludesCaller(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("test", "0.0.0", InfoLevel)
	logger.SetOutput(&buf)

	logger.Error(context.Background(), "boom", nil, errors.New("broken pipe"))

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry.Error != "broken pipe" {
		t.Errorf("Error = %q, want %q", entry.Error, "broken pipe")
	}
	if entry.File == "" || entry.Line == 0 {
		t.Error("error entries should carry caller information")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  LogLevel
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"unknown", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}
