package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"resonate/internal/logging"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", OutputPaths: []string{"stdout"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	_ = logger // construction path; formatting is exercised via handler below

	handler := logging.NewTestConsoleHandler(&buf)
	log := slog.New(handler).With(logging.String(logging.FieldComponent, "catalog"))
	log.Info("track listed", logging.String(logging.FieldTrackID, "t-1"), logging.Uint64(logging.FieldAmount, 100))

	line := buf.String()
	if !strings.Contains(line, "INFO catalog: track listed") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "track_id=t-1") || !strings.Contains(line, "amount=100") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger must not be enabled")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
