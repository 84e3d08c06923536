package logging_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coffer/internal/logging"
)

func TestNewWritesConsoleFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coffer.log")
	logger, err := logging.New(logging.Options{
		Level:            "debug",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	component := logging.NewComponentLogger(logger, "daemon")
	component.Info("daemon started", logging.String("data_dir", "/tmp/x"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	line := string(data)
	if !strings.Contains(line, "daemon: daemon started") {
		t.Fatalf("component not folded into message: %q", line)
	}
	if !strings.Contains(line, "data_dir=/tmp/x") {
		t.Fatalf("attr missing: %q", line)
	}
}

func TestNewWritesJSONFormat(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coffer.log")
	logger, err := logging.New(logging.Options{
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("command dispatched",
		logging.String(logging.FieldCommand, "getbalance"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, data)
	}
	if entry["msg"] != "command dispatched" {
		t.Fatalf("msg = %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Fatalf("level = %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatal("expected ts key")
	}
	if entry[logging.FieldCommand] != "getbalance" {
		t.Fatalf("command attr = %v", entry[logging.FieldCommand])
	}
}

func TestLevelFiltering(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "coffer.log")
	logger, err := logging.New(logging.Options{
		Level:            "warn",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("quiet")
	logger.Warn("loud")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "quiet") {
		t.Fatalf("info leaked through warn level: %q", data)
	}
	if !strings.Contains(string(data), "loud") {
		t.Fatalf("warn suppressed: %q", data)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "yaml"})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should vanish", logging.Error(os.ErrClosed))
}
