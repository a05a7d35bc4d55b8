package telemetry

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONLoggerAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	l1, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	l1.Info("first", map[string]any{"n": 1})
	if err := l1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	l2, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger reopen: %v", err)
	}
	l2.Error("second", nil)
	if err := l2.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}
	if lines[0]["msg"] != "first" || lines[0]["level"] != "info" {
		t.Fatalf("unexpected first entry: %v", lines[0])
	}
	if lines[1]["msg"] != "second" || lines[1]["level"] != "error" {
		t.Fatalf("unexpected second entry: %v", lines[1])
	}
}

func TestJSONLoggerLevelFloor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewJSONLogger(path)
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	l.SetMinLevel("warn")
	l.Info("below floor", nil)
	l.Warn("at floor", nil)
	l.Error("above floor", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var lines []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var entry map[string]any
		if err := json.Unmarshal(sc.Bytes(), &entry); err != nil {
			t.Fatalf("bad line %q: %v", sc.Text(), err)
		}
		lines = append(lines, entry)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries past the floor, got %d", len(lines))
	}
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Fatalf("unexpected levels: %v", lines)
	}
}

func TestJSONLoggerNoPathDiscards(t *testing.T) {
	l, err := NewJSONLogger("")
	if err != nil {
		t.Fatalf("NewJSONLogger: %v", err)
	}
	l.Info("dropped", nil)
	l.Warn("dropped", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
