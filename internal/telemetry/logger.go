package telemetry

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

var levelRank = map[string]int{"info": 0, "warn": 1, "error": 2}

// JSONLogger writes one JSON object per line. It is safe for concurrent use
// and appends across runs so a single file holds the full practice history.
type JSONLogger struct {
	mu  sync.Mutex
	w   io.WriteCloser
	min int
}

func NewJSONLogger(path string) (*JSONLogger, error) {
	if path == "" {
		return &JSONLogger{w: nopCloser{Writer: io.Discard}}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLogger{w: f}, nil
}

// SetMinLevel drops entries below the given level. Unknown names keep the
// floor at info.
func (l *JSONLogger) SetMinLevel(level string) {
	l.mu.Lock()
	l.min = levelRank[level]
	l.mu.Unlock()
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	l.log("info", msg, fields)
}

func (l *JSONLogger) Warn(msg string, fields map[string]any) {
	l.log("warn", msg, fields)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	l.log("error", msg, fields)
}

func (l *JSONLogger) log(level, msg string, fields map[string]any) {
	if l == nil || l.w == nil {
		return
	}
	entry := map[string]any{
		"ts":    time.Now().UTC().Format(time.RFC3339Nano),
		"level": level,
		"msg":   msg,
	}
	for k, v := range fields {
		entry[k] = v
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if levelRank[level] < l.min {
		return
	}
	b, _ := json.Marshal(entry)
	_, _ = l.w.Write(append(b, '\n'))
}

func (l *JSONLogger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
