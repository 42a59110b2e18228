// Package cyclelog maintains the append-only plain-text log of scheduler
// cycles: one timestamp marker per cycle, followed by the captured output of
// the update command and the outcome of the refresh step.
//
// This file is an operator-facing artifact with a stable, greppable format.
// It is never rotated or truncated here; structured daemon logs live in
// pkg/logx instead.
package cyclelog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const markerFormat = "2006-01-02T15:04:05Z07:00"

// Log is an append-only cycle log. Safe for concurrent use; in practice the
// loop is the single writer.
type Log struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates or opens the log file for appending.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{f: f}, nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return nil
	}
	err := l.f.Close()
	l.f = nil
	return err
}

// Marker appends the cycle start line. It must be the first write of a cycle.
func (l *Log) Marker(t time.Time) error {
	return l.writeLine(fmt.Sprintf("===== %s =====", t.UTC().Format(markerFormat)))
}

// Output appends captured process output verbatim, guaranteeing a trailing
// newline so the next line starts fresh.
func (l *Log) Output(b []byte) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if !bytes.HasSuffix(b, []byte("\n")) {
		b = append(b, '\n')
	}
	return l.write(b)
}

// Linef appends one formatted line (refresh outcomes, warnings, exit status).
func (l *Log) Linef(format string, args ...any) error {
	return l.writeLine(fmt.Sprintf(format, args...))
}

func (l *Log) writeLine(s string) error {
	return l.write([]byte(s + "\n"))
}

func (l *Log) write(b []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.f == nil {
		return os.ErrClosed
	}
	_, err := l.f.Write(b)
	return err
}
