package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"aqwidget/pkg/logx"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(ctx context.Context, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func intp(v int) *int { return &v }

func TestObserveBelowThresholdIsSilent(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	n := New(Config{MinAQI: 151}, fs, logx.Nop())

	n.Observe(context.Background(), "home", "Home", intp(150))
	n.Observe(context.Background(), "home", "Home", nil)
	if len(fs.sent) != 0 {
		t.Fatalf("unexpected alerts: %v", fs.sent)
	}
}

func TestObserveDedupWindow(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{}
	n := New(Config{MinAQI: 151, DedupWindow: 6 * time.Hour}, fs, logx.Nop())

	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)
	now := base
	n.now = func() time.Time { return now }

	n.Observe(context.Background(), "home", "Home", intp(180))
	n.Observe(context.Background(), "home", "Home", intp(190))
	if len(fs.sent) != 1 {
		t.Fatalf("got %d alerts, want 1", len(fs.sent))
	}

	// A different location is tracked independently.
	n.Observe(context.Background(), "office", "Office", intp(160))
	if len(fs.sent) != 2 {
		t.Fatalf("got %d alerts, want 2", len(fs.sent))
	}

	// Past the window the same location may alert again.
	now = base.Add(6*time.Hour + time.Minute)
	n.Observe(context.Background(), "home", "Home", intp(170))
	if len(fs.sent) != 3 {
		t.Fatalf("got %d alerts, want 3", len(fs.sent))
	}
}

func TestObserveDedupSurvivesRestart(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), StateFileName)
	base := time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

	// Each cycle runs a fresh process, so every Observe below uses a new
	// Notifier that only shares the state file.
	observe := func(fs *fakeSender, at time.Time) {
		n := New(Config{MinAQI: 151, DedupWindow: 6 * time.Hour, StatePath: path}, fs, logx.Nop())
		n.now = func() time.Time { return at }
		n.Observe(context.Background(), "home", "Home", intp(180))
	}

	fs := &fakeSender{}
	observe(fs, base)
	observe(fs, base.Add(5*time.Minute))
	if len(fs.sent) != 1 {
		t.Fatalf("got %d alerts within the window, want 1", len(fs.sent))
	}

	observe(fs, base.Add(6*time.Hour+time.Minute))
	if len(fs.sent) != 2 {
		t.Fatalf("got %d alerts after the window, want 2", len(fs.sent))
	}
}

func TestObserveRetriesAfterSendFailure(t *testing.T) {
	t.Parallel()
	fs := &fakeSender{err: errors.New("flood wait")}
	n := New(Config{MinAQI: 151}, fs, logx.Nop())

	n.Observe(context.Background(), "home", "Home", intp(200))
	fs.err = nil
	n.Observe(context.Background(), "home", "Home", intp(200))
	if len(fs.sent) != 1 {
		t.Fatalf("got %d alerts, want 1 after retry", len(fs.sent))
	}
}

func TestNilNotifierIsNoop(t *testing.T) {
	t.Parallel()
	var n *Notifier
	n.Observe(context.Background(), "home", "Home", intp(500))
}
