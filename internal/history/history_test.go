package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aqwidget/pkg/logx"
)

func iref(v int) *int { return &v }

func fref(v float64) *float64 { return &v }

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if st != nil {
		t.Fatal("expected nil store when driver is empty")
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "bolt", Path: "x"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(dir, "aqi_history.json"), MaxAge: 24 * time.Hour}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC()

	if err := st.Append(ctx, "home", Observation{At: now.Add(-2 * time.Hour), AQI: iref(80), PM25: fref(25)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Append(ctx, "home", Observation{At: now.Add(-48 * time.Hour), AQI: iref(200)}); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := st.Append(ctx, "home", Observation{At: now, AQI: iref(90)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Append(ctx, "vanya", Observation{At: now, AQI: iref(40)}); err != nil {
		t.Fatalf("Append other location: %v", err)
	}

	got, err := st.Window(ctx, "home", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Window) = %d, want 2 (old entry pruned)", len(got))
	}
	if !got[0].At.Before(got[1].At) {
		t.Fatal("expected ascending timestamps")
	}
	if got[0].AQI == nil || *got[0].AQI != 80 {
		t.Fatalf("unexpected observation: %+v", got[0])
	}
	if got[0].PM25 == nil || *got[0].PM25 != 25 {
		t.Fatalf("PM25 not preserved: %+v", got[0])
	}
}

func TestFileStoreCorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aqi_history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	if err := st.Append(context.Background(), "home", Observation{At: time.Now(), AQI: iref(10)}); err != nil {
		t.Fatalf("Append over corrupt file: %v", err)
	}
	got, err := st.Window(context.Background(), "home", time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len(Window) = %d, want 1", len(got))
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(Config{
		Driver:      "sqlite",
		Path:        filepath.Join(dir, "history.db"),
		MaxAge:      24 * time.Hour,
		BusyTimeout: time.Second,
	}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	if err := st.Append(ctx, "home", Observation{At: now.Add(-time.Hour), AQI: iref(55), PM25: fref(14.2), PM10: fref(20)}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Append(ctx, "home", Observation{At: now}); err != nil {
		t.Fatalf("Append without AQI: %v", err)
	}

	got, err := st.Window(ctx, "home", now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len(Window) = %d, want 2", len(got))
	}
	if got[0].AQI == nil || *got[0].AQI != 55 || got[0].PM25 == nil || *got[0].PM25 != 14.2 {
		t.Fatalf("unexpected first observation: %+v", got[0])
	}
	if got[1].AQI != nil {
		t.Fatalf("expected nil AQI for missing reading, got %d", *got[1].AQI)
	}
	if !got[0].At.Equal(now.Add(-time.Hour)) {
		t.Fatalf("timestamp not preserved: %v", got[0].At)
	}

	empty, err := st.Window(ctx, "vanya", now.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Window empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no observations for other location, got %d", len(empty))
	}
}
