package metrics

import (
	"testing"
	"time"

	"aqwidget/pkg/logx"
)

func TestNilRecorderIsNoop(t *testing.T) {
	t.Parallel()
	var r *Recorder
	r.CycleDone(time.Second, true)
	r.RefreshDone()
	r.RefreshSkipped()
	r.SetAQI("home", 42)
	if err := r.Serve(""); err != nil {
		t.Fatalf("Serve on nil: %v", err)
	}
}

func TestRecorderGathers(t *testing.T) {
	t.Parallel()
	r := New(logx.Nop())
	r.CycleDone(2*time.Second, false)
	r.CycleDone(time.Second, true)
	r.RefreshDone()
	r.SetAQI("home", 64)

	fams, err := r.registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := map[string]bool{}
	for _, f := range fams {
		found[f.GetName()] = true
	}
	for _, name := range []string{
		"aqwidget_cycles_total",
		"aqwidget_cycle_failures_total",
		"aqwidget_cycle_duration_seconds",
		"aqwidget_refresh_total",
		"aqwidget_aqi",
	} {
		if !found[name] {
			t.Fatalf("metric %s not registered", name)
		}
	}
}
