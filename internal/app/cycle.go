package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aqwidget/internal/rainmeter"
	"aqwidget/internal/updater"
	"aqwidget/pkg/logx"
)

// cycle runs one full loop iteration: timestamp marker, update command,
// Rainmeter refresh. Every failure is logged and absorbed; the loop must
// survive flaky networks, a missing Rainmeter install and a broken update
// command alike, so cycle always returns nil.
func (a *App) cycle(ctx context.Context) error {
	started := time.Now()
	if err := a.cyc.Marker(started); err != nil {
		a.log.Warn("cycle log marker failed", logx.Err(err))
	}

	res := a.run.Run(ctx)
	if err := a.cyc.Output(res.Output); err != nil {
		a.log.Warn("cycle log write failed", logx.Err(err))
	}
	failed := res.Err != nil
	if failed {
		a.cyc.Linef("update command failed (exit %d): %v", res.ExitCode, res.Err)
		a.log.Warn("update command failed",
			logx.Int("exit", res.ExitCode),
			logx.Duration("took", res.Duration),
			logx.Err(res.Err))
	} else {
		a.log.Info("update command done", logx.Duration("took", res.Duration))
	}
	a.rec.CycleDone(time.Since(started), failed)

	a.refreshRainmeter(ctx)
	a.publishGauges()
	return nil
}

func (a *App) refreshRainmeter(ctx context.Context) {
	exe, ok := rainmeter.Resolve(a.rain)
	if !ok {
		candidates := strings.Join(rainmeter.Candidates(a.rain), ", ")
		a.cyc.Linef("Rainmeter not found (checked: %s); skipping refresh", candidates)
		a.log.Warn("rainmeter executable not found", logx.String("checked", candidates))
		a.rec.RefreshSkipped()
		return
	}
	out, err := rainmeter.Refresh(ctx, exe)
	if len(out) > 0 {
		if werr := a.cyc.Output(out); werr != nil {
			a.log.Warn("cycle log write failed", logx.Err(werr))
		}
	}
	if err != nil {
		a.cyc.Linef("Rainmeter refresh failed: %v", err)
		a.log.Warn("rainmeter refresh failed",
			logx.String("exe", exe),
			logx.Err(err))
		return
	}
	a.rec.RefreshDone()
	a.log.Debug("rainmeter refreshed", logx.String("exe", exe))
}

// publishGauges mirrors the updater's last-cycle snapshot into the AQI
// gauges. The update command runs in its own process, so the daemon reads
// the state file it leaves behind rather than sharing memory with it.
func (a *App) publishGauges() {
	if a.rec == nil || a.res == "" {
		return
	}
	b, err := os.ReadFile(filepath.Join(a.res, updater.StateFileName))
	if err != nil {
		return
	}
	var st map[string]struct {
		AQI *int `json:"aqi"`
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return
	}
	for key, v := range st {
		if v.AQI != nil {
			a.rec.SetAQI(key, *v.AQI)
		}
	}
}
