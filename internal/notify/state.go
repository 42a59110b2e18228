package notify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"aqwidget/pkg/logx"
)

// StateFileName holds per-location last-alert timestamps so the dedup window
// spans updater invocations. It lives next to aqi_last.json.
const StateFileName = "alerts_last.json"

// loadLastSent reads the alert timestamps. A missing file yields an empty map.
func loadLastSent(path string) (map[string]time.Time, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]time.Time), nil
		}
		return make(map[string]time.Time), err
	}
	var last map[string]time.Time
	if err := json.Unmarshal(b, &last); err != nil {
		return make(map[string]time.Time), err
	}
	if last == nil {
		last = make(map[string]time.Time)
	}
	return last, nil
}

// persistLocked writes lastSent atomically. Best-effort: a write failure costs
// at worst a repeated alert, never a lost one. Caller holds n.mu.
func (n *Notifier) persistLocked() {
	if n.cfg.StatePath == "" {
		return
	}
	b, err := json.MarshalIndent(n.lastSent, "", "  ")
	if err != nil {
		n.log.Warn("alert state marshal failed", logx.Err(err))
		return
	}
	tmp := filepath.Join(filepath.Dir(n.cfg.StatePath), "."+filepath.Base(n.cfg.StatePath)+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		n.log.Warn("alert state write failed", logx.Err(err))
		return
	}
	if err := os.Rename(tmp, n.cfg.StatePath); err != nil {
		n.log.Warn("alert state write failed", logx.Err(err))
	}
}
