// Package notify sends air-quality alerts when a location crosses the
// configured AQI threshold. Alerts are best-effort and deduplicated per
// location so a long smog episode does not spam the chat.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"aqwidget/internal/aqi"
	"aqwidget/pkg/logx"
)

const (
	defaultMinAQI      = 151 // bottom of the "Unhealthy" band
	defaultDedupWindow = 6 * time.Hour
)

// Sender delivers one alert message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

type Config struct {
	MinAQI      int
	DedupWindow time.Duration
	// StatePath persists last-alert timestamps. The updater runs as a
	// short-lived subprocess each cycle, so without it the dedup window
	// resets on every run. Empty keeps the state in memory only.
	StatePath string
}

type Notifier struct {
	cfg    Config
	sender Sender
	log    logx.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time

	now func() time.Time
}

func New(cfg Config, sender Sender, log logx.Logger) *Notifier {
	if cfg.MinAQI <= 0 {
		cfg.MinAQI = defaultMinAQI
	}
	if cfg.DedupWindow <= 0 {
		cfg.DedupWindow = defaultDedupWindow
	}
	n := &Notifier{
		cfg:      cfg,
		sender:   sender,
		log:      log.With(logx.String("component", "notify")),
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
	if cfg.StatePath != "" {
		last, err := loadLastSent(cfg.StatePath)
		if err != nil {
			n.log.Warn("alert state unreadable, starting fresh", logx.Err(err))
		} else {
			n.lastSent = last
		}
	}
	return n
}

// Observe reports one sampled location. It fires an alert when the AQI is at
// or above the threshold and no alert went out for this location within the
// dedup window. A nil receiver or a missing AQI is a no-op.
func (n *Notifier) Observe(ctx context.Context, key, name string, value *int) {
	if n == nil || value == nil || *value < n.cfg.MinAQI {
		return
	}

	now := n.now()
	n.mu.Lock()
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.cfg.DedupWindow {
		n.mu.Unlock()
		return
	}
	n.lastSent[key] = now
	n.persistLocked()
	n.mu.Unlock()

	cat := aqi.Categorize(*value)
	text := fmt.Sprintf("Air quality alert: %s AQI is %d (%s)", name, *value, cat.Name)
	if err := n.sender.Send(ctx, text); err != nil {
		n.log.Warn("alert send failed", logx.String("location", key), logx.Err(err))
		// Let the next cycle retry instead of waiting out the window.
		n.mu.Lock()
		delete(n.lastSent, key)
		n.persistLocked()
		n.mu.Unlock()
		return
	}
	n.log.Info("alert sent", logx.String("location", key), logx.Int("aqi", *value))
}
