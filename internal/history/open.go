package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"aqwidget/pkg/logx"
)

var ErrDisabled = errors.New("history disabled")

// Observation is one sampled data point for a location.
//
// IMPORTANT: JSON tags are kept stable because observations are persisted to
// the history file. Changing tags can break existing history.
type Observation struct {
	At   time.Time `json:"ts"`
	AQI  *int      `json:"aqi"`
	PM25 *float64  `json:"pm25"`
	PM10 *float64  `json:"pm10"`
}

// Config configures the history store.
//
// Driver values:
//   - "file": single JSON snapshot file (atomic rewrite)
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", history is disabled (graphs are skipped).
type Config struct {
	Driver      string
	Path        string
	MaxAge      time.Duration // observations older than this are pruned; 0 means 24h
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the minimal persistence API used by the updater.
type Store interface {
	Append(ctx context.Context, location string, o Observation) error
	Window(ctx context.Context, location string, since time.Time) ([]Observation, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
