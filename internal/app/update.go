package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"aqwidget/internal/config"
	"aqwidget/internal/history"
	"aqwidget/internal/notify"
	"aqwidget/internal/sensor"
	"aqwidget/internal/updater"
	"aqwidget/pkg/logx"
)

// RunUpdate performs one data refresh and exits. This is the default update
// command the daemon invokes each cycle; everything it prints ends up in the
// cycle log, so it logs to the console regardless of the file sink config.
func RunUpdate(ctx context.Context, cfgPath string) error {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	log := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "update"))

	u, store, err := buildUpdater(cfg, log)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}
	return u.Run(ctx)
}

// buildUpdater assembles the updater and its collaborators from config. The
// history store (if any) is returned so the caller can close it.
func buildUpdater(cfg *config.Config, log logx.Logger) (*updater.Updater, history.Store, error) {
	sensorTimeout, err := config.ParseDurationOrDefault("sensor.timeout", cfg.Sensor.Timeout, 15*time.Second)
	if err != nil {
		return nil, nil, err
	}
	client := sensor.NewClient(sensor.Config{
		BaseURL:    cfg.Sensor.BaseURL,
		RadiusKM:   cfg.Sensor.RadiusKM,
		Timeout:    sensorTimeout,
		RatePerMin: cfg.Sensor.RatePerMin,
	}, log.With(logx.String("comp", "sensor")))

	var store history.Store
	if h := cfg.History; h != nil {
		maxAge, err := config.ParseDurationOrDefault("history.max_age", h.MaxAge, 24*time.Hour)
		if err != nil {
			return nil, nil, err
		}
		busy, err := config.ParseDurationOrDefault("history.busy_timeout", h.BusyTimeout, 0)
		if err != nil {
			return nil, nil, err
		}
		store, err = history.Open(history.Config{
			Driver:      h.Driver,
			Path:        h.Path,
			MaxAge:      maxAge,
			BusyTimeout: busy,
		}, log.With(logx.String("comp", "history")))
		if err != nil {
			return nil, nil, fmt.Errorf("open history: %w", err)
		}
	}

	var notifier *notify.Notifier
	if al := cfg.Alerts; al != nil && al.Enabled {
		dedup, err := config.ParseDurationOrDefault("alerts.dedup_window", al.DedupWindow, 6*time.Hour)
		if err != nil {
			return nil, nil, err
		}
		sender, err := notify.NewTelegramSender(al.Telegram.Token, al.Telegram.ChatID)
		if err != nil {
			return nil, nil, fmt.Errorf("telegram alerts: %w", err)
		}
		notifier = notify.New(notify.Config{
			MinAQI:      al.MinAQI,
			DedupWindow: dedup,
			StatePath:   filepath.Join(cfg.Rainmeter.Resources, notify.StateFileName),
		}, sender, log)
	}

	locs := make([]updater.Location, 0, len(cfg.Locations))
	for key, lc := range cfg.Locations {
		locs = append(locs, updater.Location{
			Key:      key,
			Name:     lc.Name,
			Lat:      lc.Lat,
			Lon:      lc.Lon,
			SensorID: lc.SensorID,
		})
	}

	graphs := updater.GraphConfig{
		Enabled: store != nil,
		Width:   cfg.Graphs.Width,
		Height:  cfg.Graphs.Height,
	}
	if cfg.Graphs.Enabled != nil {
		graphs.Enabled = *cfg.Graphs.Enabled && store != nil
	}

	u := updater.New(updater.Config{
		ResourcesDir: cfg.Rainmeter.Resources,
		Locations:    locs,
		Graphs:       graphs,
	}, client, store, notifier, log)
	return u, store, nil
}
