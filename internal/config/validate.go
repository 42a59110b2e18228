package config

import (
	"fmt"
	"strings"
)

// Validate checks domain invariants that strict decoding cannot express.
// It is installed as the Manager's validator so a bad edit never replaces a
// good running config.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if _, err := ParseDurationField("loop.timeout", cfg.Loop.Timeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("sensor.timeout", cfg.Sensor.Timeout); err != nil {
		return err
	}

	for key, loc := range cfg.Locations {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("locations: empty key")
		}
		if strings.TrimSpace(loc.Name) == "" {
			return fmt.Errorf("locations.%s: name is required", key)
		}
		if loc.Lat < -90 || loc.Lat > 90 {
			return fmt.Errorf("locations.%s: lat %v out of range", key, loc.Lat)
		}
		if loc.Lon < -180 || loc.Lon > 180 {
			return fmt.Errorf("locations.%s: lon %v out of range", key, loc.Lon)
		}
	}

	if h := cfg.History; h != nil {
		if _, err := ParseDurationField("history.max_age", h.MaxAge); err != nil {
			return err
		}
		if _, err := ParseDurationField("history.busy_timeout", h.BusyTimeout); err != nil {
			return err
		}
	}

	if a := cfg.Alerts; a != nil && a.Enabled {
		if strings.TrimSpace(a.Telegram.Token) == "" {
			return fmt.Errorf("alerts.telegram.token is required when alerts are enabled")
		}
		if a.Telegram.ChatID == 0 {
			return fmt.Errorf("alerts.telegram.chat_id is required when alerts are enabled")
		}
		if _, err := ParseDurationField("alerts.dedup_window", a.DedupWindow); err != nil {
			return err
		}
	}

	return nil
}
