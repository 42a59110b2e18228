package config

// Config is the full aqwidget configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "5m").
// Unknown keys are rejected on load so typos are caught early.
type Config struct {
	Logging LoggingConfig `json:"logging"`

	// Loop controls the scheduler loop (the `run` mode).
	Loop LoopConfig `json:"loop"`

	Rainmeter RainmeterConfig `json:"rainmeter"`

	Sensor SensorConfig `json:"sensor"`

	// Locations to sample, keyed by a short identifier ("home"). The key,
	// first-rune-capitalized, becomes the variable prefix in aqi_data.inc.
	Locations map[string]LocationConfig `json:"locations"`

	History *HistoryConfig `json:"history,omitempty"`
	Graphs  GraphsConfig   `json:"graphs,omitempty"`
	Alerts  *AlertsConfig  `json:"alerts,omitempty"`
	Metrics MetricsConfig  `json:"metrics,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// LoopConfig controls the cycle cadence and the update command.
//
// Defaults (when fields are omitted/zero):
//   - schedule: "300s" (post-completion wait between cycles)
//   - update_command: this binary's own `update` subcommand
//   - timeout: "2m" per update-command invocation
//   - cycle_log: "./widget_log.txt"
type LoopConfig struct {
	// Schedule accepts a Go duration ("300s", "5m"), HH:MM ("00:05"), or a
	// cron expression ("*/5 * * * *"). Durations wait after each completed
	// cycle; cron specs fire on the wall clock.
	Schedule string `json:"schedule,omitempty"`

	// UpdateCommand is the argv of the external update program.
	UpdateCommand []string `json:"update_command,omitempty"`

	// Timeout is a Go duration string bounding one update invocation.
	Timeout string `json:"timeout,omitempty"`

	CycleLog string `json:"cycle_log,omitempty"`

	// Timezone applies to cron schedules only (IANA name).
	Timezone string `json:"timezone,omitempty"`
}

// RainmeterConfig locates the opaque refresh-capable application and the
// skin resources directory the updater writes into.
type RainmeterConfig struct {
	// Paths are candidate Rainmeter.exe locations, checked in order.
	// Omitted means the stock %ProgramFiles% locations.
	Paths []string `json:"paths,omitempty"`

	// Resources is the skin @Resources directory receiving aqi_data.inc,
	// aqi_last.json and the graph PNGs.
	Resources string `json:"resources"`
}

type SensorConfig struct {
	BaseURL    string `json:"base_url,omitempty"`
	RadiusKM   int    `json:"radius_km,omitempty"`
	Timeout    string `json:"timeout,omitempty"`
	RatePerMin int    `json:"rate_per_min,omitempty"`
}

type LocationConfig struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	// SensorID pins a specific Sensor.Community sensor; 0 picks the nearest.
	SensorID int64 `json:"sensor_id,omitempty"`
}

// HistoryConfig controls the observation store.
//
// Example:
//
//	"history": { "driver": "file", "path": "./aqi_history.json" }
type HistoryConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	MaxAge      string `json:"max_age,omitempty"`      // Go duration string; default "24h"
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// GraphsConfig controls PNG history graph rendering.
//
// Enabled is a pointer so we can distinguish "omitted" (default true when a
// history store is configured) from an explicit false.
type GraphsConfig struct {
	Enabled *bool `json:"enabled,omitempty"`
	Width   int   `json:"width,omitempty"`  // pixels; default 450
	Height  int   `json:"height,omitempty"` // pixels; default 220
}

// AlertsConfig controls optional Telegram alerts on bad air.
type AlertsConfig struct {
	Enabled bool `json:"enabled"`
	// MinAQI is the threshold at or above which an alert fires (default 151,
	// the bottom of the "Unhealthy" band).
	MinAQI int `json:"min_aqi,omitempty"`
	// DedupWindow suppresses repeat alerts per location (default "6h").
	DedupWindow string         `json:"dedup_window,omitempty"`
	Telegram    TelegramConfig `json:"telegram"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// MetricsConfig controls the optional Prometheus /metrics listener.
//
// Prefer binding to localhost.
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: "127.0.0.1:9390"
}
