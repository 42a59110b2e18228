package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const yamlConfig = `
logging:
  level: info
  console: true
  file:
    enabled: true
    path: ./aqwidget.log
loop:
  schedule: 300s
  cycle_log: ./widget_log.txt
rainmeter:
  resources: ./resources
sensor:
  radius_km: 2
locations:
  home:
    name: My Home
    lat: 40.0
    lon: 44.5
    sensor_id: 83131
history:
  driver: file
  path: ./aqi_history.json
  max_age: 24h
`

func writeConfig(t *testing.T, name, content string) *Manager {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return NewManager(path)
}

func TestLoadYAML(t *testing.T) {
	m := writeConfig(t, "config.yaml", yamlConfig)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Loop.Schedule != "300s" {
		t.Fatalf("Loop.Schedule = %q", cfg.Loop.Schedule)
	}
	loc, ok := cfg.Locations["home"]
	if !ok {
		t.Fatal("missing home location")
	}
	if loc.SensorID != 83131 || loc.Lat != 40.0 {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if cfg.History == nil || cfg.History.Driver != "file" {
		t.Fatalf("unexpected history config: %+v", cfg.History)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get should return the committed config")
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	m := writeConfig(t, "config.yaml", yamlConfig+"\nnope: true\n")
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadJSON(t *testing.T) {
	m := writeConfig(t, "config.json", `{"logging":{"level":"debug","console":true,"file":{"enabled":false,"path":""}},"loop":{},"rainmeter":{"resources":"./r"},"sensor":{},"locations":{}}`)
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	m := writeConfig(t, "config.json", `{"logging":{"level":"info","console":true,"file":{"enabled":false,"path":""}},"loop":{},"rainmeter":{"resources":""},"sensor":{},"locations":{}} {"extra":1}`)
	if _, err := m.Load(); err == nil {
		t.Fatal("expected error for trailing data")
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("loop.schedule", "", 300*time.Second)
	if err != nil || d != 300*time.Second {
		t.Fatalf("default: %v %v", d, err)
	}
	d, err = ParseDurationOrDefault("loop.schedule", "45s", 300*time.Second)
	if err != nil || d != 45*time.Second {
		t.Fatalf("explicit: %v %v", d, err)
	}
	if _, err := ParseDurationField("loop.schedule", "banana"); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	good := &Config{
		Locations: map[string]LocationConfig{
			"home": {Name: "My Home", Lat: 40, Lon: 44.5},
		},
	}
	if err := Validate(good); err != nil {
		t.Fatalf("Validate(good): %v", err)
	}

	bad := &Config{
		Locations: map[string]LocationConfig{
			"home": {Name: "My Home", Lat: 140, Lon: 44.5},
		},
	}
	if err := Validate(bad); err == nil {
		t.Fatal("expected error for out-of-range lat")
	}

	noToken := &Config{
		Alerts: &AlertsConfig{Enabled: true},
	}
	if err := Validate(noToken); err == nil {
		t.Fatal("expected error for enabled alerts without token")
	}
}
