// Package updater performs one full data refresh: sample every configured
// location from the Sensor.Community API, derive AQI, trend and category,
// persist history, and rewrite the skin include files.
package updater

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"aqwidget/internal/aqi"
	"aqwidget/internal/history"
	"aqwidget/internal/notify"
	"aqwidget/internal/rainmeter"
	"aqwidget/internal/sensor"
	"aqwidget/pkg/logx"
)

// VarsFileName is the [Variables] include the skin reads.
const VarsFileName = "aqi_data.inc"

type Location struct {
	Key      string
	Name     string
	Lat      float64
	Lon      float64
	SensorID int64
}

type GraphConfig struct {
	Enabled bool
	Width   int
	Height  int
}

type Config struct {
	// ResourcesDir is the skin @Resources directory that receives
	// aqi_data.inc, aqi_last.json and the graph PNGs.
	ResourcesDir string
	Locations    []Location
	Graphs       GraphConfig
}

type Fetcher interface {
	Fetch(ctx context.Context, lat, lon float64, preferredID int64) (*sensor.Reading, error)
}

type Updater struct {
	cfg      Config
	client   Fetcher
	store    history.Store    // may be nil
	notifier *notify.Notifier // may be nil
	log      logx.Logger

	now func() time.Time
}

func New(cfg Config, client Fetcher, store history.Store, notifier *notify.Notifier, log logx.Logger) *Updater {
	locs := make([]Location, len(cfg.Locations))
	copy(locs, cfg.Locations)
	sort.Slice(locs, func(i, j int) bool { return locs[i].Key < locs[j].Key })
	cfg.Locations = locs
	return &Updater{
		cfg:      cfg,
		client:   client,
		store:    store,
		notifier: notifier,
		log:      log.With(logx.String("component", "updater")),
		now:      time.Now,
	}
}

// Run executes one refresh. Per-location fetch failures degrade that
// location to "no data" instead of failing the run; only a failure to write
// the include files is returned as an error.
func (u *Updater) Run(ctx context.Context) error {
	started := u.now()
	statePath := filepath.Join(u.cfg.ResourcesDir, StateFileName)

	prev, err := loadState(statePath)
	if err != nil {
		u.log.Warn("previous state unreadable, trends reset", logx.Err(err))
	}
	next := stateFile{}

	vars := make([]rainmeter.LocationVars, 0, len(u.cfg.Locations))
	for _, loc := range u.cfg.Locations {
		v, st := u.sample(ctx, loc, prev[loc.Key])
		vars = append(vars, v)
		next[loc.Key] = st
	}

	data := rainmeter.RenderVars(vars, started)
	if err := rainmeter.WriteFile(filepath.Join(u.cfg.ResourcesDir, VarsFileName), data); err != nil {
		return fmt.Errorf("write %s: %w", VarsFileName, err)
	}
	if err := saveState(statePath, next); err != nil {
		return fmt.Errorf("write %s: %w", StateFileName, err)
	}

	if u.cfg.Graphs.Enabled && u.store != nil {
		u.renderGraphs(ctx, started)
	}

	u.log.Info("update complete",
		logx.Int("locations", len(u.cfg.Locations)),
		logx.Duration("took", u.now().Sub(started)))
	return nil
}

// sample fetches one location and derives everything the skin needs from it.
func (u *Updater) sample(ctx context.Context, loc Location, prev lastState) (rainmeter.LocationVars, lastState) {
	now := u.now()

	var reading *sensor.Reading
	r, err := u.client.Fetch(ctx, loc.Lat, loc.Lon, loc.SensorID)
	if err != nil {
		u.log.Warn("sensor fetch failed",
			logx.String("location", loc.Key), logx.Err(err))
	} else {
		reading = r
	}

	var pm25, pm10 *float64
	if reading != nil {
		pm25, pm10 = reading.PM25, reading.PM10
	}

	var aqiVal *int
	if v, ok := aqi.Calc(pm25, pm10); ok {
		aqiVal = &v
	}

	cat := aqi.NoData
	if aqiVal != nil {
		cat = aqi.Categorize(*aqiVal)
	}

	if u.store != nil {
		obs := history.Observation{At: now, AQI: aqiVal, PM25: pm25, PM10: pm10}
		if err := u.store.Append(ctx, loc.Key, obs); err != nil {
			u.log.Warn("history append failed",
				logx.String("location", loc.Key), logx.Err(err))
		}
	}

	u.notifier.Observe(ctx, loc.Key, loc.Name, aqiVal)

	v := rainmeter.LocationVars{
		Key:       loc.Key,
		Name:      loc.Name,
		AQI:       fmtInt(aqiVal),
		Color:     cat.Color,
		TrendIcon: aqi.Trend(aqiVal, prev.AQI),
		Category:  cat.Name,
		PM25:      fmtPM(pm25),
		PM10:      fmtPM(pm10),
	}
	return v, lastState{AQI: aqiVal, At: now}
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func fmtPM(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
