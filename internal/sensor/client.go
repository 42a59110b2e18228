// Package sensor fetches particulate readings from the Sensor.Community
// (airrohr) archive API.
package sensor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"aqwidget/pkg/logx"
)

const defaultBaseURL = "https://data.sensor.community/airrohr/v1"

// Config controls the API client.
type Config struct {
	// BaseURL without trailing slash; defaults to the public archive.
	BaseURL string
	// RadiusKM bounds the area query around a location.
	RadiusKM int
	// Timeout bounds a single request.
	Timeout time.Duration
	// RatePerMin caps outbound requests across all locations.
	RatePerMin int
}

// Client queries the area endpoint and picks one sensor per location.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func NewClient(cfg Config, log logx.Logger) *Client {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RadiusKM <= 0 {
		cfg.RadiusKM = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	rpm := cfg.RatePerMin
	if rpm <= 0 {
		rpm = 30
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm),
		log:     log,
	}
}

// Fetch returns the best reading around (lat, lon).
//
// Selection order:
//  1. If preferredID > 0 and the area response contains entries for that
//     sensor, the entry with the latest timestamp wins.
//  2. Otherwise the geographically nearest sensor wins.
//
// A nil Reading with nil error means the area produced no data at all.
func (c *Client) Fetch(ctx context.Context, lat, lon float64, preferredID int64) (*Reading, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/filter/area=%g,%g,%d", c.cfg.BaseURL, lat, lon, c.cfg.RadiusKM)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("area query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little for connection reuse; body content is not useful.
		_, _ = io.CopyN(io.Discard, resp.Body, 512)
		return nil, fmt.Errorf("area query: unexpected status %s", resp.Status)
	}

	var entries []apiEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode area response: %w", err)
	}
	if len(entries) == 0 {
		c.log.Debug("no sensors in area", logx.Float64("lat", lat), logx.Float64("lon", lon))
		return nil, nil
	}

	entry := pickPreferred(entries, preferredID)
	if entry == nil {
		entry = pickNearest(entries, lat, lon)
	}
	if entry == nil {
		return nil, nil
	}

	r := &Reading{SensorID: entry.Sensor.ID}
	if ts, err := time.Parse("2006-01-02 15:04:05", entry.when()); err == nil {
		r.Timestamp = ts.UTC()
	}
	extractPM(entry, r)
	return r, nil
}

func pickPreferred(entries []apiEntry, preferredID int64) *apiEntry {
	if preferredID <= 0 {
		return nil
	}
	var best *apiEntry
	for i := range entries {
		e := &entries[i]
		if e.Sensor.ID != preferredID {
			continue
		}
		if best == nil || e.when() > best.when() {
			best = e
		}
	}
	return best
}

func pickNearest(entries []apiEntry, lat, lon float64) *apiEntry {
	var best *apiEntry
	bestD := math.Inf(1)
	for i := range entries {
		e := &entries[i]
		if !e.Location.Latitude.OK || !e.Location.Longitude.OK {
			continue
		}
		d := haversineKM(lat, lon, e.Location.Latitude.Val, e.Location.Longitude.Val)
		if d < bestD {
			bestD = d
			best = e
		}
	}
	return best
}

// Value types seen in the wild for the SDS011 family and friends.
var (
	pm25Types = map[string]bool{"P2": true, "SDS_P2": true, "PM2.5": true, "pm2.5": true}
	pm10Types = map[string]bool{"P1": true, "SDS_P1": true, "PM10": true, "pm10": true}
)

func extractPM(e *apiEntry, r *Reading) {
	for _, dv := range e.SensorDataValues {
		if !dv.Value.OK {
			continue
		}
		v := dv.Value.Val
		switch {
		case pm25Types[dv.ValueType]:
			r.PM25 = &v
		case pm10Types[dv.ValueType]:
			r.PM10 = &v
		}
	}
}

func haversineKM(aLat, aLon, bLat, bLon float64) float64 {
	const earthRadiusKM = 6371.0
	dLat := radians(bLat - aLat)
	dLon := radians(bLon - aLon)
	h := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(radians(aLat))*math.Cos(radians(bLat))*math.Pow(math.Sin(dLon/2), 2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
