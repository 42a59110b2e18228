package sensor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"aqwidget/pkg/logx"
)

const areaResponse = `[
  {
    "timestamp": "2026-08-30 10:00:00",
    "sensor": {"id": 83131},
    "location": {"latitude": "40.00", "longitude": "44.50"},
    "sensordatavalues": [
      {"value_type": "P2", "value": "18.40"},
      {"value_type": "P1", "value": "31.10"}
    ]
  },
  {
    "timestamp": "2026-08-30 10:02:30",
    "sensor": {"id": 83131},
    "location": {"latitude": "40.00", "longitude": "44.50"},
    "sensordatavalues": [
      {"value_type": "SDS_P2", "value": 20.1},
      {"value_type": "SDS_P1", "value": "junk"}
    ]
  },
  {
    "timestamp": "2026-08-30 10:01:00",
    "sensor": {"id": 99999},
    "location": {"latitude": "40.001", "longitude": "44.501"},
    "sensordatavalues": [
      {"value_type": "P2", "value": "5.00"}
    ]
  },
  {
    "timestamp": "2026-08-30 10:01:00",
    "sensor": {"id": 11111},
    "location": {"latitude": "41.5", "longitude": "45.9"},
    "sensordatavalues": [
      {"value_type": "P2", "value": "99.00"}
    ]
  }
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, RadiusKM: 2, Timeout: 2 * time.Second, RatePerMin: 600}, logx.Nop())
}

func TestFetchPrefersConfiguredSensorLatestEntry(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(areaResponse))
	})

	got, err := c.Fetch(context.Background(), 40.0, 44.5, 83131)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got == nil {
		t.Fatal("expected a reading")
	}
	if got.SensorID != 83131 {
		t.Fatalf("SensorID = %d, want 83131", got.SensorID)
	}
	// The second 83131 entry has the later timestamp: SDS_P2=20.1, no valid PM10.
	if got.PM25 == nil || *got.PM25 != 20.1 {
		t.Fatalf("PM25 = %v, want 20.1", got.PM25)
	}
	if got.PM10 != nil {
		t.Fatalf("PM10 = %v, want nil (value was junk)", *got.PM10)
	}
	if got.Timestamp.IsZero() {
		t.Fatal("expected parsed timestamp")
	}
}

func TestFetchFallsBackToNearest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(areaResponse))
	})

	// Unknown preferred id: nearest to (40.001, 44.501) is sensor 99999.
	got, err := c.Fetch(context.Background(), 40.001, 44.501, 123456)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got == nil || got.SensorID != 99999 {
		t.Fatalf("reading = %+v, want nearest sensor 99999", got)
	}
	if got.PM25 == nil || *got.PM25 != 5.0 {
		t.Fatalf("PM25 = %v, want 5.0", got.PM25)
	}
}

func TestFetchEmptyArea(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	got, err := c.Fetch(context.Background(), 1, 2, 0)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil reading for empty area, got %+v", got)
	}
}

func TestFetchHTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusServiceUnavailable)
	})

	if _, err := c.Fetch(context.Background(), 1, 2, 0); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestHaversine(t *testing.T) {
	t.Parallel()
	// Yerevan centre to Zvartnots airport is roughly 10 km.
	d := haversineKM(40.1792, 44.4991, 40.1473, 44.3959)
	if d < 8 || d > 12 {
		t.Fatalf("haversineKM = %v, want ~10", d)
	}
	if z := haversineKM(40, 44, 40, 44); z != 0 {
		t.Fatalf("zero distance = %v", z)
	}
}
