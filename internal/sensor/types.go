package sensor

import (
	"bytes"
	"strconv"
	"time"
)

// Reading is the particulate measurement picked for one location.
// Nil pointers mean the sensor reported no usable value for that pollutant.
type Reading struct {
	SensorID  int64
	PM25      *float64
	PM10      *float64
	Timestamp time.Time
}

// maybeFloat accepts JSON numbers and numeric strings, and remembers whether
// a usable value was present. The Sensor.Community API serializes most values
// and coordinates as strings, but some entries carry plain numbers or junk;
// junk is skipped rather than failing the whole response.
type maybeFloat struct {
	Val float64
	OK  bool
}

func (f *maybeFloat) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return nil
	}
	f.Val = v
	f.OK = true
	return nil
}

type apiEntry struct {
	Timestamp         string         `json:"timestamp"`
	TimestampMeasured string         `json:"timestamp_measured"`
	Sensor            apiSensor      `json:"sensor"`
	Location          apiLocation    `json:"location"`
	SensorDataValues  []apiDataValue `json:"sensordatavalues"`
}

func (e *apiEntry) when() string {
	if e.Timestamp != "" {
		return e.Timestamp
	}
	return e.TimestampMeasured
}

type apiSensor struct {
	ID int64 `json:"id"`
}

type apiLocation struct {
	Latitude  maybeFloat `json:"latitude"`
	Longitude maybeFloat `json:"longitude"`
}

type apiDataValue struct {
	ValueType string     `json:"value_type"`
	Value     maybeFloat `json:"value"`
}
