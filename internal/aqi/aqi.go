// Package aqi computes the US EPA Air Quality Index from particulate
// concentrations.
//
// The index is a piecewise linear interpolation over fixed concentration
// breakpoints; the overall AQI is the maximum of the available pollutant
// sub-indices (here: PM2.5 and PM10).
package aqi

import "math"

type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh int
}

// US EPA breakpoints, µg/m³.
var pm25Breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 500.4, 301, 500},
}

var pm10Breakpoints = []breakpoint{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 604, 301, 500},
}

func fromBreakpoints(c float64, table []breakpoint) (int, bool) {
	if math.IsNaN(c) || c < 0 {
		return 0, false
	}
	for _, bp := range table {
		if c >= bp.cLow && c <= bp.cHigh {
			v := float64(bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + float64(bp.iLow)
			return int(math.Round(v)), true
		}
	}
	return 0, false
}

// FromPM25 returns the PM2.5 sub-index for a concentration in µg/m³.
func FromPM25(c float64) (int, bool) { return fromBreakpoints(c, pm25Breakpoints) }

// FromPM10 returns the PM10 sub-index for a concentration in µg/m³.
func FromPM10(c float64) (int, bool) { return fromBreakpoints(c, pm10Breakpoints) }

// Calc computes the overall AQI from optional PM2.5 and PM10 concentrations.
// Nil pointers mean "no reading". The second return is false when neither
// pollutant yields a sub-index (off-scale or missing).
func Calc(pm25, pm10 *float64) (int, bool) {
	best := 0
	ok := false
	if pm25 != nil {
		if v, valid := FromPM25(*pm25); valid {
			best, ok = v, true
		}
	}
	if pm10 != nil {
		if v, valid := FromPM10(*pm10); valid && (!ok || v > best) {
			best, ok = v, true
		}
	}
	return best, ok
}
