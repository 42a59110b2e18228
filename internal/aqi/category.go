package aqi

// Category is a display band for an AQI value. Color is an "R,G,B,A" string
// as consumed by Rainmeter skins.
type Category struct {
	Name  string
	Color string
}

// NoData is rendered when no reading is available.
var NoData = Category{Name: "No data", Color: "128,128,128,180"}

var bands = []struct {
	max int
	cat Category
}{
	{50, Category{"Good", "0,255,128,220"}},
	{100, Category{"Moderate", "255,220,0,220"}},
	{150, Category{"Unhealthy for sensitive", "255,153,0,220"}},
	{200, Category{"Unhealthy", "255,51,51,220"}},
	{300, Category{"Very unhealthy", "186,85,211,220"}},
}

var hazardous = Category{"Hazardous", "128,0,64,220"}

// Categorize maps an AQI value to its display band.
func Categorize(value int) Category {
	for _, b := range bands {
		if value <= b.max {
			return b.cat
		}
	}
	return hazardous
}

// Trend icon names match the arrow images shipped with the skin.
const (
	TrendUp   = "arrow_up"
	TrendDown = "arrow_down"
	TrendFlat = "arrow_flat"
)

// Trend compares the current AQI against the previous run. A missing side
// (nil) reads as flat.
func Trend(cur, prev *int) string {
	if cur == nil || prev == nil {
		return TrendFlat
	}
	switch {
	case *cur > *prev:
		return TrendUp
	case *cur < *prev:
		return TrendDown
	default:
		return TrendFlat
	}
}
