package rainmeter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"
)

// LocationVars is the rendered state of one location. String fields use "-"
// for missing data so the skin always has something to display.
type LocationVars struct {
	Key       string
	Name      string
	AQI       string
	Color     string
	TrendIcon string
	Category  string
	PM25      string
	PM10      string
}

// RenderVars produces the [Variables] include the skin reads.
//
// Variable names are derived from the location key with the first rune
// upper-cased ("home" -> "AQI_Home"), which is what the shipped skin expects.
func RenderVars(locs []LocationVars, updated time.Time) []byte {
	var b strings.Builder
	b.WriteString("[Variables]\n")
	for _, l := range locs {
		prefix := titleKey(l.Key)
		fmt.Fprintf(&b, "AQI_%s=%s\n", prefix, l.AQI)
		fmt.Fprintf(&b, "AQI_%sColor=%s\n", prefix, l.Color)
		fmt.Fprintf(&b, "AQI_%sTrendIcon=%s\n", prefix, l.TrendIcon)
		fmt.Fprintf(&b, "AQI_%sCategory=%s\n", prefix, l.Category)
		fmt.Fprintf(&b, "AQI_%sName=%s\n", prefix, l.Name)
		fmt.Fprintf(&b, "%s_PM25=%s\n", prefix, l.PM25)
		fmt.Fprintf(&b, "%s_PM10=%s\n", prefix, l.PM10)
	}
	fmt.Fprintf(&b, "AQI_LastUpdateUTC=%s\n", updated.UTC().Format("2006-01-02T15:04:05Z07:00"))
	return []byte(b.String())
}

// WriteFile writes data atomically (tmp + rename) so Rainmeter never reads a
// half-written include mid-refresh.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func titleKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return key
	}
	r := []rune(key)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
