package scheduler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// SpecKind is the normalized form of a schedule string: a cron expression
// handed to robfig/cron, or a fixed interval driven by our own loop.
type SpecKind int

const (
	SpecCron SpecKind = iota
	SpecInterval
)

// ParsedSpec is the result of ParseSchedule.
type ParsedSpec struct {
	Kind   SpecKind
	Cron   string        // set when Kind == SpecCron
	Every  time.Duration // set when Kind == SpecInterval
	Source string        // "cron" | "duration" | "hhmm"
}

var hhmmRe = regexp.MustCompile(`^(\d{1,3}):(\d{2})$`)

// ParseSchedule normalizes a schedule string.
//
// Accepted forms:
//   - cron: "*/5 * * * *" (5 or 6 fields), descriptors like "@hourly"
//   - duration: "300s", "2h30m" — interval with post-completion wait
//   - HH:MM: "00:05" means every 5 minutes
//
// A "cron:", "interval:" or "every:" prefix forces the interpretation;
// otherwise whitespace or a leading '@' selects cron and everything else is
// tried as an interval.
func ParseSchedule(raw string) (ParsedSpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedSpec{}, fmt.Errorf("schedule required")
	}

	if rest, ok := cutPrefixFold(s, "cron:"); ok {
		if rest == "" {
			return ParsedSpec{}, fmt.Errorf("cron schedule required after %q", "cron:")
		}
		return ParsedSpec{Kind: SpecCron, Cron: rest, Source: "cron"}, nil
	}
	for _, p := range []string{"interval:", "every:"} {
		if rest, ok := cutPrefixFold(s, p); ok {
			return parseIntervalSpec(rest)
		}
	}

	if strings.ContainsAny(s, " \t") || strings.HasPrefix(s, "@") {
		return ParsedSpec{Kind: SpecCron, Cron: s, Source: "cron"}, nil
	}

	spec, err := parseIntervalSpec(s)
	if err != nil {
		return ParsedSpec{}, fmt.Errorf(
			"invalid schedule %q: want cron (%q), HH:MM (%q) or duration (%q)",
			raw, "*/5 * * * *", "02:30", "300s")
	}
	return spec, nil
}

// parseIntervalSpec accepts HH:MM or a Go duration, both strictly positive.
func parseIntervalSpec(s string) (ParsedSpec, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ParsedSpec{}, fmt.Errorf("interval required")
	}
	if m := hhmmRe.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.Atoi(m[1])
		mins, _ := strconv.Atoi(m[2])
		if mins > 59 {
			return ParsedSpec{}, fmt.Errorf("invalid minutes in %q", s)
		}
		d := time.Duration(hours)*time.Hour + time.Duration(mins)*time.Minute
		if d <= 0 {
			return ParsedSpec{}, fmt.Errorf("interval must be > 0")
		}
		return ParsedSpec{Kind: SpecInterval, Every: d, Source: "hhmm"}, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return ParsedSpec{}, fmt.Errorf("invalid interval %q: %w", s, err)
	}
	if d <= 0 {
		return ParsedSpec{}, fmt.Errorf("interval must be > 0")
	}
	return ParsedSpec{Kind: SpecInterval, Every: d, Source: "duration"}, nil
}

// cutPrefixFold is strings.CutPrefix with ASCII case folding on the prefix.
func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}
