// Package scheduler runs aqwidget's periodic jobs.
//
// # Schedule formats
//
// The scheduler accepts multiple schedule syntaxes:
//
//   - Cron expressions: 5-field (min hour dom mon dow) or 6-field with optional
//     seconds. Example: "55 * * * *" or "0 */5 * * * *".
//   - Cron descriptors: "@hourly", "@daily".
//   - Interval durations: Go duration strings like "300s" or "2h30m".
//   - Interval HH:MM: a compact duration format where "00:05" means every 5
//     minutes.
//
// To force interpretation, callers may prefix the string with "cron:",
// "interval:", or "every:".
//
// # Interval semantics
//
// Interval jobs run immediately on Start, then wait the full interval AFTER
// each run completes before starting the next. This matches the classic
// run/sleep/run polling loop: the wall-clock period is run duration plus
// interval, and two runs can never overlap. Cron jobs fire on the wall clock
// and skip a firing if the previous run is still executing.
//
// # Failure policy
//
// A job returning an error is logged and recorded in the run history; it
// never stops the schedule. There are no retries; the next scheduled run is
// the retry.
package scheduler
