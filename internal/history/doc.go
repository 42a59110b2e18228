// Package history persists per-location AQI observations.
//
// It currently supports:
//   - A windowed observation log used for trend graphs
//   - Pruning by age so files stay small on long-running installs
package history
