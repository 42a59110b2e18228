// Package logx configures aqwidget's structured logging.
//
// This repo uses a small wrapper (logx.Logger) on top of zerolog to keep:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// The cycle log (internal/cyclelog) is NOT part of logx: it is a plain-text
// artifact with its own append-only format, consumed by the operator.
package logx
