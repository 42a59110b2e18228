// Package rainmeter talks to a locally installed Rainmeter: it resolves the
// executable across candidate install directories, triggers skin refreshes,
// and writes the @Resources variables file skins read their data from.
//
// Rainmeter itself is an opaque collaborator. Nothing here depends on it
// being present; callers decide what to do when it is not.
package rainmeter

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// RefreshArg is the bang Rainmeter executes when invoked from the command
// line to reload all loaded skins.
const RefreshArg = "!RefreshApp"

// Config controls executable resolution and invocation.
type Config struct {
	// Paths are candidate executable locations, checked in order.
	// When empty, DefaultPaths() is used.
	Paths []string
}

// DefaultPaths returns the stock install locations, derived from the
// OS-provided install-path variables. Entries with an unset base are dropped,
// so this is naturally empty on non-Windows hosts.
func DefaultPaths() []string {
	var out []string
	for _, env := range []string{"ProgramFiles", "ProgramFiles(x86)"} {
		if base := os.Getenv(env); base != "" {
			out = append(out, filepath.Join(base, "Rainmeter", "Rainmeter.exe"))
		}
	}
	return out
}

// Resolve returns the first candidate path that exists as a regular file.
func Resolve(cfg Config) (string, bool) {
	paths := cfg.Paths
	if len(paths) == 0 {
		paths = DefaultPaths()
	}
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}

// Candidates reports the paths Resolve would check, for log/warning lines.
func Candidates(cfg Config) []string {
	if len(cfg.Paths) > 0 {
		return cfg.Paths
	}
	return DefaultPaths()
}

// Refresh invokes the resolved executable with the refresh bang and returns
// its combined output. Rainmeter normally prints nothing on success.
func Refresh(ctx context.Context, exePath string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, exePath, RefreshArg)
	return cmd.CombinedOutput()
}
