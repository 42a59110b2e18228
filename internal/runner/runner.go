// Package runner invokes the external update command once per cycle.
//
// The update command is an opaque collaborator: the loop records its combined
// output and exit status in the cycle log and otherwise does not care what it
// did. By default the command is this binary's own `update` subcommand, which
// keeps the updater a separately invocable unit.
package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Config controls how the update command is spawned.
type Config struct {
	// Command is the argv to run. Empty means "<own executable> update".
	Command []string
	// Dir is the working directory. Empty means the directory containing
	// the command's executable, or the daemon executable's directory when
	// the command is a bare PATH-resolved name.
	Dir string
	// Timeout bounds one invocation so a hung updater cannot stall the loop.
	Timeout time.Duration
}

// Result is the fire-and-forget outcome of one invocation. Err is carried
// for logging only; callers never escalate it.
type Result struct {
	Argv     []string
	Output   []byte
	ExitCode int
	Duration time.Duration
	Err      error
}

type Runner struct {
	cfg Config
}

func New(cfg Config) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Runner{cfg: cfg}
}

// Argv returns the effective command line, resolving the self-invocation
// default lazily so tests can construct a Runner without an executable.
func (r *Runner) Argv() ([]string, error) {
	if len(r.cfg.Command) > 0 {
		return r.cfg.Command, nil
	}
	self, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return []string{self, "update"}, nil
}

// Run executes the update command and captures its combined stdout/stderr.
func (r *Runner) Run(ctx context.Context) Result {
	start := time.Now()

	argv, err := r.Argv()
	if err != nil {
		return Result{Err: err, ExitCode: -1, Duration: time.Since(start)}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = r.workDir(argv[0])
	// Without a wait delay, CombinedOutput blocks past the timeout when a
	// grandchild inherits the output pipe and keeps it open after the direct
	// child is killed.
	cmd.WaitDelay = 2 * time.Second

	out, err := cmd.CombinedOutput()
	res := Result{
		Argv:     argv,
		Output:   out,
		Duration: time.Since(start),
		Err:      err,
	}
	res.ExitCode = exitCode(cmd, err)
	return res
}

func (r *Runner) workDir(exe string) string {
	if r.cfg.Dir != "" {
		return r.cfg.Dir
	}
	// A bare name like "python" resolves through PATH; its Abs would just be
	// the daemon's cwd. Use the daemon executable's directory instead.
	if filepath.Base(exe) == exe {
		if self, err := os.Executable(); err == nil {
			return filepath.Dir(self)
		}
		return ""
	}
	if abs, err := filepath.Abs(exe); err == nil {
		return filepath.Dir(abs)
	}
	return ""
}

func exitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		if ps := cmd.ProcessState; ps != nil {
			return ps.ExitCode()
		}
		return 0
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	// Start failure or context cancellation: no process exit code.
	return -1
}
