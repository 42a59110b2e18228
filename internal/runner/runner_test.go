package runner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses shell stubs")
	}
	path := filepath.Join(t.TempDir(), "update.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	script := writeScript(t, "echo out\necho err >&2\n")
	r := New(Config{Command: []string{script}, Timeout: 10 * time.Second})

	res := r.Run(context.Background())
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	if res.ExitCode != 0 {
		t.Fatalf("ExitCode = %d, want 0", res.ExitCode)
	}
	got := string(res.Output)
	if !strings.Contains(got, "out") || !strings.Contains(got, "err") {
		t.Fatalf("combined output missing streams: %q", got)
	}
}

func TestRunReportsNonZeroExit(t *testing.T) {
	script := writeScript(t, "echo failing\nexit 3\n")
	r := New(Config{Command: []string{script}, Timeout: 10 * time.Second})

	res := r.Run(context.Background())
	if res.Err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if res.ExitCode != 3 {
		t.Fatalf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(string(res.Output), "failing") {
		t.Fatalf("output not captured on failure: %q", res.Output)
	}
}

func TestRunMissingCommand(t *testing.T) {
	r := New(Config{Command: []string{filepath.Join(t.TempDir(), "nope")}, Timeout: time.Second})
	res := r.Run(context.Background())
	if res.Err == nil {
		t.Fatal("expected error for missing command")
	}
	if res.ExitCode != -1 {
		t.Fatalf("ExitCode = %d, want -1 for start failure", res.ExitCode)
	}
}

func TestRunTimeout(t *testing.T) {
	script := writeScript(t, "sleep 30\n")
	r := New(Config{Command: []string{script}, Timeout: 100 * time.Millisecond})

	start := time.Now()
	res := r.Run(context.Background())
	if res.Err == nil {
		t.Fatal("expected error for timed-out command")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout not enforced")
	}
}

func TestRunTimeoutWithBackgroundChild(t *testing.T) {
	// The background sleep inherits the output pipe and outlives the shell;
	// the wait delay has to force CombinedOutput to return anyway.
	script := writeScript(t, "sleep 30 &\necho started\nsleep 30\n")
	r := New(Config{Command: []string{script}, Timeout: 100 * time.Millisecond})

	start := time.Now()
	res := r.Run(context.Background())
	if res.Err == nil {
		t.Fatal("expected error for timed-out command")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("run blocked %v past the timeout", elapsed)
	}
	if !strings.Contains(string(res.Output), "started") {
		t.Fatalf("output before the hang not captured: %q", res.Output)
	}
}

func TestRunUsesCommandDirectory(t *testing.T) {
	script := writeScript(t, "pwd\n")
	r := New(Config{Command: []string{script}, Timeout: 10 * time.Second})

	res := r.Run(context.Background())
	if res.Err != nil {
		t.Fatalf("Run: %v", res.Err)
	}
	got := strings.TrimSpace(string(res.Output))
	want := filepath.Dir(script)
	// Resolve symlinks (macOS tempdirs) before comparing.
	gotEval, _ := filepath.EvalSymlinks(got)
	wantEval, _ := filepath.EvalSymlinks(want)
	if gotEval != wantEval {
		t.Fatalf("workdir = %q, want %q", got, want)
	}
}

func TestWorkDirForBareCommandName(t *testing.T) {
	r := New(Config{Command: []string{"python", "update.py"}})
	self, err := os.Executable()
	if err != nil {
		t.Skipf("os.Executable: %v", err)
	}
	if got, want := r.workDir("python"), filepath.Dir(self); got != want {
		t.Fatalf("workdir = %q, want executable dir %q", got, want)
	}
}

func TestArgvDefaultsToSelfUpdate(t *testing.T) {
	r := New(Config{})
	argv, err := r.Argv()
	if err != nil {
		t.Fatalf("Argv: %v", err)
	}
	if len(argv) != 2 || argv[1] != "update" {
		t.Fatalf("Argv = %v, want [<self> update]", argv)
	}
}
