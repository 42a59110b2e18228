package logx

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestServiceLoggerEmitsToFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	svc, log := New(Config{
		Level: "DEBUG",
		File:  FileConfig{Enabled: true, Path: path},
	})
	defer svc.Close()

	log.With(String("comp", "test")).Info("sink check", Int("n", 7))

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(b)
	for _, want := range []string{`"level":"info"`, `"comp":"test"`, `"n":7`, "sink check"} {
		if !strings.Contains(got, want) {
			t.Fatalf("log line missing %s:\n%s", want, got)
		}
	}
}

func TestServiceApplySwapsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon.log")
	svc, log := New(Config{
		Level: "WARN",
		File:  FileConfig{Enabled: true, Path: path},
	})
	defer svc.Close()

	log.Info("filtered out")
	svc.Apply(Config{Level: "INFO", File: FileConfig{Enabled: true, Path: path}})
	log.Info("let through")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	got := string(b)
	if strings.Contains(got, "filtered out") {
		t.Fatalf("WARN level did not filter info events:\n%s", got)
	}
	if !strings.Contains(got, "let through") {
		t.Fatalf("event lost after Apply:\n%s", got)
	}
}

func TestNopAndZeroLoggersDropEvents(t *testing.T) {
	Nop().Error("dropped")
	var zero Logger
	zero.Error("dropped")
	if !zero.IsZero() {
		t.Fatal("zero Logger not reported as zero")
	}
}
