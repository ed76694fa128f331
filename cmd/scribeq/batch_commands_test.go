package main

import (
	"strings"
	"testing"

	"scribeq/internal/testsupport"
)

func TestBatchStartReportsRunStarted(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"batch", "start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("batch start: %v", err)
	}
	requireContains(t, out, "batch run started")
}

func TestBatchStartRefusesWithoutAuthentication(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithToken(""))

	_, _, err := runCLI(t, []string{"batch", "start"}, env.socketPath, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not authenticated") {
		t.Fatalf("expected authentication refusal, got %v", err)
	}
}

func TestBatchPauseWithoutActiveRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"batch", "pause"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("batch pause: %v", err)
	}
	requireContains(t, out, "No batch run is active")
}

func TestBatchStopWithoutActiveRun(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"batch", "stop"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("batch stop: %v", err)
	}
	requireContains(t, out, "No batch run is active")
}
