package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"scribeq/internal/config"
	"scribeq/internal/daemon"
	"scribeq/internal/ipc"
	"scribeq/internal/logging"
	"scribeq/internal/queue"
	"scribeq/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	socketPath string
	configPath string
}

// setupCLITestEnv writes a config file, opens a queue store, and serves a
// wired daemon over a temp socket. Everything is torn down with the test.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	socketPath := filepath.Join(t.TempDir(), "scribeqd.sock")
	server, err := ipc.NewServer(context.Background(), socketPath, d, logging.NewNop())
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	return &cliTestEnv{cfg: cfg, store: store, socketPath: socketPath, configPath: configPath}
}

// runCLI executes the root command against the given daemon socket and
// returns captured stdout, stderr, and the command error.
func runCLI(t *testing.T, args []string, socketPath, configPath string) (string, string, error) {
	t.Helper()

	root := newRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)

	full := []string{"--socket", socketPath}
	if configPath != "" {
		full = append(full, "--config", configPath)
	}
	full = append(full, args...)
	root.SetArgs(full)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output should contain %q, got:\n%s", want, output)
	}
}
