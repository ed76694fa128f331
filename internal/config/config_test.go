package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"scribeq/internal/config"
)

func TestDefaultValidatesAfterNormalize(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load with missing file should fall back to defaults: %v", err)
	}
	if exists {
		t.Fatalf("expected exists=false for %s", path)
	}
	if cfg.Batch.OutputFormat != "srt" {
		t.Fatalf("unexpected default output format %q", cfg.Batch.OutputFormat)
	}
	if cfg.Detection.SampleSeconds != 240 {
		t.Fatalf("unexpected default sample seconds %d", cfg.Detection.SampleSeconds)
	}
	if !cfg.Detection.AutoDetectMedia {
		t.Fatal("media auto-detection should default on")
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
staging_dir = "` + filepath.Join(dir, "staging") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[api]
base_url = "https://lingo.example.net/"
token = "secret"
request_timeout = 30

[files]
video_extensions = ["MP4", ".Mkv"]
audio_extensions = [".mp3"]
subtitle_extensions = [".srt"]

[batch]
output_format = ".SRT"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.API.BaseURL != "https://lingo.example.net" {
		t.Fatalf("base url not trimmed: %q", cfg.API.BaseURL)
	}
	if got := cfg.Files.VideoExtensions; len(got) != 2 || got[0] != ".mp4" || got[1] != ".mkv" {
		t.Fatalf("extensions not normalized: %v", got)
	}
	if cfg.Batch.OutputFormat != "srt" {
		t.Fatalf("output format not normalized: %q", cfg.Batch.OutputFormat)
	}
	if cfg.Token() != "secret" {
		t.Fatalf("unexpected token %q", cfg.Token())
	}
	if cfg.APITimeout() != 30*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.APITimeout())
	}
}

func TestValidateRejectsOverlappingExtensions(t *testing.T) {
	cfg := config.Default()
	cfg.Files.VideoExtensions = []string{".mp4"}
	cfg.Files.AudioExtensions = []string{".mp4"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected overlap rejection")
	}
}

func TestValidateRejectsOutputDirPolicyWithoutDir(t *testing.T) {
	cfg := config.Default()
	cfg.Batch.UseOutputDir = true
	cfg.Paths.OutputDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected use_output_dir without output_dir to fail")
	}
}

func TestValidateRejectsBadPolling(t *testing.T) {
	cfg := config.Default()
	cfg.Polling.IntervalSeconds = 30
	cfg.Polling.TimeoutSeconds = 30
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected timeout <= interval to fail")
	}
}

func TestTokenFileFallback(t *testing.T) {
	dir := t.TempDir()
	tokenPath := filepath.Join(dir, "token")
	if err := os.WriteFile(tokenPath, []byte("  file-token\n"), 0o600); err != nil {
		t.Fatalf("write token: %v", err)
	}

	cfg := config.Default()
	cfg.API.Token = ""
	cfg.API.TokenFile = tokenPath
	if got := cfg.Token(); got != "file-token" {
		t.Fatalf("Token() = %q", got)
	}

	cfg.API.Token = "inline"
	if got := cfg.Token(); got != "inline" {
		t.Fatalf("inline token should win, got %q", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("sample config should load cleanly: exists=%v err=%v", exists, err)
	}
}
