package testsupport

import (
	"path/filepath"
	"testing"

	"scribeq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.Token = "test-token"
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Models.TranscriptionModel = "scribe-v1"
	cfgVal.Models.TranslationModel = "polyglot-v1"
	cfgVal.Detection.ItemDelaySeconds = 0
	cfgVal.Polling.IntervalSeconds = 1
	cfgVal.Polling.TimeoutSeconds = 30

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithToken sets the API token on the test config.
func WithToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithWatchDir enables the inbox watcher under the test base directory.
func WithWatchDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.WatchDir = filepath.Join(b.baseDir, "inbox")
	}
}

// WithChainTranslation enables transcribe-then-translate chaining.
func WithChainTranslation(target string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Batch.ChainTranslation = true
		if target != "" {
			b.cfg.Models.TargetLanguage = target
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
