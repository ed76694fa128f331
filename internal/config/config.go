package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	OutputDir  string `toml:"output_dir"`
	WatchDir   string `toml:"watch_dir"`
}

// API contains connection settings for the remote transcription service.
type API struct {
	BaseURL        string `toml:"base_url"`
	Token          string `toml:"token"`
	TokenFile      string `toml:"token_file"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Models selects provider models and the translation target.
type Models struct {
	TranscriptionModel string `toml:"transcription_model"`
	TranslationModel   string `toml:"translation_model"`
	TargetLanguage     string `toml:"target_language"`
}

// Files configures the extension sets used for classification.
type Files struct {
	VideoExtensions    []string `toml:"video_extensions"`
	AudioExtensions    []string `toml:"audio_extensions"`
	SubtitleExtensions []string `toml:"subtitle_extensions"`
}

// Batch configures run-wide orchestration behavior.
type Batch struct {
	ChainTranslation      bool   `toml:"chain_translation"`
	AbortOnError          bool   `toml:"abort_on_error"`
	KeepIntermediateFiles bool   `toml:"keep_intermediate_files"`
	AutoRemoveCompleted   bool   `toml:"auto_remove_completed"`
	UseOutputDir          bool   `toml:"use_output_dir"`
	OutputTemplate        string `toml:"output_template"`
	OutputFormat          string `toml:"output_format"`
	PauseOnBattery        bool   `toml:"pause_on_battery"`
}

// Detection configures the language detection pipeline.
type Detection struct {
	AutoDetectMedia  bool `toml:"auto_detect_media"`
	SampleSeconds    int  `toml:"sample_seconds"`
	ItemDelaySeconds int  `toml:"item_delay_seconds"`
}

// Polling configures status-check loops for asynchronous operations.
type Polling struct {
	IntervalSeconds int `toml:"interval_seconds"`
	TimeoutSeconds  int `toml:"timeout_seconds"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scribeq.
//
// Configuration sections by subsystem:
//   - Paths: staging, log, output, and watch directories
//   - API: remote transcription/translation service connection
//   - Models: provider model selection and target language
//   - Files: classification extension sets
//   - Batch: orchestration flags and output naming template
//   - Detection: language detection pipeline behavior
//   - Polling: async status-check intervals and timeouts
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Models        Models        `toml:"models"`
	Files         Files         `toml:"files"`
	Batch         Batch         `toml:"batch"`
	Detection     Detection     `toml:"detection"`
	Polling       Polling       `toml:"polling"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scribeq/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("scribeq.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
// OutputDir is created on a best-effort basis so the daemon can run when the
// destination volume is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Batch.UseOutputDir && strings.TrimSpace(c.Paths.OutputDir) != "" {
		_ = os.MkdirAll(c.Paths.OutputDir, 0o755)
	}
	return nil
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "scribeqd.sock")
}

// Token resolves the API bearer token from config, preferring the inline value
// over the token file.
func (c *Config) Token() string {
	if token := strings.TrimSpace(c.API.Token); token != "" {
		return token
	}
	path := strings.TrimSpace(c.API.TokenFile)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// APITimeout returns the configured per-request timeout for the remote API.
func (c *Config) APITimeout() time.Duration {
	if c.API.RequestTimeout <= 0 {
		return time.Duration(defaultRequestTimeout) * time.Second
	}
	return time.Duration(c.API.RequestTimeout) * time.Second
}

// FFmpegBinary returns the ffmpeg executable name used for audio extraction.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
