package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateFiles(); err != nil {
		return err
	}
	if err := c.validateBatch(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAPI() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("api.base_url must be set")
	}
	if c.API.RequestTimeout <= 0 {
		return errors.New("api.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateFiles() error {
	if len(c.Files.VideoExtensions) == 0 && len(c.Files.AudioExtensions) == 0 && len(c.Files.SubtitleExtensions) == 0 {
		return errors.New("files: at least one extension set must be non-empty")
	}
	seen := make(map[string]string)
	for name, set := range map[string][]string{
		"video_extensions":    c.Files.VideoExtensions,
		"audio_extensions":    c.Files.AudioExtensions,
		"subtitle_extensions": c.Files.SubtitleExtensions,
	} {
		for _, ext := range set {
			if other, ok := seen[ext]; ok && other != name {
				return fmt.Errorf("files: extension %q appears in both %s and %s", ext, other, name)
			}
			seen[ext] = name
		}
	}
	return nil
}

func (c *Config) validateBatch() error {
	if c.Batch.UseOutputDir && strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set when batch.use_output_dir is true")
	}
	if strings.TrimSpace(c.Batch.OutputTemplate) == "" {
		return errors.New("batch.output_template must be set")
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.SampleSeconds <= 0 {
		return errors.New("detection.sample_seconds must be positive")
	}
	if c.Detection.ItemDelaySeconds < 0 {
		return errors.New("detection.item_delay_seconds must not be negative")
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.IntervalSeconds <= 0 {
		return errors.New("polling.interval_seconds must be positive")
	}
	if c.Polling.TimeoutSeconds <= 0 {
		return errors.New("polling.timeout_seconds must be positive")
	}
	if c.Polling.TimeoutSeconds <= c.Polling.IntervalSeconds {
		return errors.New("polling.timeout_seconds must be greater than polling.interval_seconds")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}
