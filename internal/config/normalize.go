package config

import "strings"

// normalize expands paths and canonicalizes extension sets after decoding.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return err
	}
	if c.Paths.WatchDir, err = expandPath(c.Paths.WatchDir); err != nil {
		return err
	}
	if c.API.TokenFile, err = expandPath(c.API.TokenFile); err != nil {
		return err
	}

	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Models.TranscriptionModel = strings.TrimSpace(c.Models.TranscriptionModel)
	c.Models.TranslationModel = strings.TrimSpace(c.Models.TranslationModel)
	c.Models.TargetLanguage = strings.TrimSpace(c.Models.TargetLanguage)

	c.Files.VideoExtensions = normalizeExtensions(c.Files.VideoExtensions)
	c.Files.AudioExtensions = normalizeExtensions(c.Files.AudioExtensions)
	c.Files.SubtitleExtensions = normalizeExtensions(c.Files.SubtitleExtensions)

	if strings.TrimSpace(c.Batch.OutputTemplate) == "" {
		c.Batch.OutputTemplate = defaultOutputTemplate
	}
	c.Batch.OutputFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Batch.OutputFormat)), ".")
	if c.Batch.OutputFormat == "" {
		c.Batch.OutputFormat = defaultOutputFormat
	}
	return nil
}

func normalizeExtensions(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
