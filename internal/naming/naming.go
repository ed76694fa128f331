// Package naming resolves destination paths for finished transcripts and
// translations from the configured directory policy and filename template.
package naming

import (
	"path/filepath"
	"strings"

	"scribeq/internal/classify"
	"scribeq/internal/config"
	"scribeq/internal/fileutil"
	"scribeq/internal/langmatch"
)

// Resolver renders output paths for completed operations.
type Resolver struct {
	template     string
	outputFormat string
	useOutputDir bool
	outputDir    string
}

// NewResolver builds a resolver from batch and path configuration.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		template:     cfg.Batch.OutputTemplate,
		outputFormat: cfg.Batch.OutputFormat,
		useOutputDir: cfg.Batch.UseOutputDir,
		outputDir:    cfg.Paths.OutputDir,
	}
}

// Request carries everything needed to name one output file.
type Request struct {
	SourcePath string
	Kind       classify.Kind
	// LanguageCode is the language of the produced text, so the detected or
	// selected source language for transcriptions and the target language
	// for translations.
	LanguageCode string
	// Languages supplies provider display names for the code, when known.
	Languages []langmatch.LanguageInfo
}

// Resolve renders the destination path for a finished operation. The result
// never collides with an existing file.
func (r *Resolver) Resolve(req Request) string {
	dir := filepath.Dir(req.SourcePath)
	if r.useOutputDir && strings.TrimSpace(r.outputDir) != "" {
		dir = r.outputDir
	}

	base := filepath.Base(req.SourcePath)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	code := strings.TrimSpace(req.LanguageCode)
	if code == "" {
		code = "und"
	}

	rendered := r.template
	rendered = strings.ReplaceAll(rendered, "{name}", name)
	rendered = strings.ReplaceAll(rendered, "{lang}", code)
	rendered = strings.ReplaceAll(rendered, "{language}", langmatch.DisplayName(code, req.Languages))
	rendered = strings.ReplaceAll(rendered, "{kind}", string(req.Kind))
	rendered = strings.ReplaceAll(rendered, "{ext}", r.outputFormat)

	return fileutil.UniqueName(filepath.Join(dir, rendered))
}
