package naming_test

import (
	"os"
	"path/filepath"
	"testing"

	"scribeq/internal/classify"
	"scribeq/internal/langmatch"
	"scribeq/internal/naming"
	"scribeq/internal/testsupport"
)

func TestResolveTemplate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Batch.OutputTemplate = "{name}.{lang}.{ext}"
	resolver := naming.NewResolver(cfg)

	source := filepath.Join(t.TempDir(), "movie.mkv")
	got := resolver.Resolve(naming.Request{
		SourcePath:   source,
		Kind:         classify.KindTranscription,
		LanguageCode: "en-US",
	})
	want := filepath.Join(filepath.Dir(source), "movie.en-US.srt")
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveLanguagePlaceholder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Batch.OutputTemplate = "{name} [{language}].{ext}"
	resolver := naming.NewResolver(cfg)

	source := filepath.Join(t.TempDir(), "talk.mp3")
	got := resolver.Resolve(naming.Request{
		SourcePath:   source,
		Kind:         classify.KindTranscription,
		LanguageCode: "de-DE",
		Languages:    []langmatch.LanguageInfo{{Code: "de-DE", DisplayName: "German"}},
	})
	want := filepath.Join(filepath.Dir(source), "talk [German].srt")
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveUnknownLanguageUsesUnd(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	resolver := naming.NewResolver(cfg)

	source := filepath.Join(t.TempDir(), "clip.wav")
	got := resolver.Resolve(naming.Request{SourcePath: source, Kind: classify.KindTranscription})
	want := filepath.Join(filepath.Dir(source), "clip.und.srt")
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}

func TestResolveOutputDirPolicy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Batch.UseOutputDir = true
	resolver := naming.NewResolver(cfg)

	source := filepath.Join(t.TempDir(), "movie.mkv")
	got := resolver.Resolve(naming.Request{
		SourcePath:   source,
		Kind:         classify.KindTranscription,
		LanguageCode: "fr-FR",
	})
	if filepath.Dir(got) != cfg.Paths.OutputDir {
		t.Fatalf("expected output under %q, got %q", cfg.Paths.OutputDir, got)
	}
}

func TestResolveAvoidsCollisions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	resolver := naming.NewResolver(cfg)

	dir := t.TempDir()
	source := filepath.Join(dir, "movie.mkv")
	existing := filepath.Join(dir, "movie.en.srt")
	if err := os.WriteFile(existing, []byte("x"), 0o644); err != nil {
		t.Fatalf("write existing output: %v", err)
	}

	got := resolver.Resolve(naming.Request{
		SourcePath:   source,
		Kind:         classify.KindTranscription,
		LanguageCode: "en",
	})
	want := filepath.Join(dir, "movie.en (1).srt")
	if got != want {
		t.Fatalf("Resolve = %q, want %q", got, want)
	}
}
