package classify

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Kind partitions queue items by the operation their file requires.
type Kind string

const (
	KindTranscription Kind = "transcription"
	KindTranslation   Kind = "translation"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindTranscription:
		return KindTranscription, true
	case KindTranslation:
		return KindTranslation, true
	default:
		return "", false
	}
}

// Result reports which category a file extension falls into. The configured
// extension sets are disjoint, so at most one field is true.
type Result struct {
	IsVideo    bool
	IsAudio    bool
	IsSubtitle bool
}

// Supported reports whether the file matched any configured category.
func (r Result) Supported() bool {
	return r.IsVideo || r.IsAudio || r.IsSubtitle
}

// cacheTTL bounds how long a classification result is reused for repeated
// lookups of the same filename. Classification is pure over the extension, so
// the cache is purely a lookup shortcut for hot UI queries.
const cacheTTL = 5 * time.Second

type cachedResult struct {
	result  Result
	expires time.Time
}

// Classifier maps filenames to media categories using configured extension sets.
type Classifier struct {
	video    map[string]struct{}
	audio    map[string]struct{}
	subtitle map[string]struct{}

	mu    sync.Mutex
	cache map[string]cachedResult
	now   func() time.Time
}

// New builds a classifier from the three extension sets. Extensions are
// matched case-insensitively and must include the leading dot.
func New(videoExts, audioExts, subtitleExts []string) *Classifier {
	return &Classifier{
		video:    toSet(videoExts),
		audio:    toSet(audioExts),
		subtitle: toSet(subtitleExts),
		cache:    make(map[string]cachedResult),
		now:      time.Now,
	}
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		set[ext] = struct{}{}
	}
	return set
}

// Classify reports the category of fileName based on its extension.
// Results are cached briefly, keyed by the lowercased filename.
func (c *Classifier) Classify(fileName string) Result {
	key := strings.ToLower(strings.TrimSpace(fileName))

	c.mu.Lock()
	if entry, ok := c.cache[key]; ok && c.now().Before(entry.expires) {
		c.mu.Unlock()
		return entry.result
	}
	c.mu.Unlock()

	ext := strings.ToLower(filepath.Ext(key))
	var result Result
	if _, ok := c.video[ext]; ok {
		result.IsVideo = true
	} else if _, ok := c.audio[ext]; ok {
		result.IsAudio = true
	} else if _, ok := c.subtitle[ext]; ok {
		result.IsSubtitle = true
	}

	c.mu.Lock()
	c.cache[key] = cachedResult{result: result, expires: c.now().Add(cacheTTL)}
	c.mu.Unlock()
	return result
}

// KindFor derives the queue item kind for a file. Subtitle files are
// translated, audio and video files are transcribed. Unsupported extensions
// are rejected so they never enter the queue.
func (c *Classifier) KindFor(fileName string) (Kind, error) {
	result := c.Classify(fileName)
	switch {
	case result.IsSubtitle:
		return KindTranslation, nil
	case result.IsVideo, result.IsAudio:
		return KindTranscription, nil
	default:
		return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(fileName))
	}
}
