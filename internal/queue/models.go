package queue

import (
	"strings"
	"time"

	"scribeq/internal/classify"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDetecting  Status = "detecting"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

var allStatuses = []Status{
	StatusPending,
	StatusDetecting,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusSkipped,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID               int64
	SourcePath       string
	DisplayName      string
	Kind             classify.Kind
	Status           Status
	DetectedLangCode string
	DetectedLangName string
	// SourceLanguage is the language submitted with the operation, either
	// picked by the user from detection variants or resolved automatically.
	SourceLanguage  string
	Progress        float64
	ProgressMessage string
	ErrorMessage    string
	OutputPath      string
	CreditsUsed     float64
	Position        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Detecting  int
	Processing int
	Completed  int
	Failed     int
	Skipped    int
}

// DatabaseHealth captures diagnostic information about the queue database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether a status ends an item's participation in a run.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusSkipped:
		return true
	default:
		return false
	}
}

// InFlight reports whether the status reflects an active remote operation.
func (s Status) InFlight() bool {
	return s == StatusDetecting || s == StatusProcessing
}

// HasDetection reports whether a detection result is already recorded.
func (i Item) HasDetection() bool {
	return strings.TrimSpace(i.DetectedLangCode) != "" || strings.TrimSpace(i.DetectedLangName) != ""
}

// SetProgress updates progress and the accompanying message together.
func (i *Item) SetProgress(percent float64, message string) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	i.Progress = percent
	i.ProgressMessage = message
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.Progress = 0
	i.ProgressMessage = message
}

// SetCompleted records the output location and final progress state.
func (i *Item) SetCompleted(outputPath string) {
	i.Status = StatusCompleted
	i.OutputPath = outputPath
	i.ErrorMessage = ""
	i.SetProgress(100, "Done")
}
