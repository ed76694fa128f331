package lingo

import "strings"

// Status is the lifecycle state the service reports for an operation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusError     Status = "ERROR"
	StatusTimeout   Status = "TIMEOUT"
)

// Terminal reports whether a status ends the polling loop.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusTimeout:
		return true
	default:
		return false
	}
}

// OperationResult is the normalized response shape shared by detection,
// transcription, and translation endpoints. Immediate and polled completions
// both resolve into this form so cost accounting sees a single field.
type OperationResult struct {
	Status        Status   `json:"status"`
	CorrelationID string   `json:"correlation_id,omitempty"`
	Content       string   `json:"content,omitempty"`
	Language      string   `json:"language,omitempty"`
	LanguageName  string   `json:"language_name,omitempty"`
	Cost          float64  `json:"cost,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// ErrorMessage flattens provider-reported errors into a single string.
func (r OperationResult) ErrorMessage() string {
	parts := make([]string, 0, len(r.Errors))
	for _, msg := range r.Errors {
		if trimmed := strings.TrimSpace(msg); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, "; ")
}

// TranscribeOptions parameterizes a transcription submission.
type TranscribeOptions struct {
	Language      string
	Model         string
	ReturnContent bool
}

// TranslateOptions parameterizes a translation submission.
type TranslateOptions struct {
	From          string
	To            string
	Model         string
	ReturnContent bool
}
