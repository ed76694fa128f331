package ipc

import (
	"time"

	"scribeq/internal/batch"
	"scribeq/internal/queue"
)

// QueueItem is the wire representation of a queue entry.
type QueueItem struct {
	ID               int64     `json:"id"`
	SourcePath       string    `json:"source_path"`
	DisplayName      string    `json:"display_name"`
	Kind             string    `json:"kind"`
	Status           string    `json:"status"`
	DetectedLangCode string    `json:"detected_lang_code,omitempty"`
	DetectedLangName string    `json:"detected_lang_name,omitempty"`
	SourceLanguage   string    `json:"source_language,omitempty"`
	Progress         float64   `json:"progress"`
	ProgressMessage  string    `json:"progress_message,omitempty"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	OutputPath       string    `json:"output_path,omitempty"`
	CreditsUsed      float64   `json:"credits_used"`
	Position         int64     `json:"position"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// FromQueueItem converts a store item to its wire form.
func FromQueueItem(item *queue.Item) QueueItem {
	if item == nil {
		return QueueItem{}
	}
	return QueueItem{
		ID:               item.ID,
		SourcePath:       item.SourcePath,
		DisplayName:      item.DisplayName,
		Kind:             string(item.Kind),
		Status:           string(item.Status),
		DetectedLangCode: item.DetectedLangCode,
		DetectedLangName: item.DetectedLangName,
		SourceLanguage:   item.SourceLanguage,
		Progress:         item.Progress,
		ProgressMessage:  item.ProgressMessage,
		ErrorMessage:     item.ErrorMessage,
		OutputPath:       item.OutputPath,
		CreditsUsed:      item.CreditsUsed,
		Position:         item.Position,
		CreatedAt:        item.CreatedAt,
		UpdatedAt:        item.UpdatedAt,
	}
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon/batch status information.
type StatusResponse struct {
	Running       bool           `json:"running"`
	PID           int            `json:"pid"`
	Authenticated bool           `json:"authenticated"`
	LockPath      string         `json:"lock_path"`
	QueueDBPath   string         `json:"queue_db_path"`
	Watching      bool           `json:"watching"`
	Detecting     bool           `json:"detecting"`
	Batch         batch.Status   `json:"batch"`
	QueueStats    map[string]int `json:"queue_stats"`
}

// QueueAddRequest enqueues files.
type QueueAddRequest struct {
	Paths []string `json:"paths"`
}

// QueueAddResponse reports per-path enqueue outcomes.
type QueueAddResponse struct {
	Items    []QueueItem `json:"items"`
	Rejected []string    `json:"rejected,omitempty"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries in queue order.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueDescribeRequest fetches a single queue item by id.
type QueueDescribeRequest struct {
	ID int64 `json:"id"`
}

// QueueDescribeResponse contains a single queue entry.
type QueueDescribeResponse struct {
	Item QueueItem `json:"item"`
}

// QueueRemoveRequest deletes a queue item.
type QueueRemoveRequest struct {
	ID int64 `json:"id"`
}

// QueueRemoveResponse reports whether an item was deleted.
type QueueRemoveResponse struct {
	Removed bool `json:"removed"`
}

// QueueReorderRequest rewrites queue order to match the given ids.
type QueueReorderRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueReorderResponse acknowledges a reorder.
type QueueReorderResponse struct {
	Reordered bool `json:"reordered"`
}

// QueueClearRequest removes all items not in flight.
type QueueClearRequest struct{}

// QueueClearResponse reports number of removed entries.
type QueueClearResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearCompletedRequest removes completed items.
type QueueClearCompletedRequest struct{}

// QueueClearCompletedResponse reports number of removed entries.
type QueueClearCompletedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueClearFailedRequest removes failed items.
type QueueClearFailedRequest struct{}

// QueueClearFailedResponse reports number of removed entries.
type QueueClearFailedResponse struct {
	Removed int64 `json:"removed"`
}

// QueueRetryRequest retries failed items; empty means all failed items.
type QueueRetryRequest struct {
	IDs []int64 `json:"ids"`
}

// QueueRetryResponse reports number of retried entries.
type QueueRetryResponse struct {
	Updated int64 `json:"updated"`
}

// QueueResetRequest resets items stuck in in-flight states.
type QueueResetRequest struct{}

// QueueResetResponse reports number of reset entries.
type QueueResetResponse struct {
	Updated int64 `json:"updated"`
}

// QueueHealthRequest fetches aggregated queue counts.
type QueueHealthRequest struct{}

// QueueHealthResponse carries aggregated queue counts.
type QueueHealthResponse struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Detecting  int `json:"detecting"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Skipped    int `json:"skipped"`
}

// DatabaseHealthRequest fetches database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse carries database diagnostics.
type DatabaseHealthResponse struct {
	DBPath           string   `json:"db_path"`
	DatabaseExists   bool     `json:"database_exists"`
	DatabaseReadable bool     `json:"database_readable"`
	TableExists      bool     `json:"table_exists"`
	MissingColumns   []string `json:"missing_columns,omitempty"`
	IntegrityCheck   bool     `json:"integrity_check"`
	TotalItems       int      `json:"total_items"`
	Error            string   `json:"error,omitempty"`
}

// BatchStartRequest starts a batch run.
type BatchStartRequest struct{}

// BatchStartResponse reports whether the run started.
type BatchStartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// BatchPauseRequest pauses the active run before its next file.
type BatchPauseRequest struct{}

// BatchPauseResponse acknowledges a pause request.
type BatchPauseResponse struct {
	Paused bool `json:"paused"`
}

// BatchResumeRequest resumes a paused run.
type BatchResumeRequest struct{}

// BatchResumeResponse acknowledges a resume request.
type BatchResumeResponse struct {
	Resumed bool `json:"resumed"`
}

// BatchStopRequest stops the active run.
type BatchStopRequest struct{}

// BatchStopResponse acknowledges a stop request.
type BatchStopResponse struct {
	Stopped bool `json:"stopped"`
}

// DetectNowRequest triggers a language detection pass.
type DetectNowRequest struct{}

// DetectNowResponse reports whether a pass was started.
type DetectNowResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message,omitempty"`
}

// TestNotificationRequest triggers a test notification.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the notification outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
