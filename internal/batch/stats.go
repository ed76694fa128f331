package batch

import (
	"fmt"
	"sync"
	"time"
)

// RunStats aggregates the outcome of one batch run.
type RunStats struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	TotalFiles  int       `json:"total_files"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	CreditsUsed float64   `json:"credits_used"`
	OutputPaths []string  `json:"output_paths"`
	Stopped     bool      `json:"stopped"`
	Aborted     bool      `json:"aborted"`
}

// Duration returns the wall-clock length of the run.
func (s RunStats) Duration() time.Duration {
	if s.FinishedAt.IsZero() || s.StartedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Summary renders a one-line human-readable completion summary.
func (s RunStats) Summary() string {
	outcome := "completed"
	switch {
	case s.Aborted:
		outcome = "aborted"
	case s.Stopped:
		outcome = "stopped"
	}
	return fmt.Sprintf("batch %s: %d/%d succeeded, %d failed, %.2f credits, %s",
		outcome, s.Succeeded, s.TotalFiles, s.Failed, s.CreditsUsed, s.Duration().Round(time.Second))
}

// runState tracks mutable per-run progress shared with status queries.
type runState struct {
	mu        sync.Mutex
	stats     RunStats
	completed int
	progress  int
	current   int64
}

func newRunState(runID string, total int) *runState {
	return &runState{stats: RunStats{RunID: runID, StartedAt: time.Now().UTC(), TotalFiles: total}}
}

func (r *runState) setCurrent(id int64) {
	r.mu.Lock()
	r.current = id
	r.mu.Unlock()
}

func (r *runState) recordSuccess(outputPath string) {
	r.mu.Lock()
	r.stats.Succeeded++
	if outputPath != "" {
		r.stats.OutputPaths = append(r.stats.OutputPaths, outputPath)
	}
	r.completed++
	r.updateProgressLocked()
	r.mu.Unlock()
}

func (r *runState) recordFailure() {
	r.mu.Lock()
	r.stats.Failed++
	r.completed++
	r.updateProgressLocked()
	r.mu.Unlock()
}

func (r *runState) updateProgressLocked() {
	if r.stats.TotalFiles > 0 {
		r.progress = int(float64(r.completed)/float64(r.stats.TotalFiles)*100 + 0.5)
	}
}

func (r *runState) finalize(credits float64, stopped, aborted bool) RunStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.FinishedAt = time.Now().UTC()
	r.stats.CreditsUsed = credits
	r.stats.Stopped = stopped
	r.stats.Aborted = aborted
	r.current = 0
	return r.stats
}

func (r *runState) snapshot() (stats RunStats, progress int, current int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats, r.progress, r.current
}
