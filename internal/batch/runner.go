package batch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"scribeq/internal/config"
	"scribeq/internal/fileutil"
	"scribeq/internal/langmatch"
	"scribeq/internal/logging"
	"scribeq/internal/media"
	"scribeq/internal/naming"
	"scribeq/internal/poller"
	"scribeq/internal/power"
	"scribeq/internal/queue"
	"scribeq/internal/services/lingo"
)

// RemoteService is the subset of the service client the orchestrator needs.
type RemoteService interface {
	Authenticated() bool
	InitiateTranscription(ctx context.Context, path string, opts lingo.TranscribeOptions) (lingo.OperationResult, error)
	CheckTranscription(ctx context.Context, correlationID string) (lingo.OperationResult, error)
	InitiateTranslation(ctx context.Context, path string, opts lingo.TranslateOptions) (lingo.OperationResult, error)
	CheckTranslation(ctx context.Context, correlationID string) (lingo.OperationResult, error)
	Languages(ctx context.Context, model string) ([]langmatch.LanguageInfo, error)
}

// MediaPrep prepares audio working files before transcription upload.
type MediaPrep interface {
	Probe(ctx context.Context, path string) (media.Info, error)
	ExtractAudio(ctx context.Context, source, dest string) error
	ConvertAudio(ctx context.Context, source, dest string) error
}

// Notifier receives batch lifecycle events.
type Notifier interface {
	RunStarted(ctx context.Context, totalFiles int)
	RunFinished(ctx context.Context, stats RunStats)
	ItemFailed(ctx context.Context, item *queue.Item)
}

var (
	// ErrRunActive is returned when a run is requested while one is in flight.
	ErrRunActive = errors.New("a batch run is already active")
	// ErrQueueEmpty is returned when a run is requested with nothing pending.
	ErrQueueEmpty = errors.New("no pending items in the queue")
)

// Status is a point-in-time view of the orchestrator for status queries.
type Status struct {
	Running       bool      `json:"running"`
	Paused        bool      `json:"paused"`
	Progress      int       `json:"progress"`
	CurrentItemID int64     `json:"current_item_id,omitempty"`
	LastRun       *RunStats `json:"last_run,omitempty"`
}

// Runner drives batch processing over the queue, one file at a time.
type Runner struct {
	store     *queue.Store
	client    RemoteService
	media     MediaPrep
	resolver  *naming.Resolver
	cfg       *config.Config
	inhibitor power.Inhibitor
	notifier  Notifier
	logger    *slog.Logger

	running       atomic.Bool
	paused        atomic.Bool
	stopRequested atomic.Bool

	mu         sync.Mutex
	pollCancel context.CancelFunc
	state      *runState
	lastRun    *RunStats

	removeFile func(path string) error
	writeText  func(path, content string) error
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRunner constructs the orchestrator.
func NewRunner(
	store *queue.Store,
	client RemoteService,
	mediaPrep MediaPrep,
	resolver *naming.Resolver,
	cfg *config.Config,
	inhibitor power.Inhibitor,
	notifier Notifier,
	logger *slog.Logger,
) *Runner {
	if inhibitor == nil {
		inhibitor = power.NoopInhibitor{}
	}
	return &Runner{
		store:      store,
		client:     client,
		media:      mediaPrep,
		resolver:   resolver,
		cfg:        cfg,
		inhibitor:  inhibitor,
		notifier:   notifier,
		logger:     logging.NewComponentLogger(logger, "batch"),
		removeFile: fileutil.RemoveQuietly,
		writeText:  fileutil.WriteText,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// pauseCheckInterval is how often the between-files pause gate re-checks its
// flags while blocked.
const pauseCheckInterval = 200 * time.Millisecond

// autoRemoveDelay keeps a completed item visible briefly before auto-removal.
const autoRemoveDelay = 2 * time.Second

// Running reports whether a run is active.
func (r *Runner) Running() bool { return r.running.Load() }

// Paused reports whether the pause flag is set.
func (r *Runner) Paused() bool { return r.paused.Load() }

// Pause requests a pause before the next file. The in-flight file finishes.
func (r *Runner) Pause() {
	if r.running.Load() {
		r.paused.Store(true)
		r.logger.Info("pause requested")
	}
}

// Resume clears the pause flag.
func (r *Runner) Resume() {
	if r.paused.Swap(false) {
		r.logger.Info("run resumed")
	}
}

// Stop ends the run before the next file and cancels any active poll loop.
// The current submission runs to completion or natural failure.
func (r *Runner) Stop() {
	if !r.running.Load() {
		return
	}
	r.stopRequested.Store(true)
	r.mu.Lock()
	cancel := r.pollCancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	r.logger.Info("stop requested")
}

// Status returns the current orchestrator state.
func (r *Runner) Status() Status {
	status := Status{
		Running: r.running.Load(),
		Paused:  r.paused.Load(),
	}
	r.mu.Lock()
	state := r.state
	if r.lastRun != nil {
		cp := *r.lastRun
		status.LastRun = &cp
	}
	r.mu.Unlock()
	if state != nil {
		_, status.Progress, status.CurrentItemID = state.snapshot()
	}
	return status
}

// Run executes one batch over the pending items captured at start. Items
// added mid-run are not processed until the next run. The returned stats are
// also retained for status queries.
func (r *Runner) Run(ctx context.Context) (stats RunStats, err error) {
	if !r.client.Authenticated() {
		return RunStats{}, lingo.ErrNotAuthenticated
	}
	if !r.running.CompareAndSwap(false, true) {
		return RunStats{}, ErrRunActive
	}
	r.stopRequested.Store(false)
	r.paused.Store(false)

	// Items mid-detection at start still belong to this run; they are
	// re-checked at their turn and skipped unless back to pending.
	pending, err := r.store.List(ctx, queue.StatusPending, queue.StatusDetecting)
	if err != nil {
		r.running.Store(false)
		return RunStats{}, err
	}
	if len(pending) == 0 {
		r.running.Store(false)
		return RunStats{}, ErrQueueEmpty
	}

	// Snapshot of item ids drives iteration; the live queue may change
	// underneath without affecting this run.
	snapshot := make([]int64, len(pending))
	for i, item := range pending {
		snapshot[i] = item.ID
	}

	runID := uuid.NewString()
	logger := r.logger.With(logging.String(logging.FieldRunID, runID))

	pollCtx, pollCancel := context.WithCancel(ctx)
	ledger := NewCreditLedger()
	state := newRunState(runID, len(snapshot))

	r.mu.Lock()
	r.pollCancel = pollCancel
	r.state = state
	r.mu.Unlock()

	release, inhibitErr := r.inhibitor.Inhibit(ctx, "batch transcription run")
	if inhibitErr != nil {
		logger.Warn("could not prevent system sleep", logging.Error(inhibitErr))
		release = func() {}
	}

	logger.Info("batch run started", logging.Int("total_files", len(snapshot)))
	if r.notifier != nil {
		r.notifier.RunStarted(ctx, len(snapshot))
	}

	var aborted bool
	// Release the sleep lock and finalize stats on every exit path. The
	// finalized value is also what the caller receives.
	defer func() {
		release()
		pollCancel()
		final := state.finalize(ledger.Total(), r.stopRequested.Load(), aborted)
		r.mu.Lock()
		r.lastRun = &final
		r.state = nil
		r.pollCancel = nil
		r.mu.Unlock()
		r.running.Store(false)
		r.paused.Store(false)
		logger.Info(final.Summary())
		if r.notifier != nil {
			r.notifier.RunFinished(ctx, final)
		}
		stats = final
	}()

	for _, id := range snapshot {
		if r.stopRequested.Load() || ctx.Err() != nil {
			break
		}
		if stopped := r.waitWhilePaused(ctx); stopped {
			break
		}

		item, err := r.store.GetByID(ctx, id)
		if err != nil {
			return state.stats, err
		}
		if item == nil || item.Status != queue.StatusPending {
			continue
		}

		state.setCurrent(item.ID)
		item.Status = queue.StatusProcessing
		item.SetProgress(0, "Starting")
		item.ErrorMessage = ""
		// A fresh pass re-accrues cost from zero; a retried item must not
		// carry credits from its failed attempt.
		item.CreditsUsed = 0
		if err := r.store.Update(ctx, item); err != nil {
			return state.stats, err
		}

		procErr := r.processItem(ctx, pollCtx, item, ledger)

		if errors.Is(procErr, poller.ErrCancelled) {
			// A user stop is not a failure. The item returns to pending.
			item.Status = queue.StatusPending
			item.SetProgress(0, "")
			if err := r.store.Update(ctx, item); err != nil {
				return state.stats, err
			}
			break
		}

		if procErr != nil {
			item.SetFailed(procErr.Error())
			if err := r.store.Update(ctx, item); err != nil {
				return state.stats, err
			}
			state.recordFailure()
			logger.Warn("item failed",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Error(procErr))
			if r.notifier != nil {
				r.notifier.ItemFailed(ctx, item)
			}
			if r.cfg.Batch.AbortOnError {
				// Remaining snapshot items stay pending, not skipped.
				aborted = true
				break
			}
			continue
		}

		if err := r.store.Update(ctx, item); err != nil {
			return state.stats, err
		}
		state.recordSuccess(item.OutputPath)
		logger.Info("item completed",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("output", item.OutputPath))

		if r.cfg.Batch.AutoRemoveCompleted {
			r.scheduleAutoRemove(item.ID)
		}
	}

	return state.stats, nil
}

// waitWhilePaused blocks between files while the pause flag is set. Returns
// true when a stop ended the wait.
func (r *Runner) waitWhilePaused(ctx context.Context) bool {
	for r.paused.Load() {
		if r.stopRequested.Load() || ctx.Err() != nil {
			return true
		}
		if err := r.sleep(ctx, pauseCheckInterval); err != nil {
			return true
		}
	}
	return false
}

// scheduleAutoRemove deletes a completed item shortly after completion so the
// finished state stays visible first.
func (r *Runner) scheduleAutoRemove(id int64) {
	store := r.store
	logger := r.logger
	time.AfterFunc(autoRemoveDelay, func() {
		if _, err := store.Remove(context.Background(), id); err != nil {
			logger.Warn("auto-remove failed",
				logging.Int64(logging.FieldItemID, id),
				logging.Error(err))
		}
	})
}
