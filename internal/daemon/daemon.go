package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"scribeq/internal/batch"
	"scribeq/internal/classify"
	"scribeq/internal/config"
	"scribeq/internal/detect"
	"scribeq/internal/logging"
	"scribeq/internal/media"
	"scribeq/internal/naming"
	"scribeq/internal/notifications"
	"scribeq/internal/power"
	"scribeq/internal/queue"
	"scribeq/internal/services/lingo"
	"scribeq/internal/watch"
)

// Daemon owns the long-running pieces: queue store, detection pipeline,
// batch orchestrator, inbox watcher, and power monitor.
type Daemon struct {
	cfg        *config.Config
	store      *queue.Store
	logger     *slog.Logger
	client     *lingo.Client
	classifier *classify.Classifier
	mediaSvc   *media.Service
	pipeline   *detect.Pipeline
	runner     *batch.Runner
	notifier   notifications.Service
	watcher    *watch.Watcher
	monitor    *power.SupplyMonitor

	lock     *flock.Flock
	lockPath string

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New wires up a daemon from configuration.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if store == nil {
		return nil, errors.New("daemon requires a queue store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	client := lingo.NewClient(cfg.API.BaseURL, cfg.Token, lingo.WithTimeout(cfg.APITimeout()))
	classifier := classify.New(cfg.Files.VideoExtensions, cfg.Files.AudioExtensions, cfg.Files.SubtitleExtensions)
	mediaSvc := media.NewService(cfg.FFmpegBinary(), cfg.FFprobeBinary(), logger)
	pipeline := detect.NewPipeline(store, client, mediaSvc, cfg, logger)
	notifier := notifications.NewService(cfg)
	inhibitor := power.NewInhibitor(logger)

	resolver := naming.NewResolver(cfg)
	runner := batch.NewRunner(store, client, mediaSvc, resolver, cfg, inhibitor,
		&notifierAdapter{service: notifier, logger: logger}, logger)

	d := &Daemon{
		cfg:        cfg,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		client:     client,
		classifier: classifier,
		mediaSvc:   mediaSvc,
		pipeline:   pipeline,
		runner:     runner,
		notifier:   notifier,
		lockPath:   filepath.Join(cfg.Paths.LogDir, "scribeqd.lock"),
	}

	if dir := cfg.Paths.WatchDir; dir != "" {
		d.watcher = watch.New(dir, func(ctx context.Context, path string) error {
			_, err := d.AddFile(ctx, path)
			return err
		}, logger)
	}

	if cfg.Batch.PauseOnBattery {
		d.monitor = power.NewSupplyMonitor(logger,
			func(context.Context) { d.runner.Pause() },
			func(context.Context) { d.runner.Resume() },
		)
	}

	return d, nil
}

// Start takes the daemon lock, resets interrupted items, and brings up the
// background services.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return nil
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	lock := flock.New(d.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another scribeq daemon holds %s", d.lockPath)
	}
	d.lock = lock

	reset, err := d.store.ResetStuckProcessing(ctx)
	if err != nil {
		_ = lock.Unlock()
		d.lock = nil
		return err
	}
	if reset > 0 {
		d.logger.Info("reset interrupted items", logging.Int64("count", reset))
	}

	d.preflight()

	daemonCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	d.ctx = daemonCtx
	d.cancel = cancel
	d.running = true

	if d.watcher != nil {
		if err := d.watcher.Start(daemonCtx); err != nil {
			d.logger.Warn("inbox watcher failed to start", logging.Error(err))
		}
	}
	if d.monitor != nil {
		if err := d.monitor.Start(daemonCtx); err != nil {
			d.logger.Warn("power monitor failed to start", logging.Error(err))
		}
	}

	go func() {
		if err := d.pipeline.Run(daemonCtx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn("detection pass failed", logging.Error(err))
		}
	}()

	d.logger.Info("daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.Int("pid", os.Getpid()))
	return nil
}

// Stop halts the batch run, background services, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}

	d.runner.Stop()
	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.monitor != nil {
		d.monitor.Stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.lock = nil
	}
	d.running = false
	d.logger.Info("daemon stopped",
		logging.String(logging.FieldEventType, "daemon_stop"))
}

// Running reports whether the daemon has been started.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

func (d *Daemon) daemonContext() context.Context {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx != nil {
		return d.ctx
	}
	return context.Background()
}

// Status describes the daemon for status queries.
type Status struct {
	Running       bool
	PID           int
	Authenticated bool
	LockPath      string
	QueueDBPath   string
	Watching      bool
	Detecting     bool
	Batch         batch.Status
	QueueStats    map[queue.Status]int
}

// Status aggregates current daemon state.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to read queue stats", logging.Error(err))
		stats = map[queue.Status]int{}
	}
	return Status{
		Running:       d.Running(),
		PID:           os.Getpid(),
		Authenticated: d.client.Authenticated(),
		LockPath:      d.lockPath,
		QueueDBPath:   filepath.Join(d.cfg.Paths.LogDir, "queue.db"),
		Watching:      d.watcher.Running(),
		Detecting:     d.pipeline.Running(),
		Batch:         d.runner.Status(),
		QueueStats:    stats,
	}
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.cfg.Paths.LogDir, logging.LogFileName)
}

// AddFile classifies and enqueues a file, then kicks a detection pass.
// Unsupported extensions and duplicate pending entries are rejected.
func (d *Daemon) AddFile(ctx context.Context, path string) (*queue.Item, error) {
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	kind, err := d.classifier.KindFor(filepath.Base(expanded))
	if err != nil {
		return nil, err
	}

	if existing, err := d.store.FindBySourcePath(ctx, expanded); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%s is already queued (item %d)", filepath.Base(expanded), existing.ID)
	}

	item, err := d.store.NewFile(ctx, expanded, kind)
	if err != nil {
		return nil, err
	}
	d.logger.Info("file enqueued",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String(logging.FieldKind, string(kind)),
		logging.String("file", filepath.Base(expanded)))

	d.TriggerDetection()
	return item, nil
}

// TriggerDetection starts a detection pass in the background. Returns false
// when a pass is already running.
func (d *Daemon) TriggerDetection() bool {
	if d.pipeline.Running() {
		return false
	}
	ctx := d.daemonContext()
	go func() {
		if err := d.pipeline.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn("detection pass failed", logging.Error(err))
		}
	}()
	return true
}

// StartBatch launches a batch run in the background.
func (d *Daemon) StartBatch() (bool, string) {
	if !d.client.Authenticated() {
		return false, "not authenticated: configure api.token or api.token_file"
	}
	if d.runner.Running() {
		return false, "a batch run is already active"
	}
	ctx := d.daemonContext()
	go func() {
		if _, err := d.runner.Run(ctx); err != nil &&
			!errors.Is(err, batch.ErrRunActive) && !errors.Is(err, batch.ErrQueueEmpty) {
			d.logger.Warn("batch run failed", logging.Error(err))
		}
	}()
	return true, "batch run started"
}

// PauseBatch requests a pause before the next file.
func (d *Daemon) PauseBatch() bool {
	if !d.runner.Running() {
		return false
	}
	d.runner.Pause()
	return true
}

// ResumeBatch clears a pause.
func (d *Daemon) ResumeBatch() bool {
	if !d.runner.Running() {
		return false
	}
	d.runner.Resume()
	return true
}

// StopBatch ends the active run.
func (d *Daemon) StopBatch() bool {
	if !d.runner.Running() {
		return false
	}
	d.runner.Stop()
	return true
}

// BatchStatus returns orchestrator state.
func (d *Daemon) BatchStatus() batch.Status {
	return d.runner.Status()
}

// ListQueue returns queue items filtered by status.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	return d.store.List(ctx, statuses...)
}

// GetQueueItem fetches a single queue item.
func (d *Daemon) GetQueueItem(ctx context.Context, id int64) (*queue.Item, error) {
	return d.store.GetByID(ctx, id)
}

// RemoveQueueItem deletes one item.
func (d *Daemon) RemoveQueueItem(ctx context.Context, id int64) (bool, error) {
	return d.store.Remove(ctx, id)
}

// ReorderQueue rewrites queue order.
func (d *Daemon) ReorderQueue(ctx context.Context, ids []int64) error {
	return d.store.Reorder(ctx, ids)
}

// ClearQueue removes all items not in flight.
func (d *Daemon) ClearQueue(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// ClearCompleted removes completed items.
func (d *Daemon) ClearCompleted(ctx context.Context) (int64, error) {
	return d.store.ClearCompleted(ctx)
}

// ClearFailed removes failed items.
func (d *Daemon) ClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// RetryFailed returns failed items to pending and kicks detection for any
// that still lack a language.
func (d *Daemon) RetryFailed(ctx context.Context, ids []int64) (int64, error) {
	updated, err := d.store.RetryFailed(ctx, ids...)
	if err != nil {
		return 0, err
	}
	if updated > 0 {
		d.TriggerDetection()
	}
	return updated, nil
}

// ResetStuck returns in-flight items to pending.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	return d.store.ResetStuckProcessing(ctx)
}

// QueueHealth aggregates queue counts.
func (d *Daemon) QueueHealth(ctx context.Context) (queue.HealthSummary, error) {
	return d.store.Health(ctx)
}

// DatabaseHealth returns queue database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification sends a test notification.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// notifierAdapter bridges the orchestrator's lifecycle events onto the
// notification service. Delivery failures are logged, never propagated.
type notifierAdapter struct {
	service notifications.Service
	logger  *slog.Logger
}

func (a *notifierAdapter) RunStarted(ctx context.Context, totalFiles int) {
	if err := a.service.NotifyBatchStarted(ctx, totalFiles); err != nil {
		a.logger.Warn("batch start notification failed", logging.Error(err))
	}
}

func (a *notifierAdapter) RunFinished(ctx context.Context, stats batch.RunStats) {
	if err := a.service.NotifyBatchCompleted(ctx, stats.Succeeded, stats.Failed, stats.CreditsUsed, stats.Duration()); err != nil {
		a.logger.Warn("batch completion notification failed", logging.Error(err))
	}
}

func (a *notifierAdapter) ItemFailed(ctx context.Context, item *queue.Item) {
	if err := a.service.NotifyItemFailed(ctx, item.DisplayName, item.ErrorMessage); err != nil {
		a.logger.Warn("item failure notification failed", logging.Error(err))
	}
}
