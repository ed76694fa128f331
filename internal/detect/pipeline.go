package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"scribeq/internal/classify"
	"scribeq/internal/config"
	"scribeq/internal/fileutil"
	"scribeq/internal/langmatch"
	"scribeq/internal/logging"
	"scribeq/internal/poller"
	"scribeq/internal/queue"
	"scribeq/internal/services/lingo"
)

// Detector is the subset of the service client the pipeline needs.
type Detector interface {
	Authenticated() bool
	DetectLanguage(ctx context.Context, path string, durationSeconds int) (lingo.OperationResult, error)
	CheckDetection(ctx context.Context, correlationID string) (lingo.OperationResult, error)
	Languages(ctx context.Context, model string) ([]langmatch.LanguageInfo, error)
}

// Extractor produces bounded audio samples for media detection input.
type Extractor interface {
	ExtractAudioSample(ctx context.Context, source, dest string, durationSeconds int) error
}

// Pipeline runs language detection over pending queue items, one at a time.
type Pipeline struct {
	store  *queue.Store
	client Detector
	media  Extractor
	cfg    *config.Config
	logger *slog.Logger

	running atomic.Bool

	removeFile func(path string) error
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewPipeline constructs the detection pipeline.
func NewPipeline(store *queue.Store, client Detector, extractor Extractor, cfg *config.Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		store:      store,
		client:     client,
		media:      extractor,
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "detect"),
		removeFile: fileutil.RemoveQuietly,
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

// Running reports whether a detection pass is currently active.
func (p *Pipeline) Running() bool {
	return p.running.Load()
}

// Run drains every eligible pending item from the live queue, detecting one
// file at a time. A second call while a pass is active is a no-op, as is a
// call without an authenticated session.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.client.Authenticated() {
		p.logger.Debug("skipping detection pass, not authenticated")
		return nil
	}
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Debug("detection pass already running")
		return nil
	}
	defer p.running.Store(false)

	delay := time.Duration(p.cfg.Detection.ItemDelaySeconds) * time.Second
	attempted := make(map[int64]struct{})
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, err := p.nextEligible(ctx, attempted)
		if err != nil {
			return err
		}
		if item == nil {
			return nil
		}
		attempted[item.ID] = struct{}{}

		item.Status = queue.StatusDetecting
		item.ProgressMessage = "Detecting language"
		if err := p.store.Update(ctx, item); err != nil {
			return err
		}

		detectErr := p.detectItem(ctx, item)

		item.Status = queue.StatusPending
		if detectErr != nil {
			item.ErrorMessage = fmt.Sprintf("language detection: %v", detectErr)
			item.ProgressMessage = ""
			p.logger.Warn("detection failed",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Error(detectErr))
		} else {
			item.ErrorMessage = ""
			item.ProgressMessage = ""
			p.logger.Info("language detected",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.String(logging.FieldLanguage, item.DetectedLangCode))
		}
		if err := p.store.Update(ctx, item); err != nil {
			return err
		}

		if errors.Is(detectErr, context.Canceled) || errors.Is(detectErr, poller.ErrCancelled) {
			return nil
		}
		if err := p.sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// nextEligible returns the first pending item, in queue order, that still
// needs detection. The live queue is re-read on every call so items added
// mid-pass are picked up. Items already attempted this pass are excluded so
// a persistently failing file cannot wedge the pass.
func (p *Pipeline) nextEligible(ctx context.Context, attempted map[int64]struct{}) (*queue.Item, error) {
	items, err := p.store.List(ctx, queue.StatusPending)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if _, done := attempted[item.ID]; done {
			continue
		}
		if item.HasDetection() {
			continue
		}
		if item.Kind == classify.KindTranscription && !p.cfg.Detection.AutoDetectMedia {
			continue
		}
		return item, nil
	}
	return nil, nil
}

func (p *Pipeline) detectItem(ctx context.Context, item *queue.Item) error {
	input := item.SourcePath

	if item.Kind == classify.KindTranscription {
		sample := filepath.Join(p.cfg.Paths.StagingDir, fmt.Sprintf("detect-%d.wav", item.ID))
		if err := p.media.ExtractAudioSample(ctx, item.SourcePath, sample, p.cfg.Detection.SampleSeconds); err != nil {
			return err
		}
		input = sample
		defer func() {
			if err := p.removeFile(sample); err != nil {
				p.logger.Warn("failed to remove detection sample",
					logging.String("path", sample),
					logging.Error(err))
			}
		}()
	}

	result, err := p.client.DetectLanguage(ctx, input, p.cfg.Detection.SampleSeconds)
	if err != nil {
		return err
	}

	switch {
	case result.Status == lingo.StatusError || result.Status == lingo.StatusTimeout:
		return errors.New(result.ErrorMessage())
	case strings.TrimSpace(result.Language) != "":
		// Immediate result, typical for subtitle input.
	case strings.TrimSpace(result.CorrelationID) != "":
		resolved, pollErr := poller.Poll(ctx, result.CorrelationID, p.client.CheckDetection, p.pollOptions())
		if pollErr != nil {
			return pollErr
		}
		result = resolved
	default:
		return errors.New("detection returned neither a language nor a correlation id")
	}

	if strings.TrimSpace(result.Language) == "" {
		return errors.New("detection completed without a language")
	}

	item.DetectedLangCode = result.Language
	item.DetectedLangName = result.LanguageName
	if strings.TrimSpace(item.DetectedLangName) == "" {
		item.DetectedLangName = langmatch.DisplayName(result.Language, nil)
	}
	p.applyAutoSelect(ctx, item)
	return nil
}

func (p *Pipeline) pollOptions() poller.Options {
	return poller.Options{
		Interval: time.Duration(p.cfg.Polling.IntervalSeconds) * time.Second,
		Timeout:  time.Duration(p.cfg.Polling.TimeoutSeconds) * time.Second,
	}
}

func (p *Pipeline) modelFor(kind classify.Kind) string {
	if kind == classify.KindTranslation {
		return p.cfg.Models.TranslationModel
	}
	return p.cfg.Models.TranscriptionModel
}

// applyAutoSelect re-derives the source language variant from the current
// provider catalog. Catalog fetch failures leave the previous selection alone.
func (p *Pipeline) applyAutoSelect(ctx context.Context, item *queue.Item) {
	languages, err := p.client.Languages(ctx, p.modelFor(item.Kind))
	if err != nil {
		p.logger.Debug("language catalog unavailable",
			logging.String(logging.FieldModel, p.modelFor(item.Kind)),
			logging.Error(err))
		return
	}
	if code := langmatch.AutoSelect(item.DetectedLangCode, languages); code != "" {
		item.SourceLanguage = code
	}
}

// RecomputeSelections re-runs variant auto-selection for every item that has
// a detection result. Used after the configured model changes.
func (p *Pipeline) RecomputeSelections(ctx context.Context) error {
	items, err := p.store.List(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if !item.HasDetection() || item.Status.Terminal() {
			continue
		}
		before := item.SourceLanguage
		p.applyAutoSelect(ctx, item)
		if item.SourceLanguage == before {
			continue
		}
		if err := p.store.Update(ctx, item); err != nil {
			return err
		}
	}
	return nil
}
