package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"scribeq/internal/classify"
	"scribeq/internal/langmatch"
	"scribeq/internal/logging"
	"scribeq/internal/media"
	"scribeq/internal/naming"
	"scribeq/internal/poller"
	"scribeq/internal/queue"
	"scribeq/internal/services/lingo"
)

func (r *Runner) processItem(ctx context.Context, pollCtx context.Context, item *queue.Item, ledger *CreditLedger) error {
	switch item.Kind {
	case classify.KindTranslation:
		return r.processTranslation(ctx, pollCtx, item, ledger)
	default:
		return r.processTranscription(ctx, pollCtx, item, ledger)
	}
}

// processTranscription runs one media file through transcription, optionally
// chaining the result into translation.
func (r *Runner) processTranscription(ctx context.Context, pollCtx context.Context, item *queue.Item, ledger *CreditLedger) (err error) {
	working, temp, err := r.prepareWorkingFile(ctx, item)
	if err != nil {
		return err
	}
	// The extracted or converted audio is deleted on every exit path.
	if temp != "" {
		defer func() {
			if removeErr := r.removeFile(temp); removeErr != nil {
				r.logger.Warn("failed to remove temporary audio",
					logging.String("path", temp),
					logging.Error(removeErr))
			}
		}()
	}

	sourceLang := langmatch.ResolveSource(item.SourceLanguage, item.DetectedLangCode)

	item.SetProgress(20, "Transcribing")
	r.updateQuietly(ctx, item)

	submitted, err := r.client.InitiateTranscription(ctx, working, lingo.TranscribeOptions{
		Language:      sourceLang,
		Model:         r.cfg.Models.TranscriptionModel,
		ReturnContent: true,
	})
	if err != nil {
		return err
	}
	result, err := r.awaitResult(pollCtx, submitted, r.client.CheckTranscription, item, "Transcribing")
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Content) == "" {
		return errors.New("transcription completed without content")
	}

	ledger.Add(item.ID, classify.KindTranscription, result.Cost)
	item.CreditsUsed += result.Cost

	content := result.Content
	outputLang := sourceLang
	if outputLang == "auto" {
		outputLang = result.Language
	}
	outputKind := classify.KindTranscription

	if r.cfg.Batch.ChainTranslation {
		content, err = r.chainTranslation(ctx, pollCtx, item, ledger, content, sourceLang, outputLang)
		if err != nil {
			return err
		}
		outputLang = r.cfg.Models.TargetLanguage
		outputKind = classify.KindTranslation
	}

	return r.persistOutput(ctx, item, outputKind, outputLang, content)
}

// prepareWorkingFile resolves the file actually uploaded for transcription.
// Video files have their audio extracted, unsupported audio containers are
// converted, supported audio passes through untouched. The second return is
// the temporary path to clean up, empty when the original is used directly.
func (r *Runner) prepareWorkingFile(ctx context.Context, item *queue.Item) (string, string, error) {
	item.SetProgress(5, "Inspecting media")
	r.updateQuietly(ctx, item)

	info, err := r.media.Probe(ctx, item.SourcePath)
	if err != nil {
		return "", "", err
	}
	if !info.HasAudio {
		return "", "", fmt.Errorf("%s has no audio stream", filepath.Base(item.SourcePath))
	}

	if info.HasVideo {
		temp := r.tempAudioPath(item)
		item.SetProgress(10, "Extracting audio")
		r.updateQuietly(ctx, item)
		if err := r.media.ExtractAudio(ctx, item.SourcePath, temp); err != nil {
			return "", "", err
		}
		return temp, temp, nil
	}

	if media.NeedsConversion(item.SourcePath) {
		temp := r.tempAudioPath(item)
		item.SetProgress(10, "Converting audio")
		r.updateQuietly(ctx, item)
		if err := r.media.ConvertAudio(ctx, item.SourcePath, temp); err != nil {
			return "", "", err
		}
		return temp, temp, nil
	}

	return item.SourcePath, "", nil
}

func (r *Runner) tempAudioPath(item *queue.Item) string {
	return filepath.Join(r.cfg.Paths.StagingDir, fmt.Sprintf("item-%d.wav", item.ID))
}

// chainTranslation feeds transcription output through translation as a second
// leg, adding its cost to the item's existing total.
func (r *Runner) chainTranslation(ctx context.Context, pollCtx context.Context, item *queue.Item, ledger *CreditLedger, transcript, sourceLang, transcriptLang string) (string, error) {
	languages := r.catalog(ctx, classify.KindTranscription)
	intermediate := r.resolver.Resolve(naming.Request{
		SourcePath:   item.SourcePath,
		Kind:         classify.KindTranscription,
		LanguageCode: transcriptLang,
		Languages:    languages,
	})
	if err := r.writeText(intermediate, transcript); err != nil {
		return "", fmt.Errorf("write intermediate transcript: %w", err)
	}
	if !r.cfg.Batch.KeepIntermediateFiles {
		defer func() {
			if removeErr := r.removeFile(intermediate); removeErr != nil {
				r.logger.Warn("failed to remove intermediate transcript",
					logging.String("path", intermediate),
					logging.Error(removeErr))
			}
		}()
	}

	item.SetProgress(60, "Translating")
	r.updateQuietly(ctx, item)

	submitted, err := r.client.InitiateTranslation(ctx, intermediate, lingo.TranslateOptions{
		From:          sourceLang,
		To:            r.cfg.Models.TargetLanguage,
		Model:         r.cfg.Models.TranslationModel,
		ReturnContent: true,
	})
	if err != nil {
		return "", err
	}
	result, err := r.awaitResult(pollCtx, submitted, r.client.CheckTranslation, item, "Translating")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(result.Content) == "" {
		return "", errors.New("translation completed without content")
	}

	ledger.Add(item.ID, classify.KindTranslation, result.Cost)
	item.CreditsUsed += result.Cost
	return result.Content, nil
}

// processTranslation runs one subtitle file through translation. No media
// preparation applies on this path.
func (r *Runner) processTranslation(ctx context.Context, pollCtx context.Context, item *queue.Item, ledger *CreditLedger) error {
	sourceLang := langmatch.ResolveSource(item.SourceLanguage, item.DetectedLangCode)

	item.SetProgress(20, "Translating")
	r.updateQuietly(ctx, item)

	submitted, err := r.client.InitiateTranslation(ctx, item.SourcePath, lingo.TranslateOptions{
		From:          sourceLang,
		To:            r.cfg.Models.TargetLanguage,
		Model:         r.cfg.Models.TranslationModel,
		ReturnContent: true,
	})
	if err != nil {
		return err
	}
	result, err := r.awaitResult(pollCtx, submitted, r.client.CheckTranslation, item, "Translating")
	if err != nil {
		return err
	}
	if strings.TrimSpace(result.Content) == "" {
		return errors.New("translation completed without content")
	}

	ledger.Add(item.ID, classify.KindTranslation, result.Cost)
	item.CreditsUsed += result.Cost

	return r.persistOutput(ctx, item, classify.KindTranslation, r.cfg.Models.TargetLanguage, result.Content)
}

// awaitResult normalizes immediate-vs-polled completion into one result.
// Submissions that already carry content resolve directly; otherwise the
// correlation ID is polled until terminal.
func (r *Runner) awaitResult(pollCtx context.Context, submitted lingo.OperationResult, check poller.CheckFunc, item *queue.Item, activity string) (lingo.OperationResult, error) {
	switch {
	case submitted.Status == lingo.StatusError || submitted.Status == lingo.StatusTimeout:
		return lingo.OperationResult{}, errors.New(submitted.ErrorMessage())
	case submitted.Status == lingo.StatusCompleted && strings.TrimSpace(submitted.Content) != "":
		return submitted, nil
	case strings.TrimSpace(submitted.CorrelationID) != "":
		opts := poller.Options{
			Interval: time.Duration(r.cfg.Polling.IntervalSeconds) * time.Second,
			Timeout:  time.Duration(r.cfg.Polling.TimeoutSeconds) * time.Second,
			OnCycle: func(elapsed time.Duration) {
				item.ProgressMessage = fmt.Sprintf("%s (%s elapsed)", activity, elapsed.Round(time.Second))
				r.updateQuietly(pollCtx, item)
			},
		}
		return poller.Poll(pollCtx, submitted.CorrelationID, check, opts)
	default:
		return lingo.OperationResult{}, errors.New("submission returned neither content nor a correlation id")
	}
}

// persistOutput writes the final content through the naming resolver and
// records the destination on the item.
func (r *Runner) persistOutput(ctx context.Context, item *queue.Item, kind classify.Kind, languageCode, content string) error {
	item.SetProgress(90, "Writing output")
	r.updateQuietly(ctx, item)

	outputPath := r.resolver.Resolve(naming.Request{
		SourcePath:   item.SourcePath,
		Kind:         kind,
		LanguageCode: languageCode,
		Languages:    r.catalog(ctx, kind),
	})
	if err := r.writeText(outputPath, content); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	item.SetCompleted(outputPath)
	return nil
}

// catalog fetches the provider language list for display-name resolution.
// Failures degrade to code-only naming.
func (r *Runner) catalog(ctx context.Context, kind classify.Kind) []langmatch.LanguageInfo {
	model := r.cfg.Models.TranscriptionModel
	if kind == classify.KindTranslation {
		model = r.cfg.Models.TranslationModel
	}
	languages, err := r.client.Languages(ctx, model)
	if err != nil {
		return nil
	}
	return languages
}

// updateQuietly persists progress changes on a best-effort basis. Progress
// write failures never fail the file being processed.
func (r *Runner) updateQuietly(ctx context.Context, item *queue.Item) {
	if err := r.store.Update(ctx, item); err != nil {
		r.logger.Debug("progress update failed",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Error(err))
	}
}
