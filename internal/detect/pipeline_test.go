package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"scribeq/internal/classify"
	"scribeq/internal/langmatch"
	"scribeq/internal/logging"
	"scribeq/internal/queue"
	"scribeq/internal/services/lingo"
	"scribeq/internal/testsupport"
)

type fakeDetector struct {
	mu            sync.Mutex
	authenticated bool
	detect        func(path string, durationSeconds int) (lingo.OperationResult, error)
	checks        map[string][]lingo.OperationResult
	languages     []langmatch.LanguageInfo
	languagesErr  error
	detectedPaths []string
}

func (f *fakeDetector) Authenticated() bool { return f.authenticated }

func (f *fakeDetector) DetectLanguage(_ context.Context, path string, durationSeconds int) (lingo.OperationResult, error) {
	f.mu.Lock()
	f.detectedPaths = append(f.detectedPaths, path)
	f.mu.Unlock()
	if f.detect == nil {
		return lingo.OperationResult{}, errors.New("no detect handler")
	}
	return f.detect(path, durationSeconds)
}

func (f *fakeDetector) CheckDetection(_ context.Context, correlationID string) (lingo.OperationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pending := f.checks[correlationID]
	if len(pending) == 0 {
		return lingo.OperationResult{}, fmt.Errorf("unknown correlation id %q", correlationID)
	}
	next := pending[0]
	if len(pending) > 1 {
		f.checks[correlationID] = pending[1:]
	}
	return next, nil
}

func (f *fakeDetector) Languages(context.Context, string) ([]langmatch.LanguageInfo, error) {
	if f.languagesErr != nil {
		return nil, f.languagesErr
	}
	return f.languages, nil
}

type fakeExtractor struct {
	mu      sync.Mutex
	samples []string
	err     error
}

func (f *fakeExtractor) ExtractAudioSample(_ context.Context, _, dest string, _ int) error {
	f.mu.Lock()
	f.samples = append(f.samples, dest)
	f.mu.Unlock()
	return f.err
}

func newTestPipeline(t *testing.T, detector *fakeDetector, extractor *fakeExtractor) (*Pipeline, *queue.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	p := NewPipeline(store, detector, extractor, cfg, logging.NewNop())
	p.removeFile = func(string) error { return nil }
	p.sleep = func(context.Context, time.Duration) error { return nil }
	return p, store
}

func TestRunDetectsSubtitleImmediately(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		detect: func(string, int) (lingo.OperationResult, error) {
			return lingo.OperationResult{Status: lingo.StatusCompleted, Language: "de", LanguageName: "German"}, nil
		},
		languages: []langmatch.LanguageInfo{{Code: "de-DE", DisplayName: "German"}},
	}
	p, store := newTestPipeline(t, detector, &fakeExtractor{})
	item := testsupport.NewFile(t, store, "/media/movie.srt", classify.KindTranslation)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	fetched, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.DetectedLangCode != "de" || fetched.DetectedLangName != "German" {
		t.Fatalf("detection not recorded: %+v", fetched)
	}
	if fetched.SourceLanguage != "de-DE" {
		t.Fatalf("variant not auto-selected: %q", fetched.SourceLanguage)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("item should return to pending, got %q", fetched.Status)
	}
	if len(detector.detectedPaths) != 1 || detector.detectedPaths[0] != "/media/movie.srt" {
		t.Fatalf("subtitle should be submitted directly, got %v", detector.detectedPaths)
	}
}

func TestRunExtractsSampleAndPollsForMedia(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		detect: func(string, int) (lingo.OperationResult, error) {
			return lingo.OperationResult{Status: lingo.StatusPending, CorrelationID: "det-7"}, nil
		},
		checks: map[string][]lingo.OperationResult{
			"det-7": {
				{Status: lingo.StatusPending},
				{Status: lingo.StatusCompleted, Language: "fr", LanguageName: "French"},
			},
		},
	}
	extractor := &fakeExtractor{}
	p, store := newTestPipeline(t, detector, extractor)
	var removed []string
	p.removeFile = func(path string) error {
		removed = append(removed, path)
		return nil
	}
	item := testsupport.NewFile(t, store, "/media/movie.mkv", classify.KindTranscription)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(extractor.samples) != 1 {
		t.Fatalf("expected one sample extraction, got %v", extractor.samples)
	}
	wantSample := fmt.Sprintf("detect-%d.wav", item.ID)
	if got := extractor.samples[0]; !strings.HasSuffix(got, wantSample) {
		t.Fatalf("sample path %q should end with %q", got, wantSample)
	}
	if len(removed) != 1 || removed[0] != extractor.samples[0] {
		t.Fatalf("sample should be cleaned up, removed %v", removed)
	}
	if len(detector.detectedPaths) != 1 || detector.detectedPaths[0] != extractor.samples[0] {
		t.Fatalf("sample should be submitted, got %v", detector.detectedPaths)
	}

	fetched, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.DetectedLangCode != "fr" {
		t.Fatalf("polled detection not recorded: %+v", fetched)
	}
}

func TestRunCleansUpSampleOnFailure(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		detect: func(string, int) (lingo.OperationResult, error) {
			return lingo.OperationResult{Status: lingo.StatusError, Errors: []string{"no speech"}}, nil
		},
	}
	extractor := &fakeExtractor{}
	p, store := newTestPipeline(t, detector, extractor)
	var removed []string
	p.removeFile = func(path string) error {
		removed = append(removed, path)
		return nil
	}
	item := testsupport.NewFile(t, store, "/media/movie.mkv", classify.KindTranscription)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(removed) != 1 {
		t.Fatalf("sample should be removed even on failure, removed %v", removed)
	}

	fetched, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.Status != queue.StatusPending {
		t.Fatalf("failed detection should leave item pending, got %q", fetched.Status)
	}
	if !strings.Contains(fetched.ErrorMessage, "language detection") {
		t.Fatalf("unexpected error message %q", fetched.ErrorMessage)
	}
	if fetched.HasDetection() {
		t.Fatal("failed detection must not record a language")
	}
}

func TestRunAttemptsFailingItemsOnceAndFinishes(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		detect: func(string, int) (lingo.OperationResult, error) {
			return lingo.OperationResult{}, errors.New("service unavailable")
		},
	}
	p, store := newTestPipeline(t, detector, &fakeExtractor{})
	first := testsupport.NewFile(t, store, "/media/a.srt", classify.KindTranslation)
	second := testsupport.NewFile(t, store, "/media/b.srt", classify.KindTranslation)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(detector.detectedPaths) != 2 {
		t.Fatalf("each item gets exactly one attempt per pass, got %v", detector.detectedPaths)
	}
	for _, id := range []int64{first.ID, second.ID} {
		fetched, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if fetched.Status != queue.StatusPending || !strings.Contains(fetched.ErrorMessage, "language detection") {
			t.Fatalf("failed item should be pending with the error recorded: %+v", fetched)
		}
	}
}

func TestRunSkipsMediaWhenAutoDetectDisabled(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		detect: func(string, int) (lingo.OperationResult, error) {
			return lingo.OperationResult{Status: lingo.StatusCompleted, Language: "en"}, nil
		},
	}
	p, store := newTestPipeline(t, detector, &fakeExtractor{})
	p.cfg.Detection.AutoDetectMedia = false
	media := testsupport.NewFile(t, store, "/media/movie.mkv", classify.KindTranscription)
	subtitle := testsupport.NewFile(t, store, "/media/movie.srt", classify.KindTranslation)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	fetchedMedia, err := store.GetByID(context.Background(), media.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetchedMedia.HasDetection() {
		t.Fatal("media item should be skipped when auto-detection is off")
	}
	fetchedSubtitle, err := store.GetByID(context.Background(), subtitle.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !fetchedSubtitle.HasDetection() {
		t.Fatal("subtitle items always get detection")
	}
}

func TestRunRequiresAuthentication(t *testing.T) {
	detector := &fakeDetector{authenticated: false}
	p, store := newTestPipeline(t, detector, &fakeExtractor{})
	testsupport.NewFile(t, store, "/media/movie.srt", classify.KindTranslation)

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run without auth should be a no-op: %v", err)
	}
	if len(detector.detectedPaths) != 0 {
		t.Fatalf("no detection calls expected, got %v", detector.detectedPaths)
	}
}

func TestRunIsReentrantNoOp(t *testing.T) {
	detector := &fakeDetector{authenticated: true}
	p, _ := newTestPipeline(t, detector, &fakeExtractor{})

	p.running.Store(true)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("concurrent Run should be a no-op: %v", err)
	}
	if len(detector.detectedPaths) != 0 {
		t.Fatalf("no detection calls expected, got %v", detector.detectedPaths)
	}
}

func TestRecomputeSelectionsUpdatesVariants(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		languages: []langmatch.LanguageInfo{
			{Code: "pt-BR", DisplayName: "Portuguese (Brazil)"},
		},
	}
	p, store := newTestPipeline(t, detector, &fakeExtractor{})

	ctx := context.Background()
	item := testsupport.NewFile(t, store, "/media/novela.srt", classify.KindTranslation)
	item.DetectedLangCode = "pt"
	item.DetectedLangName = "Portuguese"
	item.SourceLanguage = "pt-PT"
	if err := store.Update(ctx, item); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := p.RecomputeSelections(ctx); err != nil {
		t.Fatalf("RecomputeSelections: %v", err)
	}
	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fetched.SourceLanguage != "pt-BR" {
		t.Fatalf("variant should follow the new catalog, got %q", fetched.SourceLanguage)
	}
}

func TestApplyAutoSelectKeepsSelectionWhenCatalogUnavailable(t *testing.T) {
	detector := &fakeDetector{
		authenticated: true,
		languagesErr:  errors.New("catalog down"),
	}
	p, _ := newTestPipeline(t, detector, &fakeExtractor{})

	item := &queue.Item{Kind: classify.KindTranslation, DetectedLangCode: "de", SourceLanguage: "de-DE"}
	p.applyAutoSelect(context.Background(), item)
	if item.SourceLanguage != "de-DE" {
		t.Fatalf("selection should survive a catalog failure, got %q", item.SourceLanguage)
	}
}
