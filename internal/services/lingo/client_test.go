package lingo_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"scribeq/internal/services/lingo"
)

func writeSample(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("sample payload"), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func staticToken(token string) lingo.TokenSource {
	return func() string { return token }
}

func TestInitiateTranscriptionSendsMultipartForm(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/transcriptions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "episode.mkv" {
			t.Errorf("unexpected upload name %q", header.Filename)
		}
		if got := r.FormValue("language"); got != "en-US" {
			t.Errorf("language field = %q", got)
		}
		if got := r.FormValue("model"); got != "scribe-v1" {
			t.Errorf("model field = %q", got)
		}
		if got := r.FormValue("return_content"); got != "true" {
			t.Errorf("return_content field = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":         "PENDING",
			"correlation_id": "txn-123",
		})
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken("secret"))
	result, err := client.InitiateTranscription(context.Background(), writeSample(t, "episode.mkv"), lingo.TranscribeOptions{
		Language:      "en-US",
		Model:         "scribe-v1",
		ReturnContent: true,
	})
	if err != nil {
		t.Fatalf("InitiateTranscription: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if result.Status != lingo.StatusPending || result.CorrelationID != "txn-123" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestInitiateTranslationSendsLanguagePair(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/translations" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.FormValue("from"); got != "de-DE" {
			t.Errorf("from field = %q", got)
		}
		if got := r.FormValue("to"); got != "en-US" {
			t.Errorf("to field = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "PENDING", "correlation_id": "tr-9"})
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken("secret"))
	result, err := client.InitiateTranslation(context.Background(), writeSample(t, "episode.srt"), lingo.TranslateOptions{
		From:  "de-DE",
		To:    "en-US",
		Model: "polyglot-v1",
	})
	if err != nil {
		t.Fatalf("InitiateTranslation: %v", err)
	}
	if result.CorrelationID != "tr-9" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestCheckPollsCorrelationPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/transcriptions/txn-123" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "COMPLETED",
			"content": "1\n00:00:01,000 --> 00:00:02,000\nhello\n",
			"cost":    0.75,
		})
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken("secret"))
	result, err := client.CheckTranscription(context.Background(), "txn-123")
	if err != nil {
		t.Fatalf("CheckTranscription: %v", err)
	}
	if result.Status != lingo.StatusCompleted || result.Cost != 0.75 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestUnauthorizedMapsToErrNotAuthenticated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken("expired"))
	_, err := client.CheckDetection(context.Background(), "det-1")
	if !errors.Is(err, lingo.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestMissingTokenFailsWithoutRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should reach the server")
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken(""))
	if client.Authenticated() {
		t.Fatal("blank token should not count as authenticated")
	}
	_, err := client.DetectLanguage(context.Background(), writeSample(t, "clip.wav"), 240)
	if !errors.Is(err, lingo.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestEmptyStatusDecodesAsCompleted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"language":      "de",
			"language_name": "German",
		})
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken("secret"))
	result, err := client.DetectLanguage(context.Background(), writeSample(t, "movie.srt"), 0)
	if err != nil {
		t.Fatalf("DetectLanguage: %v", err)
	}
	if result.Status != lingo.StatusCompleted {
		t.Fatalf("missing status should decode as completed, got %q", result.Status)
	}
	if result.Language != "de" || result.LanguageName != "German" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestLanguagesCachesPerModel(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/v1/models/scribe-v1/languages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"code":"en-US","display_name":"English (US)"}]`))
	}))
	defer server.Close()

	client := lingo.NewClient(server.URL, staticToken("secret"))
	for i := 0; i < 2; i++ {
		langs, err := client.Languages(context.Background(), "scribe-v1")
		if err != nil {
			t.Fatalf("Languages: %v", err)
		}
		if len(langs) != 1 || langs[0].Code != "en-US" {
			t.Fatalf("unexpected catalog: %v", langs)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("catalog should be cached, server saw %d requests", hits.Load())
	}

	client.InvalidateLanguages()
	if _, err := client.Languages(context.Background(), "scribe-v1"); err != nil {
		t.Fatalf("Languages after invalidate: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("invalidate should force refetch, server saw %d requests", hits.Load())
	}
}

func TestOperationResultErrorMessage(t *testing.T) {
	result := lingo.OperationResult{Errors: []string{" bad audio ", "", "no speech"}}
	if got := result.ErrorMessage(); got != "bad audio; no speech" {
		t.Fatalf("ErrorMessage = %q", got)
	}
	if got := (lingo.OperationResult{}).ErrorMessage(); got != "operation failed" {
		t.Fatalf("empty ErrorMessage = %q", got)
	}
}
