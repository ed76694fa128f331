package lingo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"scribeq/internal/langmatch"
)

const defaultHTTPTimeout = 60 * time.Second

// ErrNotAuthenticated is returned when a remote call is attempted without a
// valid session token. Callers treat it as an immediate, non-retried failure.
var ErrNotAuthenticated = errors.New("not authenticated with transcription service")

// TokenSource supplies the current API bearer token. An empty token means the
// session is not authenticated.
type TokenSource func() string

// Client wraps the remote transcription/translation service API.
type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client

	mu        sync.Mutex
	languages map[string][]langmatch.LanguageInfo
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient constructs a service client.
func NewClient(baseURL string, token TokenSource, opts ...Option) *Client {
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		languages:  make(map[string][]langmatch.LanguageInfo),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Authenticated reports whether the session currently holds a token.
func (c *Client) Authenticated() bool {
	return c.token != nil && strings.TrimSpace(c.token()) != ""
}

// DetectLanguage submits a file for language detection. Subtitle content
// usually resolves immediately; media samples return a correlation ID.
func (c *Client) DetectLanguage(ctx context.Context, path string, durationSeconds int) (OperationResult, error) {
	fields := map[string]string{}
	if durationSeconds > 0 {
		fields["duration_seconds"] = strconv.Itoa(durationSeconds)
	}
	return c.submit(ctx, "/v1/detect", path, fields)
}

// CheckDetection polls an in-flight detection operation.
func (c *Client) CheckDetection(ctx context.Context, correlationID string) (OperationResult, error) {
	return c.check(ctx, "/v1/detect", correlationID)
}

// InitiateTranscription submits a media file for transcription.
func (c *Client) InitiateTranscription(ctx context.Context, path string, opts TranscribeOptions) (OperationResult, error) {
	fields := map[string]string{
		"language":       opts.Language,
		"model":          opts.Model,
		"return_content": strconv.FormatBool(opts.ReturnContent),
	}
	return c.submit(ctx, "/v1/transcriptions", path, fields)
}

// CheckTranscription polls an in-flight transcription operation.
func (c *Client) CheckTranscription(ctx context.Context, correlationID string) (OperationResult, error) {
	return c.check(ctx, "/v1/transcriptions", correlationID)
}

// InitiateTranslation submits a subtitle or transcript file for translation.
func (c *Client) InitiateTranslation(ctx context.Context, path string, opts TranslateOptions) (OperationResult, error) {
	fields := map[string]string{
		"from":           opts.From,
		"to":             opts.To,
		"model":          opts.Model,
		"return_content": strconv.FormatBool(opts.ReturnContent),
	}
	return c.submit(ctx, "/v1/translations", path, fields)
}

// CheckTranslation polls an in-flight translation operation.
func (c *Client) CheckTranslation(ctx context.Context, correlationID string) (OperationResult, error) {
	return c.check(ctx, "/v1/translations", correlationID)
}

// Languages fetches the supported-language list for a model. Results are
// cached for the client's lifetime; provider catalogs change rarely.
func (c *Client) Languages(ctx context.Context, model string) ([]langmatch.LanguageInfo, error) {
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("lingo languages: model required")
	}

	c.mu.Lock()
	if cached, ok := c.languages[model]; ok {
		c.mu.Unlock()
		return cached, nil
	}
	c.mu.Unlock()

	if !c.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/models", model, "languages")
	if err != nil {
		return nil, fmt.Errorf("lingo languages: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("lingo languages: request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var langs []langmatch.LanguageInfo
	if err := json.Unmarshal(body, &langs); err != nil {
		return nil, fmt.Errorf("lingo languages: decode response: %w", err)
	}

	c.mu.Lock()
	c.languages[model] = langs
	c.mu.Unlock()
	return langs, nil
}

// InvalidateLanguages drops the cached catalog, forcing a refetch on next use.
func (c *Client) InvalidateLanguages() {
	c.mu.Lock()
	c.languages = make(map[string][]langmatch.LanguageInfo)
	c.mu.Unlock()
}

func (c *Client) submit(ctx context.Context, resource, path string, fields map[string]string) (OperationResult, error) {
	var empty OperationResult
	if !c.Authenticated() {
		return empty, ErrNotAuthenticated
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return empty, errors.New("lingo submit: file path required")
	}

	file, err := os.Open(path)
	if err != nil {
		return empty, fmt.Errorf("lingo submit: open file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return empty, fmt.Errorf("lingo submit: build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return empty, fmt.Errorf("lingo submit: read file: %w", err)
	}
	for key, value := range fields {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if err := writer.WriteField(key, value); err != nil {
			return empty, fmt.Errorf("lingo submit: write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return empty, fmt.Errorf("lingo submit: finalize form: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, resource)
	if err != nil {
		return empty, fmt.Errorf("lingo submit: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return empty, fmt.Errorf("lingo submit: request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return empty, err
	}
	return decodeResult(body)
}

func (c *Client) check(ctx context.Context, resource, correlationID string) (OperationResult, error) {
	var empty OperationResult
	if !c.Authenticated() {
		return empty, ErrNotAuthenticated
	}
	correlationID = strings.TrimSpace(correlationID)
	if correlationID == "" {
		return empty, errors.New("lingo check: correlation id required")
	}

	endpoint, err := url.JoinPath(c.baseURL, resource, correlationID)
	if err != nil {
		return empty, fmt.Errorf("lingo check: build url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, fmt.Errorf("lingo check: request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return empty, err
	}
	return decodeResult(body)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(c.token()))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lingo: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("lingo: read body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrNotAuthenticated
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("lingo: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func decodeResult(body []byte) (OperationResult, error) {
	var result OperationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return result, fmt.Errorf("lingo: decode response: %w", err)
	}
	if result.Status == "" {
		result.Status = StatusCompleted
	}
	return result, nil
}
