// Package inference is a REST client for the Gemini generateContent and Files APIs.
package inference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"landverify/pkg/platform/circuit"
)

const apiVersion = "v1beta"

// Config holds connection settings.
type Config struct {
	APIKey           string
	BaseURL          string
	Model            string
	HTTPTimeout      time.Duration
	RetryMax         int
	RetryWaitMin     time.Duration
	RetryWaitMax     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Client talks to the inference provider. Safe for concurrent use.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	model   string
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// New builds a client with bounded retry on transport errors, 429 and 5xx.
func New(cfg Config, logger *slog.Logger) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.RetryWaitMin = cfg.RetryWaitMin
	if rc.RetryWaitMin <= 0 {
		rc.RetryWaitMin = 500 * time.Millisecond
	}
	rc.RetryWaitMax = cfg.RetryWaitMax
	if rc.RetryWaitMax <= 0 {
		rc.RetryWaitMax = 5 * time.Second
	}
	if cfg.HTTPTimeout > 0 {
		rc.HTTPClient.Timeout = cfg.HTTPTimeout
	}
	rc.Logger = logger
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	opts := []circuit.Option{}
	if cfg.BreakerThreshold > 0 {
		opts = append(opts, circuit.WithFailureThreshold(cfg.BreakerThreshold))
	}
	if cfg.BreakerCooldown > 0 {
		opts = append(opts, circuit.WithCooldown(cfg.BreakerCooldown))
	}

	return &Client{
		http:    rc,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		breaker: circuit.New("inference", opts...),
		logger:  logger,
	}
}

// retryPolicy retries transport failures, 429 and 5xx. Other 4xx are semantic
// failures and never retried.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented {
		return true, nil
	}
	return false, nil
}

// Generate runs generateContent and returns the concatenated text of the
// first candidate.
func (c *Client) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, apiVersion, c.model)
	body, err := json.Marshal(req)
	if err != nil {
		return "", NewProviderError(ErrorInternal, "encode request", err)
	}

	raw, _, err := c.do(ctx, "generate", http.MethodPost, url, body, map[string]string{
		"Content-Type": "application/json",
	}, -1)
	if err != nil {
		return "", err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", NewProviderError(ErrorBadData, "decode generate response", err)
	}
	if len(resp.Candidates) == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", NewProviderError(ErrorBadData, "prompt blocked: "+resp.PromptFeedback.BlockReason, nil)
		}
		return "", NewProviderError(ErrorBadData, "response has no candidates", nil)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return "", NewProviderError(ErrorBadData, "empty candidate (finish reason "+resp.Candidates[0].FinishReason+")", nil)
	}
	return sb.String(), nil
}

// UploadFile streams media to the Files API with the resumable protocol.
// r is re-read from the start on retry.
func (c *Client) UploadFile(ctx context.Context, r io.ReadSeeker, size int64, mimeType, displayName string) (*File, error) {
	startURL := fmt.Sprintf("%s/upload/%s/files", c.baseURL, apiVersion)
	meta, err := json.Marshal(map[string]any{"file": map[string]string{"display_name": displayName}})
	if err != nil {
		return nil, NewProviderError(ErrorInternal, "encode upload metadata", err)
	}

	_, header, err := c.do(ctx, "upload.start", http.MethodPost, startURL, meta, map[string]string{
		"Content-Type":                        "application/json",
		"X-Goog-Upload-Protocol":              "resumable",
		"X-Goog-Upload-Command":               "start",
		"X-Goog-Upload-Header-Content-Length": strconv.FormatInt(size, 10),
		"X-Goog-Upload-Header-Content-Type":   mimeType,
	}, -1)
	if err != nil {
		return nil, err
	}
	uploadURL := header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return nil, NewProviderError(ErrorBadData, "upload session has no upload URL", nil)
	}

	raw, _, err := c.do(ctx, "upload.finalize", http.MethodPost, uploadURL, r, map[string]string{
		"X-Goog-Upload-Offset":  "0",
		"X-Goog-Upload-Command": "upload, finalize",
	}, size)
	if err != nil {
		return nil, err
	}

	var env fileEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, NewProviderError(ErrorBadData, "decode upload response", err)
	}
	if env.File.Name == "" {
		return nil, NewProviderError(ErrorBadData, "upload response has no file name", nil)
	}
	return &env.File, nil
}

// GetFile fetches the current state of an uploaded file. name is "files/<id>".
func (c *Client) GetFile(ctx context.Context, name string) (*File, error) {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, apiVersion, name)
	raw, _, err := c.do(ctx, "files.get", http.MethodGet, url, nil, nil, -1)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, NewProviderError(ErrorBadData, "decode file", err)
	}
	return &f, nil
}

// DeleteFile removes an uploaded file.
func (c *Client) DeleteFile(ctx context.Context, name string) error {
	url := fmt.Sprintf("%s/%s/%s", c.baseURL, apiVersion, name)
	_, _, err := c.do(ctx, "files.delete", http.MethodDelete, url, nil, nil, -1)
	return err
}

// do executes one logical call (including retries) behind the circuit breaker.
// contentLength < 0 leaves it to the transport.
func (c *Client) do(ctx context.Context, op, method, url string, body any, headers map[string]string, contentLength int64) ([]byte, http.Header, error) {
	if !c.breaker.Allow() {
		return nil, nil, NewProviderError(ErrorProviderOutage, "circuit open", nil)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, nil, NewProviderError(ErrorInternal, "build request", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if contentLength >= 0 {
		req.ContentLength = contentLength
	}

	start := time.Now()
	c.logger.DebugContext(ctx, "inference.http.request", "op", op, "method", method)

	resp, err := c.http.Do(req)
	if err != nil {
		pe := classifyTransport(err)
		c.recordOutcome(pe)
		c.logger.WarnContext(ctx, "inference.http.send_error",
			"op", op,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, nil, pe
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		pe := classifyTransport(err)
		c.recordOutcome(pe)
		return nil, nil, pe
	}

	c.logger.InfoContext(ctx, "inference.http.response",
		"op", op,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		pe := NewProviderError(categoryForStatus(resp.StatusCode), apiErrorMessage(raw, resp.StatusCode), nil)
		pe.StatusCode = resp.StatusCode
		c.recordOutcome(pe)
		return nil, nil, pe
	}
	c.recordOutcome(nil)
	return raw, resp.Header, nil
}

// recordOutcome feeds the breaker. Only provider-side failures count.
func (c *Client) recordOutcome(pe *ProviderError) {
	if pe != nil && pe.Retryable {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.Warn("inference circuit opened")
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.Info("inference circuit closed")
	}
}

func apiErrorMessage(raw []byte, status int) string {
	var body apiErrorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return "unexpected status " + strconv.Itoa(status)
}
