package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		APIKey:           "test-key",
		BaseURL:          srv.URL,
		Model:            "test-model",
		HTTPTimeout:      5 * time.Second,
		RetryMax:         2,
		RetryWaitMin:     time.Millisecond,
		RetryWaitMax:     5 * time.Millisecond,
		BreakerThreshold: 5,
		BreakerCooldown:  time.Minute,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{
				"content":      map[string]any{"role": "model", "parts": []any{map[string]any{"text": text}}},
				"finishReason": "STOP",
			},
		},
	})
	return string(b)
}

func TestGenerate(t *testing.T) {
	t.Run("returns candidate text and sends key and model", func(t *testing.T) {
		var got GenerateRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = io.WriteString(w, candidateBody("Here you go:\n```json\n{\"a\":1}\n```"))
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		text, err := c.Generate(context.Background(), NewUserRequest(TextPart("prompt"), InlinePart("image/png", []byte{1, 2})))
		require.NoError(t, err)
		assert.Contains(t, text, `{"a":1}`)
		require.Len(t, got.Contents, 1)
		require.Len(t, got.Contents[0].Parts, 2)
		assert.Equal(t, "prompt", got.Contents[0].Parts[0].Text)
		assert.Equal(t, "AQI=", got.Contents[0].Parts[1].InlineData.Data)
		assert.Equal(t, "application/json", got.GenerationConfig.ResponseMIMEType)
	})

	t.Run("retries server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = io.WriteString(w, candidateBody(`{"ok":true}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		text, err := c.Generate(context.Background(), NewUserRequest(TextPart("p")))
		require.NoError(t, err)
		assert.Equal(t, `{"ok":true}`, text)
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("does not retry bad requests", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":{"code":400,"message":"invalid argument","status":"INVALID_ARGUMENT"}}`)
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		_, err := c.Generate(context.Background(), NewUserRequest(TextPart("p")))
		require.Error(t, err)
		assert.Equal(t, ErrorBadData, GetCategory(err))
		assert.False(t, IsRetryable(err))
		assert.Contains(t, err.Error(), "invalid argument")
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("blocked prompt is bad data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		_, err := c.Generate(context.Background(), NewUserRequest(TextPart("p")))
		require.Error(t, err)
		assert.Equal(t, ErrorBadData, GetCategory(err))
		assert.Contains(t, err.Error(), "SAFETY")
	})

	t.Run("auth failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := newTestClient(t, srv)
		_, err := c.Generate(context.Background(), NewUserRequest(TextPart("p")))
		assert.Equal(t, ErrorAuthentication, GetCategory(err))
	})

	t.Run("breaker opens after repeated outages", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClient(t, srv, func(cfg *Config) {
			cfg.RetryMax = 0
			cfg.BreakerThreshold = 2
		})
		for range 2 {
			_, err := c.Generate(context.Background(), NewUserRequest(TextPart("p")))
			assert.Equal(t, ErrorProviderOutage, GetCategory(err))
		}
		_, err := c.Generate(context.Background(), NewUserRequest(TextPart("p")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circuit open")
		assert.EqualValues(t, 2, calls.Load())
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, candidateBody("x"))
		}))
		defer srv.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := newTestClient(t, srv)
		_, err := c.Generate(ctx, NewUserRequest(TextPart("p")))
		require.Error(t, err)
		assert.False(t, IsRetryable(err))
	})
}

func TestUploadFile(t *testing.T) {
	payload := []byte("fake video bytes")
	var uploaded []byte

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/upload/v1beta/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "resumable", r.Header.Get("X-Goog-Upload-Protocol"))
		assert.Equal(t, "start", r.Header.Get("X-Goog-Upload-Command"))
		assert.Equal(t, "16", r.Header.Get("X-Goog-Upload-Header-Content-Length"))
		assert.Equal(t, "video/mp4", r.Header.Get("X-Goog-Upload-Header-Content-Type"))
		var meta map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&meta))
		assert.Equal(t, "Land Site Visit - 45/2", meta["file"]["display_name"])
		w.Header().Set("X-Goog-Upload-URL", srv.URL+"/session/abc")
	})
	mux.HandleFunc("/session/abc", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "upload, finalize", r.Header.Get("X-Goog-Upload-Command"))
		assert.Equal(t, "0", r.Header.Get("X-Goog-Upload-Offset"))
		uploaded, _ = io.ReadAll(r.Body)
		_, _ = io.WriteString(w, `{"file":{"name":"files/abc","uri":"https://files/abc","mimeType":"video/mp4","state":"PROCESSING"}}`)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	c := newTestClient(t, srv)
	f, err := c.UploadFile(context.Background(), bytes.NewReader(payload), int64(len(payload)), "video/mp4", "Land Site Visit - 45/2")
	require.NoError(t, err)
	assert.Equal(t, "files/abc", f.Name)
	assert.Equal(t, FileStateProcessing, f.State)
	assert.Equal(t, payload, uploaded)
}

func TestUploadFile_MissingSessionURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.UploadFile(context.Background(), bytes.NewReader([]byte("x")), 1, "video/mp4", "v")
	require.Error(t, err)
	assert.Equal(t, ErrorBadData, GetCategory(err))
}

func TestGetAndDeleteFile(t *testing.T) {
	var deleted atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/files/abc", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"name":"files/abc","uri":"https://files/abc","state":"ACTIVE"}`)
		case http.MethodDelete:
			deleted.Store(true)
			_, _ = io.WriteString(w, `{}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	f, err := c.GetFile(context.Background(), "files/abc")
	require.NoError(t, err)
	assert.Equal(t, FileStateActive, f.State)

	require.NoError(t, c.DeleteFile(context.Background(), "files/abc"))
	assert.True(t, deleted.Load())
}

func TestCategoryForStatus(t *testing.T) {
	tests := map[int]ErrorCategory{
		401: ErrorAuthentication,
		403: ErrorAuthentication,
		404: ErrorNotFound,
		408: ErrorTimeout,
		422: ErrorBadData,
		429: ErrorRateLimited,
		500: ErrorProviderOutage,
		504: ErrorTimeout,
	}
	for status, want := range tests {
		assert.Equal(t, want, categoryForStatus(status), "status %d", status)
	}
}
