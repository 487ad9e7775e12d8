// Package httputil holds the JSON response and request-decoding helpers shared by handlers.
package httputil

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "landverify/pkg/domain-errors"
)

// ErrorResponse is the body written for coded errors.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeValidation:        http.StatusBadRequest,
	dErrors.CodeBadRequest:        http.StatusBadRequest,
	dErrors.CodeInvalidInput:      http.StatusBadRequest,
	dErrors.CodeUnauthorized:      http.StatusUnauthorized,
	dErrors.CodeForbidden:         http.StatusForbidden,
	dErrors.CodeNotFound:          http.StatusNotFound,
	dErrors.CodeConflict:          http.StatusConflict,
	dErrors.CodeInvalidState:      http.StatusConflict,
	dErrors.CodePayloadTooLarge:   http.StatusBadRequest,
	dErrors.CodeUnsupportedMedia:  http.StatusBadRequest,
	dErrors.CodeTimeout:           http.StatusGatewayTimeout,
	dErrors.CodeProcessingTimeout: http.StatusGatewayTimeout,
	dErrors.CodeProcessingFailed:  http.StatusBadGateway,
	dErrors.CodeExtraction:        http.StatusInternalServerError,
	dErrors.CodePersistence:       http.StatusInternalServerError,
	dErrors.CodeUnavailable:       http.StatusServiceUnavailable,
	dErrors.CodeInternal:          http.StatusInternalServerError,
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByCode[dErrors.CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Server-side failures whose message tells the user what to do next.
var userFacingServerCodes = map[dErrors.Code]bool{
	dErrors.CodeTimeout:           true,
	dErrors.CodeProcessingTimeout: true,
	dErrors.CodeProcessingFailed:  true,
	dErrors.CodeExtraction:        true,
	dErrors.CodeUnavailable:       true,
}

// WriteError renders a coded error. Internal and persistence errors never
// leak their description.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status := StatusFor(err)
	resp := ErrorResponse{Error: string(code)}
	if de, ok := dErrors.As(err); ok && (status < http.StatusInternalServerError || userFacingServerCodes[code]) {
		resp.ErrorDescription = de.Message
	}
	WriteJSON(w, status, resp)
}

// DecodeAndPrepare decodes a JSON body into T, normalizes it when T has a
// Normalize method, and validates it. On failure the error response is
// already written and ok is false.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validate() error
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (*T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "failed to decode request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid json body"))
		return nil, false
	}

	ptr := PT(&req)
	if n, ok := any(ptr).(interface{ Normalize() }); ok {
		n.Normalize()
	}
	if err := ptr.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"request_id", requestID,
			"error", err,
		)
		WriteError(w, err)
		return nil, false
	}
	return &req, true
}
