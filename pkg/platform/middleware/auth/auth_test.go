package auth

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	id "landverify/pkg/domain"
	"landverify/pkg/requestcontext"
)

type stubValidator struct {
	principal *Principal
	err       error
}

func (s stubValidator) ValidateToken(string) (*Principal, error) {
	return s.principal, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireAuth(t *testing.T) {
	subject := id.SubjectID(uuid.New())
	var seen id.SubjectID
	var seenName string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.SubjectID(r.Context())
		seenName = requestcontext.DisplayName(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing header is 401", func(t *testing.T) {
		mw := RequireAuth(stubValidator{}, discardLogger())
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/verify/save", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token is 401", func(t *testing.T) {
		mw := RequireAuth(stubValidator{err: errors.New("bad")}, discardLogger())
		r := httptest.NewRequest(http.MethodPost, "/verify/save", nil)
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})

	t.Run("valid token populates context", func(t *testing.T) {
		mw := RequireAuth(stubValidator{principal: &Principal{
			SubjectID: subject,
			Role:      id.RoleSeller,
			Email:     "ravi.kumar@example.com",
		}}, discardLogger())
		r := httptest.NewRequest(http.MethodPost, "/verify/save", nil)
		r.Header.Set("Authorization", "Bearer good")
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, subject, seen)
		assert.Equal(t, "Ravi Kumar", seenName)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mw := RequireRole(discardLogger(), id.RoleSeller)

	t.Run("buyer is forbidden", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/verify/step1", nil)
		r = r.WithContext(requestcontext.WithSubject(r.Context(), id.SubjectID(uuid.New()), id.RoleBuyer, ""))
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("seller passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/verify/step1", nil)
		r = r.WithContext(requestcontext.WithSubject(r.Context(), id.SubjectID(uuid.New()), id.RoleSeller, ""))
		w := httptest.NewRecorder()
		mw(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})
}
