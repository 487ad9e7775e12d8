package testutil

import (
	"net/http"

	id "landverify/pkg/domain"
	"landverify/pkg/requestcontext"
)

// WithSubject adds an authenticated principal to the request context, as the
// auth middleware would. Invalid subject IDs are silently ignored.
func WithSubject(req *http.Request, subjectID string, role id.Role, displayName string) *http.Request {
	parsed, err := id.ParseSubjectID(subjectID)
	if err != nil {
		return req
	}
	ctx := requestcontext.WithSubject(req.Context(), parsed, role, displayName)
	return req.WithContext(ctx)
}

// WithSeller is WithSubject for the seller role.
func WithSeller(req *http.Request, subjectID, displayName string) *http.Request {
	return WithSubject(req, subjectID, id.RoleSeller, displayName)
}
