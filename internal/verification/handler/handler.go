package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landverify/internal/verification/models"
	"landverify/internal/verification/pipeline"
	"landverify/internal/verification/service"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	"landverify/pkg/platform/httputil"
	"landverify/pkg/platform/middleware/metadata"
	"landverify/pkg/requestcontext"
)

// Service is the verification pipeline as the HTTP layer sees it.
type Service interface {
	VerifyIdentity(ctx context.Context, req service.IdentityRequest) (*service.StageResult, error)
	ValidateLandRecord(ctx context.Context, req service.LandRecordRequest) (*service.StageResult, error)
	ResolveLocation(ctx context.Context, req service.ResolveRequest) (*service.GeofenceResult, error)
	CheckLocation(ctx context.Context, req service.CheckRequest) (*service.GeofenceResult, error)
	AnalyzeSiteVideo(ctx context.Context, req service.SiteVideoRequest) (*service.StageResult, error)
	Save(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID) (*service.SaveResult, error)
	GetAttempt(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID) (*pipeline.Attempt, error)
	GetRecord(ctx context.Context, subjectID id.SubjectID, verificationID id.VerificationID) (*models.VerificationRecord, error)
}

// Handler serves the verification endpoints. Authentication and the seller
// role are enforced by the router before these handlers run.
type Handler struct {
	service    Service
	logger     *slog.Logger
	extraction func(http.Handler) http.Handler
}

type Option func(*Handler)

// WithExtractionLimit wraps the routes that call the inference service.
func WithExtractionLimit(mw func(http.Handler) http.Handler) Option {
	return func(h *Handler) { h.extraction = mw }
}

func New(svc Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: svc, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the verification routes on r.
func (h *Handler) Register(r chi.Router) {
	extract := r
	if h.extraction != nil {
		extract = r.With(h.extraction)
	}
	extract.Post("/verify/step1", h.handleIdentity)
	extract.Post("/verify/step2", h.handleLandRecord)
	extract.Post("/verify/step3", h.handleSiteVideo)
	r.Post("/verify/geofence/resolve", h.handleResolve)
	r.Post("/verify/geofence/check", h.handleCheck)
	r.Post("/verify/save", h.handleSave)
	r.Get("/verify/attempts/{attemptID}", h.handleGetAttempt)
	r.Get("/verifications/{verificationID}", h.handleGetRecord)
}

func (h *Handler) handleIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r, documentFormLimit(2)); err != nil {
		h.writeError(ctx, w, "step1", err)
		return
	}
	defer removeForm(r)

	pan, hasPan, err := readDocument(r, "pan", "PAN")
	if err != nil {
		h.writeError(ctx, w, "step1", err)
		return
	}
	deed, hasDeed, err := readDocument(r, "deed", "Deed")
	if err != nil {
		h.writeError(ctx, w, "step1", err)
		return
	}
	if !hasPan || !hasDeed {
		h.writeError(ctx, w, "step1", dErrors.New(dErrors.CodeValidation, "Both PAN and Deed are required"))
		return
	}

	res, err := h.service.VerifyIdentity(ctx, service.IdentityRequest{
		SubjectID:   subjectID,
		DisplayName: requestcontext.DisplayName(ctx),
		IdentityDoc: pan,
		Deed:        deed,
	})
	if err != nil {
		h.writeError(ctx, w, "step1", err)
		return
	}
	h.logger.InfoContext(ctx, "verify.step1",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID,
		"attempt_id", res.Attempt.ID,
		"halted", res.Halted,
	)
	if res.Halted {
		httputil.WriteJSON(w, http.StatusBadRequest, identityMismatch(res.Attempt))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, identitySuccess(res.Attempt))
}

func (h *Handler) handleLandRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r, documentFormLimit(1)); err != nil {
		h.writeError(ctx, w, "step2", err)
		return
	}
	defer removeForm(r)

	attemptID, err := id.ParseAttemptID(r.FormValue("attempt_id"))
	if err != nil {
		h.writeError(ctx, w, "step2", err)
		return
	}
	patta, hasPatta, err := readDocument(r, "patta", "Patta Chitta")
	if err != nil {
		h.writeError(ctx, w, "step2", err)
		return
	}
	if !hasPatta {
		h.writeError(ctx, w, "step2", dErrors.New(dErrors.CodeValidation, "Patta Chitta document is required"))
		return
	}

	res, err := h.service.ValidateLandRecord(ctx, service.LandRecordRequest{
		SubjectID:     subjectID,
		AttemptID:     attemptID,
		Record:        patta,
		PurchaserName: r.FormValue("verified_name"),
		SurveyNumber:  r.FormValue("survey_no"),
	})
	if err != nil {
		h.writeError(ctx, w, "step2", err)
		return
	}
	h.logger.InfoContext(ctx, "verify.step2",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID,
		"attempt_id", attemptID,
		"status", res.Attempt.Stage2.Status,
		"government_land", res.Attempt.Stage2.IsGovernmentLand,
	)
	if res.Halted {
		httputil.WriteJSON(w, http.StatusBadRequest, landRecordRejection(res.Attempt))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, landRecordSuccess(res.Attempt))
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[resolveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.ResolveLocation(ctx, service.ResolveRequest{
		SubjectID: subjectID,
		AttemptID: req.attemptID,
		Override:  req.VillageOverride,
	})
	if err != nil {
		h.writeError(ctx, w, "geofence.resolve", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, geofenceView(res))
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[checkRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.CheckLocation(ctx, service.CheckRequest{
		SubjectID: subjectID,
		AttemptID: req.attemptID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	})
	if err != nil {
		h.writeError(ctx, w, "geofence.check", err)
		return
	}
	device := metadata.DeviceFromContext(ctx)
	h.logger.InfoContext(ctx, "verify.geofence.check",
		"request_id", requestcontext.RequestID(ctx),
		"attempt_id", req.attemptID,
		"verified", res.Check.Verified,
		"device_os", device.OS,
		"device_browser", device.Browser,
		"device_mobile", device.Mobile,
	)
	httputil.WriteJSON(w, http.StatusOK, geofenceView(res))
}

func (h *Handler) handleSiteVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	if r.ContentLength > videoFormLimit {
		h.writeError(ctx, w, "step3", errVideoTooLarge)
		return
	}
	if err := parseForm(w, r, videoFormLimit); err != nil {
		if dErrors.HasCode(err, dErrors.CodePayloadTooLarge) {
			err = errVideoTooLarge
		}
		h.writeError(ctx, w, "step3", err)
		return
	}
	defer removeForm(r)

	attemptID, err := id.ParseAttemptID(r.FormValue("attempt_id"))
	if err != nil {
		h.writeError(ctx, w, "step3", err)
		return
	}
	video, closeVideo, err := openVideo(r)
	if err != nil {
		h.writeError(ctx, w, "step3", err)
		return
	}
	defer closeVideo()

	res, err := h.service.AnalyzeSiteVideo(ctx, service.SiteVideoRequest{
		SubjectID:    subjectID,
		AttemptID:    attemptID,
		Video:        video,
		OwnerName:    r.FormValue("verified_name"),
		SurveyNumber: r.FormValue("survey_no"),
	})
	if err != nil {
		h.writeError(ctx, w, "step3", err)
		return
	}
	h.logger.InfoContext(ctx, "verify.step3",
		"request_id", requestcontext.RequestID(ctx),
		"subject_id", subjectID,
		"attempt_id", attemptID,
		"suitability_score", res.Attempt.Stage3.SuitabilityScore,
	)
	httputil.WriteJSON(w, http.StatusOK, siteVideoResponse{
		Success:   true,
		AttemptID: res.Attempt.ID.String(),
		Data:      res.Attempt.Stage3,
	})
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[saveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	res, err := h.service.Save(ctx, subjectID, req.attemptID)
	if err != nil {
		h.writeError(ctx, w, "save", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, saveResponse{
		Success:        true,
		VerificationID: res.VerificationID.String(),
		Created:        res.Created,
		Message:        "Verification saved successfully.",
	})
}

func (h *Handler) handleGetAttempt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	attemptID, err := id.ParseAttemptID(chi.URLParam(r, "attemptID"))
	if err != nil {
		h.writeError(ctx, w, "attempt.get", err)
		return
	}
	a, err := h.service.GetAttempt(ctx, subjectID, attemptID)
	if err != nil {
		h.writeError(ctx, w, "attempt.get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID, ok := h.subject(w, r)
	if !ok {
		return
	}
	verificationID, err := id.ParseVerificationID(chi.URLParam(r, "verificationID"))
	if err != nil {
		h.writeError(ctx, w, "verification.get", err)
		return
	}
	rec, err := h.service.GetRecord(ctx, subjectID, verificationID)
	if err != nil {
		h.writeError(ctx, w, "verification.get", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

// subject reads the principal set by the auth middleware.
func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (id.SubjectID, bool) {
	subjectID := requestcontext.SubjectID(r.Context())
	if subjectID.IsNil() {
		h.logger.ErrorContext(r.Context(), "subject missing from context despite auth middleware",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.SubjectID{}, false
	}
	return subjectID, true
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	status := httputil.StatusFor(err)
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"op", op,
		"code", dErrors.CodeOf(err),
		"error", err,
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "verify.request_failed", attrs...)
	} else {
		h.logger.WarnContext(ctx, "verify.request_rejected", attrs...)
	}
	httputil.WriteError(w, err)
}
