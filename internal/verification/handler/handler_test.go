package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"landverify/internal/geofence"
	"landverify/internal/verification/handler/mocks"
	"landverify/internal/verification/landrecord"
	"landverify/internal/verification/models"
	"landverify/internal/verification/pipeline"
	"landverify/internal/verification/service"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	"landverify/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	subject id.SubjectID

	lastStatus int
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.subject = id.SubjectID(uuid.New())
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
}

func (s *HandlerSuite) do(req *http.Request) map[string]any {
	rr := testutil.DoRequest(s.router, testutil.WithSeller(req, s.subject.String(), "Ravi Kumar"))
	s.lastStatus = rr.Code
	return testutil.UnmarshalErrorResponse(s.T(), rr)
}

func (s *HandlerSuite) attempt(stage pipeline.Stage) *pipeline.Attempt {
	a := pipeline.NewAttempt(s.subject, time.Now())
	a.Stage = stage
	return a
}

func (s *HandlerSuite) TestIdentity() {
	t := s.T()
	docs := []testutil.FilePart{
		{Field: "pan", Filename: "pan.png", Content: pngBytes},
		{Field: "deed", Filename: "deed.pdf", Content: []byte("%PDF-1.7 deed")},
	}

	testutil.Given(t, "a missing deed", func(t *testing.T) {
		testutil.Then(t, "the request is rejected without extraction", func(t *testing.T) {
			body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step1", docs[:1], nil))
			assert.Equal(t, http.StatusBadRequest, s.lastStatus)
			assert.Equal(t, "validation_error", body["error"])
			assert.Equal(t, "Both PAN and Deed are required", body["error_description"])
		})
	})

	testutil.Given(t, "a document that is not an image or PDF", func(t *testing.T) {
		testutil.Then(t, "it is rejected as unsupported", func(t *testing.T) {
			bad := []testutil.FilePart{docs[0], {Field: "deed", Filename: "deed.txt", Content: []byte("plain text deed")}}
			body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step1", bad, nil))
			assert.Equal(t, http.StatusBadRequest, s.lastStatus)
			assert.Equal(t, "unsupported_media_type", body["error"])
		})
	})

	testutil.Given(t, "matching documents", func(t *testing.T) {
		a := s.attempt(pipeline.StageLandRecord)
		a.Stage1 = &models.Stage1Claim{
			PurchaserName:   "Ravi Kumar",
			MatchStatus:     models.MatchMatched,
			ConfidenceScore: 91,
			SurveyNumber:    "123/4B",
			District:        "Chengalpattu",
			LandStatus:      "Patta",
			TotalArea:       "2 acres",
		}
		s.service.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req service.IdentityRequest) (*service.StageResult, error) {
				assert.Equal(t, s.subject, req.SubjectID)
				assert.Equal(t, "Ravi Kumar", req.DisplayName)
				assert.Equal(t, "image/png", req.IdentityDoc.MIMEType)
				assert.Equal(t, "application/pdf", req.Deed.MIMEType)
				return &service.StageResult{Attempt: a}, nil
			})

		testutil.When(t, "stage 1 runs", func(t *testing.T) {
			body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step1", docs, nil))

			testutil.Then(t, "the verified facts and attempt token are returned", func(t *testing.T) {
				require.Equal(t, http.StatusOK, s.lastStatus)
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "VERIFIED", body["phase1_status"])
				assert.Equal(t, a.ID.String(), body["attempt_id"])
				data := body["data"].(map[string]any)
				assert.Equal(t, "Ravi Kumar", data["verified_name"])
				assert.Equal(t, "123/4B", data["extracted_survey_no"])
				assert.Equal(t, a.ID.String(), data["token"])
			})
		})
	})

	testutil.Given(t, "documents naming different people", func(t *testing.T) {
		a := s.attempt(pipeline.StageHalted)
		a.Stage1 = &models.Stage1Claim{MatchStatus: models.MatchMismatch, MatchExplanation: "Surname differs"}
		s.service.EXPECT().VerifyIdentity(gomock.Any(), gomock.Any()).Return(&service.StageResult{Attempt: a, Halted: true}, nil)

		testutil.Then(t, "the mismatch is reported as a 400 outcome", func(t *testing.T) {
			body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step1", docs, nil))
			assert.Equal(t, http.StatusBadRequest, s.lastStatus)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, "Identity mismatch", body["error"])
			assert.Equal(t, "Surname differs", body["details"])
		})
	})
}

func (s *HandlerSuite) TestLandRecord() {
	t := s.T()
	patta := []testutil.FilePart{{Field: "patta", Filename: "patta.png", Content: pngBytes}}
	attemptID := id.NewAttemptID()

	t.Run("malformed attempt id", func(t *testing.T) {
		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step2", patta, map[string]string{"attempt_id": "abc"}))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "invalid_input", body["error"])
	})

	t.Run("missing record", func(t *testing.T) {
		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step2", nil, map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "Patta Chitta document is required", body["error_description"])
	})

	t.Run("government land", func(t *testing.T) {
		a := s.attempt(pipeline.StageHalted)
		a.Stage2 = &models.Stage2Claim{IsGovernmentLand: true, Status: models.RecordRejected, RejectionReason: landrecord.GovernmentLandReason}
		s.service.EXPECT().ValidateLandRecord(gomock.Any(), gomock.Any()).Return(&service.StageResult{Attempt: a, Halted: true}, nil)

		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step2", patta, map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "REJECTED", body["phase2_status"])
		assert.Equal(t, "Government Land Detected", body["error"])
		assert.Equal(t, landrecord.GovernmentLandReason, body["message"])
		assert.Equal(t, "HIGH", body["risk_level"])
	})

	t.Run("warning carries forwarded fields and message", func(t *testing.T) {
		a := s.attempt(pipeline.StageGeofence)
		a.Stage2 = &models.Stage2Claim{
			NameMatched:        true,
			LandClassification: models.LandWetland,
			OfficialAreaText:   "0.81 hectare",
			GeoTarget:          models.GeoTarget{DistrictName: "Chengalpattu", TalukName: "Tirukalukundram", RevenueVillageName: "Mambakkam"},
			Status:             models.RecordWarning,
			RejectionReason:    "Survey number differs",
		}
		s.service.EXPECT().ValidateLandRecord(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req service.LandRecordRequest) (*service.StageResult, error) {
				assert.Equal(t, attemptID, req.AttemptID)
				assert.Equal(t, "123/5", req.SurveyNumber)
				assert.Empty(t, req.PurchaserName)
				return &service.StageResult{Attempt: a}, nil
			})

		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step2", patta,
			map[string]string{"attempt_id": attemptID.String(), "survey_no": "123/5"}))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, "WARNING", body["final_status"])
		data := body["data"].(map[string]any)
		assert.Equal(t, "Survey number differs", data["warning_message"])
		assert.Equal(t, "Mambakkam, Tirukalukundram, Chengalpattu", data["map_data"].(map[string]any)["display_address"])
		assert.Equal(t, true, data["land_info"].(map[string]any)["is_safe"])
	})
}

func (s *HandlerSuite) TestGeofence() {
	t := s.T()
	attemptID := id.NewAttemptID()

	t.Run("resolve", func(t *testing.T) {
		a := s.attempt(pipeline.StageGeofence)
		a.Geofence = &geofence.Session{
			State: geofence.StateReady,
			Place: &geofence.Place{Name: "Mambakkam", DisplayName: "Mambakkam, Tamil Nadu", Center: geofence.Point{Lat: 12.85, Lng: 80.17}},
		}
		s.service.EXPECT().ResolveLocation(gomock.Any(), service.ResolveRequest{SubjectID: s.subject, AttemptID: attemptID, Override: "Vallam"}).
			Return(&service.GeofenceResult{Attempt: a, RadiusKm: 2}, nil)

		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/geofence/resolve",
			map[string]string{"attempt_id": attemptID.String(), "village_override": "  Vallam "}))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, "READY", body["state"])
		assert.Equal(t, false, body["needs_override"])
		assert.Equal(t, 12.85, body["place"].(map[string]any)["lat"])
	})

	t.Run("check requires coordinates", func(t *testing.T) {
		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/geofence/check",
			map[string]any{"attempt_id": attemptID.String(), "latitude": 12.85}))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "validation_error", body["error"])
	})

	t.Run("check", func(t *testing.T) {
		a := s.attempt(pipeline.StageSiteVideo)
		a.Geofence = &geofence.Session{State: geofence.StateVerified}
		check := &geofence.Result{Verified: true, DistanceKm: 0.2, Message: "Location Verified (0.2km from center)"}
		s.service.EXPECT().CheckLocation(gomock.Any(), service.CheckRequest{SubjectID: s.subject, AttemptID: attemptID, Latitude: 0, Longitude: 80.17}).
			Return(&service.GeofenceResult{Attempt: a, Check: check, RadiusKm: 2}, nil)

		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/geofence/check",
			map[string]any{"attempt_id": attemptID.String(), "latitude": 0, "longitude": 80.17}))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, "SITE_VIDEO", body["stage"])
		assert.Equal(t, true, body["check"].(map[string]any)["verified"])
	})

	t.Run("invalid state", func(t *testing.T) {
		s.service.EXPECT().CheckLocation(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "Resolve the village location before checking your position."))
		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/geofence/check",
			map[string]any{"attempt_id": attemptID.String(), "latitude": 12.85, "longitude": 80.17}))
		assert.Equal(t, http.StatusConflict, s.lastStatus)
		assert.Equal(t, "invalid_state", body["error"])
	})
}

func (s *HandlerSuite) TestSiteVideo() {
	t := s.T()
	attemptID := id.NewAttemptID()
	video := []testutil.FilePart{{Field: "video", Filename: "walk.mp4", ContentType: "video/mp4", Content: []byte("....ftypmp42")}}

	t.Run("oversized upload is refused before parsing", func(t *testing.T) {
		req := testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step3", video, map[string]string{"attempt_id": attemptID.String()})
		req.ContentLength = 150 << 20
		body := s.do(req)
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "payload_too_large", body["error"])
		assert.Equal(t, "Video file size must be under 100MB", body["error_description"])
	})

	t.Run("missing video", func(t *testing.T) {
		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step3", nil, map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "Video file is required", body["error_description"])
	})

	t.Run("analyzed", func(t *testing.T) {
		a := s.attempt(pipeline.StageAssembly)
		a.Stage3 = &models.Stage3Claim{SuitabilityScore: 8, OverallVerdict: "Suitable"}
		s.service.EXPECT().AnalyzeSiteVideo(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, req service.SiteVideoRequest) (*service.StageResult, error) {
				assert.Equal(t, "video/mp4", req.Video.MIMEType)
				assert.Equal(t, int64(len(video[0].Content)), req.Video.Size)
				assert.Equal(t, "123/4B", req.SurveyNumber)
				data, err := io.ReadAll(req.Video.Body)
				assert.NoError(t, err)
				assert.Equal(t, video[0].Content, data)
				return &service.StageResult{Attempt: a}, nil
			})

		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step3", video,
			map[string]string{"attempt_id": attemptID.String(), "survey_no": "123/4B"}))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, float64(8), body["data"].(map[string]any)["suitability_score"])
	})

	t.Run("processing timeout", func(t *testing.T) {
		s.service.EXPECT().AnalyzeSiteVideo(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeProcessingTimeout, "Video processing timeout. Please try again with a shorter video."))
		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step3", video, map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusGatewayTimeout, s.lastStatus)
		assert.Equal(t, "processing_timeout", body["error"])
		assert.Equal(t, "Video processing timeout. Please try again with a shorter video.", body["error_description"])
	})

	t.Run("processing failed", func(t *testing.T) {
		s.service.EXPECT().AnalyzeSiteVideo(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeProcessingFailed, "Video processing failed. Please try again."))
		body := s.do(testutil.NewMultipartRequest(t, http.MethodPost, "/verify/step3", video, map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusBadGateway, s.lastStatus)
		assert.Equal(t, "Video processing failed. Please try again.", body["error_description"])
	})
}

func (s *HandlerSuite) TestSave() {
	t := s.T()
	attemptID := id.NewAttemptID()

	t.Run("saved", func(t *testing.T) {
		recordID := id.NewVerificationID()
		s.service.EXPECT().Save(gomock.Any(), s.subject, attemptID).Return(&service.SaveResult{VerificationID: recordID, Created: true}, nil)
		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/save", map[string]string{"attempt_id": attemptID.String()}))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, recordID.String(), body["verificationId"])
		assert.Equal(t, "Verification saved successfully.", body["message"])
	})

	t.Run("incomplete", func(t *testing.T) {
		s.service.EXPECT().Save(gomock.Any(), s.subject, attemptID).
			Return(nil, dErrors.New(dErrors.CodeValidation, "All verification steps must be completed."))
		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/save", map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "All verification steps must be completed.", body["error_description"])
	})

	t.Run("persistence failure hides details", func(t *testing.T) {
		s.service.EXPECT().Save(gomock.Any(), s.subject, attemptID).
			Return(nil, dErrors.New(dErrors.CodePersistence, "Failed to save verification"))
		body := s.do(testutil.NewJSONRequest(t, http.MethodPost, "/verify/save", map[string]string{"attempt_id": attemptID.String()}))
		assert.Equal(t, http.StatusInternalServerError, s.lastStatus)
		assert.Equal(t, "persistence_failed", body["error"])
		assert.NotContains(t, body, "error_description")
	})

	t.Run("bad json", func(t *testing.T) {
		body := s.do(testutil.NewRequestWithBody(t, http.MethodPost, "/verify/save", "{"))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "bad_request", body["error"])
	})
}

func (s *HandlerSuite) TestReads() {
	t := s.T()

	t.Run("attempt", func(t *testing.T) {
		a := s.attempt(pipeline.StageGeofence)
		s.service.EXPECT().GetAttempt(gomock.Any(), s.subject, a.ID).Return(a, nil)
		body := s.do(testutil.NewRequest(t, http.MethodGet, "/verify/attempts/"+a.ID.String()))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, "GEOFENCE", body["stage"])
	})

	t.Run("attempt not found", func(t *testing.T) {
		s.service.EXPECT().GetAttempt(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeNotFound, "verification attempt not found"))
		s.do(testutil.NewRequest(t, http.MethodGet, "/verify/attempts/"+id.NewAttemptID().String()))
		assert.Equal(t, http.StatusNotFound, s.lastStatus)
	})

	t.Run("record id is validated", func(t *testing.T) {
		body := s.do(testutil.NewRequest(t, http.MethodGet, "/verifications/not-a-uuid"))
		assert.Equal(t, http.StatusBadRequest, s.lastStatus)
		assert.Equal(t, "invalid_input", body["error"])
	})

	t.Run("record", func(t *testing.T) {
		rec := &models.VerificationRecord{ID: id.NewVerificationID(), SubjectID: s.subject, Status: models.RecordCompleted}
		s.service.EXPECT().GetRecord(gomock.Any(), s.subject, rec.ID).Return(rec, nil)
		body := s.do(testutil.NewRequest(t, http.MethodGet, "/verifications/"+rec.ID.String()))
		require.Equal(t, http.StatusOK, s.lastStatus)
		assert.Equal(t, "COMPLETED", body["status"])
	})
}

func TestRequiresPrincipal(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := chi.NewRouter()
	New(mocks.NewMockService(ctrl), slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodPost, "/verify/save", map[string]string{"attempt_id": uuid.NewString()}))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestExtractionLimitCoversInferenceRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	blocked := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	router := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil)), WithExtractionLimit(blocked)).Register(router)

	for _, path := range []string{"/verify/step1", "/verify/step2", "/verify/step3"} {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, path))
		assert.Equal(t, http.StatusTooManyRequests, rr.Code, path)
	}

	svc.EXPECT().Save(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "attempt not found"))
	req := testutil.NewJSONRequest(t, http.MethodPost, "/verify/save", map[string]string{"attempt_id": uuid.NewString()})
	rr := testutil.DoRequest(router, testutil.WithSeller(req, uuid.NewString(), "Ravi Kumar"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
