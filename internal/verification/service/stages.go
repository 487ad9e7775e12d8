package service

import (
	"context"
	"strings"
	"time"

	"landverify/internal/claims"
	"landverify/internal/geofence"
	"landverify/internal/verification/assembler"
	"landverify/internal/verification/landrecord"
	"landverify/internal/verification/models"
	"landverify/internal/verification/pipeline"
	"landverify/internal/verification/sitevideo"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/requestcontext"
)

// IdentityRequest starts an attempt from an identity document and a deed.
type IdentityRequest struct {
	SubjectID   id.SubjectID
	DisplayName string
	IdentityDoc claims.Media
	Deed        claims.Media
}

// StageResult is an attempt after a stage ran. Halted is set when the stage
// outcome stopped the pipeline; that is a result, not an error.
type StageResult struct {
	Attempt *pipeline.Attempt
	Halted  bool
}

// VerifyIdentity runs stage 1 and opens a new attempt with its claim.
func (s *Service) VerifyIdentity(ctx context.Context, req IdentityRequest) (*StageResult, error) {
	ctx, span := s.startSpan(ctx, "verification.identity", id.AttemptID{})
	res, err := s.verifyIdentity(ctx, req)
	endSpan(span, err)
	return res, err
}

func (s *Service) verifyIdentity(ctx context.Context, req IdentityRequest) (*StageResult, error) {
	if req.SubjectID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	claim, err := s.identity.Verify(ctx, req.IdentityDoc, req.Deed)
	if err != nil {
		s.metrics.IncStageOutcome(stageLabelIdentity, outcomeError)
		return nil, err
	}

	if err := s.subjects.UpsertSubject(ctx, &models.Subject{ID: req.SubjectID, DisplayName: req.DisplayName}); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodePersistence, "failed to record the seller")
	}

	now := s.now()
	a := pipeline.NewAttempt(req.SubjectID, now)
	a.Stage1 = claim
	s.trackOps(ctx, a, audit.EventAttemptStarted, "", "")

	if claim.Halts() {
		if err := a.Halt(pipeline.EventIdentityMismatched, claim.MatchExplanation, now); err != nil {
			return nil, err
		}
		if err := s.emitCompliance(ctx, a, audit.EventIdentityMismatch, string(claim.MatchStatus), claim.MatchExplanation); err != nil {
			return nil, err
		}
	} else {
		if err := a.Apply(pipeline.EventIdentityMatched, now); err != nil {
			return nil, err
		}
		s.trackOps(ctx, a, audit.EventIdentityMatched, string(claim.MatchStatus), "")
	}
	s.metrics.IncStageOutcome(stageLabelIdentity, strings.ToLower(string(claim.MatchStatus)))

	if err := s.create(ctx, a); err != nil {
		return nil, err
	}
	return &StageResult{Attempt: a, Halted: a.Stage == pipeline.StageHalted}, nil
}

// LandRecordRequest runs stage 2. The record is always checked against the
// attempt's identity claim; forwarded name and survey values are only
// accepted when they agree with it.
type LandRecordRequest struct {
	SubjectID     id.SubjectID
	AttemptID     id.AttemptID
	Record        claims.Media
	PurchaserName string
	SurveyNumber  string
}

// ValidateLandRecord runs stage 2 and, when the record is accepted, starts a
// fresh geofence session for its target.
func (s *Service) ValidateLandRecord(ctx context.Context, req LandRecordRequest) (*StageResult, error) {
	ctx, span := s.startSpan(ctx, "verification.land_record", req.AttemptID)
	res, err := s.validateLandRecord(ctx, req)
	endSpan(span, err)
	return res, err
}

func (s *Service) validateLandRecord(ctx context.Context, req LandRecordRequest) (*StageResult, error) {
	a, err := s.load(ctx, req.SubjectID, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if !a.Stage.Allows(pipeline.EventRecordAccepted) || a.Stage1 == nil {
		return nil, gateError(a, "Step 1 verification data is missing. Please complete Step 1 first.")
	}

	if err := checkForwarded(a.Stage1, req.PurchaserName, req.SurveyNumber); err != nil {
		return nil, err
	}
	in := landrecord.Input{
		PurchaserName: a.Stage1.PurchaserName,
		SurveyNumber:  a.Stage1.SurveyNumber,
		LandStatus:    a.Stage1.LandStatus,
		TotalArea:     a.Stage1.TotalArea,
	}
	if in.PurchaserName.IsZero() || strings.TrimSpace(string(in.SurveyNumber)) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "Step 1 verification data is missing. Please complete Step 1 first.")
	}

	claim, err := s.records.Validate(ctx, in, req.Record)
	if err != nil {
		s.metrics.IncStageOutcome(stageLabelLandRecord, outcomeError)
		return nil, err
	}

	committed, err := s.commit(ctx, req.SubjectID, req.AttemptID, a.Version, func(a *pipeline.Attempt) error {
		now := s.now()
		a.Stage2 = claim
		if claim.Halts() {
			if err := a.Halt(pipeline.EventRecordRejected, claim.RejectionReason, now); err != nil {
				return err
			}
			ev := audit.EventLandRecordRejected
			if claim.IsGovernmentLand {
				ev = audit.EventGovernmentLandRejected
			}
			return s.emitCompliance(ctx, a, ev, string(claim.Status), claim.RejectionReason)
		}
		if err := a.Apply(pipeline.EventRecordAccepted, now); err != nil {
			return err
		}
		session := geofence.NewSession(claim.GeoTarget)
		a.Geofence = &session
		s.trackOps(ctx, a, audit.EventLandRecordAccepted, string(claim.Status), claim.RejectionReason)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStageOutcome(stageLabelLandRecord, strings.ToLower(string(claim.Status)))
	return &StageResult{Attempt: committed, Halted: committed.Stage == pipeline.StageHalted}, nil
}

// SiteVideoRequest runs stage 3. The prompt context comes from the attempt's
// earlier claims; forwarded values must agree with them.
type SiteVideoRequest struct {
	SubjectID    id.SubjectID
	AttemptID    id.AttemptID
	Video        sitevideo.Video
	OwnerName    string
	SurveyNumber string
}

// AnalyzeSiteVideo runs stage 3. Re-running it replaces only the stage 3 claim.
func (s *Service) AnalyzeSiteVideo(ctx context.Context, req SiteVideoRequest) (*StageResult, error) {
	ctx, span := s.startSpan(ctx, "verification.site_video", req.AttemptID)
	res, err := s.analyzeSiteVideo(ctx, req)
	endSpan(span, err)
	return res, err
}

func (s *Service) analyzeSiteVideo(ctx context.Context, req SiteVideoRequest) (*StageResult, error) {
	// Reject unusable uploads before touching any state.
	if _, err := sitevideo.ValidateVideo(req.Video.MIMEType, req.Video.Size); err != nil {
		return nil, err
	}

	a, err := s.load(ctx, req.SubjectID, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if !a.Stage.Allows(pipeline.EventVideoAnalyzed) || a.Stage1 == nil || a.Stage2 == nil {
		return nil, gateError(a, "Confirm your location at the site before uploading the video.")
	}
	if err := checkForwarded(a.Stage1, req.OwnerName, req.SurveyNumber); err != nil {
		return nil, err
	}

	claim, err := s.video.Analyze(ctx, siteContext(a), req.Video)
	if err != nil {
		s.metrics.IncStageOutcome(stageLabelSiteVideo, outcomeError)
		return nil, err
	}

	committed, err := s.commit(ctx, req.SubjectID, req.AttemptID, a.Version, func(a *pipeline.Attempt) error {
		if err := a.Apply(pipeline.EventVideoAnalyzed, s.now()); err != nil {
			return err
		}
		a.Stage3 = claim
		s.trackOps(ctx, a, audit.EventSiteVideoAnalyzed, claim.OverallVerdict, "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncStageOutcome(stageLabelSiteVideo, outcomeAnalyzed)
	return &StageResult{Attempt: committed}, nil
}

// checkForwarded rejects client-sent name or survey values that contradict
// the stored identity claim. Empty values are fine.
func checkForwarded(stage1 *models.Stage1Claim, name, survey string) error {
	if name = strings.TrimSpace(name); name != "" && !stage1.PurchaserName.Matches(models.PersonName(name)) {
		return dErrors.New(dErrors.CodeValidation, "The submitted name does not match the verified Step 1 data.")
	}
	if survey = strings.TrimSpace(survey); survey != "" && !stage1.SurveyNumber.Matches(models.SurveyNumber(survey)) {
		return dErrors.New(dErrors.CodeValidation, "The submitted survey number does not match the verified Step 1 data.")
	}
	return nil
}

func siteContext(a *pipeline.Attempt) claims.SiteContext {
	return claims.SiteContext{
		SurveyNumber:   string(a.Stage1.SurveyNumber),
		OwnerName:      string(a.Stage1.PurchaserName),
		LandStatus:     a.Stage1.LandStatus,
		RecordedArea:   firstNonEmpty(string(a.Stage2.OfficialAreaText), string(a.Stage1.TotalArea)),
		Classification: string(a.Stage2.LandClassification),
		Location:       a.Stage2.GeoTarget.DisplayAddress(),
		RecordStatus:   string(a.Stage2.Status),
	}
}

// SaveResult identifies the persisted record.
type SaveResult struct {
	VerificationID id.VerificationID
	Created        bool
}

// Save persists the finished attempt. It may be retried on its own after a
// failure; a completed attempt returns the record it already produced.
func (s *Service) Save(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID) (*SaveResult, error) {
	ctx, span := s.startSpan(ctx, "verification.save", attemptID)
	res, err := s.save(ctx, subjectID, attemptID)
	endSpan(span, err)
	return res, err
}

func (s *Service) save(ctx context.Context, subjectID id.SubjectID, attemptID id.AttemptID) (*SaveResult, error) {
	a, err := s.load(ctx, subjectID, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Stage == pipeline.StageCompleted && a.VerificationID != nil {
		return &SaveResult{VerificationID: *a.VerificationID}, nil
	}
	if a.Stage == pipeline.StageHalted {
		return nil, gateError(a, "")
	}
	if !a.ReadyToAssemble() {
		return nil, dErrors.New(dErrors.CodeValidation, "All verification steps must be completed.")
	}

	start := time.Now()
	res, err := s.assembler.Assemble(ctx, assembler.Input{
		AttemptID: a.ID,
		SubjectID: a.SubjectID,
		Stage1:    a.Stage1,
		Stage2:    a.Stage2,
		Stage3:    a.Stage3,
		Location:  a.LocationCheck(),
		RequestID: requestcontext.RequestID(ctx),
	})
	s.metrics.ObserveAssemble(time.Since(start), err == nil && res.Created)
	if err != nil {
		return nil, err
	}
	recordID := res.Record.ID

	// The record is durable at this point; a failed commit only leaves the
	// attempt at assembly, and the next save returns the same record.
	_, err = s.commit(ctx, subjectID, attemptID, a.Version, func(a *pipeline.Attempt) error {
		a.VerificationID = &recordID
		return a.Apply(pipeline.EventRecordSaved, s.now())
	})
	if err != nil {
		s.logger.WarnContext(ctx, "verification.save.attempt_not_updated",
			"attempt_id", attemptID,
			"verification_id", recordID,
			"error", err,
		)
	}
	s.logger.InfoContext(ctx, "verification.saved",
		"attempt_id", attemptID,
		"subject_id", subjectID,
		"verification_id", recordID,
		"created", res.Created,
	)
	return &SaveResult{VerificationID: recordID, Created: res.Created}, nil
}

const (
	stageLabelIdentity   = "identity"
	stageLabelLandRecord = "land_record"
	stageLabelSiteVideo  = "site_video"

	outcomeError    = "error"
	outcomeAnalyzed = "analyzed"
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
