package service

import (
	"context"
	"errors"

	"landverify/internal/geofence"
	"landverify/internal/verification/pipeline"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
	audit "landverify/pkg/platform/audit"
	"landverify/pkg/platform/sentinel"
)

// ResolveRequest looks up the village for the attempt's land record.
// Override replaces the village name after a failed lookup.
type ResolveRequest struct {
	SubjectID id.SubjectID
	AttemptID id.AttemptID
	Override  string
}

// GeofenceResult is the attempt and, after a check, the check outcome.
type GeofenceResult struct {
	Attempt  *pipeline.Attempt
	Check    *geofence.Result
	RadiusKm float64
}

// ResolveLocation resolves the attempt's geo target to a place. A lookup with
// no match leaves the session waiting for an override; a geocoder outage
// leaves the attempt unchanged.
func (s *Service) ResolveLocation(ctx context.Context, req ResolveRequest) (*GeofenceResult, error) {
	ctx, span := s.startSpan(ctx, "verification.geofence.resolve", req.AttemptID)
	res, err := s.resolveLocation(ctx, req)
	endSpan(span, err)
	return res, err
}

func (s *Service) resolveLocation(ctx context.Context, req ResolveRequest) (*GeofenceResult, error) {
	a, err := s.load(ctx, req.SubjectID, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if !a.Stage.Allows(pipeline.EventLocationVerified) || a.Geofence == nil {
		return nil, gateError(a, "Complete the land record step before confirming your location.")
	}

	session := *a.Geofence
	if err := s.geofence.Resolve(ctx, &session, req.Override); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnavailable) {
			s.metrics.IncGeofenceResolution("unavailable")
		}
		return nil, geofenceError(err)
	}

	committed, err := s.commit(ctx, req.SubjectID, req.AttemptID, a.Version, func(a *pipeline.Attempt) error {
		a.Geofence = &session
		// A new place invalidates any earlier check.
		if a.Stage == pipeline.StageSiteVideo {
			if err := a.Apply(pipeline.EventLocationLost, s.now()); err != nil {
				return err
			}
		}
		if session.NeedsOverride() {
			s.trackOps(ctx, a, audit.EventGeofenceUnresolved, string(session.State), "")
		} else {
			s.trackOps(ctx, a, audit.EventGeofenceResolved, string(session.State), session.Place.Query)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if session.NeedsOverride() {
		s.metrics.IncGeofenceResolution("failed")
	} else {
		s.metrics.IncGeofenceResolution("ready")
	}
	return &GeofenceResult{Attempt: committed, RadiusKm: s.geofence.RadiusKm()}, nil
}

// CheckRequest is one device location reading.
type CheckRequest struct {
	SubjectID id.SubjectID
	AttemptID id.AttemptID
	Latitude  float64
	Longitude float64
}

// CheckLocation evaluates a device location against the resolved place. A
// passing check opens the site video stage; a failing one closes it again.
func (s *Service) CheckLocation(ctx context.Context, req CheckRequest) (*GeofenceResult, error) {
	ctx, span := s.startSpan(ctx, "verification.geofence.check", req.AttemptID)
	res, err := s.checkLocation(ctx, req)
	endSpan(span, err)
	return res, err
}

func (s *Service) checkLocation(ctx context.Context, req CheckRequest) (*GeofenceResult, error) {
	a, err := s.load(ctx, req.SubjectID, req.AttemptID)
	if err != nil {
		return nil, err
	}
	if !a.Stage.Allows(pipeline.EventLocationVerified) || a.Geofence == nil {
		return nil, gateError(a, "Complete the land record step before confirming your location.")
	}

	session := *a.Geofence
	result, err := s.geofence.Check(ctx, &session, geofence.Point{Lat: req.Latitude, Lng: req.Longitude}, s.now())
	if err != nil {
		return nil, geofenceError(err)
	}
	s.logCheck(ctx, a, result)

	committed, err := s.commit(ctx, req.SubjectID, req.AttemptID, a.Version, func(a *pipeline.Attempt) error {
		a.Geofence = &session
		now := s.now()
		if result.Verified {
			if err := a.Apply(pipeline.EventLocationVerified, now); err != nil {
				return err
			}
			return s.emitCompliance(ctx, a, audit.EventLocationVerified, "VERIFIED", result.Message)
		}
		if a.Stage == pipeline.StageSiteVideo {
			if err := a.Apply(pipeline.EventLocationLost, now); err != nil {
				return err
			}
		}
		s.trackOps(ctx, a, audit.EventLocationOutOfRange, "OUT_OF_RANGE", result.Message)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Verified {
		s.metrics.IncGeofenceCheck("verified")
	} else {
		s.metrics.IncGeofenceCheck("out_of_range")
	}
	return &GeofenceResult{Attempt: committed, Check: &result, RadiusKm: s.geofence.RadiusKm()}, nil
}

func (s *Service) logCheck(ctx context.Context, a *pipeline.Attempt, r geofence.Result) {
	s.logger.InfoContext(ctx, "geofence.check",
		"attempt_id", a.ID,
		"verified", r.Verified,
		"inside_boundary", r.Inside,
		"distance_km", r.DistanceKm,
	)
}

func geofenceError(err error) error {
	if _, coded := dErrors.As(err); coded {
		return err
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "Resolve the village location before checking your position.")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "location check failed")
}
