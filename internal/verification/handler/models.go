package handler

import (
	"strings"

	"landverify/internal/geofence"
	"landverify/internal/verification/models"
	"landverify/internal/verification/pipeline"
	"landverify/internal/verification/service"
	id "landverify/pkg/domain"
	dErrors "landverify/pkg/domain-errors"
)

type resolveRequest struct {
	AttemptID       string `json:"attempt_id"`
	VillageOverride string `json:"village_override"`

	attemptID id.AttemptID
}

func (r *resolveRequest) Normalize() {
	r.VillageOverride = strings.TrimSpace(r.VillageOverride)
}

func (r *resolveRequest) Validate() error {
	parsed, err := id.ParseAttemptID(r.AttemptID)
	if err != nil {
		return err
	}
	r.attemptID = parsed
	return nil
}

type checkRequest struct {
	AttemptID string   `json:"attempt_id"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	attemptID id.AttemptID
}

func (r *checkRequest) Validate() error {
	parsed, err := id.ParseAttemptID(r.AttemptID)
	if err != nil {
		return err
	}
	if r.Latitude == nil || r.Longitude == nil {
		return dErrors.New(dErrors.CodeValidation, "latitude and longitude are required")
	}
	r.attemptID = parsed
	return nil
}

type saveRequest struct {
	AttemptID string `json:"attempt_id"`

	attemptID id.AttemptID
}

func (r *saveRequest) Validate() error {
	parsed, err := id.ParseAttemptID(r.AttemptID)
	if err != nil {
		return err
	}
	r.attemptID = parsed
	return nil
}

type identityData struct {
	VerifiedName      models.PersonName   `json:"verified_name"`
	ExtractedSurveyNo models.SurveyNumber `json:"extracted_survey_no"`
	LandStatus        string              `json:"land_status"`
	TotalArea         models.AreaText     `json:"total_area"`
	District          string              `json:"district"`
	ConfidenceScore   int                 `json:"confidence_score"`
	MatchStatus       models.MatchStatus  `json:"match_status"`
	LegalMarkers      models.LegalMarkers `json:"legal_markers"`
	// Token is the attempt id; later steps present it as attempt_id.
	Token string `json:"token"`
}

type identityResponse struct {
	Success      bool         `json:"success"`
	AttemptID    string       `json:"attempt_id"`
	Phase1Status string       `json:"phase1_status"`
	Data         identityData `json:"data"`
}

// outcomeResponse is the 400 body for a stage outcome that stopped the attempt.
type outcomeResponse struct {
	Success      bool   `json:"success"`
	AttemptID    string `json:"attempt_id"`
	Phase2Status string `json:"phase2_status,omitempty"`
	Error        string `json:"error"`
	Message      string `json:"message"`
	Details      string `json:"details,omitempty"`
	RiskLevel    string `json:"risk_level,omitempty"`
}

func identitySuccess(a *pipeline.Attempt) identityResponse {
	c := a.Stage1
	return identityResponse{
		Success:      true,
		AttemptID:    a.ID.String(),
		Phase1Status: "VERIFIED",
		Data: identityData{
			VerifiedName:      c.PurchaserName,
			ExtractedSurveyNo: c.SurveyNumber,
			LandStatus:        c.LandStatus,
			TotalArea:         c.TotalArea,
			District:          c.District,
			ConfidenceScore:   c.ConfidenceScore,
			MatchStatus:       c.MatchStatus,
			LegalMarkers:      c.LegalMarkers,
			Token:             a.ID.String(),
		},
	}
}

func identityMismatch(a *pipeline.Attempt) outcomeResponse {
	return outcomeResponse{
		AttemptID: a.ID.String(),
		Error:     "Identity mismatch",
		Message:   "The name on the Deed does not match your PAN Card.",
		Details:   a.Stage1.MatchExplanation,
	}
}

type landRecordResponse struct {
	Success     bool                `json:"success"`
	AttemptID   string              `json:"attempt_id"`
	FinalStatus models.RecordStatus `json:"final_status"`
	Data        landRecordData      `json:"data"`
}

type landRecordData struct {
	Matches        recordMatches    `json:"matches"`
	LandInfo       landInfo         `json:"land_info"`
	GeoTarget      models.GeoTarget `json:"geo_target"`
	MapData        mapData          `json:"map_data"`
	WarningMessage *string          `json:"warning_message"`
}

type recordMatches struct {
	NameMatched   bool `json:"name_matched"`
	SurveyMatched bool `json:"survey_matched"`
}

type landInfo struct {
	Classification models.LandClassification `json:"classification"`
	OfficialArea   models.AreaText           `json:"official_area"`
	IsSafe         bool                      `json:"is_safe"`
	AreaConsistent *bool                     `json:"area_consistent"`
}

// mapData coordinates stay null until the geofence resolves the place.
type mapData struct {
	Lat            *float64 `json:"lat"`
	Lng            *float64 `json:"lng"`
	DisplayAddress string   `json:"display_address"`
}

func landRecordSuccess(a *pipeline.Attempt) landRecordResponse {
	c := a.Stage2
	resp := landRecordResponse{
		Success:     true,
		AttemptID:   a.ID.String(),
		FinalStatus: c.Status,
		Data: landRecordData{
			Matches: recordMatches{NameMatched: c.NameMatched, SurveyMatched: c.SurveyMatched},
			LandInfo: landInfo{
				Classification: c.LandClassification,
				OfficialArea:   c.OfficialAreaText,
				IsSafe:         !c.IsGovernmentLand,
				AreaConsistent: c.AreaConsistent,
			},
			GeoTarget: c.GeoTarget,
			MapData:   mapData{DisplayAddress: c.GeoTarget.DisplayAddress()},
		},
	}
	if c.Status == models.RecordWarning {
		msg := c.RejectionReason
		resp.Data.WarningMessage = &msg
	}
	return resp
}

func landRecordRejection(a *pipeline.Attempt) outcomeResponse {
	c := a.Stage2
	resp := outcomeResponse{
		AttemptID:    a.ID.String(),
		Phase2Status: string(models.RecordRejected),
		Error:        "Verification failed",
		Message:      "The Patta record does not match the Deed information.",
	}
	if c.IsGovernmentLand {
		resp.Error = "Government Land Detected"
		resp.Message = c.RejectionReason
		resp.RiskLevel = "HIGH"
		return resp
	}
	if c.RejectionReason != "" {
		resp.Error = c.RejectionReason
		resp.Message = c.RejectionReason
	}
	return resp
}

type placeView struct {
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	HasBoundary bool    `json:"has_boundary"`
}

type geofenceResponse struct {
	Success       bool             `json:"success"`
	AttemptID     string           `json:"attempt_id"`
	Stage         pipeline.Stage   `json:"stage"`
	State         geofence.State   `json:"state"`
	NeedsOverride bool             `json:"needs_override"`
	Place         *placeView       `json:"place,omitempty"`
	Queries       []string         `json:"queries,omitempty"`
	RadiusKm      float64          `json:"radius_km"`
	Check         *geofence.Result `json:"check,omitempty"`
}

func geofenceView(res *service.GeofenceResult) geofenceResponse {
	a := res.Attempt
	resp := geofenceResponse{
		Success:   true,
		AttemptID: a.ID.String(),
		Stage:     a.Stage,
		RadiusKm:  res.RadiusKm,
		Check:     res.Check,
	}
	if g := a.Geofence; g != nil {
		resp.State = g.State
		resp.NeedsOverride = g.NeedsOverride()
		resp.Queries = g.Queries
		if g.Place != nil {
			resp.Place = &placeView{
				Name:        g.Place.Name,
				DisplayName: g.Place.DisplayName,
				Lat:         g.Place.Center.Lat,
				Lng:         g.Place.Center.Lng,
				HasBoundary: g.Place.Boundary != nil,
			}
		}
	}
	return resp
}

type siteVideoResponse struct {
	Success   bool                `json:"success"`
	AttemptID string              `json:"attempt_id"`
	Data      *models.Stage3Claim `json:"data"`
}

type saveResponse struct {
	Success        bool   `json:"success"`
	VerificationID string `json:"verificationId"`
	Created        bool   `json:"created"`
	Message        string `json:"message"`
}
