// Package models holds the claim types produced by the verification stages
// and the fuzzy comparators used to cross-check them.
package models

import "strings"

// MatchStatus grades how well two names correspond.
type MatchStatus string

const (
	MatchMatched  MatchStatus = "MATCHED"
	MatchPartial  MatchStatus = "PARTIAL"
	MatchMismatch MatchStatus = "MISMATCH"
)

// ParseMatchStatus returns ok=false for anything outside the three grades.
func ParseMatchStatus(s string) (MatchStatus, bool) {
	switch m := MatchStatus(strings.ToUpper(strings.TrimSpace(s))); m {
	case MatchMatched, MatchPartial, MatchMismatch:
		return m, true
	default:
		return "", false
	}
}

// LegalMarkers are the deed's visual validity markers.
type LegalMarkers struct {
	RegistrarSealFound bool   `json:"registrar_seal_found"`
	SealDescription    string `json:"seal_description"`
	StampPaperDetected bool   `json:"stamp_paper_detected"`
}

// Stage1Claim is the identity and deed result.
type Stage1Claim struct {
	PurchaserName       PersonName   `json:"purchaser_name"`
	PurchaserFatherName string       `json:"purchaser_father_name,omitempty"`
	DeedBuyerName       PersonName   `json:"deed_buyer_name"`
	DeedSellerName      PersonName   `json:"deed_seller_name"`
	MatchStatus         MatchStatus  `json:"match_status"`
	ConfidenceScore     int          `json:"confidence_score"`
	MatchExplanation    string       `json:"match_explanation"`
	SurveyNumber        SurveyNumber `json:"survey_number"`
	District            string       `json:"district"`
	LandStatus          string       `json:"land_status"`
	TotalArea           AreaText     `json:"total_area"`
	LegalMarkers        LegalMarkers `json:"legal_markers"`
	OverallVerdict      string       `json:"overall_verdict,omitempty"`
}

// Halts reports whether the identity result stops the pipeline.
func (c Stage1Claim) Halts() bool { return c.MatchStatus == MatchMismatch }

// LandClassification is the land-use category on the government record.
type LandClassification string

const (
	LandWetland LandClassification = "Wetland"
	LandDryland LandClassification = "Dryland"
	LandHousing LandClassification = "Housing"
	LandUnknown LandClassification = "Unknown"
)

// RecordStatus is the land record outcome.
type RecordStatus string

const (
	RecordApproved RecordStatus = "APPROVED"
	RecordWarning  RecordStatus = "WARNING"
	RecordRejected RecordStatus = "REJECTED"
)

// GeoTarget names the place the geofence resolves.
type GeoTarget struct {
	DistrictName       string `json:"district_name"`
	TalukName          string `json:"taluk_name"`
	RevenueVillageName string `json:"revenue_village_name"`
}

// Village returns the revenue village, falling back to the taluk.
func (g GeoTarget) Village() string {
	if v := strings.TrimSpace(g.RevenueVillageName); v != "" {
		return v
	}
	return strings.TrimSpace(g.TalukName)
}

// DisplayAddress joins village, taluk and district.
func (g GeoTarget) DisplayAddress() string {
	return g.Village() + ", " + g.TalukName + ", " + g.DistrictName
}

// Stage2Claim is the government land record result.
type Stage2Claim struct {
	NameMatched        bool               `json:"name_matched"`
	SurveyMatched      bool               `json:"survey_matched"`
	RecordOwnerName    PersonName         `json:"record_owner_name,omitempty"`
	RecordSurveyNumber SurveyNumber       `json:"record_survey_number,omitempty"`
	LandClassification LandClassification `json:"land_classification"`
	IsGovernmentLand   bool               `json:"is_government_land"`
	GovernmentMarker   string             `json:"government_marker,omitempty"`
	OfficialAreaText   AreaText           `json:"official_area_text"`
	// AreaConsistent is nil when either extent could not be read.
	AreaConsistent  *bool        `json:"area_consistent,omitempty"`
	GeoTarget       GeoTarget    `json:"geo_target"`
	Status          RecordStatus `json:"status"`
	RejectionReason string       `json:"rejection_reason,omitempty"`
}

// Halts reports whether the land record result stops the pipeline.
func (c Stage2Claim) Halts() bool { return c.Status == RecordRejected }

// LandQuality is the visual assessment of the site.
type LandQuality struct {
	Topography           string   `json:"topography"`
	SoilType             string   `json:"soil_type"`
	Vegetation           string   `json:"vegetation"`
	NearbyInfrastructure []string `json:"nearby_infrastructure"`
	WaterPresence        string   `json:"water_presence"`
	BoundaryClarity      string   `json:"boundary_clarity"`
}

// AudioAnalysis is the background-audio assessment of the site.
type AudioAnalysis struct {
	DetectedSounds      []string `json:"detected_sounds"`
	TrafficDensity      string   `json:"traffic_density"`
	NoisePollutionScore int      `json:"noise_pollution_score"`
	EnvironmentSummary  string   `json:"environment_summary"`
}

// Stage3Claim is the site video result.
type Stage3Claim struct {
	LandQuality      LandQuality   `json:"land_quality"`
	Audio            AudioAnalysis `json:"audio_analysis"`
	SuitabilityScore int           `json:"suitability_score"`
	Recommendations  string        `json:"recommendations"`
	DetailedReport   string        `json:"detailed_report"`
	OverallVerdict   string        `json:"overall_verdict"`
}

// ClampScore bounds a 1 to 10 score.
func ClampScore(v int) int { return max(1, min(10, v)) }
