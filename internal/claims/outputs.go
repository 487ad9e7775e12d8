package claims

// IdentityOutput is the stage 1 answer: identity document versus deed.
type IdentityOutput struct {
	Identity struct {
		PANName               string `json:"pan_name"`
		PANFatherName         string `json:"pan_father_name"`
		DeedBuyerName         string `json:"deed_buyer_name"`
		MatchStatus           string `json:"match_status"`
		FuzzyMatchExplanation string `json:"fuzzy_match_explanation"`
		ConfidenceScore       int    `json:"confidence_score"`
	} `json:"identity_verification"`
	Legal struct {
		SubRegistrarSealFound bool   `json:"sub_registrar_seal_found"`
		SealDescription       string `json:"seal_description"`
		StampPaperDetected    bool   `json:"stamp_paper_detected"`
	} `json:"legal_validity"`
	Extraction struct {
		SurveyNumber string `json:"survey_number"`
		District     string `json:"district"`
		SellerName   string `json:"seller_name"`
		LandStatus   string `json:"land_status"`
		TotalArea    string `json:"total_area"`
	} `json:"data_extraction"`
	OverallVerdict string `json:"overall_verdict"`
}

// LandRecordOutput is the stage 2 answer for a government land record.
type LandRecordOutput struct {
	Status  string `json:"status"`
	Matches struct {
		NameMatch   bool `json:"name_match"`
		SurveyMatch bool `json:"survey_match"`
	} `json:"matches"`
	LandFacts struct {
		Classification   string `json:"classification"`
		IsGovernmentLand bool   `json:"is_government_land"`
		OfficialAreaText string `json:"official_area_text"`
		// RawMarkings carries classification and ownership words as printed.
		RawMarkings []string `json:"raw_markings"`
	} `json:"land_facts"`
	GeoTarget struct {
		DistrictName       string `json:"district_name"`
		TalukName          string `json:"taluk_name"`
		RevenueVillageName string `json:"revenue_village_name"`
	} `json:"geo_target"`
	RecordOwnerName    string `json:"record_owner_name"`
	RecordSurveyNumber string `json:"record_survey_number"`
	RejectionReason    string `json:"rejection_reason"`
}

// SiteVideoOutput is the stage 3 answer for a site walkthrough video.
type SiteVideoOutput struct {
	LandQuality struct {
		Topography           string   `json:"topography"`
		SoilType             string   `json:"soil_type"`
		Vegetation           string   `json:"vegetation"`
		NearbyInfrastructure []string `json:"nearby_infrastructure"`
		WaterPresence        string   `json:"water_presence"`
		BoundaryClarity      string   `json:"boundary_clarity"`
	} `json:"land_quality"`
	Audio struct {
		DetectedSounds      []string `json:"detected_sounds"`
		TrafficDensity      string   `json:"traffic_density"`
		NoisePollutionScore int      `json:"noise_pollution_score"`
		EnvironmentSummary  string   `json:"environment_summary"`
	} `json:"audio_analysis"`
	OverallVerdict   string `json:"overall_verdict"`
	SuitabilityScore int    `json:"suitability_score"`
	Recommendations  string `json:"recommendations"`
	DetailedReport   string `json:"detailed_report"`
}
