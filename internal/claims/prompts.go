package claims

import (
	"fmt"
	"strings"
)

const notProvided = "Not provided"

const identityPrompt = `You verify Indian land sale documents.

Two documents follow:
1. Identity proof: a PAN card image.
2. Sale deed: the property ownership document (PDF or image).

Tasks:
1. From the PAN card read the cardholder's full name and father's name.
2. From the sale deed read, as separate people:
   - the BUYER (sections titled Purchaser, Vendee or Buyer);
   - the SELLER (sections titled Seller, Vendor or Transferor).
   Never report the seller as the buyer.
   Also read the survey number (R.S. No, T.S. No or "Survey No" in the schedule of property),
   the district, the land status (Freehold, Private Land, Ancestral and so on) and the total
   area or extent exactly as printed (for example "2400 Sq. Ft" or "5 Cents").
3. Compare the PAN name with the deed buyer name. Treat initials, a missing middle name and
   small transliteration differences as compatible ("S. Kumar" and "Suresh Kumar").
   match_status is MATCHED, PARTIAL or MISMATCH. confidence_score is 0 to 100. Explain the
   decision in one sentence.
4. Look for the round Sub-Registrar seal. Describe it if found (position, text, ink colour).
   Report separately whether the deed is printed on stamp paper.

Answer with one JSON object and nothing else:
{
  "identity_verification": {
    "pan_name": "string",
    "pan_father_name": "string",
    "deed_buyer_name": "string",
    "match_status": "MATCHED | PARTIAL | MISMATCH",
    "fuzzy_match_explanation": "string",
    "confidence_score": 0
  },
  "legal_validity": {
    "sub_registrar_seal_found": false,
    "seal_description": "string",
    "stamp_paper_detected": false
  },
  "data_extraction": {
    "survey_number": "string",
    "district": "string",
    "seller_name": "string",
    "land_status": "string",
    "total_area": "string"
  },
  "overall_verdict": "APPROVED | REJECTED | NEEDS_REVIEW"
}`

// LandRecordInputs are the stage 1 facts the government record is checked against.
type LandRecordInputs struct {
	PurchaserName string
	SurveyNumber  string
	LandStatus    string
	TotalArea     string
}

func landRecordPrompt(in LandRecordInputs) string {
	var claimed strings.Builder
	fmt.Fprintf(&claimed, "- Claimed current owner (the purchaser): %q\n", in.PurchaserName)
	fmt.Fprintf(&claimed, "- Claimed survey number: %q\n", in.SurveyNumber)
	if in.LandStatus != "" {
		fmt.Fprintf(&claimed, "- Claimed land status: %q\n", in.LandStatus)
	}
	if in.TotalArea != "" {
		fmt.Fprintf(&claimed, "- Claimed total area: %q\n", in.TotalArea)
	}

	return `You audit Tamil Nadu government land records.

A Patta Chitta document follows (Tamil, English or both). Decide whether it records the
PURCHASER named below as the current owner. The purchaser bought the land from a seller;
do not compare against the seller.

Claimed facts from the sale deed:
` + claimed.String() + `
Checks:
1. name_match: does the current owner on the Patta match the claimed owner? Allow phonetic
   spellings (Ravi and Ravee) and initials. Copy the owner name as printed into record_owner_name.
2. survey_match: does the Patta list the claimed survey number? Copy the survey number as
   printed into record_survey_number.
3. classification: Nanjai means Wetland, Punjai or Manavari means Dryland, Manaivari or
   Natham means Housing. Use Unknown when none appears. Put every classification or ownership
   word you see, in its original spelling, into raw_markings.
4. is_government_land: true if the record says Sarkar, Poramboke, Government, Waqf, temple
   land or any other public ownership.
5. official_area_text: the extent exactly as printed (for example "0.40.50 Hectares").
6. geo_target: district (Mavattam), taluk (Vattam) and revenue village (Kiramam). If no
   village is printed use the taluk name as the village.
7. status: APPROVED when name and survey both match, WARNING when either does not,
   REJECTED for government land or an obviously invalid record. Give rejection_reason for
   WARNING and REJECTED.

Answer with one JSON object and nothing else:
{
  "status": "APPROVED | WARNING | REJECTED",
  "matches": {"name_match": false, "survey_match": false},
  "land_facts": {
    "classification": "Wetland | Dryland | Housing | Unknown",
    "is_government_land": false,
    "official_area_text": "string",
    "raw_markings": ["string"]
  },
  "geo_target": {
    "district_name": "string",
    "taluk_name": "string",
    "revenue_village_name": "string"
  },
  "record_owner_name": "string",
  "record_survey_number": "string",
  "rejection_reason": "string"
}`
}

// SiteContext carries verified facts from earlier stages into the video analysis.
type SiteContext struct {
	SurveyNumber   string
	OwnerName      string
	LandStatus     string
	RecordedArea   string
	Classification string
	Location       string
	RecordStatus   string
}

func orNotProvided(s string) string {
	if strings.TrimSpace(s) == "" {
		return notProvided
	}
	return s
}

func siteVideoPrompt(sc SiteContext) string {
	return `Analyse the attached walkthrough video of a land parcel in three parts.

1. Visual land assessment: terrain (flat, sloped, rocky), soil, vegetation, boundaries,
   visible infrastructure (poles, roads, buildings) and any water.
2. Audio assessment: listen only to the background audio. List distinct sounds (heavy
   honking, birds, highway drone), estimate traffic density (High, Moderate, Low, Nature,
   Industrial) and give a noise score from 1 (silent, rural) to 10 (noisy junction).
3. Site report: two or three professional paragraphs a buyer would read. The report must
   combine the verified identity and land record facts below with what the video shows,
   and point out where they agree or conflict.

Verified facts from the seller's documents:
- Survey Number: ` + orNotProvided(sc.SurveyNumber) + `
- Verified Owner: ` + orNotProvided(sc.OwnerName) + `
- Land Status: ` + orNotProvided(sc.LandStatus) + `
- Recorded Area: ` + orNotProvided(sc.RecordedArea) + `
- Land Classification: ` + orNotProvided(sc.Classification) + `
- Location: ` + orNotProvided(sc.Location) + `
- Land Record Check: ` + orNotProvided(sc.RecordStatus) + `

Answer with one JSON object and nothing else:
{
  "land_quality": {
    "topography": "string",
    "soil_type": "string",
    "vegetation": "string",
    "nearby_infrastructure": ["string"],
    "water_presence": "string",
    "boundary_clarity": "string"
  },
  "audio_analysis": {
    "detected_sounds": ["string"],
    "traffic_density": "string",
    "noise_pollution_score": 1,
    "environment_summary": "string"
  },
  "overall_verdict": "string",
  "suitability_score": 1,
  "recommendations": "string",
  "detailed_report": "string"
}`
}
