// Package landrecord runs the second stage: the government land record is
// checked against the identity stage and screened for public ownership.
package landrecord

import (
	"context"
	"log/slog"
	"strings"

	"landverify/internal/claims"
	"landverify/internal/verification/models"
)

// Extractor reads a government land record.
type Extractor interface {
	LandRecord(ctx context.Context, in claims.LandRecordInputs, record claims.Media) (*claims.LandRecordOutput, error)
}

// Input is what the land record is checked against.
type Input struct {
	PurchaserName models.PersonName
	SurveyNumber  models.SurveyNumber
	LandStatus    string
	TotalArea     models.AreaText
}

type Validator struct {
	extractor Extractor
	logger    *slog.Logger
}

func New(extractor Extractor, logger *slog.Logger) *Validator {
	return &Validator{extractor: extractor, logger: logger}
}

// Validate extracts and evaluates the stage 2 claim. REJECTED is a result,
// not an error.
func (v *Validator) Validate(ctx context.Context, in Input, record claims.Media) (*models.Stage2Claim, error) {
	out, err := v.extractor.LandRecord(ctx, claims.LandRecordInputs{
		PurchaserName: string(in.PurchaserName),
		SurveyNumber:  string(in.SurveyNumber),
		LandStatus:    in.LandStatus,
		TotalArea:     string(in.TotalArea),
	}, record)
	if err != nil {
		return nil, err
	}

	claim := Evaluate(in, out)
	v.logger.InfoContext(ctx, "landrecord.evaluated",
		"model_status", out.Status,
		"status", claim.Status,
		"name_matched", claim.NameMatched,
		"survey_matched", claim.SurveyMatched,
		"classification", claim.LandClassification,
		"government_land", claim.IsGovernmentLand,
	)
	return &claim, nil
}

// Evaluate applies the land record rules to the model's answer:
//
//  1. name and survey matches are re-derived from the record's own values
//     when the model copied them out, else the model's booleans stand
//  2. any public-ownership marker, or the model's flag, rejects the record
//  3. an explicit model rejection stands
//  4. otherwise APPROVED when both match, WARNING when either does not
func Evaluate(in Input, out *claims.LandRecordOutput) models.Stage2Claim {
	markings := append([]string(nil), out.LandFacts.RawMarkings...)

	claim := models.Stage2Claim{
		NameMatched:        out.Matches.NameMatch,
		SurveyMatched:      out.Matches.SurveyMatch,
		RecordOwnerName:    models.PersonName(strings.TrimSpace(out.RecordOwnerName)),
		RecordSurveyNumber: models.SurveyNumber(strings.TrimSpace(out.RecordSurveyNumber)),
		LandClassification: Classify(append(markings, out.LandFacts.Classification)...),
		OfficialAreaText:   models.AreaText(strings.TrimSpace(out.LandFacts.OfficialAreaText)),
		GeoTarget: models.GeoTarget{
			DistrictName:       strings.TrimSpace(out.GeoTarget.DistrictName),
			TalukName:          strings.TrimSpace(out.GeoTarget.TalukName),
			RevenueVillageName: strings.TrimSpace(out.GeoTarget.RevenueVillageName),
		},
	}

	if !claim.RecordOwnerName.IsZero() && !in.PurchaserName.IsZero() {
		claim.NameMatched = in.PurchaserName.Matches(claim.RecordOwnerName)
	}
	if claim.RecordSurveyNumber.Normalize() != "" && in.SurveyNumber.Normalize() != "" {
		claim.SurveyMatched = in.SurveyNumber.Matches(claim.RecordSurveyNumber)
	}
	if consistent, ok := in.TotalArea.ConsistentWith(claim.OfficialAreaText); ok {
		claim.AreaConsistent = &consistent
	}

	marker, public := GovernmentMarker(append(markings, out.LandFacts.Classification)...)
	reason := strings.TrimSpace(out.RejectionReason)

	switch {
	case public || out.LandFacts.IsGovernmentLand:
		claim.IsGovernmentLand = true
		claim.GovernmentMarker = marker
		claim.Status = models.RecordRejected
		claim.RejectionReason = GovernmentLandReason
	case strings.EqualFold(strings.TrimSpace(out.Status), string(models.RecordRejected)):
		claim.Status = models.RecordRejected
		claim.RejectionReason = reason
		if claim.RejectionReason == "" {
			claim.RejectionReason = defaultRejectionReason
		}
	case claim.NameMatched && claim.SurveyMatched:
		claim.Status = models.RecordApproved
	default:
		claim.Status = models.RecordWarning
		claim.RejectionReason = warningReason(claim, reason)
	}
	return claim
}

func warningReason(c models.Stage2Claim, modelReason string) string {
	if modelReason != "" {
		return modelReason
	}
	switch {
	case !c.NameMatched && !c.SurveyMatched:
		return "The owner name and survey number on the record do not match the deed."
	case !c.NameMatched:
		return "The owner name on the record does not match the purchaser."
	default:
		return "The survey number on the record does not match the deed."
	}
}
