// Package identity runs the first stage: the purchaser on the identity
// document must be the buyer named on the sale deed.
package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"landverify/internal/claims"
	"landverify/internal/verification/models"
)

// downgradedCeiling keeps a downgraded verdict inside the PARTIAL band.
const downgradedCeiling = 84

// Extractor reads both documents in one call.
type Extractor interface {
	Identity(ctx context.Context, identityDoc, deed claims.Media) (*claims.IdentityOutput, error)
}

type Matcher struct {
	extractor Extractor
	logger    *slog.Logger
}

func New(extractor Extractor, logger *slog.Logger) *Matcher {
	return &Matcher{extractor: extractor, logger: logger}
}

// Verify extracts and reconciles the stage 1 claim. A MISMATCH is a result,
// not an error: the caller halts the attempt.
func (m *Matcher) Verify(ctx context.Context, identityDoc, deed claims.Media) (*models.Stage1Claim, error) {
	out, err := m.extractor.Identity(ctx, identityDoc, deed)
	if err != nil {
		return nil, err
	}
	claim := Reconcile(out)
	m.logger.InfoContext(ctx, "identity.verified",
		"model_status", out.Identity.MatchStatus,
		"match_status", claim.MatchStatus,
		"confidence", claim.ConfidenceScore,
		"seal_found", claim.LegalMarkers.RegistrarSealFound,
		"stamp_paper", claim.LegalMarkers.StampPaperDetected,
	)
	return &claim, nil
}

// Reconcile builds the claim from the model's answer and checks its verdict
// against the local name comparator. The comparator can only lower a
// MATCHED verdict to PARTIAL, or stand in when the model gave no valid
// verdict; it never lifts a MISMATCH.
func Reconcile(out *claims.IdentityOutput) models.Stage1Claim {
	purchaser := models.PersonName(strings.TrimSpace(out.Identity.PANName))
	buyer := models.PersonName(strings.TrimSpace(out.Identity.DeedBuyerName))
	localStatus, localScore := purchaser.Compare(buyer)

	status, valid := models.ParseMatchStatus(out.Identity.MatchStatus)
	confidence := clampConfidence(out.Identity.ConfidenceScore)
	explanation := strings.TrimSpace(out.Identity.FuzzyMatchExplanation)

	switch {
	case !valid:
		status = localStatus
		confidence = localScore
		explanation = fmt.Sprintf("Name comparison scored %d.", localScore)
	case status == models.MatchMatched && localStatus == models.MatchMismatch:
		status = models.MatchPartial
		confidence = min(confidence, downgradedCeiling)
		explanation = strings.TrimSpace(explanation + fmt.Sprintf(" Name comparison scored %d; treated as a partial match.", localScore))
	}

	return models.Stage1Claim{
		PurchaserName:       purchaser,
		PurchaserFatherName: strings.TrimSpace(out.Identity.PANFatherName),
		DeedBuyerName:       buyer,
		DeedSellerName:      models.PersonName(strings.TrimSpace(out.Extraction.SellerName)),
		MatchStatus:         status,
		ConfidenceScore:     confidence,
		MatchExplanation:    explanation,
		SurveyNumber:        models.SurveyNumber(strings.TrimSpace(out.Extraction.SurveyNumber)),
		District:            strings.TrimSpace(out.Extraction.District),
		LandStatus:          strings.TrimSpace(out.Extraction.LandStatus),
		TotalArea:           models.AreaText(strings.TrimSpace(out.Extraction.TotalArea)),
		LegalMarkers: models.LegalMarkers{
			RegistrarSealFound: out.Legal.SubRegistrarSealFound,
			SealDescription:    strings.TrimSpace(out.Legal.SealDescription),
			StampPaperDetected: out.Legal.StampPaperDetected,
		},
		OverallVerdict: strings.TrimSpace(out.OverallVerdict),
	}
}

func clampConfidence(v int) int { return max(0, min(100, v)) }
