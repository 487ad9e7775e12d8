package claims

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landverify/internal/inference"
	dErrors "landverify/pkg/domain-errors"
)

type fakeGenerator struct {
	answer string
	err    error
	block  bool
	got    inference.GenerateRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req inference.GenerateRequest) (string, error) {
	f.got = req
	if f.block {
		<-ctx.Done()
		return "", inference.NewProviderError(inference.ErrorTimeout, "request deadline exceeded", ctx.Err())
	}
	return f.answer, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const identityAnswer = `Here is the verification:
{
  "identity_verification": {
    "pan_name": "RAVI KUMAR",
    "pan_father_name": "SURESH KUMAR",
    "deed_buyer_name": "R. Kumar",
    "match_status": "MATCHED",
    "fuzzy_match_explanation": "Initial R expands to Ravi.",
    "confidence_score": 88
  },
  "legal_validity": {
    "sub_registrar_seal_found": true,
    "seal_description": "Purple round seal, bottom right, SRO visible.",
    "stamp_paper_detected": true
  },
  "data_extraction": {
    "survey_number": "123/4B",
    "district": "Kancheepuram",
    "seller_name": "Lakshmi Narayanan",
    "land_status": "Freehold",
    "total_area": "2400 Sq. Ft"
  },
  "overall_verdict": "APPROVED"
}`

func TestExtractor_Identity(t *testing.T) {
	pan := Media{MIMEType: "image/jpeg", Data: []byte{1}}
	deed := Media{MIMEType: "application/pdf", Data: []byte{2}}

	t.Run("parses answer wrapped in prose", func(t *testing.T) {
		gen := &fakeGenerator{answer: identityAnswer}
		e := New(gen, discardLogger())

		out, err := e.Identity(context.Background(), pan, deed)
		require.NoError(t, err)
		assert.Equal(t, "RAVI KUMAR", out.Identity.PANName)
		assert.Equal(t, "R. Kumar", out.Identity.DeedBuyerName)
		assert.Equal(t, "Lakshmi Narayanan", out.Extraction.SellerName)
		assert.Equal(t, 88, out.Identity.ConfidenceScore)
		assert.True(t, out.Legal.SubRegistrarSealFound)

		parts := gen.got.Contents[0].Parts
		require.Len(t, parts, 3)
		assert.Contains(t, parts[0].Text, "Sub-Registrar")
		assert.Equal(t, "image/jpeg", parts[1].InlineData.MIMEType)
		assert.Equal(t, "application/pdf", parts[2].InlineData.MIMEType)
	})

	t.Run("lenient repair of drifted fields", func(t *testing.T) {
		drifted := strings.NewReplacer(
			`"match_status": "MATCHED"`, `"match_status": "partial"`,
			`"confidence_score": 88`, `"confidence_score": "120%"`,
			`"stamp_paper_detected": true`, `"stamp_paper_detected": "yes"`,
		).Replace(identityAnswer)
		reg := prometheus.NewRegistry()
		m := NewMetrics(reg)
		e := New(&fakeGenerator{answer: drifted}, discardLogger(), WithMetrics(m))

		out, err := e.Identity(context.Background(), pan, deed)
		require.NoError(t, err)
		assert.Equal(t, "PARTIAL", out.Identity.MatchStatus)
		assert.Equal(t, 100, out.Identity.ConfidenceScore)
		assert.True(t, out.Legal.StampPaperDetected)
		assert.Equal(t, 1.0, testutil.ToFloat64(m.Sanitized.WithLabelValues("identity")))
	})

	t.Run("missing required field is malformed", func(t *testing.T) {
		answer := `{"identity_verification": {"pan_name": "A"}, "legal_validity": {}, "data_extraction": {}}`
		e := New(&fakeGenerator{answer: answer}, discardLogger())

		_, err := e.Identity(context.Background(), pan, deed)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeExtraction))
	})

	t.Run("no json at all is malformed", func(t *testing.T) {
		e := New(&fakeGenerator{answer: "I cannot read this document."}, discardLogger())
		_, err := e.Identity(context.Background(), pan, deed)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestExtractor_ProviderErrors(t *testing.T) {
	media := Media{MIMEType: "image/png", Data: []byte{1}}
	tests := []struct {
		name string
		err  error
		want dErrors.Code
	}{
		{"outage", inference.NewProviderError(inference.ErrorProviderOutage, "circuit open", nil), dErrors.CodeUnavailable},
		{"rate limited", inference.NewProviderError(inference.ErrorRateLimited, "slow down", nil), dErrors.CodeUnavailable},
		{"bad data", inference.NewProviderError(inference.ErrorBadData, "prompt blocked", nil), dErrors.CodeExtraction},
		{"auth", inference.NewProviderError(inference.ErrorAuthentication, "bad key", nil), dErrors.CodeInternal},
		{"plain", errors.New("boom"), dErrors.CodeExtraction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(&fakeGenerator{err: tt.err}, discardLogger())
			_, err := e.LandRecord(context.Background(), LandRecordInputs{PurchaserName: "A", SurveyNumber: "1"}, media)
			assert.Equal(t, tt.want, dErrors.CodeOf(err))
		})
	}
}

func TestExtractor_Timeout(t *testing.T) {
	e := New(&fakeGenerator{block: true}, discardLogger(), WithTimeout(20*time.Millisecond))
	_, err := e.LandRecord(context.Background(), LandRecordInputs{PurchaserName: "A", SurveyNumber: "1"}, Media{MIMEType: "image/png"})
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeTimeout, dErrors.CodeOf(err))
}

func TestExtractor_LandRecord(t *testing.T) {
	answer := "```json\n" + `{
  "status": "approved",
  "matches": {"name_match": true, "survey_match": "true"},
  "land_facts": {
    "classification": "Dryland",
    "is_government_land": false,
    "official_area_text": "0.40.50 Hectares",
    "raw_markings": ["Punjai", "punjai", " Patta "]
  },
  "geo_target": {"district_name": "Kancheepuram", "taluk_name": "Sriperumbudur", "revenue_village_name": "Mambakkam"},
  "record_owner_name": "Ravi Kumar",
  "record_survey_number": "123/4B",
  "rejection_reason": null
}` + "\n```"
	gen := &fakeGenerator{answer: answer}
	e := New(gen, discardLogger())

	out, err := e.LandRecord(context.Background(), LandRecordInputs{
		PurchaserName: "Ravi Kumar",
		SurveyNumber:  "123/4B",
		TotalArea:     "1 acre",
	}, Media{MIMEType: "image/jpeg", Data: []byte{1}})
	require.NoError(t, err)
	assert.Equal(t, "APPROVED", out.Status)
	assert.True(t, out.Matches.SurveyMatch)
	assert.Equal(t, []string{"Punjai", "Patta"}, out.LandFacts.RawMarkings)
	assert.Equal(t, "Mambakkam", out.GeoTarget.RevenueVillageName)
	assert.Empty(t, out.RejectionReason)

	prompt := gen.got.Contents[0].Parts[0].Text
	assert.Contains(t, prompt, `"Ravi Kumar"`)
	assert.Contains(t, prompt, `Claimed total area: "1 acre"`)
	assert.NotContains(t, prompt, "Claimed land status")
}

func TestExtractor_SiteVideo(t *testing.T) {
	answer := `{
  "land_quality": {"topography": "Flat", "soil_type": "Red loam", "vegetation": "Sparse",
    "nearby_infrastructure": ["Electric pole", "electric pole", "Tar road"],
    "water_presence": "None visible", "boundary_clarity": "Fenced on two sides"},
  "audio_analysis": {"detected_sounds": ["Birds"], "traffic_density": "Low",
    "noise_pollution_score": 0, "environment_summary": "Quiet rural setting"},
  "overall_verdict": "Suitable",
  "suitability_score": 7.6,
  "recommendations": "Survey the unfenced sides.",
  "detailed_report": "The verified owner Ravi Kumar ..."
}`
	gen := &fakeGenerator{answer: answer}
	e := New(gen, discardLogger())

	out, err := e.SiteVideo(context.Background(), SiteContext{SurveyNumber: "123/4B"}, FileRef{MIMEType: "video/mp4", URI: "https://files/abc"})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Audio.NoisePollutionScore)
	assert.Equal(t, 8, out.SuitabilityScore)
	assert.Equal(t, []string{"Electric pole", "Tar road"}, out.LandQuality.NearbyInfrastructure)

	parts := gen.got.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "https://files/abc", parts[0].FileData.FileURI)
	assert.Contains(t, parts[1].Text, "Survey Number: 123/4B")
	assert.Contains(t, parts[1].Text, "Verified Owner: Not provided")
}
