package landrecord

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landverify/internal/claims"
	"landverify/internal/verification/models"
	"landverify/pkg/testutil"
)

var stage1 = Input{
	PurchaserName: "Ravi Kumar",
	SurveyNumber:  "S.F. No. 123/4B",
	LandStatus:    "Patta land",
	TotalArea:     "1 acre",
}

type recordOpts struct {
	status         string
	nameMatch      bool
	surveyMatch    bool
	classification string
	government     bool
	markings       []string
	owner          string
	survey         string
	area           string
	reason         string
}

func record(t *testing.T, o recordOpts) *claims.LandRecordOutput {
	t.Helper()
	if o.markings == nil {
		o.markings = []string{}
	}
	raw := map[string]any{
		"status":  o.status,
		"matches": map[string]any{"name_match": o.nameMatch, "survey_match": o.surveyMatch},
		"land_facts": map[string]any{
			"classification":     o.classification,
			"is_government_land": o.government,
			"official_area_text": o.area,
			"raw_markings":       o.markings,
		},
		"geo_target": map[string]any{
			"district_name":        "Kancheepuram",
			"taluk_name":           "Sriperumbudur",
			"revenue_village_name": "",
		},
		"record_owner_name":    o.owner,
		"record_survey_number": o.survey,
		"rejection_reason":     o.reason,
	}
	b, err := json.Marshal(raw)
	require.NoError(t, err)
	var out claims.LandRecordOutput
	require.NoError(t, json.Unmarshal(b, &out))
	return &out
}

func TestEvaluate_GovernmentLandAlwaysRejected(t *testing.T) {
	testutil.Given(t, "a record whose names and survey number all match", func(t *testing.T) {
		base := recordOpts{
			status: "APPROVED", nameMatch: true, surveyMatch: true,
			owner: "Ravi Kumar", survey: "123/4B", classification: "Dryland",
		}

		testutil.When(t, "the markings include Poramboke", func(t *testing.T) {
			o := base
			o.markings = []string{"Punjai", "Poramboke"}
			claim := Evaluate(stage1, record(t, o))

			testutil.Then(t, "the record is rejected as government land", func(t *testing.T) {
				assert.Equal(t, models.RecordRejected, claim.Status)
				assert.True(t, claim.IsGovernmentLand)
				assert.Equal(t, "poramboke", claim.GovernmentMarker)
				assert.Equal(t, GovernmentLandReason, claim.RejectionReason)
				assert.True(t, claim.NameMatched)
				assert.True(t, claim.SurveyMatched)
				assert.True(t, claim.Halts())
			})
		})

		testutil.When(t, "only the model flags public ownership", func(t *testing.T) {
			o := base
			o.government = true
			claim := Evaluate(stage1, record(t, o))

			testutil.Then(t, "the flag alone rejects it", func(t *testing.T) {
				assert.Equal(t, models.RecordRejected, claim.Status)
				assert.Equal(t, GovernmentLandReason, claim.RejectionReason)
			})
		})

		for _, marker := range []string{"Sarkar", "Govt. Land", "Temple land", "Waqf Board", "Anadheenam"} {
			testutil.When(t, "the markings include "+marker, func(t *testing.T) {
				o := base
				o.markings = []string{marker}
				claim := Evaluate(stage1, record(t, o))
				testutil.Then(t, "it is rejected", func(t *testing.T) {
					assert.Equal(t, models.RecordRejected, claim.Status)
					assert.True(t, claim.IsGovernmentLand)
				})
			})
		}
	})
}

func TestEvaluate_PrivateLandWithIssuerMarkings(t *testing.T) {
	testutil.Given(t, "a private patta the model approves", func(t *testing.T) {
		base := recordOpts{
			status: "APPROVED", nameMatch: true, surveyMatch: true,
			owner: "Ravi Kumar", survey: "123/4B", classification: "Dryland",
		}

		for _, markings := range [][]string{
			{"Government of Tamil Nadu", "Patta", "Punjai"},
			{"Non-Government", "Punjai"},
			{"Not Govt. Land"},
			{"Near temple", "Manavari"},
		} {
			testutil.When(t, "the markings read "+strings.Join(markings, ", "), func(t *testing.T) {
				o := base
				o.markings = markings
				claim := Evaluate(stage1, record(t, o))

				testutil.Then(t, "it is not treated as government land", func(t *testing.T) {
					assert.Equal(t, models.RecordApproved, claim.Status)
					assert.False(t, claim.IsGovernmentLand)
					assert.Empty(t, claim.GovernmentMarker)
					assert.False(t, claim.Halts())
				})
			})
		}
	})
}

func TestGovernmentMarker(t *testing.T) {
	tests := []struct {
		text   string
		marker string
		found  bool
	}{
		{"Government Poramboke", "government poramboke", true},
		{"Classified as Government Land", "government land", true},
		{"Devasthanam", "devasthanam", true},
		{"Government of Tamil Nadu, Revenue Department", "", false},
		{"Non-Government", "", false},
		{"Not poramboke", "", false},
		{"Punjai", "", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			marker, found := GovernmentMarker(tc.text)
			assert.Equal(t, tc.found, found)
			assert.Equal(t, tc.marker, marker)
		})
	}
}

func TestEvaluate_MatchesAreRederived(t *testing.T) {
	t.Run("record values override model booleans", func(t *testing.T) {
		claim := Evaluate(stage1, record(t, recordOpts{
			status: "APPROVED", nameMatch: true, surveyMatch: true,
			owner: "Senthil Murugan", survey: "123/4B",
		}))
		assert.False(t, claim.NameMatched)
		assert.True(t, claim.SurveyMatched)
		assert.Equal(t, models.RecordWarning, claim.Status)
		assert.Equal(t, "The owner name on the record does not match the purchaser.", claim.RejectionReason)
		assert.False(t, claim.Halts())
	})

	t.Run("initials and subdivision letters still match", func(t *testing.T) {
		claim := Evaluate(stage1, record(t, recordOpts{
			status: "WARNING", owner: "R. Kumar", survey: "S.No. 123/4",
		}))
		assert.True(t, claim.NameMatched)
		assert.True(t, claim.SurveyMatched)
		assert.Equal(t, models.RecordApproved, claim.Status)
		assert.Empty(t, claim.RejectionReason)
	})

	t.Run("model booleans used when values were not copied", func(t *testing.T) {
		claim := Evaluate(stage1, record(t, recordOpts{status: "WARNING", nameMatch: true, surveyMatch: false, reason: "Survey 124 listed"}))
		assert.True(t, claim.NameMatched)
		assert.False(t, claim.SurveyMatched)
		assert.Equal(t, models.RecordWarning, claim.Status)
		assert.Equal(t, "Survey 124 listed", claim.RejectionReason)
	})

	t.Run("explicit rejection stands", func(t *testing.T) {
		claim := Evaluate(stage1, record(t, recordOpts{status: "rejected", owner: "Ravi Kumar", survey: "123/4B"}))
		assert.Equal(t, models.RecordRejected, claim.Status)
		assert.False(t, claim.IsGovernmentLand)
		assert.Equal(t, defaultRejectionReason, claim.RejectionReason)
	})
}

func TestEvaluate_AreaConsistency(t *testing.T) {
	claim := Evaluate(stage1, record(t, recordOpts{status: "APPROVED", nameMatch: true, surveyMatch: true, area: "100 cents"}))
	require.NotNil(t, claim.AreaConsistent)
	assert.True(t, *claim.AreaConsistent)
	assert.Equal(t, models.RecordApproved, claim.Status)

	claim = Evaluate(stage1, record(t, recordOpts{status: "APPROVED", nameMatch: true, surveyMatch: true, area: "2 acres"}))
	require.NotNil(t, claim.AreaConsistent)
	assert.False(t, *claim.AreaConsistent)
	assert.Equal(t, models.RecordApproved, claim.Status, "area never changes the status")

	claim = Evaluate(stage1, record(t, recordOpts{status: "APPROVED", nameMatch: true, surveyMatch: true, area: "unclear"}))
	assert.Nil(t, claim.AreaConsistent)
}

func TestEvaluate_GeoTargetFallsBackToTaluk(t *testing.T) {
	claim := Evaluate(stage1, record(t, recordOpts{status: "APPROVED"}))
	assert.Equal(t, "Sriperumbudur", claim.GeoTarget.Village())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		texts []string
		want  models.LandClassification
	}{
		{[]string{"Nanjai"}, models.LandWetland},
		{[]string{"NANJAI (wet)"}, models.LandWetland},
		{[]string{"Punjai"}, models.LandDryland},
		{[]string{"Manavari"}, models.LandDryland},
		{[]string{"Manaivari"}, models.LandHousing},
		{[]string{"Natham"}, models.LandHousing},
		{[]string{"approved house site"}, models.LandHousing},
		{[]string{"Sarkar", "Residential"}, models.LandHousing},
		{[]string{"", "Wetland"}, models.LandWetland},
		{[]string{"Punjai", "Wetland"}, models.LandDryland},
		{[]string{"Kadu"}, models.LandUnknown},
		{nil, models.LandUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.texts...), "%v", tt.texts)
	}
}

type stubExtractor struct {
	gotInputs claims.LandRecordInputs
	out       *claims.LandRecordOutput
}

func (s *stubExtractor) LandRecord(_ context.Context, in claims.LandRecordInputs, _ claims.Media) (*claims.LandRecordOutput, error) {
	s.gotInputs = in
	return s.out, nil
}

func TestValidator_ForwardsStage1Facts(t *testing.T) {
	ext := &stubExtractor{out: record(t, recordOpts{status: "APPROVED", owner: "Ravi Kumar", survey: "123/4B"})}
	v := New(ext, slog.New(slog.NewTextHandler(io.Discard, nil)))

	claim, err := v.Validate(context.Background(), stage1, claims.Media{MIMEType: "application/pdf", Data: []byte("%PDF")})
	require.NoError(t, err)
	assert.Equal(t, models.RecordApproved, claim.Status)
	assert.Equal(t, claims.LandRecordInputs{
		PurchaserName: "Ravi Kumar",
		SurveyNumber:  "S.F. No. 123/4B",
		LandStatus:    "Patta land",
		TotalArea:     "1 acre",
	}, ext.gotInputs)
}
