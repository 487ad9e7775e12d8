// Package claims turns documents and video into typed claims by prompting the
// inference service and validating its JSON answer.
package claims

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"landverify/internal/inference"
	dErrors "landverify/pkg/domain-errors"
)

// ErrMalformedResponse means the answer held no JSON object matching the
// stage's schema, even after lenient repair.
var ErrMalformedResponse = errors.New("malformed response")

// Generator is the inference capability the extractor needs.
type Generator interface {
	Generate(ctx context.Context, req inference.GenerateRequest) (string, error)
}

// FileRef points at media already uploaded to the inference service.
type FileRef struct {
	MIMEType string
	URI      string
}

type task struct {
	stage  string
	schema *jsonschema.Schema
	rules  sanitizeRules
}

var (
	identityTask = &task{
		stage:  "identity",
		schema: mustCompile("identity.json", identitySchema()),
		rules: sanitizeRules{
			scores: []scoreField{{at: path{"identity_verification", "confidence_score"}, lo: 0, hi: 100}},
			bools: []path{
				{"legal_validity", "sub_registrar_seal_found"},
				{"legal_validity", "stamp_paper_detected"},
			},
			enums: []path{{"identity_verification", "match_status"}, {"overall_verdict"}},
		},
	}
	landRecordTask = &task{
		stage:  "land_record",
		schema: mustCompile("land_record.json", landRecordSchema()),
		rules: sanitizeRules{
			bools: []path{
				{"matches", "name_match"},
				{"matches", "survey_match"},
				{"land_facts", "is_government_land"},
			},
			enums: []path{{"status"}},
			lists: []path{{"land_facts", "raw_markings"}},
		},
	}
	siteVideoTask = &task{
		stage:  "site_video",
		schema: mustCompile("site_video.json", siteVideoSchema()),
		rules: sanitizeRules{
			scores: []scoreField{
				{at: path{"audio_analysis", "noise_pollution_score"}, lo: 1, hi: 10},
				{at: path{"suitability_score"}, lo: 1, hi: 10},
			},
			lists: []path{
				{"land_quality", "nearby_infrastructure"},
				{"audio_analysis", "detected_sounds"},
			},
		},
	}
)

// Extractor is safe for concurrent use.
type Extractor struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
	metrics *Metrics
}

type Option func(*Extractor)

// WithTimeout bounds every extraction call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) { e.timeout = d }
}

func WithMetrics(m *Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

func New(gen Generator, logger *slog.Logger, opts ...Option) *Extractor {
	e := &Extractor{gen: gen, logger: logger, timeout: 90 * time.Second}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Identity reads the identity document and the deed.
func (e *Extractor) Identity(ctx context.Context, identityDoc, deed Media) (*IdentityOutput, error) {
	var out IdentityOutput
	parts := []inference.Part{
		inference.TextPart(identityPrompt),
		inference.InlinePart(identityDoc.MIMEType, identityDoc.Data),
		inference.InlinePart(deed.MIMEType, deed.Data),
	}
	if err := e.extract(ctx, identityTask, parts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LandRecord reads the government land record against the stage 1 facts.
func (e *Extractor) LandRecord(ctx context.Context, in LandRecordInputs, record Media) (*LandRecordOutput, error) {
	var out LandRecordOutput
	parts := []inference.Part{
		inference.TextPart(landRecordPrompt(in)),
		inference.InlinePart(record.MIMEType, record.Data),
	}
	if err := e.extract(ctx, landRecordTask, parts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SiteVideo analyses an uploaded video in the context of the verified facts.
func (e *Extractor) SiteVideo(ctx context.Context, sc SiteContext, video FileRef) (*SiteVideoOutput, error) {
	var out SiteVideoOutput
	parts := []inference.Part{
		inference.FilePart(video.MIMEType, video.URI),
		inference.TextPart(siteVideoPrompt(sc)),
	}
	if err := e.extract(ctx, siteVideoTask, parts, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (e *Extractor) extract(ctx context.Context, t *task, parts []inference.Part, out any) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	start := time.Now()

	text, err := e.gen.Generate(ctx, inference.NewUserRequest(parts...))
	if err != nil {
		e.metrics.observe(t.stage, "provider_error", time.Since(start))
		e.logger.ErrorContext(ctx, "claims.extract.provider_error",
			"stage", t.stage,
			"category", string(inference.GetCategory(err)),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return translateProviderError(err)
	}

	cleaned, err := e.decode(ctx, t, text)
	if err != nil {
		e.metrics.observe(t.stage, "malformed", time.Since(start))
		e.logger.ErrorContext(ctx, "claims.extract.malformed",
			"stage", t.stage,
			"error", err,
			"answer_bytes", len(text),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return dErrors.Wrap(err, dErrors.CodeExtraction, "could not read the analysis result, please resubmit")
	}
	if err := json.Unmarshal(cleaned, out); err != nil {
		e.metrics.observe(t.stage, "malformed", time.Since(start))
		return dErrors.Wrap(fmt.Errorf("%w: %v", ErrMalformedResponse, err), dErrors.CodeExtraction, "could not read the analysis result, please resubmit")
	}

	e.metrics.observe(t.stage, "ok", time.Since(start))
	e.logger.InfoContext(ctx, "claims.extract.ok",
		"stage", t.stage,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// decode locates the answer object, validates it and applies lenient repair
// when strict validation fails.
func (e *Extractor) decode(ctx context.Context, t *task, text string) ([]byte, error) {
	raw, ok := FirstObject(text)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in answer", ErrMalformedResponse)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	strictErr := t.schema.Validate(doc)
	changed := t.rules.sanitize(doc)
	if strictErr != nil {
		if err := t.schema.Validate(doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		e.metrics.incSanitized(t.stage)
		e.logger.WarnContext(ctx, "claims.extract.lenient_sanitize_applied",
			"stage", t.stage,
			"changed", changed,
		)
	}

	cleaned, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return cleaned, nil
}

func translateProviderError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "document analysis timed out, please try again")
	}
	switch inference.GetCategory(err) {
	case inference.ErrorTimeout:
		return dErrors.Wrap(err, dErrors.CodeTimeout, "document analysis timed out, please try again")
	case inference.ErrorRateLimited, inference.ErrorProviderOutage:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "analysis service is busy, please try again shortly")
	case inference.ErrorAuthentication:
		return dErrors.Wrap(err, dErrors.CodeInternal, "analysis service misconfigured")
	default:
		return dErrors.Wrap(err, dErrors.CodeExtraction, "document analysis failed")
	}
}
