// Package sitevideo runs the third stage: a walkthrough video is uploaded to
// the inference service, waited on until processed, and analyzed together
// with the facts verified by the earlier stages.
package sitevideo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"strings"
	"time"

	"landverify/internal/claims"
	"landverify/internal/inference"
	"landverify/internal/verification/models"
	dErrors "landverify/pkg/domain-errors"
)

const (
	MaxVideoBytes       = 100 << 20
	DefaultPollInterval = 2 * time.Second
	DefaultMaxPolls     = 30

	deleteTimeout = 10 * time.Second
)

var videoExtensions = map[string]string{
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
	"video/x-msvideo": ".avi",
}

// Files is the asynchronous file channel of the inference service.
type Files interface {
	UploadFile(ctx context.Context, r io.ReadSeeker, size int64, mimeType, displayName string) (*inference.File, error)
	GetFile(ctx context.Context, name string) (*inference.File, error)
	DeleteFile(ctx context.Context, name string) error
}

// Extractor analyzes an uploaded video.
type Extractor interface {
	SiteVideo(ctx context.Context, sc claims.SiteContext, video claims.FileRef) (*claims.SiteVideoOutput, error)
}

// Video is an incoming upload. Size is the declared size; the body is still
// capped while it is copied.
type Video struct {
	MIMEType string
	Size     int64
	Body     io.Reader
}

// PollObserver is told how many status polls an upload needed.
type PollObserver interface {
	ObserveVideoPolls(outcome string, polls int)
}

type Analyzer struct {
	files        Files
	extractor    Extractor
	logger       *slog.Logger
	observer     PollObserver
	tempDir      string
	pollInterval time.Duration
	maxPolls     int
	maxBytes     int64
}

type Option func(*Analyzer)

// WithTempDir sets where uploads are staged. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(a *Analyzer) { a.tempDir = dir }
}

func WithPolling(interval time.Duration, maxPolls int) Option {
	return func(a *Analyzer) {
		if interval > 0 {
			a.pollInterval = interval
		}
		if maxPolls > 0 {
			a.maxPolls = maxPolls
		}
	}
}

func WithPollObserver(o PollObserver) Option {
	return func(a *Analyzer) { a.observer = o }
}

func New(files Files, extractor Extractor, logger *slog.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		files:        files,
		extractor:    extractor,
		logger:       logger,
		pollInterval: DefaultPollInterval,
		maxPolls:     DefaultMaxPolls,
		maxBytes:     MaxVideoBytes,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ValidateVideo checks the declared type and size. It runs before anything
// is written or sent.
func ValidateVideo(mimeType string, size int64) (ext string, err error) {
	if size <= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "Video file is required")
	}
	if size > MaxVideoBytes {
		return "", dErrors.New(dErrors.CodePayloadTooLarge, "Video file size must be under 100MB")
	}
	mt, _, perr := mime.ParseMediaType(mimeType)
	if perr != nil {
		mt = strings.ToLower(strings.TrimSpace(mimeType))
	}
	ext, ok := videoExtensions[mt]
	if !ok {
		return "", dErrors.New(dErrors.CodeUnsupportedMedia, "Invalid file type. Please upload .mp4, .mov, or .avi file")
	}
	return ext, nil
}

// Analyze stages the video in a temp file, uploads it, waits for processing
// and runs the analysis. The temp file is removed on every return path,
// including cancellation of ctx.
func (a *Analyzer) Analyze(ctx context.Context, sc claims.SiteContext, v Video) (*models.Stage3Claim, error) {
	ext, err := ValidateVideo(v.MIMEType, v.Size)
	if err != nil {
		return nil, err
	}
	mimeType := canonicalType(ext)

	tmp, err := os.CreateTemp(a.tempDir, "land-video-*"+ext)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage video")
	}
	defer func() {
		_ = tmp.Close()
		if rmErr := os.Remove(tmp.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			a.logger.WarnContext(ctx, "sitevideo.temp_cleanup_failed", "path", tmp.Name(), "error", rmErr)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(v.Body, a.maxBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read video upload")
	}
	if n > a.maxBytes {
		return nil, dErrors.New(dErrors.CodePayloadTooLarge, "Video file size must be under 100MB")
	}
	if n == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "Video file is required")
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to stage video")
	}

	start := time.Now()
	file, err := a.files.UploadFile(ctx, tmp, n, mimeType, displayName(sc.SurveyNumber))
	if err != nil {
		a.logger.ErrorContext(ctx, "sitevideo.upload_failed", "bytes", n, "error", err)
		return nil, uploadError(err)
	}
	defer a.deleteRemote(ctx, file.Name)

	file, err = a.waitActive(ctx, file)
	if err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "sitevideo.processed",
		"file", file.Name,
		"bytes", n,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if file.MIMEType != "" {
		mimeType = file.MIMEType
	}
	out, err := a.extractor.SiteVideo(ctx, sc, claims.FileRef{MIMEType: mimeType, URI: file.URI})
	if err != nil {
		return nil, err
	}
	claim := toClaim(out)
	return &claim, nil
}

// waitActive polls until the file is ACTIVE. Up to maxPolls status reads are
// made, pollInterval apart.
func (a *Analyzer) waitActive(ctx context.Context, f *inference.File) (*inference.File, error) {
	for polls := 0; ; polls++ {
		switch f.State {
		case inference.FileStateActive:
			a.observePolls("active", polls)
			return f, nil
		case inference.FileStateFailed:
			a.observePolls("failed", polls)
			msg := ""
			if f.Error != nil {
				msg = f.Error.Message
			}
			a.logger.WarnContext(ctx, "sitevideo.processing_failed", "file", f.Name, "polls", polls, "reason", msg)
			return nil, dErrors.New(dErrors.CodeProcessingFailed, "Video processing failed. Please try again.")
		}
		if polls >= a.maxPolls {
			a.observePolls("timeout", polls)
			a.logger.WarnContext(ctx, "sitevideo.processing_timeout", "file", f.Name, "polls", polls)
			return nil, dErrors.New(dErrors.CodeProcessingTimeout, "Video processing timeout. Please try again with a shorter video.")
		}

		timer := time.NewTimer(a.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.observePolls("cancelled", polls)
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "video processing was interrupted")
		case <-timer.C:
		}

		next, err := a.files.GetFile(ctx, f.Name)
		if err != nil {
			a.observePolls("error", polls+1)
			return nil, uploadError(err)
		}
		f = next
	}
}

// deleteRemote is best effort and survives cancellation of the request.
func (a *Analyzer) deleteRemote(ctx context.Context, name string) {
	if name == "" {
		return
	}
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	if err := a.files.DeleteFile(dctx, name); err != nil {
		a.logger.WarnContext(ctx, "sitevideo.remote_delete_failed", "file", name, "error", err)
	}
}

func (a *Analyzer) observePolls(outcome string, polls int) {
	if a.observer != nil {
		a.observer.ObserveVideoPolls(outcome, polls)
	}
}

func uploadError(err error) error {
	if inference.IsRetryable(err) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "video service is unavailable, please try again")
	}
	return dErrors.Wrap(err, dErrors.CodeProcessingFailed, "Video processing failed. Please try again.")
}

func canonicalType(ext string) string {
	for t, e := range videoExtensions {
		if e == ext {
			return t
		}
	}
	return "video/mp4"
}

func displayName(survey string) string {
	if strings.TrimSpace(survey) == "" {
		survey = "Unknown"
	}
	return fmt.Sprintf("Land Site Visit - %s", survey)
}

func toClaim(out *claims.SiteVideoOutput) models.Stage3Claim {
	return models.Stage3Claim{
		LandQuality: models.LandQuality{
			Topography:           out.LandQuality.Topography,
			SoilType:             out.LandQuality.SoilType,
			Vegetation:           out.LandQuality.Vegetation,
			NearbyInfrastructure: nonNil(out.LandQuality.NearbyInfrastructure),
			WaterPresence:        out.LandQuality.WaterPresence,
			BoundaryClarity:      out.LandQuality.BoundaryClarity,
		},
		Audio: models.AudioAnalysis{
			DetectedSounds:      nonNil(out.Audio.DetectedSounds),
			TrafficDensity:      out.Audio.TrafficDensity,
			NoisePollutionScore: models.ClampScore(out.Audio.NoisePollutionScore),
			EnvironmentSummary:  out.Audio.EnvironmentSummary,
		},
		SuitabilityScore: models.ClampScore(out.SuitabilityScore),
		Recommendations:  out.Recommendations,
		DetailedReport:   out.DetailedReport,
		OverallVerdict:   out.OverallVerdict,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
