package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"landverify/internal/claims"
	"landverify/internal/verification/sitevideo"
	dErrors "landverify/pkg/domain-errors"
)

const (
	// formOverhead covers boundaries, part headers and the plain text fields.
	formOverhead = 1 << 20
	// formMemory is held in memory; larger file parts spill to disk.
	formMemory = 8 << 20

	videoFormLimit = sitevideo.MaxVideoBytes + formOverhead
)

var errVideoTooLarge = dErrors.New(dErrors.CodePayloadTooLarge, "Video file size must be under 100MB")

func documentFormLimit(files int) int64 {
	return int64(files)*claims.MaxDocumentBytes + formOverhead
}

// parseForm reads a multipart body of at most limit bytes.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(formMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return dErrors.Wrap(err, dErrors.CodePayloadTooLarge, "upload is too large")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "expected a multipart form upload")
	}
	return nil
}

func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// readDocument returns the named file part as a checked document. found is
// false when the part is absent.
func readDocument(r *http.Request, field, label string) (doc claims.Media, found bool, err error) {
	f, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return claims.Media{}, false, nil
	}
	if err != nil {
		return claims.Media{}, false, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read "+label+" upload")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, claims.MaxDocumentBytes+1))
	if err != nil {
		return claims.Media{}, false, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read "+label+" upload")
	}
	if len(data) == 0 {
		return claims.Media{}, false, nil
	}
	doc, err = claims.NewDocument(label, data)
	if err != nil {
		return claims.Media{}, false, err
	}
	return doc, true, nil
}

// openVideo returns the video part with its declared type and size. The
// caller closes it.
func openVideo(r *http.Request) (sitevideo.Video, func(), error) {
	f, header, err := r.FormFile("video")
	if errors.Is(err, http.ErrMissingFile) {
		return sitevideo.Video{}, func() {}, dErrors.New(dErrors.CodeValidation, "Video file is required")
	}
	if err != nil {
		return sitevideo.Video{}, func() {}, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read video upload")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if byExt := mime.TypeByExtension(filepath.Ext(header.Filename)); byExt != "" {
			mimeType = byExt
		}
	}
	return sitevideo.Video{
		MIMEType: mimeType,
		Size:     header.Size,
		Body:     f,
	}, func() { _ = f.Close() }, nil
}
