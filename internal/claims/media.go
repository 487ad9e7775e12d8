package claims

import (
	"bytes"
	"net/http"

	dErrors "landverify/pkg/domain-errors"
)

// MaxDocumentBytes bounds a single uploaded document.
const MaxDocumentBytes = 20 << 20

var pdfMagic = []byte("%PDF")

var documentTypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// Media is document content sent inline with a prompt.
type Media struct {
	MIMEType string
	Data     []byte
}

// NewDocument sniffs data and checks it is an accepted document type within
// the size limit. field names the form field in error messages.
func NewDocument(field string, data []byte) (Media, error) {
	if len(data) == 0 {
		return Media{}, dErrors.New(dErrors.CodeValidation, field+" document is empty")
	}
	if len(data) > MaxDocumentBytes {
		return Media{}, dErrors.New(dErrors.CodePayloadTooLarge, field+" document must be under 20MB")
	}
	mime := DetectDocumentType(data)
	if _, ok := documentTypes[mime]; !ok {
		return Media{}, dErrors.New(dErrors.CodeUnsupportedMedia, field+" document must be a JPEG, PNG, WebP or PDF file")
	}
	return Media{MIMEType: mime, Data: data}, nil
}

// DetectDocumentType returns application/pdf for a %PDF header and the
// sniffed content type otherwise.
func DetectDocumentType(data []byte) string {
	if bytes.HasPrefix(data, pdfMagic) {
		return "application/pdf"
	}
	return http.DetectContentType(data)
}
