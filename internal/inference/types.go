package inference

import "encoding/base64"

// Blob is media sent inline with a request.
type Blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData references media previously uploaded through the Files API.
type FileData struct {
	MIMEType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// Part is one element of a multimodal prompt. Exactly one field is set.
type Part struct {
	Text       string    `json:"text,omitempty"`
	InlineData *Blob     `json:"inlineData,omitempty"`
	FileData   *FileData `json:"fileData,omitempty"`
}

// TextPart builds a text part.
func TextPart(text string) Part { return Part{Text: text} }

// InlinePart base64-encodes data as an inline media part.
func InlinePart(mimeType string, data []byte) Part {
	return Part{InlineData: &Blob{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(data)}}
}

// FilePart references an uploaded file.
func FilePart(mimeType, uri string) Part {
	return Part{FileData: &FileData{MIMEType: mimeType, FileURI: uri}}
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

// GenerateRequest is the generateContent request body.
type GenerateRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// NewUserRequest wraps parts into a single user turn asking for JSON output.
func NewUserRequest(parts ...Part) GenerateRequest {
	temp := 0.1
	return GenerateRequest{
		Contents: []Content{{Role: "user", Parts: parts}},
		GenerationConfig: &GenerationConfig{
			Temperature:      &temp,
			ResponseMIMEType: "application/json",
		},
	}
}

type generateResponse struct {
	Candidates []struct {
		Content      Content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

// FileState is the processing state of an uploaded file.
type FileState string

const (
	FileStateUnspecified FileState = "STATE_UNSPECIFIED"
	FileStateProcessing  FileState = "PROCESSING"
	FileStateActive      FileState = "ACTIVE"
	FileStateFailed      FileState = "FAILED"
)

// File is a Files API resource.
type File struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	MIMEType    string    `json:"mimeType"`
	SizeBytes   string    `json:"sizeBytes"`
	URI         string    `json:"uri"`
	State       FileState `json:"state"`
	Error       *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type fileEnvelope struct {
	File File `json:"file"`
}

type apiErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
