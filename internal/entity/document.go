package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/advflow/advflow/constants"
)

// Document represents a stored document for data transfer between layers.
// Name starts as the original filename and becomes the canonical
// "DOC n." string after a successful AI rename.
type Document struct {
	ID            uuid.UUID             `json:"id"`
	Name          string                `json:"name"`
	OriginalName  string                `json:"original_name"`
	ClientID      *uuid.UUID            `json:"client_id,omitempty"`
	CaseID        *uuid.UUID            `json:"case_id,omitempty"`
	FolderID      *uuid.UUID            `json:"folder_id,omitempty"`
	MimeType      string                `json:"mime_type"`
	Size          int64                 `json:"size"`
	StoragePath   string                `json:"storage_path"`
	ExtractedText *string               `json:"extracted_text,omitempty"`
	OCROrigin     bool                  `json:"ocr_origin"`
	Category      constants.DocCategory `json:"category"`
	Properties    map[string]string     `json:"properties,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// HasText reports whether any extracted text (OCR or webhook) is present.
func (d *Document) HasText() bool {
	return d.ExtractedText != nil && *d.ExtractedText != ""
}
