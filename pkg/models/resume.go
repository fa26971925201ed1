package models

import (
	"time"

	"github.com/google/uuid"
)

// Accepted résumé content types.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOC  = "application/msword"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ResumeFile is an uploaded résumé. Data is omitted from list queries.
type ResumeFile struct {
	ID          uuid.UUID `json:"id"`
	Owner       OwnerID   `json:"-"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsAcceptedResumeType reports whether contentType is PDF, DOC or DOCX.
func IsAcceptedResumeType(contentType string) bool {
	switch contentType {
	case ContentTypePDF, ContentTypeDOC, ContentTypeDOCX:
		return true
	}
	return false
}
