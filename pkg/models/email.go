package models

import (
	"time"

	"github.com/google/uuid"
)

// EmailStatus is the delivery state of an outreach email.
type EmailStatus string

// Email status constants.
const (
	EmailStatusDraft  EmailStatus = "draft"
	EmailStatusSent   EmailStatus = "sent"
	EmailStatusFailed EmailStatus = "failed"
	EmailStatusResend EmailStatus = "resend"
)

// ValidEmailStatuses contains all valid status values.
var ValidEmailStatuses = []EmailStatus{EmailStatusDraft, EmailStatusSent, EmailStatusFailed, EmailStatusResend}

// IsValid checks if the status is one of ValidEmailStatuses.
func (s EmailStatus) IsValid() bool {
	for _, v := range ValidEmailStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Email is a stored outreach email.
type Email struct {
	ID             uuid.UUID   `json:"id"`
	Subject        string      `json:"subject"`
	Content        string      `json:"content"`
	JobTitle       string      `json:"job_title,omitempty"`
	Company        string      `json:"company,omitempty"`
	RecipientEmail string      `json:"recipient_email,omitempty"`
	Status         EmailStatus `json:"status"`
	CreatedBy      OwnerID     `json:"-"`
	CreatedAt      time.Time   `json:"created_at"`
}

// EmailFields holds caller-supplied values for a new email record.
type EmailFields struct {
	Subject        string      `json:"subject"`
	Content        string      `json:"content"`
	JobTitle       string      `json:"job_title,omitempty"`
	Company        string      `json:"company,omitempty"`
	RecipientEmail string      `json:"recipient_email,omitempty"`
	Status         EmailStatus `json:"status,omitempty"`
}

// EmailDraft is a generated subject and body, not yet stored.
type EmailDraft struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
