// Package audit provides security audit logging for SIEM consumption.
// Events are logged as structured JSON on a dedicated logger namespace.
package audit

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/logging"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventOutboundEmailSent is logged when an email leaves through the user's Gmail account.
	EventOutboundEmailSent SecurityEventType = "outbound_email_sent"
	// EventOutboundEmailFailed is logged when Gmail rejects a send.
	EventOutboundEmailFailed SecurityEventType = "outbound_email_failed"
	// EventRepositoryImport is logged when a GitHub account's repositories are imported.
	EventRepositoryImport SecurityEventType = "repository_import"
)

// SecurityEvent represents an auditable security event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	Owner     string            `json:"owner,omitempty"`
	Subject   string            `json:"subject,omitempty"` // JWT sub claim
	ClientIP  string            `json:"client_ip,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"` // info, warning, critical
}

// OutboundEmailDetails describes a send attempt. Only the recipient's domain
// is recorded.
type OutboundEmailDetails struct {
	EmailID         uuid.UUID `json:"email_id"`
	RecipientDomain string    `json:"recipient_domain"`
	Error           string    `json:"error,omitempty"`
}

// RepositoryImportDetails describes a GitHub import.
type RepositoryImportDetails struct {
	GitHubURL string `json:"github_url"`
	Imported  int    `json:"imported"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// SecurityAuditor logs security events for SIEM consumption.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a security auditor on the "security_audit"
// logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogEmailSent records an email sent on the caller's behalf.
func (a *SecurityAuditor) LogEmailSent(ctx context.Context, emailID uuid.UUID, recipient, clientIP string) {
	details := OutboundEmailDetails{
		EmailID:         emailID,
		RecipientDomain: recipientDomain(recipient),
	}
	event := a.newEvent(ctx, EventOutboundEmailSent, "info", clientIP, details)

	a.logger.Info("Outbound email sent",
		zap.String("event_json", marshalEvent(event)),
		zap.String("owner", event.Owner),
		zap.String("email_id", emailID.String()),
		zap.String("recipient_domain", details.RecipientDomain),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

// LogEmailSendFailed records a rejected send. cause is sanitized before logging.
func (a *SecurityAuditor) LogEmailSendFailed(ctx context.Context, emailID uuid.UUID, cause error, clientIP string) {
	details := OutboundEmailDetails{
		EmailID: emailID,
		Error:   logging.SanitizeError(cause),
	}
	event := a.newEvent(ctx, EventOutboundEmailFailed, "warning", clientIP, details)

	a.logger.Warn("Outbound email failed",
		zap.String("event_json", marshalEvent(event)),
		zap.String("owner", event.Owner),
		zap.String("email_id", emailID.String()),
		zap.String("error", details.Error),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

// LogRepositoryImport records a GitHub import and its outcome counts.
func (a *SecurityAuditor) LogRepositoryImport(ctx context.Context, details RepositoryImportDetails, clientIP string) {
	event := a.newEvent(ctx, EventRepositoryImport, "info", clientIP, details)

	a.logger.Info("Repositories imported",
		zap.String("event_json", marshalEvent(event)),
		zap.String("owner", event.Owner),
		zap.String("github_url", details.GitHubURL),
		zap.Int("imported", details.Imported),
		zap.Int("failed", details.Failed),
		zap.String("client_ip", clientIP),
		zap.String("severity", event.Severity),
	)
}

func (a *SecurityAuditor) newEvent(ctx context.Context, eventType SecurityEventType, severity, clientIP string, details any) SecurityEvent {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		ClientIP:  clientIP,
		Details:   details,
		Severity:  severity,
	}
	if claims, ok := auth.GetClaims(ctx); ok {
		event.Subject = claims.Subject
		if owner, err := claims.Owner(); err == nil {
			event.Owner = owner.String()
		}
	}
	return event
}

// marshalEvent serializes event for SIEM ingestion. Known types never fail
// to marshal.
func marshalEvent(event SecurityEvent) string {
	eventJSON, _ := json.Marshal(event)
	return string(eventJSON)
}

func recipientDomain(recipient string) string {
	at := strings.LastIndex(recipient, "@")
	if at < 0 || at == len(recipient)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(recipient[at+1:]))
}
