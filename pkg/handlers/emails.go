package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/audit"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

// GoogleAccessTokenHeader carries the user's Google OAuth access token for
// sending through Gmail.
const GoogleAccessTokenHeader = "X-Google-Access-Token"

// EmailsHandler handles outreach email requests.
type EmailsHandler struct {
	emails  services.EmailService
	auditor *audit.SecurityAuditor
	logger  *zap.Logger
}

// NewEmailsHandler creates a new emails handler. Sends are recorded through
// auditor.
func NewEmailsHandler(emails services.EmailService, auditor *audit.SecurityAuditor, logger *zap.Logger) *EmailsHandler {
	return &EmailsHandler{
		emails:  emails,
		auditor: auditor,
		logger:  logger,
	}
}

// RegisterRoutes registers the emails handler's routes on the given mux.
func (h *EmailsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, ownerMiddleware OwnerMiddleware) {
	mux.HandleFunc("POST /api/emails", authMiddleware.RequireAuth(ownerMiddleware(h.Create)))
	mux.HandleFunc("GET /api/emails", authMiddleware.RequireAuth(ownerMiddleware(h.List)))
	mux.HandleFunc("POST /api/emails/generate", authMiddleware.RequireAuth(ownerMiddleware(h.Generate)))
	mux.HandleFunc("POST /api/emails/{id}/send", authMiddleware.RequireAuth(ownerMiddleware(h.Send)))
}

// Create handles POST /api/emails.
func (h *EmailsHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var fields models.EmailFields
	if !decodeJSON(w, r, &fields, h.logger) {
		return
	}

	email, err := h.emails.Create(r.Context(), owner, fields)
	if err != nil {
		writeServiceError(w, err, "save email", h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, email, h.logger)
}

// List handles GET /api/emails.
func (h *EmailsHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	emails, err := h.emails.ListByOwner(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "list emails", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, emails, h.logger)
}

// Generate handles POST /api/emails/generate.
func (h *EmailsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var req services.EmailGenerationRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	draft, err := h.emails.Generate(r.Context(), owner, req)
	if err != nil {
		writeServiceError(w, err, "generate email", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, draft, h.logger)
}

// Send handles POST /api/emails/{id}/send.
func (h *EmailsHandler) Send(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	token := r.Header.Get(GoogleAccessTokenHeader)
	if token == "" {
		writeError(w, http.StatusBadRequest, "missing_google_token", GoogleAccessTokenHeader+" header is required", h.logger)
		return
	}

	email, err := h.emails.Send(r.Context(), owner, id, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrEmailSendFailed) {
			h.auditor.LogEmailSendFailed(r.Context(), id, err, r.RemoteAddr)
		}
		writeServiceError(w, err, "send email", h.logger)
		return
	}
	h.auditor.LogEmailSent(r.Context(), email.ID, email.RecipientEmail, r.RemoteAddr)
	writeSuccess(w, http.StatusOK, email, h.logger)
}
