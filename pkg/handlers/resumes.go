package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

// multipartOverhead allows for form boundaries and headers on top of the file.
const multipartOverhead = 64 << 10

// RenameResumeRequest is the body of PATCH /api/resumes/{id}.
type RenameResumeRequest struct {
	FileName string `json:"file_name"`
}

// ResumesHandler handles résumé uploads.
type ResumesHandler struct {
	resumes  services.ResumeService
	maxBytes int64
	logger   *zap.Logger
}

// NewResumesHandler creates a new résumés handler. maxBytes bounds the
// uploaded file.
func NewResumesHandler(resumes services.ResumeService, maxBytes int64, logger *zap.Logger) *ResumesHandler {
	if maxBytes <= 0 {
		maxBytes = services.DefaultMaxResumeBytes
	}
	return &ResumesHandler{
		resumes:  resumes,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// RegisterRoutes registers the résumés handler's routes on the given mux.
func (h *ResumesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, ownerMiddleware OwnerMiddleware) {
	mux.HandleFunc("POST /api/resumes", authMiddleware.RequireAuth(ownerMiddleware(h.Upload)))
	mux.HandleFunc("GET /api/resumes", authMiddleware.RequireAuth(ownerMiddleware(h.List)))
	mux.HandleFunc("GET /api/resumes/{id}", authMiddleware.RequireAuth(ownerMiddleware(h.Download)))
	mux.HandleFunc("PATCH /api/resumes/{id}", authMiddleware.RequireAuth(ownerMiddleware(h.Rename)))
	mux.HandleFunc("DELETE /api/resumes/{id}", authMiddleware.RequireAuth(ownerMiddleware(h.Delete)))
}

// Upload handles POST /api/resumes with a multipart "file" field.
func (h *ResumesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large",
				fmt.Sprintf("File exceeds %d bytes", h.maxBytes), h.logger)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_request", "Expected multipart form data", h.logger)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "file field is required", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Failed to read file", h.logger)
		return
	}

	resume, err := h.resumes.Upload(r.Context(), owner, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		writeServiceError(w, err, "upload resume", h.logger)
		return
	}
	writeSuccess(w, http.StatusCreated, resume, h.logger)
}

// List handles GET /api/resumes.
func (h *ResumesHandler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	files, err := h.resumes.List(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "list resumes", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, files, h.logger)
}

// Download handles GET /api/resumes/{id} and streams the stored file.
func (h *ResumesHandler) Download(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	file, err := h.resumes.Get(r.Context(), owner, id)
	if err != nil {
		writeServiceError(w, err, "get resume", h.logger)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		h.logger.Error("Failed to write resume", zap.Error(err))
	}
}

// Rename handles PATCH /api/resumes/{id}.
func (h *ResumesHandler) Rename(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	var req RenameResumeRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	if err := h.resumes.Rename(r.Context(), owner, id, req.FileName); err != nil {
		writeServiceError(w, err, "rename resume", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/resumes/{id}.
func (h *ResumesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseIDParam(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.resumes.Delete(r.Context(), owner, id); err != nil {
		writeServiceError(w, err, "delete resume", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
