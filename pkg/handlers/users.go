package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

// SyncUserRequest is the optional body of POST /api/users/sync. When name
// is empty the token's name claim is used.
type SyncUserRequest struct {
	Name string `json:"name"`
}

// OnboardingResponse is returned by GET /api/users/me/onboarding.
type OnboardingResponse struct {
	HasOnboarded bool `json:"has_onboarded"`
}

// UsersHandler handles profile requests for the signed-in user.
type UsersHandler struct {
	users  services.UserService
	logger *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users services.UserService, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		logger: logger,
	}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, ownerMiddleware OwnerMiddleware) {
	mux.HandleFunc("POST /api/users/sync", authMiddleware.RequireAuth(ownerMiddleware(h.Sync)))
	mux.HandleFunc("GET /api/users/me", authMiddleware.RequireAuth(ownerMiddleware(h.Get)))
	mux.HandleFunc("PATCH /api/users/me", authMiddleware.RequireAuth(ownerMiddleware(h.Update)))
	mux.HandleFunc("GET /api/users/me/onboarding", authMiddleware.RequireAuth(ownerMiddleware(h.Onboarding)))
}

// Sync handles POST /api/users/sync. An empty body is allowed.
func (h *UsersHandler) Sync(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var req SyncUserRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Name == "" {
		if claims, ok := auth.GetClaims(r.Context()); ok {
			req.Name = claims.Name
		}
	}

	user, err := h.users.Sync(r.Context(), owner, req.Name)
	if err != nil {
		writeServiceError(w, err, "sync user", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, user, h.logger)
}

// Get handles GET /api/users/me.
func (h *UsersHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "get user", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, user, h.logger)
}

// Update handles PATCH /api/users/me.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	var update models.UserProfileUpdate
	if !decodeJSON(w, r, &update, h.logger) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), owner, &update)
	if err != nil {
		writeServiceError(w, err, "update profile", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, user, h.logger)
}

// Onboarding handles GET /api/users/me/onboarding.
func (h *UsersHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r, h.logger)
	if !ok {
		return
	}

	onboarded, err := h.users.OnboardingStatus(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "get onboarding status", h.logger)
		return
	}
	writeSuccess(w, http.StatusOK, OnboardingResponse{HasOnboarded: onboarded}, h.logger)
}
