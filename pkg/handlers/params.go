package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseIDParam extracts and validates the {id} path parameter.
// Returns uuid.Nil and false after writing a 400 response on error.
func ParseIDParam(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "Invalid ID format", logger)
		return uuid.Nil, false
	}
	return id, true
}
