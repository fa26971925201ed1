package database

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
)

// WithOwnerContext creates middleware that sets up an owner-scoped DB
// connection from the JWT email claim. It runs AFTER auth middleware.
// The connection is released when the handler returns.
func WithOwnerContext(db *DB, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			owner, err := auth.OwnerFromContext(r.Context())
			if err != nil {
				logger.Error("Missing owner in request context", zap.Error(err))
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			scope, err := db.WithOwner(r.Context(), owner)
			if err != nil {
				logger.Error("Failed to acquire owner-scoped connection", zap.Error(err))
				writeError(w, http.StatusInternalServerError, "database_error", "Database connection error")
				return
			}
			defer scope.Close()

			next(w, r.WithContext(SetOwnerScope(r.Context(), scope)))
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}
