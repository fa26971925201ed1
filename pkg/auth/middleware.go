package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Middleware provides HTTP authentication middleware.
type Middleware struct {
	authService AuthService
	logger      *zap.Logger
}

// NewMiddleware creates auth middleware backed by authService.
func NewMiddleware(authService AuthService, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		logger:      logger,
	}
}

// RequireAuth validates the JWT and requires an email claim.
// Claims and the raw token are stored in the request context.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		if _, err := claims.Owner(); err != nil {
			m.logger.Warn("Token without email claim",
				zap.String("subject", claims.Subject),
				zap.String("path", r.URL.Path))
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Token has no email claim")
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims, token)))
	}
}

// RequireAuthHandler adapts RequireAuth to http.Handler, for mounting
// non-HandlerFunc endpoints such as the MCP server.
func (m *Middleware) RequireAuthHandler(next http.Handler) http.Handler {
	return m.RequireAuth(next.ServeHTTP)
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
