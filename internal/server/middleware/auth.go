package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
)

const bearerPrefix = "bearer "

// RequireBearer rejects requests without an "Authorization: Bearer <token>" header with 401
// and stores the token in the context for the handler to validate.
func RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing or invalid authorization"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithBearerToken(r.Context(), token)))
	})
}

// extractBearer returns the bearer token or "" if the header is missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
