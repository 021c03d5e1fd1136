package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware authenticates an incoming HTTP request via bearer JWT or API
// key and attaches the resolved user to the request context. Requests with
// no credentials are rejected with 401 when auth is enabled; with auth
// disabled (no JWKS URL and no API keys configured) every request passes
// through unauthenticated, which is only appropriate for local development.
func Middleware(service *Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if service == nil || !service.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			if token := extractBearer(r); token != "" {
				if user, err := service.ValidateJWT(token); err == nil {
					next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
					return
				}

				// Fall back to API-key validation on the same bearer value:
				// service-to-service callers (the recurring consumer's
				// TaskAPIClient, RestAPIConfig.ServiceToken) send their static
				// credential as "Authorization: Bearer <token>" rather than
				// X-API-Key, so a static key configured under auth.api_keys
				// must still be accepted from that header.
				user, err := service.ValidateAPIKey(token)
				if err != nil {
					if logger != nil {
						logger.Warn("bearer credential validation failed", "error", err)
					}
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
				return
			}

			if apiKey := extractAPIKey(r); apiKey != "" {
				user, err := service.ValidateAPIKey(apiKey)
				if err != nil {
					if logger != nil {
						logger.Warn("api key validation failed", "error", err)
					}
					http.Error(w, "invalid api key", http.StatusUnauthorized)
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
				return
			}

			http.Error(w, "missing credentials", http.StatusUnauthorized)
		})
	}
}

// SubjectFromToken validates a bearer token carried as a query parameter,
// used by the WebSocket broadcaster's connection handshake where headers
// aren't available to the browser's WebSocket client.
func SubjectFromToken(service *Service, token string) (string, error) {
	if service == nil {
		return "", ErrAuthDisabled
	}
	user, err := service.ValidateJWT(token)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func extractBearer(r *http.Request) string {
	value := r.Header.Get("Authorization")
	lower := strings.ToLower(value)
	if strings.HasPrefix(lower, "bearer ") {
		return strings.TrimSpace(value[len("bearer "):])
	}
	return ""
}

func extractAPIKey(r *http.Request) string {
	for _, header := range []string{"X-API-Key", "Api-Key"} {
		if value := strings.TrimSpace(r.Header.Get(header)); value != "" {
			return value
		}
	}
	return ""
}
