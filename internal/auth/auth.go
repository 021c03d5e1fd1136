package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/maneeshanif/todo-realtime-core/pkg/models"
)

var (
	ErrAuthDisabled = errors.New("auth disabled")
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidKey   = errors.New("invalid api key")
)

// Config configures authentication helpers. JWKSURL is the identity
// provider's JWKS endpoint; the core never issues its own tokens.
type Config struct {
	JWKSURL             string
	Issuer              string
	Audience            string
	JWKSRefreshInterval time.Duration
	APIKeys             []APIKeyConfig
}

// APIKeyConfig declares a static API key and associated identity, used for
// service-to-service calls that bypass the identity provider.
type APIKeyConfig struct {
	Key    string
	UserID string
	Email  string
	Name   string
}

// Service validates bearer tokens (via JWKS) and static API keys.
type Service struct {
	mu      sync.RWMutex
	jwks    *JWKSVerifier
	apiKeys map[string]*models.User
}

// NewService constructs an auth service from static configuration.
func NewService(cfg Config) *Service {
	service := &Service{apiKeys: buildAPIKeyMap(cfg.APIKeys)}
	if strings.TrimSpace(cfg.JWKSURL) != "" {
		service.jwks = NewJWKSVerifier(cfg.JWKSURL, cfg.Issuer, cfg.Audience, cfg.JWKSRefreshInterval)
	}
	return service
}

// Start begins the JWKS background refresh loop, if a JWKS endpoint is
// configured. No-op otherwise.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	jwks := s.jwks
	s.mu.RUnlock()
	if jwks == nil {
		return nil
	}
	return jwks.Start(ctx)
}

// Stop ends the JWKS background refresh loop.
func (s *Service) Stop() {
	if s == nil {
		return
	}
	s.mu.RLock()
	jwks := s.jwks
	s.mu.RUnlock()
	if jwks != nil {
		jwks.Stop()
	}
}

// Enabled reports whether auth checks should run.
func (s *Service) Enabled() bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jwks != nil || len(s.apiKeys) > 0
}

// Validate is an alias for ValidateJWT satisfying broadcaster.TokenVerifier,
// whose WebSocket handshake only ever carries a bearer token on the query
// string (never an API key).
func (s *Service) Validate(token string) (*models.User, error) {
	return s.ValidateJWT(token)
}

// ValidateJWT validates a bearer token against the JWKS key set and returns
// the associated user.
func (s *Service) ValidateJWT(token string) (*models.User, error) {
	if s == nil {
		return nil, ErrAuthDisabled
	}
	s.mu.RLock()
	jwks := s.jwks
	s.mu.RUnlock()
	if jwks == nil {
		return nil, ErrAuthDisabled
	}
	return jwks.Validate(token)
}

// ValidateAPIKey validates an API key and returns the associated user.
// Uses constant-time comparison to prevent timing attacks.
func (s *Service) ValidateAPIKey(key string) (*models.User, error) {
	if s == nil {
		return nil, ErrAuthDisabled
	}
	s.mu.RLock()
	apiKeys := s.apiKeys
	s.mu.RUnlock()

	if len(apiKeys) == 0 {
		return nil, ErrAuthDisabled
	}
	inputKey := strings.TrimSpace(key)
	// Iterate through all keys using constant-time comparison
	// to prevent timing attacks that could reveal valid keys.
	var matchedUser *models.User
	for storedKey, user := range apiKeys {
		if subtle.ConstantTimeCompare([]byte(inputKey), []byte(storedKey)) == 1 {
			matchedUser = user
		}
	}
	if matchedUser == nil {
		return nil, ErrInvalidKey
	}
	return matchedUser, nil
}

func buildAPIKeyMap(keys []APIKeyConfig) map[string]*models.User {
	out := map[string]*models.User{}
	for _, entry := range keys {
		key := strings.TrimSpace(entry.Key)
		if key == "" {
			continue
		}
		userID := strings.TrimSpace(entry.UserID)
		if userID == "" {
			sum := sha256.Sum256([]byte(key))
			userID = "api_" + hex.EncodeToString(sum[:8])
		}
		out[key] = &models.User{
			ID:    userID,
			Email: strings.TrimSpace(entry.Email),
			Name:  strings.TrimSpace(entry.Name),
		}
	}
	return out
}
