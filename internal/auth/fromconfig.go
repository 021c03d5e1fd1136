package auth

import "github.com/maneeshanif/todo-realtime-core/internal/config"

// NewServiceFromConfig adapts the platform's shared config.AuthConfig
// section into this package's own Config type. It's kept separate from
// NewService so auth's tests can keep constructing a Config literal
// directly without importing internal/config.
func NewServiceFromConfig(cfg config.AuthConfig) *Service {
	keys := make([]APIKeyConfig, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		keys = append(keys, APIKeyConfig{
			Key:    k.Key,
			UserID: k.UserID,
			Name:   k.Name,
		})
	}

	return NewService(Config{
		JWKSURL:             cfg.JWKSURL,
		Issuer:              cfg.Issuer,
		Audience:            cfg.Audience,
		JWKSRefreshInterval: cfg.JWKSRefreshInterval,
		APIKeys:             keys,
	})
}
