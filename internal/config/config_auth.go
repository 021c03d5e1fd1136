package config

import "time"

// AuthConfig configures JWKS-based bearer token verification. The platform
// consumes an external identity provider's tokens; it never issues its own.
type AuthConfig struct {
	// JWKSURL is the endpoint the auth verifier polls for signing keys.
	JWKSURL string `yaml:"jwks_url"`

	// JWKSRefreshInterval controls how often cached keys are refreshed.
	JWKSRefreshInterval time.Duration `yaml:"jwks_refresh_interval"`

	// Issuer and Audience are validated against the token's claims when set.
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`

	// APIKeys allow service-to-service calls (e.g. the recurring consumer
	// calling back into the dispatcher) to bypass JWKS verification.
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is a static service credential.
type APIKeyConfig struct {
	Key    string `yaml:"key"`
	UserID string `yaml:"user_id"`
	Name   string `yaml:"name"`
}
