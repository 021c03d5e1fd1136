package config

import "time"

// RestAPIConfig points a process at the task-management REST write surface.
// The recurring materializer consumer uses this to create a task's next
// occurrence through the same validated write path a human client uses,
// rather than writing storage directly.
type RestAPIConfig struct {
	// BaseURL is the REST API's externally reachable base address.
	BaseURL string `yaml:"base_url"`

	// RequestTimeout bounds a single call to the REST API.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ServiceToken authenticates this process's own calls to the REST API
	// (a service-to-service credential, distinct from a user's JWT).
	ServiceToken string `yaml:"service_token"`
}
