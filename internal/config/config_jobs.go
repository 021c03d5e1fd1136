package config

import "time"

// JobsConfig configures the Jobs API sidecar client used by the reminder
// engine to schedule and cancel due-date callbacks.
type JobsConfig struct {
	// SidecarURL is the base URL of the Jobs API sidecar.
	SidecarURL string `yaml:"sidecar_url"`

	// CallbackBaseURL is the externally reachable URL the sidecar calls back
	// on (the reminder engine's own address), used to build the job's
	// target when scheduling.
	CallbackBaseURL string `yaml:"callback_base_url"`

	// RequestTimeout bounds schedule/cancel calls to the sidecar.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// PastDuePollInterval is how often the reminder engine scans for
	// reminders whose due time has already elapsed (the past-due path).
	PastDuePollInterval time.Duration `yaml:"past_due_poll_interval"`
}
