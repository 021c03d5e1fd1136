package config

import "time"

// EventBusConfig configures the pub/sub façade over the Dapr-shaped sidecar
// fronting the broker.
type EventBusConfig struct {
	// SidecarURL is the base URL of the pub/sub sidecar (e.g. a Dapr daprd
	// instance's HTTP port).
	SidecarURL string `yaml:"sidecar_url"`

	// PubSubName is the configured Dapr pub/sub component name.
	PubSubName string `yaml:"pubsub_name"`

	// Topics maps logical topic roles to their wire names.
	Topics EventBusTopicsConfig `yaml:"topics"`

	// PublishTimeout bounds a single publish call to the sidecar.
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

// EventBusTopicsConfig names the three topics the façade fans out to.
type EventBusTopicsConfig struct {
	TaskEvents     string `yaml:"task_events"`
	ReminderEvents string `yaml:"reminder_events"`
	TaskUpdates    string `yaml:"task_updates"`
}
