// Package config provides the configuration schema, loader, provider
// registry, and file watcher for the door assistant.
package config

// LogLevel controls log verbosity for the server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure. It is typically loaded from a
// YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Watch     WatchConfig     `yaml:"watch"`
	Checklist ChecklistConfig `yaml:"checklist"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8000").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry]. An empty Name disables that stage: no transcription without
// STT, no similarity matching without embeddings, builtin lists only
// without suggest.
type ProvidersConfig struct {
	STT        ProviderEntry `yaml:"stt"`
	Embeddings ProviderEntry `yaml:"embeddings"`
	Suggest    ProviderEntry `yaml:"suggest"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation (e.g., "openai", "whisper").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o-mini-transcribe", "nomic-embed-text").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by the
	// standard fields above.
	Options map[string]any `yaml:"options"`
}

// WatchConfig configures the physical leave-signal sources.
type WatchConfig struct {
	Serial SerialConfig `yaml:"serial"`
}

// SerialConfig configures the serial door sensor. An empty Port disables
// the watcher; leave events can still be injected by other publishers.
type SerialConfig struct {
	// Port is the serial device path (e.g., "/dev/ttyUSB0", "COM5").
	Port string `yaml:"port"`

	// Baud is the serial baud rate. 0 selects the sensor default (115200).
	Baud int `yaml:"baud"`
}

// ChecklistConfig overrides the built-in destination catalog. When both
// fields are empty the default catalog is used.
type ChecklistConfig struct {
	// Essentials are prepended to every checklist (default: keys, wallet,
	// phone, ID).
	Essentials []string `yaml:"essentials"`

	// Destinations replaces the built-in destination table when non-empty.
	Destinations []DestinationConfig `yaml:"destinations"`
}

// DestinationConfig describes one destination the matcher can recognise.
type DestinationConfig struct {
	// Key is the canonical destination name (e.g., "gym").
	Key string `yaml:"key"`

	// Synonyms are alternative spoken forms matched to this destination.
	Synonyms []string `yaml:"synonyms"`

	// Items are the destination-specific checklist entries, appended after
	// the essentials.
	Items []string `yaml:"items"`
}
