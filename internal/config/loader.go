package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":        {"openai", "whisper"},
	"embeddings": {"openai", "ollama"},
	"suggest":    {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
// Recoverable oddities (unknown provider names, disabled stages) are only
// logged, so a half-configured device still starts.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Warn, but do not fail, on unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("embeddings", cfg.Providers.Embeddings.Name)
	validateProviderName("suggest", cfg.Providers.Suggest.Name)

	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; audio uploads will be rejected")
	}

	// Watch
	if cfg.Watch.Serial.Baud < 0 {
		errs = append(errs, fmt.Errorf("watch.serial.baud %d must not be negative", cfg.Watch.Serial.Baud))
	}
	if cfg.Watch.Serial.Port == "" {
		slog.Info("watch.serial.port is empty; leave events will only come from other publishers")
	}

	// Checklist destinations
	keysSeen := make(map[string]int, len(cfg.Checklist.Destinations))
	for i, d := range cfg.Checklist.Destinations {
		prefix := fmt.Sprintf("checklist.destinations[%d]", i)
		key := strings.ToLower(strings.TrimSpace(d.Key))
		if key == "" {
			errs = append(errs, fmt.Errorf("%s.key is required", prefix))
			continue
		}
		if prev, ok := keysSeen[key]; ok {
			errs = append(errs, fmt.Errorf("%s.key %q is a duplicate of checklist.destinations[%d]", prefix, d.Key, prev))
		}
		keysSeen[key] = i
		if len(d.Items) == 0 {
			slog.Warn("destination has no items; checklists for it will contain only the essentials", "key", d.Key)
		}
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
