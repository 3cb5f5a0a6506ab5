package config_test

import (
	"strings"
	"testing"

	"github.com/cboiteux2765/AIDoorGuard/internal/config"
)

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8000"
  log_level: debug
providers:
  stt:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini-transcribe
  embeddings:
    name: ollama
    model: nomic-embed-text
  suggest:
    name: ollama
    model: llama3.2
    base_url: http://localhost:11434
watch:
  serial:
    port: /dev/ttyUSB0
    baud: 115200
checklist:
  essentials: [keys, wallet, phone, ID]
  destinations:
    - key: gym
      synonyms: [jim, workout]
      items: [gym clothes, trainers]
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q, want %q", cfg.Server.ListenAddr, ":8000")
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("LogLevel = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Providers.STT.Name != "openai" || cfg.Providers.STT.APIKey != "sk-test" {
		t.Errorf("unexpected STT entry: %+v", cfg.Providers.STT)
	}
	if cfg.Providers.Suggest.BaseURL != "http://localhost:11434" {
		t.Errorf("Suggest.BaseURL = %q", cfg.Providers.Suggest.BaseURL)
	}
	if cfg.Watch.Serial.Port != "/dev/ttyUSB0" || cfg.Watch.Serial.Baud != 115200 {
		t.Errorf("unexpected serial config: %+v", cfg.Watch.Serial)
	}
	if len(cfg.Checklist.Destinations) != 1 {
		t.Fatalf("destinations = %d, want 1", len(cfg.Checklist.Destinations))
	}
	if got := cfg.Checklist.Destinations[0].Key; got != "gym" {
		t.Errorf("destination key = %q, want gym", got)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_adr: ":8000"
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for misspelled field, got nil")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bananas
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_DuplicateDestinationKeys(t *testing.T) {
	t.Parallel()
	yaml := `
checklist:
  destinations:
    - key: gym
      items: [towel]
    - key: Gym
      items: [trainers]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for duplicate destination keys, got nil")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
}

func TestValidate_MissingDestinationKey(t *testing.T) {
	t.Parallel()
	yaml := `
checklist:
  destinations:
    - items: [towel]
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing destination key, got nil")
	}
}

func TestValidate_TLSNeedsBothFiles(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: /etc/doorguard/cert.pem
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key_file, got nil")
	}
}

func TestValidate_NegativeBaud(t *testing.T) {
	t.Parallel()
	yaml := `
watch:
  serial:
    port: /dev/ttyUSB0
    baud: -9600
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for negative baud, got nil")
	}
}

func TestValidate_EmptyConfigIsValid(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("empty config should validate, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("config is nil")
	}
}
