// Package config provides configuration loading for jipange.
//
// Configuration is loaded from environment variables with defaults, or from a
// YAML file overridden by the environment (see LoadWithFile).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default endpoints. The chat endpoint is Groq's OpenAI-compatible API.
const (
	DefaultLLMBaseURL           = "https://api.groq.com/openai/v1"
	DefaultLLMModel             = "llama-3.1-8b-instant"
	DefaultTranscriptionBaseURL = "https://api.openai.com/v1"
	DefaultTranscriptionModel   = "whisper-1"
	DefaultNATSURL              = "nats://127.0.0.1:4222"
)

// Config holds the complete jipange configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Logging       LoggingConfig       `koanf:"logging"`
	LLM           LLMConfig           `koanf:"llm"`
	Transcription TranscriptionConfig `koanf:"transcription"`
	NATS          NATSConfig          `koanf:"nats"`
	Extraction    ExtractionConfig    `koanf:"extraction"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"http_host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
	OTLPProtocol    string `koanf:"otlp_protocol"` // grpc or http/protobuf
	OTLPInsecure    bool   `koanf:"otlp_insecure"`
}

// LoggingConfig holds log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// LLMConfig configures the chat completion provider.
type LLMConfig struct {
	BaseURL    string        `koanf:"base_url"`
	Model      string        `koanf:"model"`
	APIKey     Secret        `koanf:"api_key"`
	Timeout    time.Duration `koanf:"timeout"`
	MaxRetries int           `koanf:"max_retries"`
	RateLimit  float64       `koanf:"rate_limit"` // requests per second
}

// TranscriptionConfig configures the speech-to-text provider.
type TranscriptionConfig struct {
	BaseURL string        `koanf:"base_url"`
	Model   string        `koanf:"model"`
	APIKey  Secret        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// NATSConfig configures event publishing.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
}

// ExtractionConfig tunes the task extraction pipeline.
type ExtractionConfig struct {
	ScrubTranscripts bool `koanf:"scrub_transcripts"`
	HistoryWindow    int  `koanf:"history_window"`
}

// Load loads configuration from environment variables with defaults.
//
// Environment variables:
//   - SERVER_HTTP_HOST: listen host (default: 0.0.0.0)
//   - SERVER_HTTP_PORT: listen port (default: 8000)
//   - SERVER_SHUTDOWN_TIMEOUT: graceful shutdown timeout (default: 10s)
//   - SERVER_CORS_ORIGINS: comma separated origins (default: *)
//   - OTEL_ENABLE, OTEL_SERVICE_NAME, OTEL_EXPORTER_OTLP_ENDPOINT, OTEL_EXPORTER_OTLP_PROTOCOL
//   - LOG_LEVEL, LOG_FORMAT
//   - LLM_BASE_URL, LLM_MODEL, LLM_API_KEY (falls back to GROQ_API_KEY), LLM_TIMEOUT
//   - TRANSCRIPTION_API_KEY (falls back to OPENAI_API_KEY), TRANSCRIPTION_MODEL
//   - NATS_ENABLED, NATS_URL, NATS_SUBJECT_PREFIX
//   - EXTRACTION_SCRUB_TRANSCRIPTS, EXTRACTION_HISTORY_WINDOW
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HTTP_HOST", "0.0.0.0"),
			Port:            getEnvInt("SERVER_HTTP_PORT", 8000),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvList("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Observability: ObservabilityConfig{
			EnableTelemetry: getEnvBool("OTEL_ENABLE", false),
			ServiceName:     getEnvString("OTEL_SERVICE_NAME", "jipange"),
			OTLPEndpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			OTLPProtocol:    getEnvString("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			OTLPInsecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		LLM: LLMConfig{
			BaseURL:    getEnvString("LLM_BASE_URL", DefaultLLMBaseURL),
			Model:      getEnvString("LLM_MODEL", DefaultLLMModel),
			APIKey:     Secret(getEnvString("LLM_API_KEY", os.Getenv("GROQ_API_KEY"))),
			Timeout:    getEnvDuration("LLM_TIMEOUT", 30*time.Second),
			MaxRetries: getEnvInt("LLM_MAX_RETRIES", 3),
			RateLimit:  getEnvFloat("LLM_RATE_LIMIT", 5),
		},
		Transcription: TranscriptionConfig{
			BaseURL: getEnvString("TRANSCRIPTION_BASE_URL", DefaultTranscriptionBaseURL),
			Model:   getEnvString("TRANSCRIPTION_MODEL", DefaultTranscriptionModel),
			APIKey:  Secret(getEnvString("TRANSCRIPTION_API_KEY", os.Getenv("OPENAI_API_KEY"))),
			Timeout: getEnvDuration("TRANSCRIPTION_TIMEOUT", 60*time.Second),
		},
		NATS: NATSConfig{
			Enabled:       getEnvBool("NATS_ENABLED", false),
			URL:           getEnvString("NATS_URL", DefaultNATSURL),
			SubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "jipange"),
		},
		Extraction: ExtractionConfig{
			ScrubTranscripts: getEnvBool("EXTRACTION_SCRUB_TRANSCRIPTS", true),
			HistoryWindow:    getEnvInt("EXTRACTION_HISTORY_WINDOW", 10),
		},
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	if c.Observability.EnableTelemetry {
		if c.Observability.ServiceName == "" {
			return errors.New("service name required when telemetry is enabled")
		}
		switch c.Observability.OTLPProtocol {
		case "grpc", "http/protobuf":
		default:
			return fmt.Errorf("invalid otlp protocol %q (must be grpc or http/protobuf)", c.Observability.OTLPProtocol)
		}
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (must be json or console)", c.Logging.Format)
	}

	if _, err := url.ParseRequestURI(c.LLM.BaseURL); err != nil {
		return fmt.Errorf("invalid llm base url: %w", err)
	}
	if c.LLM.MaxRetries < 0 {
		return errors.New("llm max retries cannot be negative")
	}
	if c.LLM.RateLimit < 0 {
		return errors.New("llm rate limit cannot be negative")
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		return errors.New("nats url required when nats is enabled")
	}
	if c.Extraction.HistoryWindow < 0 {
		return errors.New("history window cannot be negative")
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
