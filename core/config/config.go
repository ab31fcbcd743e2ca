package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"retailassist.app/relay/core/db"
)

type Config struct {
	OTel         OTelConfig
	Meta         MetaConfig
	LLM          LLMConfig
	Pipeline     PipelineConfig
	Env          string
	Port         string
	AdminAPIKey  string
	MockSeedFile string
	DB           db.Config
	MockMode     bool
}

type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
	SampleRatio    float64
}

// MetaConfig holds the Facebook/Instagram app credentials.
type MetaConfig struct {
	VerifyToken     string // hub.verify_token expected during the subscribe handshake
	AppSecret       string // signs X-Hub-Signature-256
	PageAccessToken string // default token when a workspace has none of its own
	GraphAPIVersion string
	GraphBaseURL    string
	SendTimeout     time.Duration
	// DedupeDeliveries enforces one event per (platform, type, external id).
	DedupeDeliveries bool
}

type LLMConfig struct {
	Provider    string // "openai" or "anthropic"
	APIKey      string
	BaseURL     string // Optional: for custom endpoints
	Model       string // default when an agent has no model of its own
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type PipelineConfig struct {
	RedisURL        string
	RedisStream     string
	RedisGroup      string
	RedisDLQStream  string
	RedisConsumer   string
	TraceHeaderName string
	MaxAttempts     int
	SweepInterval   time.Duration
	StaleAfter      time.Duration
}

type ServiceType string

const (
	ServiceTypeServer ServiceType = "server"
	ServiceTypeWorker ServiceType = "worker"
)

// Load loads configuration from environment variables.
// In development, it loads from service-specific .env files:
//   - .env.server for the webhook server
//   - .env.worker for the reprocessing worker
//
// Falls back to .env if service-specific file doesn't exist.
//
// Missing Meta or LLM credentials do not fail Load: the capability that needs
// them reports the error when it is used.
func Load(serviceType ServiceType) (Config, error) {
	if getEnv("RELAY_ENV", "development") == "development" {
		envFile := fmt.Sprintf(".env.%s", serviceType)
		if err := godotenv.Load(envFile); err != nil {
			_ = godotenv.Load(".env")
		}
	}

	cfg := Config{
		Env:          getEnv("RELAY_ENV", "development"),
		Port:         getEnv("PORT", "8080"),
		AdminAPIKey:  getEnv("ADMIN_API_KEY", ""),
		MockMode:     getEnvBool("MOCK_MODE", false),
		MockSeedFile: getEnv("MOCK_SEED_FILE", ""),
		DB: db.Config{
			DSN:      getEnv("DATABASE_URL", ""),
			MaxConns: getEnvInt32("DB_MAX_CONNS", 10),
			MinConns: getEnvInt32("DB_MIN_CONNS", 2),
		},
		OTel: OTelConfig{
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Headers:        getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "retailassist-"+string(serviceType)),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			SampleRatio:    getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0),
		},
		Meta: MetaConfig{
			VerifyToken:      getEnv("META_VERIFY_TOKEN", ""),
			AppSecret:        getEnv("META_APP_SECRET", ""),
			PageAccessToken:  getEnv("META_PAGE_ACCESS_TOKEN", ""),
			GraphAPIVersion:  getEnv("META_GRAPH_API_VERSION", "v19.0"),
			GraphBaseURL:     getEnv("META_GRAPH_BASE_URL", "https://graph.facebook.com"),
			SendTimeout:      getEnvDuration("META_SEND_TIMEOUT", 15*time.Second),
			DedupeDeliveries: getEnvBool("META_DEDUPE_DELIVERIES", true),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			APIKey:      getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", "")),
			BaseURL:     getEnv("LLM_BASE_URL", ""),
			Model:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", 500),
			Temperature: getEnvFloat("LLM_TEMPERATURE", 0.7),
			Timeout:     getEnvDuration("LLM_TIMEOUT", 20*time.Second),
		},
		Pipeline: PipelineConfig{
			RedisURL:        getEnv("REDIS_URL", ""),
			RedisStream:     getEnv("REDIS_STREAM", "assist_events"),
			RedisGroup:      getEnv("REDIS_CONSUMER_GROUP", "assist_group"),
			RedisDLQStream:  getEnv("REDIS_DLQ_STREAM", "assist_events_dlq"),
			RedisConsumer:   getEnv("REDIS_CONSUMER_NAME", "worker-1"),
			TraceHeaderName: getEnv("TRACE_HEADER_NAME", "X-Trace-Id"),
			MaxAttempts:     getEnvInt("PIPELINE_MAX_ATTEMPTS", 3),
			SweepInterval:   getEnvDuration("PIPELINE_SWEEP_INTERVAL", time.Minute),
			StaleAfter:      getEnvDuration("PIPELINE_STALE_AFTER", 5*time.Minute),
		},
	}

	if err := cfg.validate(serviceType); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate(serviceType ServiceType) error {
	if c.MockMode {
		if c.IsProduction() {
			return fmt.Errorf("MOCK_MODE cannot be enabled when RELAY_ENV=production")
		}
		if serviceType == ServiceTypeWorker {
			return fmt.Errorf("MOCK_MODE is not supported by the worker: the in-memory store is not shared")
		}
		return nil
	}

	if c.DB.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required unless MOCK_MODE=true")
	}
	if serviceType == ServiceTypeWorker && c.Pipeline.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required for the worker")
	}
	if c.LLM.Provider != "openai" && c.LLM.Provider != "anthropic" {
		return fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", c.LLM.Provider)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

func (c LLMConfig) Enabled() bool {
	return c.APIKey != ""
}

func (c PipelineConfig) QueueEnabled() bool {
	return c.RedisURL != ""
}

// GraphURL returns the versioned Graph API base, e.g. https://graph.facebook.com/v19.0.
func (c MetaConfig) GraphURL() string {
	return strings.TrimRight(c.GraphBaseURL, "/") + "/" + c.GraphAPIVersion
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt32(key string, fallback int32) int32 {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(i)
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// SignatureRequired reports whether unsigned or badly signed deliveries are
// rejected. Only development logs them and lets them through; any other env,
// including an unknown or empty one, rejects.
func (c MetaConfig) SignatureRequired(env string) bool {
	return env != "development"
}
