package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/usecase"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/resilience"
)

const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

type Config struct {
	APIPort           string `yaml:"api_port"`
	WorkerMetricsPort string `yaml:"worker_metrics_port"`
	LogLevel          string `yaml:"log_level"`

	APIRateLimitRPS     float64       `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst   int           `yaml:"api_rate_limit_burst"`
	APIMaxInFlight      int           `yaml:"api_max_in_flight"`
	APIBackpressureWait time.Duration `yaml:"api_backpressure_wait"`

	PostgresDSN string `yaml:"postgres_dsn"`

	NATSURL           string `yaml:"nats_url"`
	NATSBatchSubject  string `yaml:"nats_batch_subject"`
	NATSResultSubject string `yaml:"nats_result_subject"`

	OracleProvider    string        `yaml:"oracle_provider"`
	OracleTimeout     time.Duration `yaml:"oracle_timeout"`
	OracleTemperature float64       `yaml:"oracle_temperature"`

	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GeminiModel   string `yaml:"gemini_model"`
	GeminiBaseURL string `yaml:"gemini_base_url"`

	RetryMaxAttempts    int           `yaml:"retry_max_attempts"`
	RetryInitialBackoff time.Duration `yaml:"retry_initial_backoff"`
	RetryMaxBackoff     time.Duration `yaml:"retry_max_backoff"`
	BreakerEnabled      bool          `yaml:"breaker_enabled"`
	BreakerFailureRatio float64       `yaml:"breaker_failure_ratio"`
	BreakerOpenTimeout  time.Duration `yaml:"breaker_open_timeout"`
	RateLimitPerSecond  float64       `yaml:"rate_limit_per_second"`
	RateLimitBurst      int           `yaml:"rate_limit_burst"`

	BatchSize         int           `yaml:"batch_size"`
	BatchMaxAttempts  int           `yaml:"batch_max_attempts"`
	BatchRetryDelay   time.Duration `yaml:"batch_retry_delay"`
	MaxBatchDocuments int           `yaml:"max_batch_documents"`

	MaxIterations int    `yaml:"max_iterations"`
	AcceptGrade   string `yaml:"accept_grade"`
	PlainMode     string `yaml:"plain_mode"`

	DefaultLanguage string `yaml:"default_language"`
	OutputPrefix    string `yaml:"output_prefix"`
	GlossaryPath    string `yaml:"glossary_path"`
}

func Defaults() Config {
	return Config{
		APIPort:           "8080",
		WorkerMetricsPort: "9090",
		LogLevel:          "info",

		APIMaxInFlight:      64,
		APIBackpressureWait: 250 * time.Millisecond,

		NATSURL:           "nats://localhost:4222",
		NATSBatchSubject:  "translation.batches",
		NATSResultSubject: "translation.results",

		OracleProvider:    ProviderOllama,
		OracleTimeout:     120 * time.Second,
		OracleTemperature: 0,

		OllamaURL:   "http://localhost:11434",
		OllamaModel: "llama3.1:8b",

		GeminiModel: "gemini-2.5-flash",

		RetryMaxAttempts:    3,
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     4 * time.Second,
		BreakerEnabled:      true,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  30 * time.Second,

		BatchSize:         2,
		BatchMaxAttempts:  3,
		BatchRetryDelay:   5 * time.Second,
		MaxBatchDocuments: 100,

		MaxIterations: 3,
		AcceptGrade:   domain.GradeGreat.String(),
		PlainMode:     string(usecase.PlainFrozen),

		DefaultLanguage: "English",
		OutputPrefix:    "batch_results",
		GlossaryPath:    "translation_glossary.xlsx",
	}
}

// Load builds the config from defaults, the YAML file named by CONFIG_FILE
// and the environment, in that order.
func Load() (Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile is Load with an explicit YAML path; an empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.APIPort = mustEnv("API_PORT", c.APIPort)
	c.WorkerMetricsPort = mustEnv("WORKER_METRICS_PORT", c.WorkerMetricsPort)
	c.LogLevel = mustEnv("LOG_LEVEL", c.LogLevel)

	c.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", c.APIRateLimitRPS)
	c.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", c.APIRateLimitBurst)
	c.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", c.APIMaxInFlight)
	c.APIBackpressureWait = mustEnvDuration("API_BACKPRESSURE_WAIT", c.APIBackpressureWait)

	c.PostgresDSN = mustEnv("POSTGRES_DSN", c.PostgresDSN)

	c.NATSURL = mustEnv("NATS_URL", c.NATSURL)
	c.NATSBatchSubject = mustEnv("NATS_BATCH_SUBJECT", c.NATSBatchSubject)
	c.NATSResultSubject = mustEnv("NATS_RESULT_SUBJECT", c.NATSResultSubject)

	c.OracleProvider = strings.ToLower(mustEnv("ORACLE_PROVIDER", c.OracleProvider))
	c.OracleTimeout = mustEnvDuration("ORACLE_TIMEOUT", c.OracleTimeout)
	c.OracleTemperature = mustEnvFloat("ORACLE_TEMPERATURE", c.OracleTemperature)

	c.OllamaURL = mustEnv("OLLAMA_URL", c.OllamaURL)
	c.OllamaModel = mustEnv("OLLAMA_MODEL", c.OllamaModel)

	c.GeminiAPIKey = mustEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = mustEnv("GEMINI_MODEL", c.GeminiModel)
	c.GeminiBaseURL = mustEnv("GEMINI_BASE_URL", c.GeminiBaseURL)

	c.RetryMaxAttempts = mustEnvInt("ORACLE_RETRY_MAX_ATTEMPTS", c.RetryMaxAttempts)
	c.RetryInitialBackoff = mustEnvDuration("ORACLE_RETRY_INITIAL_BACKOFF", c.RetryInitialBackoff)
	c.RetryMaxBackoff = mustEnvDuration("ORACLE_RETRY_MAX_BACKOFF", c.RetryMaxBackoff)
	c.BreakerEnabled = mustEnvBool("ORACLE_BREAKER_ENABLED", c.BreakerEnabled)
	c.BreakerFailureRatio = mustEnvFloat("ORACLE_BREAKER_FAILURE_RATIO", c.BreakerFailureRatio)
	c.BreakerOpenTimeout = mustEnvDuration("ORACLE_BREAKER_OPEN_TIMEOUT", c.BreakerOpenTimeout)
	c.RateLimitPerSecond = mustEnvFloat("ORACLE_RATE_LIMIT_PER_SECOND", c.RateLimitPerSecond)
	c.RateLimitBurst = mustEnvInt("ORACLE_RATE_LIMIT_BURST", c.RateLimitBurst)

	c.BatchSize = mustEnvInt("BATCH_SIZE", c.BatchSize)
	c.BatchMaxAttempts = mustEnvInt("BATCH_MAX_ATTEMPTS", c.BatchMaxAttempts)
	c.BatchRetryDelay = mustEnvDuration("BATCH_RETRY_DELAY", c.BatchRetryDelay)
	c.MaxBatchDocuments = mustEnvInt("MAX_BATCH_DOCUMENTS", c.MaxBatchDocuments)

	c.MaxIterations = mustEnvInt("MAX_ITERATIONS", c.MaxIterations)
	c.AcceptGrade = mustEnv("ACCEPT_GRADE", c.AcceptGrade)
	c.PlainMode = mustEnv("PLAIN_MODE", c.PlainMode)

	c.DefaultLanguage = mustEnv("DEFAULT_LANGUAGE", c.DefaultLanguage)
	c.OutputPrefix = mustEnv("OUTPUT_PREFIX", c.OutputPrefix)
	c.GlossaryPath = mustEnv("GLOSSARY_PATH", c.GlossaryPath)
}

// Validate reports every configuration problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.OracleProvider {
	case ProviderOllama:
		if c.OllamaURL == "" || c.OllamaModel == "" {
			errs = append(errs, errors.New("ollama provider needs OLLAMA_URL and OLLAMA_MODEL"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("gemini provider needs GEMINI_API_KEY"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown oracle provider %q", c.OracleProvider))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	if c.BatchMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("batch max attempts must be at least 1, got %d", c.BatchMaxAttempts))
	}
	if c.BatchRetryDelay < 0 {
		errs = append(errs, fmt.Errorf("batch retry delay must not be negative, got %s", c.BatchRetryDelay))
	}
	if c.MaxIterations < 0 {
		errs = append(errs, fmt.Errorf("max iterations must not be negative, got %d", c.MaxIterations))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := usecase.ParsePlainMode(c.PlainMode); err != nil {
		errs = append(errs, err)
	}
	if c.OracleTemperature < 0 || c.OracleTemperature > 2 {
		errs = append(errs, fmt.Errorf("oracle temperature must be within [0, 2], got %v", c.OracleTemperature))
	}
	if c.DefaultLanguage == "" {
		errs = append(errs, errors.New("default language must be set"))
	}
	return errors.Join(errs...)
}

func (c Config) Policy() (usecase.AcceptancePolicy, error) {
	grade, err := domain.ParseGrade(c.AcceptGrade)
	if err != nil {
		return usecase.AcceptancePolicy{}, fmt.Errorf("accept grade: %w", err)
	}
	return usecase.AcceptancePolicy{MaxIterations: c.MaxIterations, AcceptGrade: grade}, nil
}

func (c Config) Batch() usecase.BatchConfig {
	return usecase.BatchConfig{
		BatchSize:   c.BatchSize,
		MaxAttempts: c.BatchMaxAttempts,
		RetryDelay:  c.BatchRetryDelay,
	}
}

func (c Config) Resilience() resilience.Config {
	rc := resilience.DefaultConfig()
	rc.RetryMaxAttempts = c.RetryMaxAttempts
	rc.RetryInitialBackoff = c.RetryInitialBackoff
	rc.RetryMaxBackoff = c.RetryMaxBackoff
	rc.BreakerEnabled = c.BreakerEnabled
	rc.BreakerFailureRatio = c.BreakerFailureRatio
	rc.BreakerOpenTimeout = c.BreakerOpenTimeout
	rc.RateLimitPerSecond = c.RateLimitPerSecond
	rc.RateLimitBurst = c.RateLimitBurst
	return rc
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration accepts Go durations ("5s") or bare seconds ("5").
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
