package config

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Key Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (RESUMATCH_AI_APIKEY, then OPENROUTER_API_KEY and friends)
// 4. Default values - Lowest priority
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Prompt        PromptConfig        `mapstructure:"prompt"`
	Fetch         FetchConfig         `mapstructure:"fetch"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// Supported model providers
const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
)

// AIConfig holds model provider configuration
type AIConfig struct {
	// Global/fallback configuration
	Provider     string   `mapstructure:"provider"`
	BaseURL      string   `mapstructure:"baseURL"`
	Model        string   `mapstructure:"model"`
	APIKey       string   `mapstructure:"apiKey"`
	SystemPrompt string   `mapstructure:"systemPrompt"`
	Temperature  *float32 `mapstructure:"temperature"` // unset leaves the provider default
	MaxTokens    *int     `mapstructure:"maxTokens"`   // unset leaves the provider default

	// AllowRequestKeys lets callers of the evaluate-json endpoint supply their own credential.
	AllowRequestKeys bool `mapstructure:"allowRequestKeys"`

	// Operation-specific configurations
	Evaluate      OperationAIConfig `mapstructure:"evaluate"`
	AnalyzeResume OperationAIConfig `mapstructure:"analyzeResume"`
	JobSummary    OperationAIConfig `mapstructure:"jobSummary"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// OperationAIConfig holds AI configuration for specific operations
type OperationAIConfig struct {
	Provider       string               `mapstructure:"provider"`
	BaseURL        string               `mapstructure:"baseURL"`
	Model          string               `mapstructure:"model"`
	APIKey         string               `mapstructure:"apiKey"`
	SystemPrompt   string               `mapstructure:"systemPrompt"`
	Temperature    *float32             `mapstructure:"temperature"`
	MaxTokens      *int                 `mapstructure:"maxTokens"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// PromptConfig holds prompt composition settings
type PromptConfig struct {
	MaxResumeChars         int             `mapstructure:"maxResumeChars"`
	MaxJobDescriptionChars int             `mapstructure:"maxJobDescriptionChars"`
	MaxCoverLetterChars    int             `mapstructure:"maxCoverLetterChars"`
	MaxJobTitleChars       int             `mapstructure:"maxJobTitleChars"`
	Templates              PromptTemplates `mapstructure:"templates"`
	WatchFiles             bool            `mapstructure:"watchFiles"`
}

// PromptTemplates holds user prompt template overrides. A file path wins over inline text.
type PromptTemplates struct {
	Evaluate          string `mapstructure:"evaluate"`
	EvaluateFile      string `mapstructure:"evaluateFile"`
	AnalyzeResume     string `mapstructure:"analyzeResume"`
	AnalyzeResumeFile string `mapstructure:"analyzeResumeFile"`
	JobSummary        string `mapstructure:"jobSummary"`
	JobSummaryFile    string `mapstructure:"jobSummaryFile"`
}

// FetchConfig holds remote resume download configuration
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"maxBytes"`
	UserAgent string        `mapstructure:"userAgent"`
	S3        S3Config      `mapstructure:"s3"`
}

// S3Config holds the optional S3-compatible object store used for s3:// resume URLs
type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"` // Custom endpoint for R2, MinIO and friends
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	UsePathStyle    bool   `mapstructure:"usePathStyle"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// MaxRequestSize bounds request bodies, including multipart uploads
	MaxRequestSize int64 `mapstructure:"maxRequestSize"`

	// CORSOrigins is the allow-list of cross-origin callers
	CORSOrigins []string `mapstructure:"corsOrigins"`

	TLS TLSConfig `mapstructure:"tls"`

	// API Authentication, disabled when empty
	APIKeys    []string         `mapstructure:"apiKeys"`
	KeyWatcher KeyWatcherConfig `mapstructure:"keyWatcher"`

	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"`     // TLS mode: "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"` // Server certificate file (PEM)
	KeyFile  string `mapstructure:"keyFile"`  // Server private key file (PEM)
	CAFile   string `mapstructure:"caFile"`   // CA certificate file for client cert verification (PEM, required for mutual mode)

	// Certificate content (used when loaded from Vault instead of files)
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string `mapstructure:"minVersion"`       // "1.2" or "1.3"
	ClientAuthPolicy string `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"
}

// KeyWatcherConfig controls polling Vault for rotated server API keys
type KeyWatcherConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	PollInterval time.Duration `mapstructure:"pollInterval"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	RequestsPerMin int           `mapstructure:"requestsPerMin"`
	BurstCapacity  int           `mapstructure:"burstCapacity"`
	ByIP           bool          `mapstructure:"byIP"`
	ByAPIKey       bool          `mapstructure:"byAPIKey"`
	Window         time.Duration `mapstructure:"window"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	AIOperations    AIOperationsMetricsConfig `mapstructure:"aiOperations"`
	BusinessMetrics BusinessMetricsConfig     `mapstructure:"businessMetrics"`
	TrackRateLimits bool                      `mapstructure:"trackRateLimits"`
}

// AIOperationsMetricsConfig holds model call metrics configuration
type AIOperationsMetricsConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	TrackDuration   bool `mapstructure:"trackDuration"`
	TrackTokenUsage bool `mapstructure:"trackTokenUsage"`
}

// BusinessMetricsConfig holds pipeline outcome metrics configuration
type BusinessMetricsConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	TrackContentSizes bool `mapstructure:"trackContentSizes"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from .env, environment variables and a config file
func LoadConfig() (*Config, error) {
	log.Println("[CONFIG] Starting configuration loading process")

	if err := godotenv.Load(); err == nil {
		log.Println("[CONFIG] Loaded environment from .env")
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RESUMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Optional keys have no default, so AutomaticEnv alone would not reach Unmarshal
	for _, key := range []string{"ai.temperature", "ai.maxTokens"} {
		_ = v.BindEnv(key)
	}
	log.Println("[CONFIG] Configured environment variable handling with prefix 'RESUMATCH'")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/resumatch/")
	v.AddConfigPath("$HOME/.resumatch")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		log.Println("[CONFIG] No config file found, using defaults and environment variables")
	} else {
		configFileUsed = v.ConfigFileUsed()
		log.Printf("[CONFIG] Successfully loaded config file: %s", configFileUsed)
	}

	return finishLoading(v, configFileUsed)
}

// finishLoading unmarshals v and runs fallbacks, prompt loading and validation
func finishLoading(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.LoadPromptFiles(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	providers := []string{ProviderOpenRouter, ProviderGemini, ProviderAnthropic}
	for name, op := range c.operationConfigs() {
		if !slices.Contains(providers, op.Provider) {
			return fmt.Errorf("unsupported AI provider for %s: %q", name, op.Provider)
		}
		if op.APIKey == "" && !c.AI.AllowRequestKeys {
			return fmt.Errorf("AI API key is required for %s (set RESUMATCH_AI_APIKEY or OPENROUTER_API_KEY)", name)
		}
	}

	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.Fetch.MaxBytes <= 0 {
		return fmt.Errorf("fetch maxBytes must be positive")
	}

	if c.Prompt.MaxResumeChars <= 0 || c.Prompt.MaxJobDescriptionChars <= 0 ||
		c.Prompt.MaxCoverLetterChars <= 0 || c.Prompt.MaxJobTitleChars <= 0 {
		return fmt.Errorf("prompt truncation limits must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if !slices.Contains(c.App.SupportedFormats, c.App.DefaultFormat) {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}
