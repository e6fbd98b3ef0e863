package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by LoadConfig.
const EnvPrefix = "RECRUITAGENT"

// Config holds all application configuration
// API key precedence:
// 1. Vault (if configured)
// 2. Config file values
// 3. Environment variables (RECRUITAGENT_AI_APIKEY, then GROQ_API_KEY / OPENAI_API_KEY / GEMINI_API_KEY)
// 4. Default values
type Config struct {
	AI            AIConfig            `mapstructure:"ai"`
	Server        ServerConfig        `mapstructure:"server"`
	App           AppConfig           `mapstructure:"app"`
	Vault         VaultConfig         `mapstructure:"vault"`
	Observability ObservabilityConfig `mapstructure:"observability"`

	// prompts holds templates read from the *File settings, keyed by operation.
	prompts map[string]LoadedPrompts
}

// AIConfig holds the global LLM settings and per-operation overrides
type AIConfig struct {
	Provider      string        `mapstructure:"provider"`
	BaseURL       string        `mapstructure:"baseURL"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	APIKey        string        `mapstructure:"apiKey"`
	MaxRetries    int           `mapstructure:"maxRetries"`
	Temperature   float32       `mapstructure:"temperature"`
	MaxTokens     int           `mapstructure:"maxTokens"`
	CustomPrompts PromptConfig  `mapstructure:"customPrompts"`

	Analyze   OperationAIConfig `mapstructure:"analyze"`
	Questions OperationAIConfig `mapstructure:"questions"`
	Improve   OperationAIConfig `mapstructure:"improve"`
	Answer    OperationAIConfig `mapstructure:"answer"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // closed-state count reset interval
	Timeout          time.Duration `mapstructure:"timeout"`          // open-state duration
	MinRequests      uint32        `mapstructure:"minRequests"`      // requests before the breaker may trip
	FailureThreshold float64       `mapstructure:"failureThreshold"` // failure ratio 0.0-1.0
}

// OperationAIConfig holds AI configuration for one operation. Unset fields
// fall back to AIConfig in GetOperationConfig.
type OperationAIConfig struct {
	Provider       string               `mapstructure:"provider"`
	BaseURL        string               `mapstructure:"baseURL"`
	Model          string               `mapstructure:"model"`
	Timeout        *time.Duration       `mapstructure:"timeout"`
	APIKey         string               `mapstructure:"apiKey"`
	MaxRetries     *int                 `mapstructure:"maxRetries"`
	Temperature    *float32             `mapstructure:"temperature"`
	MaxTokens      *int                 `mapstructure:"maxTokens"`
	CustomPrompts  PromptConfig         `mapstructure:"customPrompts"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`

	// Loaded carries prompt file content resolved for this operation.
	Loaded LoadedPrompts `mapstructure:"-"`
}

// PromptConfig holds a system instruction and a user prompt template,
// either inline or as a path to a file.
type PromptConfig struct {
	System     string `mapstructure:"system"`
	SystemFile string `mapstructure:"systemFile"`
	User       string `mapstructure:"user"`
	UserFile   string `mapstructure:"userFile"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string          `mapstructure:"host"`
	Port           string          `mapstructure:"port"`
	ReadTimeout    time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout   time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout    time.Duration   `mapstructure:"idleTimeout"`
	MaxRequestSize int64           `mapstructure:"maxRequestSize"`
	TLS            TLSConfig       `mapstructure:"tls"`
	APIKeys        []string        `mapstructure:"apiKeys"`
	RateLimit      RateLimitConfig `mapstructure:"rateLimit"`
}

// TLSConfig holds TLS/mTLS configuration
type TLSConfig struct {
	Mode     string `mapstructure:"mode"` // "disabled", "server", "mutual"
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`

	// PEM content, filled from Vault instead of files
	CertContent string `mapstructure:"certContent"`
	KeyContent  string `mapstructure:"keyContent"`
	CAContent   string `mapstructure:"caContent"`

	MinVersion       string   `mapstructure:"minVersion"` // "1.2" or "1.3"
	CipherSuites     []string `mapstructure:"cipherSuites"`
	ClientAuthPolicy string   `mapstructure:"clientAuthPolicy"` // "require", "request", "verify"

	// Reload re-reads certificate files when they change on disk
	Reload CertReloadConfig `mapstructure:"reload"`
}

// CertReloadConfig controls watching certificate files for rotation
type CertReloadConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
	ByIP           bool `mapstructure:"byIP"`
	ByAPIKey       bool `mapstructure:"byAPIKey"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel          string        `mapstructure:"logLevel"`
	DefaultFormat     string        `mapstructure:"defaultFormat"`
	SupportedFormats  []string      `mapstructure:"supportedFormats"`
	MaxUploadBytes    int64         `mapstructure:"maxUploadBytes"`
	TempDir           string        `mapstructure:"tempDir"`
	SessionTTL        time.Duration `mapstructure:"sessionTTL"`
	ImprovedResumeOut string        `mapstructure:"improvedResumeOut"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	ServiceName     string            `mapstructure:"serviceName"`
	ServiceVersion  string            `mapstructure:"serviceVersion"`
	ServiceInstance string            `mapstructure:"serviceInstance"`
	Tracing         TracingConfig     `mapstructure:"tracing"`
	Metrics         MetricsConfig     `mapstructure:"metrics"`
	Console         ConsoleConfig     `mapstructure:"console"`
	Prometheus      PrometheusConfig  `mapstructure:"prometheus"`
	OTLP            OTLPConfig        `mapstructure:"otlp"`
	HealthCheck     HealthCheckConfig `mapstructure:"healthCheck"`
}

// TracingConfig holds tracing configuration
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	SampleRate float64 `mapstructure:"sampleRate"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig enables the stdout trace and metric exporters
type ConsoleConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// HealthCheckConfig holds health check configuration
type HealthCheckConfig struct {
	Timeout             time.Duration `mapstructure:"timeout"`
	AIModelCheckTimeout time.Duration `mapstructure:"aiModelCheckTimeout"`
}

// LoadConfig loads configuration from defaults, the config file and
// environment variables, then loads prompt files and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/recruitagent/")
	v.AddConfigPath("$HOME/.recruitagent")
	v.AddConfigPath(".")

	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	return decode(v, configFileUsed)
}

// LoadConfigFile loads configuration from an explicit file path.
func LoadConfigFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return decode(v, v.ConfigFileUsed())
}

func decode(v *viper.Viper, configFileUsed string) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()
	config.logConfigurationSources(configFileUsed)

	if err := config.loadPromptsFromFiles(); err != nil {
		return nil, fmt.Errorf("failed to load custom prompts from files: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("[CONFIG] Configuration loading completed successfully")
	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validateProvider(c.AI.Provider); err != nil {
		return err
	}
	for _, op := range Operations {
		opCfg := c.operationSection(op)
		if opCfg.Provider != "" {
			if err := validateProvider(opCfg.Provider); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	if c.AI.Timeout < 0 {
		return fmt.Errorf("AI timeout must not be negative")
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("AI maxRetries must not be negative")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	if c.App.MaxUploadBytes <= 0 {
		return fmt.Errorf("app maxUploadBytes must be positive")
	}
	if c.App.SessionTTL <= 0 {
		return fmt.Errorf("app sessionTTL must be positive")
	}

	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func validateProvider(provider string) error {
	switch provider {
	case ProviderGroq, ProviderOpenAI, ProviderGemini:
		return nil
	default:
		return fmt.Errorf("unsupported AI provider: %s (must be '%s', '%s' or '%s')",
			provider, ProviderGroq, ProviderOpenAI, ProviderGemini)
	}
}
