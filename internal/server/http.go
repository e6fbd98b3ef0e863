package server

import (
	"time"

	"recruitagent/internal/config"
	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/extract"
	"recruitagent/internal/observability"
	"recruitagent/internal/recruiter"
	"recruitagent/internal/session"
)

// SessionCreatedResponse is returned by POST /sessions
type SessionCreatedResponse struct {
	SessionID string `json:"session_id"`
}

// ResumeUploadResponse reports the outcome of a resume upload
type ResumeUploadResponse struct {
	SessionID  string       `json:"session_id"`
	ResumeName string       `json:"resume_name"`
	Kind       extract.Kind `json:"kind"`
	Characters int          `json:"characters"`
	Message    string       `json:"message"`
}

// JobDescriptionRequest is the body of PUT /sessions/{id}/job-description
type JobDescriptionRequest struct {
	JobDescription string `json:"job_description" validate:"required"`
}

// QuestionsRequest is the body of POST /sessions/{id}/questions. Every field
// is optional.
type QuestionsRequest struct {
	Types      []string `json:"types"`
	Difficulty string   `json:"difficulty"`
	Count      int      `json:"count"`
}

// AskRequest is the body of POST /sessions/{id}/ask
type AskRequest struct {
	Question string `json:"question"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS Configuration
	TLSConfig config.TLSConfig

	// Certificate reloading, set when tls.reload is enabled
	CertificateManager *CertificateManager

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Domain components. Recruiter and Observability are built by Start
	// when left nil.
	Recruiter     *recruiter.Service
	Sessions      *session.Store
	Extractor     *extract.Extractor
	Observability *observability.ObservabilityManager

	Logger *agentErrors.Logger

	startedAt time.Time
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// ServerConfigFrom copies the server section of the application config.
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	rl := cfg.Server.RateLimit
	return ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &rl,
	}
}

// NewServer creates a Server with an empty session store and a document
// extractor configured from appCfg.App.
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *agentErrors.Logger) *Server {
	if logger == nil {
		logger = agentErrors.Nop()
	}
	if appCfg == nil {
		appCfg = &config.Config{}
	}

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Sessions:       session.NewStore(appCfg.App.SessionTTL, logger),
		Extractor:      extract.New(appCfg.App.TempDir, appCfg.App.MaxUploadBytes),
		Logger:         logger,
		startedAt:      time.Now(),
	}
}
