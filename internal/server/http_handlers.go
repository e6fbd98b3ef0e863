package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net"
	"net/http"
	"time"

	agentErrors "recruitagent/internal/errors"
)

const (
	serviceName     = "recruitagent"
	serviceTitle    = "Recruitment Agent"
	serviceSubtitle = "Smart Resume Analysis & Interview Preparation System"

	defaultHealthCheckTimeout = 5 * time.Second
)

// getHealthCheckTimeout returns the timeout for probing AI models
func (s *Server) getHealthCheckTimeout() time.Duration {
	hc := s.AppConfig.Observability.HealthCheck
	switch {
	case hc.AIModelCheckTimeout > 0:
		return hc.AIModelCheckTimeout
	case hc.Timeout > 0:
		return hc.Timeout
	}
	return defaultHealthCheckTimeout
}

// healthHandler reports service health including AI model availability
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":   "healthy",
		"service":  serviceName,
		"title":    serviceTitle,
		"version":  s.Version,
		"sessions": s.Sessions.Len(),
	}
	overallHealthy := true

	if s.Recruiter != nil {
		ctx, cancel := context.WithTimeout(r.Context(), s.getHealthCheckTimeout())
		defer cancel()

		models := s.Recruiter.ModelStatus(ctx)
		for _, info := range models {
			if info == nil || !info.Available {
				overallHealthy = false
			}
		}
		response["ai_models"] = models
	}

	if certStatus := s.checkCertificateHealth(); certStatus != nil {
		response["certificates"] = certStatus
		if healthy, ok := certStatus["healthy"].(bool); ok && !healthy {
			overallHealthy = false
		}
	}

	status := http.StatusOK
	if !overallHealthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

// checkCertificateHealth reports certificate expiry when certificates are
// managed by the reloader
func (s *Server) checkCertificateHealth() map[string]any {
	if s.CertificateManager == nil {
		return nil
	}

	certStatus := make(map[string]any)
	timeToExpiry, err := s.CertificateManager.CheckExpiry()
	if err != nil {
		certStatus["healthy"] = false
		certStatus["error"] = fmt.Sprintf("Failed to check certificate expiry: %v", err)
		return certStatus
	}

	criticalThreshold := 24 * time.Hour
	warningThreshold := 7 * 24 * time.Hour

	certStatus["time_to_expiry_hours"] = int(timeToExpiry.Hours())
	switch {
	case timeToExpiry <= 0:
		certStatus["healthy"] = false
		certStatus["status"] = "expired"
	case timeToExpiry <= criticalThreshold:
		certStatus["healthy"] = false
		certStatus["status"] = "critical"
	case timeToExpiry <= warningThreshold:
		certStatus["healthy"] = true
		certStatus["status"] = "warning"
	default:
		certStatus["healthy"] = true
		certStatus["status"] = "ok"
	}

	certStatus["reload"] = s.CertificateManager.Stats()
	return certStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service":        serviceName,
		"version":        s.Version,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"sessions": map[string]any{
			"active": s.Sessions.Len(),
			"ttl":    s.AppConfig.App.SessionTTL.String(),
		},
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"max_upload_bytes":       s.AppConfig.App.MaxUploadBytes,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{"enabled": false}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	body, err := readJSONBody(r)
	if err != nil {
		return err
	}
	return decodeJSON(body, v)
}

// parseOptionalJSONRequest is parseJSONRequest for routes whose body may be
// omitted; an empty body leaves v untouched.
func parseOptionalJSONRequest(r *http.Request, v any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return bodyReadError(err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := requireJSONContentType(r); err != nil {
		return err
	}
	return decodeJSON(body, v)
}

func readJSONBody(r *http.Request) ([]byte, error) {
	if err := requireJSONContentType(r); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, bodyReadError(err)
	}
	return body, nil
}

func requireJSONContentType(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return agentErrors.NewValidationError(agentErrors.ErrCodeInvalidRequest,
			"content-type must be application/json", nil)
	}
	return nil
}

func bodyReadError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return agentErrors.NewValidationError(agentErrors.ErrCodeFileTooLarge,
			fmt.Sprintf("request body too large (limit is %d bytes)", maxBytesErr.Limit), err)
	}
	return agentErrors.NewIOError(agentErrors.ErrCodeFileNotReadable, "failed to read request body", err)
}

func decodeJSON(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return agentErrors.NewValidationError(agentErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("failed to parse JSON: %v", err), err)
	}
	return nil
}

// formFileError describes a missing or unreadable multipart upload.
func formFileError(err error) error {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return agentErrors.NewValidationError(agentErrors.ErrCodeFileTooLarge,
			fmt.Sprintf("upload too large (limit is %d bytes)", maxBytesErr.Limit), err)
	case errors.Is(err, http.ErrMissingFile):
		return agentErrors.NewValidationError(agentErrors.ErrCodeMissingInput,
			"multipart field 'file' is required", err)
	}
	return agentErrors.NewValidationError(agentErrors.ErrCodeInvalidRequest,
		"request must be multipart/form-data with a 'file' field", err)
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	var (
		maxBytesErr *http.MaxBytesError
		parseErr    *agentErrors.DocumentParseError
		formatErr   *agentErrors.ResponseFormatError
		apiErr      *agentErrors.APIError
		netErr      net.Error
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return http.StatusGatewayTimeout
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &parseErr), errors.As(err, &formatErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	}

	appErr, ok := agentErrors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch appErr.Type {
	case agentErrors.ErrorTypeValidation:
		if appErr.Code == agentErrors.ErrCodeFileTooLarge {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	case agentErrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case agentErrors.ErrorTypeNetwork:
		return http.StatusBadGateway
	case agentErrors.ErrorTypeIO:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeAppError writes err as an ErrorResponse. AppErrors expose their code
// and message.
func writeAppError(w http.ResponseWriter, err error, statusCode int) {
	if appErr, ok := agentErrors.AsAppError(err); ok {
		writeErrorResponse(w, appErr.Code, appErr.Message, statusCode)
		return
	}
	writeErrorResponse(w, http.StatusText(statusCode), err.Error(), statusCode)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
