package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"resumatcher/internal/ai"
	"resumatcher/internal/config"
	resumatcherErrors "resumatcher/internal/errors"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	return s.AppConfig.Observability.HealthCheck.Timeout
}

// healthHandler provides a comprehensive health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status":  "healthy",
		"service": "resumatcher",
		"version": s.Version,
	}

	// Check AI model availability for all operations
	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	// Check circuit breaker status
	circuitBreakerStatus := s.checkCircuitBreakerHealth()
	response["circuit_breakers"] = circuitBreakerStatus

	// Report which store backs the pipeline
	response["storage"] = s.checkStorageHealth()

	// Determine overall health status
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		if modelInfo, ok := modelStatus.(map[string]any); ok {
			if available, exists := modelInfo["available"]; exists {
				if avail, ok := available.(bool); ok && !avail {
					overallHealthy = false
					break
				}
			}
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode health response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// operationConfigs returns the per-operation AI configs keyed by operation name.
func (s *Server) operationConfigs() map[string]config.OperationAIConfig {
	return map[string]config.OperationAIConfig{
		"rewrite": s.AppConfig.GetRewriteConfig(),
		"extract": s.AppConfig.GetExtractConfig(),
		"preview": s.AppConfig.GetPreviewConfig(),
		"embed":   s.AppConfig.GetEmbedConfig(),
	}
}

// checkAIModelsHealth checks the health of all AI models used by different operations
func (s *Server) checkAIModelsHealth() map[string]any {
	// Use configurable health check timeout
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)

	for operation, opConfig := range s.operationConfigs() {
		if aiService, err := ai.NewService(&opConfig, operation, s.Logger); err == nil {
			aiStatus[operation] = aiService.GetModelInfo(ctx)
		} else {
			aiStatus[operation] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", operation, err),
			}
		}
	}

	return aiStatus
}

// checkCircuitBreakerHealth checks the health of circuit breakers for all AI operations
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	circuitBreakerStatus := make(map[string]any)

	for operation, opConfig := range s.operationConfigs() {
		if aiService, err := ai.NewService(&opConfig, operation, s.Logger); err == nil {
			status := map[string]any{
				"available": true,
				"message":   fmt.Sprintf("Circuit breaker integrated with %s service", operation),
			}
			if geminiProvider, ok := aiService.Provider.(*ai.GeminiProvider); ok {
				status["stats"] = geminiProvider.GetCircuitBreakerStats()
			}
			circuitBreakerStatus[operation] = status
		} else {
			circuitBreakerStatus[operation] = map[string]any{
				"available": false,
				"error":     fmt.Sprintf("Failed to create %s service: %v", operation, err),
			}
		}
	}

	return circuitBreakerStatus
}

// checkStorageHealth reports the configured storage backend
func (s *Server) checkStorageHealth() map[string]any {
	storageStatus := make(map[string]any)
	if s.AppConfig.Database.URL != "" {
		storageStatus["backend"] = "postgres"
	} else {
		storageStatus["backend"] = "memory"
	}
	storageStatus["lock_mode"] = s.AppConfig.Improve.LockMode
	storageStatus["available"] = s.EntityStore != nil
	return storageStatus
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"service": "resumatcher",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"improve": map[string]any{
			"max_attempts": s.AppConfig.Improve.MaxAttempts,
			"stage_delay":  s.AppConfig.Improve.StageDelay.String(),
			"lock_mode":    s.AppConfig.Improve.LockMode,
		},
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	// Add configuration info
	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode stats response: %v", err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		log.Printf("Failed to encode error response: %v", err)
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}

// statusForError maps typed pipeline errors to HTTP status codes: missing
// entities are 404, other validation failures 422, lock contention 409,
// upstream AI failures 502, everything else 500.
func statusForError(err error) int {
	var appErr *resumatcherErrors.AppError
	if !resumatcherErrors.AsAppError(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch {
	case appErr.Code == resumatcherErrors.ErrCodeNotFound:
		return http.StatusNotFound
	case appErr.Code == resumatcherErrors.ErrCodeLockUnavailable:
		return http.StatusConflict
	case appErr.Type == resumatcherErrors.ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case appErr.Type == resumatcherErrors.ErrorTypeAI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError maps a pipeline error onto the wire
func writeAppError(w http.ResponseWriter, err error) {
	var appErr *resumatcherErrors.AppError
	if resumatcherErrors.AsAppError(err, &appErr) {
		writeErrorResponse(w, appErr.Code, appErr.Message, statusForError(err))
		return
	}
	writeErrorResponse(w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
}
