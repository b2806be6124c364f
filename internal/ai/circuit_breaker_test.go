package ai

import (
	"testing"
	"time"

	"resumatcher/internal/config"
)

func TestIndependentCircuitBreakerConfigurations(t *testing.T) {
	// Test that each operation gets its own circuit breaker configuration

	rewriteConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.5-pro",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	extractConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-2.0-flash-lite",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      5,                // Different from rewrite
			Interval:         30 * time.Second, // Different from rewrite
			Timeout:          45 * time.Second, // Different from rewrite
			MinRequests:      2,                // Different from rewrite
			FailureThreshold: 0.7,              // Different from rewrite
		},
	}

	previewConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "gemini-1.5-pro",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      4,                // Different from others
			Interval:         90 * time.Second, // Different from others
			Timeout:          75 * time.Second, // Different from others
			MinRequests:      5,                // Different from others
			FailureThreshold: 0.5,              // Different from others
		},
	}

	// Create circuit breakers for each operation
	rewriteCB := NewAICircuitBreaker("Rewrite", rewriteConfig, nil)
	extractCB := NewAICircuitBreaker("Extract", extractConfig, nil)
	previewCB := NewAICircuitBreaker("Preview", previewConfig, nil)

	// Verify that each circuit breaker has independent configuration
	t.Run("RewriteCircuitBreaker", func(t *testing.T) {
		stats := rewriteCB.GetStats()

		// Check that rewrite circuit breaker exists and has correct name
		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-Rewrite"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}

		// Verify it's in closed state initially
		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}

		// Verify it's enabled
		enabled, ok := stats["enabled"].(bool)
		if !ok {
			t.Fatal("Circuit breaker enabled status not found")
		}
		if !enabled {
			t.Error("Circuit breaker should be enabled")
		}
	})

	t.Run("ExtractCircuitBreaker", func(t *testing.T) {
		stats := extractCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-Extract"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}
	})

	t.Run("PreviewCircuitBreaker", func(t *testing.T) {
		stats := previewCB.GetStats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}

		expectedName := "AI-Preview"
		if name != expectedName {
			t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
		}
	})

	// Verify that circuit breakers are independent (different instances)
	t.Run("IndependentInstances", func(t *testing.T) {
		if rewriteCB == extractCB {
			t.Error("Rewrite and extract circuit breakers should be different instances")
		}
		if rewriteCB == previewCB {
			t.Error("Rewrite and preview circuit breakers should be different instances")
		}
		if extractCB == previewCB {
			t.Error("Extract and preview circuit breakers should be different instances")
		}
	})

	// Verify that health states are independent
	t.Run("IndependentHealthStates", func(t *testing.T) {
		rewriteHealthy := rewriteCB.IsHealthy()
		extractHealthy := extractCB.IsHealthy()
		previewHealthy := previewCB.IsHealthy()

		// All should be healthy initially
		if !rewriteHealthy {
			t.Error("Rewrite circuit breaker should be healthy initially")
		}
		if !extractHealthy {
			t.Error("Extract circuit breaker should be healthy initially")
		}
		if !previewHealthy {
			t.Error("Preview circuit breaker should be healthy initially")
		}
	})
}

func TestEmbedCircuitBreaker(t *testing.T) {
	embedConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "text-embedding-004",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      3,
			Interval:         60 * time.Second,
			Timeout:          60 * time.Second,
			MinRequests:      3,
			FailureThreshold: 0.6,
		},
	}

	cb := NewEmbedCircuitBreaker("Scoring", embedConfig, nil)
	if cb == nil {
		t.Fatal("Embed circuit breaker should not be nil when enabled")
	}

	stats := cb.GetEmbedStats()
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("Circuit breaker name not found")
	}
	if name != "AI-Embed-Scoring" {
		t.Errorf("Expected circuit breaker name 'AI-Embed-Scoring', got '%s'", name)
	}

	if !cb.IsEmbedHealthy() {
		t.Error("Embed circuit breaker should be healthy initially")
	}
}

func TestCircuitBreakerConfigurationMapping(t *testing.T) {
	// Test that configuration values are properly applied to circuit breakers

	customConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          true,
			MaxRequests:      10,
			Interval:         120 * time.Second,
			Timeout:          90 * time.Second,
			MinRequests:      5,
			FailureThreshold: 0.8,
		},
	}

	cb := NewAICircuitBreaker("Test", customConfig, nil)

	// Verify circuit breaker was created with custom configuration
	if cb == nil {
		t.Fatal("Circuit breaker should not be nil")
	}

	stats := cb.GetStats()
	if stats == nil {
		t.Fatal("Circuit breaker stats should not be nil")
	}

	// Check that the circuit breaker has the expected operation type in its name
	name, ok := stats["name"].(string)
	if !ok {
		t.Fatal("Circuit breaker name not found")
	}

	expectedName := "AI-Test"
	if name != expectedName {
		t.Errorf("Expected circuit breaker name '%s', got '%s'", expectedName, name)
	}
}

func TestCircuitBreakerDisabled(t *testing.T) {
	// Test that circuit breaker returns nil when disabled

	disabledConfig := &config.OperationAIConfig{
		Provider: "gemini",
		Model:    "test-model",
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: false, // Disabled
		},
	}

	cb := NewAICircuitBreaker("Disabled", disabledConfig, nil)

	// Should return nil when disabled
	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	if NewEmbedCircuitBreaker("Disabled", disabledConfig, nil) != nil {
		t.Fatal("Embed circuit breaker should be nil when disabled")
	}
}
