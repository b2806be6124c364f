package config

import (
	"os"
	"path/filepath"
	"testing"

	"resumatcher/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger() *errors.Logger {
	// Return a real logger for testing since the interface is complex
	logger, _ := errors.New("debug")
	return logger
}

// Test parseVersionValue function
func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		path        string
		expected    int64
		expectError bool
	}{
		{
			name:     "int64 value",
			input:    int64(42),
			path:     "test/path",
			expected: 42,
		},
		{
			name:     "float64 value",
			input:    float64(42.0),
			path:     "test/path",
			expected: 42,
		},
		{
			name:     "string value",
			input:    "42",
			path:     "test/path",
			expected: 42,
		},
		{
			name:        "invalid string value",
			input:       "not-a-number",
			path:        "test/path",
			expectError: true,
		},
		{
			name:        "unsupported type",
			input:       []string{"42"},
			path:        "test/path",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, tt.path)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// Test applyGeminiKeyToConfig function
func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Rewrite: OperationAIConfig{},
			Extract: OperationAIConfig{},
			Preview: OperationAIConfig{},
			Embed:   OperationAIConfig{},
		},
	}

	geminiKey := "test-gemini-key"
	applyGeminiKeyToConfig(config, geminiKey)

	assert.Equal(t, geminiKey, config.AI.APIKey)
	assert.Equal(t, geminiKey, config.AI.Rewrite.APIKey)
	assert.Equal(t, geminiKey, config.AI.Extract.APIKey)
	assert.Equal(t, geminiKey, config.AI.Preview.APIKey)
	assert.Equal(t, geminiKey, config.AI.Embed.APIKey)
}

func TestApplyGeminiKeyToConfigWithExistingKeys(t *testing.T) {
	existingRewriteKey := "existing-rewrite-key"
	config := &Config{
		AI: AIConfig{
			Rewrite: OperationAIConfig{APIKey: existingRewriteKey},
			Extract: OperationAIConfig{},
			Preview: OperationAIConfig{},
			Embed:   OperationAIConfig{},
		},
	}

	geminiKey := "test-gemini-key"
	applyGeminiKeyToConfig(config, geminiKey)

	assert.Equal(t, geminiKey, config.AI.APIKey)
	assert.Equal(t, existingRewriteKey, config.AI.Rewrite.APIKey) // Should not overwrite existing
	assert.Equal(t, geminiKey, config.AI.Extract.APIKey)
	assert.Equal(t, geminiKey, config.AI.Preview.APIKey)
	assert.Equal(t, geminiKey, config.AI.Embed.APIKey)
}

// Test resolveVaultToken function
func TestResolveVaultToken(t *testing.T) {
	logger := newMockLogger()

	t.Run("token from config", func(t *testing.T) {
		config := VaultConfig{
			Token: "direct-token",
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		// Create temporary token file
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "vault-token")
		err := os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token) // Should be trimmed
	})

	t.Run("missing token file", func(t *testing.T) {
		config := VaultConfig{
			TokenFile: "/nonexistent/token/file",
		}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		config := VaultConfig{}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})

	t.Run("empty token from file", func(t *testing.T) {
		// Create temporary empty token file
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "empty-token")
		err := os.WriteFile(tokenFile, []byte("   \n  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		_, err = resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

// Test extractSecretData and extractSecretVersion against KVv2 shapes
func TestExtractSecretData(t *testing.T) {
	vc := &VaultClient{}

	t.Run("valid KVv2 secret", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{
				"data": map[string]any{"api_key": "abc123"},
				"metadata": map[string]any{
					"version": int64(3),
				},
			},
		}

		data, err := vc.extractSecretData(secret, "secret/data/gemini")
		require.NoError(t, err)
		assert.Equal(t, "abc123", data["api_key"])

		version, err := vc.extractSecretVersion(secret, "secret/data/gemini")
		require.NoError(t, err)
		assert.Equal(t, int64(3), version)
	})

	t.Run("missing data field", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{"api_key": "abc123"},
		}

		_, err := vc.extractSecretData(secret, "secret/data/gemini")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not in KVv2 format")
	})

	t.Run("missing metadata field", func(t *testing.T) {
		secret := &api.Secret{
			Data: map[string]any{
				"data": map[string]any{"api_key": "abc123"},
			},
		}

		_, err := vc.extractSecretVersion(secret, "secret/data/gemini")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "not in KVv2 format")
	})
}

// Test GetSecretV2 nil-client guard
func TestGetSecretV2NilClient(t *testing.T) {
	var vc *VaultClient

	_, err := vc.GetSecretV2("secret/data/test")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not initialized")
}

// Test ApplyVaultSecrets short-circuits when disabled
func TestApplyVaultSecretsDisabled(t *testing.T) {
	config := &Config{
		Vault: VaultConfig{Enabled: false},
	}

	err := ApplyVaultSecrets(config, newMockLogger())
	assert.NoError(t, err)
}
