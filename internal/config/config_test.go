package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		AI: AIConfig{
			APIKey:  "test-key",
			Timeout: 60 * time.Second,
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Improve: ImproveConfig{
			MaxAttempts: 5,
			LockMode:    "none",
		},
		App: AppConfig{
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing API key",
			mutate:  func(c *Config) { c.AI.APIKey = "" },
			wantErr: "AI API key is required",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Improve.MaxAttempts = 0 },
			wantErr: "maxAttempts must be at least 1",
		},
		{
			name:    "negative stage delay",
			mutate:  func(c *Config) { c.Improve.StageDelay = -time.Second },
			wantErr: "stageDelay cannot be negative",
		},
		{
			name:    "unknown lock mode",
			mutate:  func(c *Config) { c.Improve.LockMode = "optimistic" },
			wantErr: "invalid improve lockMode",
		},
		{
			name:    "advisory locking without database",
			mutate:  func(c *Config) { c.Improve.LockMode = "advisory" },
			wantErr: "requires database.url",
		},
		{
			name: "advisory locking with database",
			mutate: func(c *Config) {
				c.Improve.LockMode = "advisory"
				c.Database.URL = "postgres://localhost/resumatcher"
			},
		},
		{
			name:    "unsupported default format",
			mutate:  func(c *Config) { c.App.DefaultFormat = "pdf" },
			wantErr: "invalid default format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestImproveDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	assert.Equal(t, 5, v.GetInt("improve.maxAttempts"))
	assert.Equal(t, time.Duration(0), v.GetDuration("improve.stageDelay"))
	assert.Equal(t, "none", v.GetString("improve.lockMode"))
	assert.Equal(t, 10*time.Second, v.GetDuration("database.connectTimeout"))
}
