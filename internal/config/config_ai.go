package config

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.Timeout == nil {
		opCfg.Timeout = &c.AI.Timeout
	}
	if opCfg.APIKey == "" {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.MaxRetries == nil {
		opCfg.MaxRetries = &c.AI.MaxRetries
	}
	if opCfg.Temperature == nil {
		opCfg.Temperature = &c.AI.Temperature
	}
	// UseSystemPrompts: apply global default only if not explicitly set
	if opCfg.UseSystemPrompts == nil {
		opCfg.UseSystemPrompts = &c.AI.UseSystemPrompts
	}
}

// GetRewriteConfig returns the AI configuration for rewrite operations with fallback to global config
func (c *Config) GetRewriteConfig() OperationAIConfig {
	config := c.AI.Rewrite

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply rewrite-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.RewriteResume == "" {
		config.CustomPrompts.SystemPrompts.RewriteResume = c.AI.CustomPrompts.SystemPrompts.RewriteResume
	}
	if config.CustomPrompts.UserPrompts.RewriteResume == "" {
		config.CustomPrompts.UserPrompts.RewriteResume = c.AI.CustomPrompts.UserPrompts.RewriteResume
	}

	return config
}

// GetExtractConfig returns the AI configuration for keyword-extraction operations with fallback to global config
func (c *Config) GetExtractConfig() OperationAIConfig {
	config := c.AI.Extract

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply extract-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.ExtractKeywords == "" {
		config.CustomPrompts.SystemPrompts.ExtractKeywords = c.AI.CustomPrompts.SystemPrompts.ExtractKeywords
	}
	if config.CustomPrompts.UserPrompts.ExtractKeywords == "" {
		config.CustomPrompts.UserPrompts.ExtractKeywords = c.AI.CustomPrompts.UserPrompts.ExtractKeywords
	}

	return config
}

// GetPreviewConfig returns the AI configuration for preview operations with fallback to global config
func (c *Config) GetPreviewConfig() OperationAIConfig {
	config := c.AI.Preview

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Apply preview-specific prompt fallbacks
	if config.CustomPrompts.SystemPrompts.PreviewResume == "" {
		config.CustomPrompts.SystemPrompts.PreviewResume = c.AI.CustomPrompts.SystemPrompts.PreviewResume
	}
	if config.CustomPrompts.UserPrompts.PreviewResume == "" {
		config.CustomPrompts.UserPrompts.PreviewResume = c.AI.CustomPrompts.UserPrompts.PreviewResume
	}

	return config
}

// GetEmbedConfig returns the AI configuration for embedding operations with fallback to global config
func (c *Config) GetEmbedConfig() OperationAIConfig {
	config := c.AI.Embed

	// Apply common defaults
	c.applyOperationDefaults(&config)

	// Embedding uses the dedicated embedding model, not the generative one
	if c.AI.Embed.Model == "" {
		config.Model = c.AI.EmbeddingModel
	}

	return config
}
