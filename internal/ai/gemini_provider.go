package ai

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"resumatcher/internal/config"
	apperrors "resumatcher/internal/errors"
	"resumatcher/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

// GeminiProvider implements AIProvider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	httpClient     *http.Client
	config         *config.OperationAIConfig
	circuitBreaker *AICircuitBreaker
	embedBreaker   *EmbedCircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *apperrors.Logger
}

// Ensure GeminiProvider implements AIProvider
var _ AIProvider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *apperrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	// Initialize circuit breakers with operation-specific configuration
	circuitBreaker := NewAICircuitBreaker(operationType, cfg, logger)
	embedBreaker := NewEmbedCircuitBreaker(operationType, cfg, logger)
	modelBreaker := NewModelCircuitBreaker(operationType, cfg, logger)

	return &GeminiProvider{
		client: client,
		httpClient: &http.Client{
			Timeout: *cfg.Timeout,
		},
		config:         cfg,
		circuitBreaker: circuitBreaker,
		embedBreaker:   embedBreaker,
		modelBreaker:   modelBreaker,
		logger:         logger,
	}, nil
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	// Create a timeout context for the model check
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// Get model information from Gemini API with circuit breaker
	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)

		// Log the error for debugging
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", g.config.Provider,
			"error", err.Error())
		return modelInfo
	}

	// Model is available, populate info
	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	// Log successful check
	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"provider", g.config.Provider,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// executeWithRetry executes an AI call with retry logic and exponential backoff
func executeWithRetry[T any](g *GeminiProvider, ctx context.Context, operation string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= *g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Log retry attempt
			g.logger.Warn("Retrying AI operation",
				"operation", operation,
				"attempt", attempt,
				"max_retries", *g.config.MaxRetries,
				"error", lastErr.Error())

			// Exponential backoff with jitter to prevent thundering herd
			baseDelay := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			// Use crypto/rand for secure random jitter
			jitterMax := big.NewInt(int64(float64(baseDelay) * 0.1))
			jitterBig, _ := rand.Int(rand.Reader, jitterMax)
			jitter := time.Duration(jitterBig.Int64())
			// Cap maximum backoff at 30 seconds
			backoff := min(baseDelay+jitter, 30*time.Second)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}

		result, err := fn()
		if err == nil {
			if attempt > 0 {
				g.logger.Info("AI operation succeeded after retry",
					"operation", operation,
					"successful_attempt", attempt+1,
					"total_attempts", attempt+1)
			}
			return result, nil
		}

		lastErr = err

		// Don't retry on certain errors (auth, invalid input, etc.)
		if !g.isRetryableError(err) {
			g.logger.Debug("Error is not retryable, stopping retry attempts",
				"operation", operation,
				"error", err.Error())
			break
		}
	}

	// Log final failure
	g.logger.LogError(lastErr, "AI operation failed after all retry attempts",
		"operation", operation,
		"total_attempts", *g.config.MaxRetries+1)

	return zero, fmt.Errorf("operation '%s' failed after %d retries: %w", operation, *g.config.MaxRetries, lastErr)
}

// isRetryableError determines if an error should trigger a retry
func (g *GeminiProvider) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Check for network errors (timeouts, connection issues)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true // Retry on timeouts
		}
		// Consider other network errors retryable (e.g., connection refused)
		return true
	}

	// Check for Google API errors (HTTP status codes)
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
	}

	return false
}

// executeAIOperation is a generic helper to run generative AI operations with common tracing, circuit breaker, and parsing logic.
func executeAIOperation[Out any](
	g *GeminiProvider,
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resumatcher.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	// Set base attributes
	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(g, ctx, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(ctx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewAIError(apperrors.ErrCodeAIServiceFailed, "Failed to generate content for "+operationName, err)
	}

	if err := json.Unmarshal([]byte(result.Text()), &output); err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return output, nil, apperrors.NewAIError("AI_RESPONSE_PARSE_FAILED", "Failed to parse AI response for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return output, tokenUsage, nil
}

// RewriteResume implements AIProvider interface for iterative resume rewriting
func (g *GeminiProvider) RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.RewriteResumeOutput, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForRewrite(input)
	config := g.buildRewriteSchema()

	output, tokenUsage, err := executeAIOperation[types.RewriteResumeOutput](
		g,
		ctx,
		"rewrite_resume",
		userPrompt,
		systemPrompt,
		config,
		attribute.Int("input.resume_length", len(input.ResumeText)),
		attribute.Int("input.job_length", len(input.JobText)),
		attribute.Float64("input.current_score", input.CurrentScore),
	)

	if err != nil {
		return types.RewriteResumeOutput{}, nil, err
	}

	// Add operation-specific success metrics to the span created by the helper
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.updated_length", len(output.UpdatedResume)),
		)
	}

	return output, tokenUsage, nil
}

// ExtractKeywords implements AIProvider interface for structured keyword extraction
func (g *GeminiProvider) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.KeywordPayload, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForExtract(input.Kind, input.Content)
	config := g.buildExtractSchema()

	output, tokenUsage, err := executeAIOperation[types.KeywordPayload](
		g,
		ctx,
		"extract_keywords",
		userPrompt,
		systemPrompt,
		config,
		attribute.String("input.kind", string(input.Kind)),
		attribute.Int("input.content_length", len(input.Content)),
	)

	if err != nil {
		return types.KeywordPayload{}, nil, err
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.Int("output.keyword_count", len(output.ExtractedKeywords)),
		)
	}

	return output, tokenUsage, nil
}

// GeneratePreview implements AIProvider interface for structured resume previews.
// The raw JSON is returned so the caller can validate it against its own schema.
func (g *GeminiProvider) GeneratePreview(ctx context.Context, resumeText string) (json.RawMessage, *TokenUsage, error) {
	systemPrompt, userPrompt := g.getPromptsForPreview(resumeText)
	config := g.buildPreviewSchema()

	output, tokenUsage, err := executeAIOperation[json.RawMessage](
		g,
		ctx,
		"generate_preview",
		userPrompt,
		systemPrompt,
		config,
		attribute.Int("input.resume_length", len(resumeText)),
	)

	if err != nil {
		return nil, nil, err
	}

	return output, tokenUsage, nil
}

// EmbedText implements AIProvider interface for text embeddings. The response
// keeps the provider's batch shape; callers flatten as needed.
func (g *GeminiProvider) EmbedText(ctx context.Context, text string) ([][]float64, error) {
	tracer := otel.Tracer("resumatcher.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini.embed_text")
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Int("input.text_length", len(text)),
	)

	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	result, err := g.embedBreaker.ExecuteEmbed(func() (*genai.EmbedContentResponse, error) {
		return executeWithRetry(g, ctx, "embed_text", func() (*genai.EmbedContentResponse, error) {
			return g.client.Models.EmbedContent(ctx, g.config.Model, contents, &genai.EmbedContentConfig{})
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, apperrors.NewAIError(apperrors.ErrCodeEmbeddingFailed,
			"Failed to compute text embedding", err)
	}

	if len(result.Embeddings) == 0 {
		err := fmt.Errorf("embedding response contained no vectors")
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return nil, apperrors.NewAIError(apperrors.ErrCodeEmbeddingFailed,
			"Embedding response was empty", err)
	}

	vectors := make([][]float64, 0, len(result.Embeddings))
	for _, embedding := range result.Embeddings {
		vec := make([]float64, len(embedding.Values))
		for i, v := range embedding.Values {
			vec[i] = float64(v)
		}
		vectors = append(vectors, vec)
	}

	span.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("output.vector_count", len(vectors)),
		attribute.Int("output.dimensions", len(vectors[0])),
	)

	return vectors, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"embed_operations": g.embedBreaker.GetEmbedStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}

	// Overall health - all breakers must be healthy
	aiHealthy := g.circuitBreaker.IsHealthy()
	embedHealthy := g.embedBreaker.IsEmbedHealthy()
	modelHealthy := g.modelBreaker.IsModelHealthy()
	stats["overall_healthy"] = aiHealthy && embedHealthy && modelHealthy

	return stats
}

// Close implements AIProvider interface
func (g *GeminiProvider) Close() error {
	// Gemini client doesn't have a Close method in current single-shot usage
	return nil
}

// buildRewriteSchema creates the schema for rewrite requests
func (g *GeminiProvider) buildRewriteSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"updatedResume": {Type: genai.TypeString},
			},
			Required: []string{"updatedResume"},
		},
	}

	// Apply temperature configuration if set
	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildExtractSchema creates the schema for keyword-extraction requests
func (g *GeminiProvider) buildExtractSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"extracted_keywords": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"extracted_keywords"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// buildPreviewSchema creates the schema for structured preview requests
func (g *GeminiProvider) buildPreviewSchema() *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"personalData": {
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"name":     {Type: genai.TypeString},
						"title":    {Type: genai.TypeString},
						"email":    {Type: genai.TypeString},
						"phone":    {Type: genai.TypeString},
						"location": {Type: genai.TypeString},
						"website":  {Type: genai.TypeString},
					},
					Required: []string{"name"},
				},
				"summary": {Type: genai.TypeString},
				"experiences": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"title":    {Type: genai.TypeString},
							"company":  {Type: genai.TypeString},
							"location": {Type: genai.TypeString},
							"years":    {Type: genai.TypeString},
							"description": {
								Type:  genai.TypeArray,
								Items: &genai.Schema{Type: genai.TypeString},
							},
						},
						Required: []string{"title", "company"},
					},
				},
				"projects": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"name": {Type: genai.TypeString},
							"description": {
								Type:  genai.TypeArray,
								Items: &genai.Schema{Type: genai.TypeString},
							},
						},
						Required: []string{"name"},
					},
				},
				"skills": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
				"education": {
					Type: genai.TypeArray,
					Items: &genai.Schema{
						Type: genai.TypeObject,
						Properties: map[string]*genai.Schema{
							"institution": {Type: genai.TypeString},
							"degree":      {Type: genai.TypeString},
							"years":       {Type: genai.TypeString},
						},
						Required: []string{"institution"},
					},
				},
			},
			Required: []string{"personalData"},
		},
	}

	if *g.config.Temperature > 0 {
		config.Temperature = g.config.Temperature
	}

	return config
}

// getPromptsForRewrite returns system and user prompts for rewriting
func (g *GeminiProvider) getPromptsForRewrite(input types.RewriteResumeInput) (string, string) {
	systemPrompt := g.getSystemPrompt("rewrite")
	userPrompt := g.getUserPrompt("rewrite")

	// Format user prompt with dynamic content
	formattedUserPrompt := fmt.Sprintf(userPrompt,
		input.CurrentScore,
		input.JobText,
		joinKeywords(input.JobKeywords),
		input.ResumeText,
		joinKeywords(input.ResumeKeywords))

	return systemPrompt, formattedUserPrompt
}

// getPromptsForExtract returns system and user prompts for keyword extraction
func (g *GeminiProvider) getPromptsForExtract(kind types.EntityKind, content string) (string, string) {
	systemPrompt := g.getSystemPrompt("extract")
	userPrompt := g.getUserPrompt("extract")

	formattedUserPrompt := fmt.Sprintf(userPrompt, kind, content)

	return systemPrompt, formattedUserPrompt
}

// getPromptsForPreview returns system and user prompts for preview generation
func (g *GeminiProvider) getPromptsForPreview(resumeText string) (string, string) {
	systemPrompt := g.getSystemPrompt("preview")
	userPrompt := g.getUserPrompt("preview")

	formattedUserPrompt := fmt.Sprintf(userPrompt, resumeText)

	return systemPrompt, formattedUserPrompt
}

// getSystemPrompt returns the appropriate system prompt
func (g *GeminiProvider) getSystemPrompt(promptType string) string {
	prompts := g.config.CustomPrompts.SystemPrompts

	switch promptType {
	case "rewrite":
		return resolvePrompt(prompts.RewriteResume, DefaultSystemPrompts.RewriteResume)
	case "extract":
		return resolvePrompt(prompts.ExtractKeywords, DefaultSystemPrompts.ExtractKeywords)
	case "preview":
		return resolvePrompt(prompts.PreviewResume, DefaultSystemPrompts.PreviewResume)
	default:
		return ""
	}
}

// getUserPrompt returns the appropriate user prompt template
func (g *GeminiProvider) getUserPrompt(promptType string) string {
	prompts := g.config.CustomPrompts.UserPrompts

	switch promptType {
	case "rewrite":
		return resolvePrompt(prompts.RewriteResume, DefaultUserPrompts.RewriteResume)
	case "extract":
		return resolvePrompt(prompts.ExtractKeywords, DefaultUserPrompts.ExtractKeywords)
	case "preview":
		return resolvePrompt(prompts.PreviewResume, DefaultUserPrompts.PreviewResume)
	default:
		return ""
	}
}

// resolvePrompt selects the configured prompt when present, else the default.
func resolvePrompt(fromConfig, fromDefault string) string {
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}

// joinKeywords renders a keyword list for prompt interpolation.
func joinKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "(none)"
	}
	return strings.Join(keywords, ", ")
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// extractTokenUsage extracts token usage information from Gemini API response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
