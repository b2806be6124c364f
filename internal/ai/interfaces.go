package ai

import (
	"context"
	"encoding/json"

	"resumatcher/internal/types"
)

// AIProvider interface for different AI implementations
// All generative methods return token usage information - callers can ignore it if not needed
type AIProvider interface {
	RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.RewriteResumeOutput, *TokenUsage, error)
	ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.KeywordPayload, *TokenUsage, error)
	GeneratePreview(ctx context.Context, resumeText string) (json.RawMessage, *TokenUsage, error)
	EmbedText(ctx context.Context, text string) ([][]float64, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// PromptBuilder interface for building AI prompts
type PromptBuilder interface {
	BuildRewritePrompt(input types.RewriteResumeInput) string
	BuildExtractPrompt(kind types.EntityKind, content string) string
	BuildPreviewPrompt(resumeText string) string
}
