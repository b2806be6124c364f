package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"resumatcher/internal/ai"
	"resumatcher/internal/errors"
	"resumatcher/internal/types"
)

var testLogger = errors.NewLogger(slog.LevelError)

// fakeProvider is a scriptable AIProvider. Rewrites are consumed in order;
// embeddings come from a text-keyed vector table.
type fakeProvider struct {
	rewrites     []string
	rewriteErr   error
	rewriteCalls []types.RewriteResumeInput

	embeddings map[string][]float64
	embedErr   error

	previewJSON json.RawMessage
	previewErr  error
}

func (f *fakeProvider) RewriteResume(ctx context.Context, input types.RewriteResumeInput) (types.RewriteResumeOutput, *ai.TokenUsage, error) {
	f.rewriteCalls = append(f.rewriteCalls, input)
	if f.rewriteErr != nil {
		return types.RewriteResumeOutput{}, nil, f.rewriteErr
	}
	idx := len(f.rewriteCalls) - 1
	if idx >= len(f.rewrites) {
		idx = len(f.rewrites) - 1
	}
	return types.RewriteResumeOutput{UpdatedResume: f.rewrites[idx]}, &ai.TokenUsage{TotalTokens: 42}, nil
}

func (f *fakeProvider) ExtractKeywords(ctx context.Context, input types.ExtractKeywordsInput) (types.KeywordPayload, *ai.TokenUsage, error) {
	return types.KeywordPayload{}, nil, nil
}

func (f *fakeProvider) GeneratePreview(ctx context.Context, resumeText string) (json.RawMessage, *ai.TokenUsage, error) {
	if f.previewErr != nil {
		return nil, nil, f.previewErr
	}
	if f.previewJSON == nil {
		return json.RawMessage(`{"personalData":{"name":"Test Person"}}`), nil, nil
	}
	return f.previewJSON, nil, nil
}

func (f *fakeProvider) EmbedText(ctx context.Context, text string) ([][]float64, error) {
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	vector, ok := f.embeddings[text]
	if !ok {
		return nil, fmt.Errorf("no scripted embedding for %q", text)
	}
	return [][]float64{vector}, nil
}

func (f *fakeProvider) GetModelInfo(ctx context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "fake", Available: true}
}

func (f *fakeProvider) Close() error { return nil }
