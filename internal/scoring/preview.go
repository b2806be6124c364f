package scoring

import (
	"context"
	"encoding/json"

	"resumatcher/internal/ai"
	"resumatcher/internal/errors"
	"resumatcher/internal/schemas"
	"resumatcher/internal/types"
)

// PreviewRenderer turns an improved resume into its structured preview.
// The preview is best-effort: output that fails schema validation degrades
// to a nil preview instead of failing the run.
type PreviewRenderer struct {
	provider ai.AIProvider
	logger   *errors.Logger
}

func NewPreviewRenderer(provider ai.AIProvider, logger *errors.Logger) *PreviewRenderer {
	return &PreviewRenderer{provider: provider, logger: logger}
}

// Render asks the provider for a schema-constrained preview of resumeText.
// Provider errors propagate; validation and decoding failures return
// (nil, nil) after logging what was rejected.
func (r *PreviewRenderer) Render(ctx context.Context, resumeText string) (*types.ResumePreview, error) {
	raw, _, err := r.provider.GeneratePreview(ctx, resumeText)
	if err != nil {
		return nil, err
	}

	if err := schemas.ValidatePreview(raw); err != nil {
		r.logger.Warn("Preview rejected by schema validation, continuing without preview",
			"error", err.Error())
		return nil, nil
	}

	var preview types.ResumePreview
	if err := json.Unmarshal(raw, &preview); err != nil {
		r.logger.Warn("Preview JSON could not be decoded, continuing without preview",
			"error", err.Error())
		return nil, nil
	}

	return &preview, nil
}
