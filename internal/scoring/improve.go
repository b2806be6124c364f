package scoring

import (
	"context"
	"strings"

	"resumatcher/internal/ai"
	"resumatcher/internal/errors"
	"resumatcher/internal/types"
)

// DefaultMaxAttempts bounds the rewrite loop when no limit is configured.
const DefaultMaxAttempts = 5

// Outcome is what the rewrite loop hands back to the orchestrator.
// Improved is true only when Score strictly exceeds the baseline;
// otherwise Text is the unmodified original resume.
type Outcome struct {
	Text     string
	Score    float64
	Attempts int
	Improved bool
}

// Improver runs the iterative rewrite loop. Each attempt conditions the
// rewriter on the best candidate so far; the loop returns the moment a
// candidate strictly beats it, so the best state only ever advances once.
type Improver struct {
	rewriter    ai.AIProvider
	embedder    ai.AIProvider
	maxAttempts int
	logger      *errors.Logger
}

func NewImprover(rewriter, embedder ai.AIProvider, maxAttempts int, logger *errors.Logger) *Improver {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Improver{
		rewriter:    rewriter,
		embedder:    embedder,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Improve rewrites the resume until a candidate scores strictly above the
// baseline or the attempt budget runs out. It terminates on the FIRST
// improvement rather than searching for the maximum; exhaustion hands back
// the original text and baseline score untouched. Provider errors abort
// the loop immediately; there is no per-attempt error retry at this layer.
// On error the returned Outcome carries the attempts consumed so far, the
// failing attempt included.
func (im *Improver) Improve(ctx context.Context, resume, job *types.ReadyEntity, jobVector []float64, baselineScore float64) (*Outcome, error) {
	for attempt := 1; attempt <= im.maxAttempts; attempt++ {
		output, usage, err := im.rewriter.RewriteResume(ctx, types.RewriteResumeInput{
			ResumeText:     resume.Content,
			ResumeKeywords: resume.Keywords,
			JobText:        job.Content,
			JobKeywords:    job.Keywords,
			CurrentScore:   baselineScore,
		})
		if err != nil {
			return &Outcome{Attempts: attempt}, err
		}

		score, err := im.ScoreText(ctx, output.UpdatedResume, jobVector)
		if err != nil {
			return &Outcome{Attempts: attempt}, err
		}

		logArgs := []any{
			"attempt", attempt,
			"score", score,
			"baseline_score", baselineScore,
		}
		if usage != nil {
			logArgs = append(logArgs, "total_tokens", usage.TotalTokens)
		}
		im.logger.Debug("Rewrite attempt scored", logArgs...)

		if score > baselineScore {
			return &Outcome{
				Text:     output.UpdatedResume,
				Score:    score,
				Attempts: attempt,
				Improved: true,
			}, nil
		}
	}

	return &Outcome{
		Text:     resume.Content,
		Score:    baselineScore,
		Attempts: im.maxAttempts,
		Improved: false,
	}, nil
}

// ScoreText embeds a candidate text and scores it against a precomputed
// job vector.
func (im *Improver) ScoreText(ctx context.Context, text string, jobVector []float64) (float64, error) {
	batch, err := im.embedder.EmbedText(ctx, text)
	if err != nil {
		return 0, err
	}
	return CosineSimilarity(Flatten(batch), jobVector), nil
}

// EmbedKeywords embeds a keyword list as a single comma-joined text.
func EmbedKeywords(ctx context.Context, embedder ai.AIProvider, keywords []string) ([]float64, error) {
	batch, err := embedder.EmbedText(ctx, strings.Join(keywords, ", "))
	if err != nil {
		return nil, err
	}
	return Flatten(batch), nil
}
