package scoring

import (
	"context"
	"math"
	"testing"

	"resumatcher/internal/errors"
	"resumatcher/internal/types"
)

var (
	testResume = &types.ReadyEntity{
		ID:       "r1",
		Kind:     types.KindResume,
		Content:  "original resume",
		Keywords: []string{"python", "sql"},
	}
	testJob = &types.ReadyEntity{
		ID:       "j1",
		Kind:     types.KindJob,
		Content:  "job description",
		Keywords: []string{"python", "aws"},
	}
	testJobVector = []float64{1, 0}
)

// vectorWithCosine returns a unit vector whose cosine against {1,0} is c.
func vectorWithCosine(c float64) []float64 {
	return []float64{c, math.Sqrt(1 - c*c)}
}

func TestImproveFirstAttemptImprovement(t *testing.T) {
	// Baseline 0.5; the first rewrite scores 0.7 and must terminate the loop.
	provider := &fakeProvider{
		rewrites: []string{"improved resume"},
		embeddings: map[string][]float64{
			"improved resume": vectorWithCosine(0.7),
		},
	}

	improver := NewImprover(provider, provider, 5, testLogger)
	outcome, err := improver.Improve(context.Background(), testResume, testJob, testJobVector, 0.5)
	if err != nil {
		t.Fatalf("Improve returned error: %v", err)
	}

	if !outcome.Improved {
		t.Error("Expected outcome to be marked improved")
	}
	if outcome.Text != "improved resume" {
		t.Errorf("Expected improved text, got %q", outcome.Text)
	}
	if math.Abs(outcome.Score-0.7) > 1e-9 {
		t.Errorf("Expected score 0.7, got %f", outcome.Score)
	}
	if outcome.Attempts != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", outcome.Attempts)
	}
	if len(provider.rewriteCalls) != 1 {
		t.Fatalf("Expected exactly one rewriter call, got %d", len(provider.rewriteCalls))
	}

	call := provider.rewriteCalls[0]
	if call.ResumeText != "original resume" {
		t.Errorf("Rewriter should be conditioned on the current best text, got %q", call.ResumeText)
	}
	if call.CurrentScore != 0.5 {
		t.Errorf("Rewriter should see the current best score, got %f", call.CurrentScore)
	}
	if call.JobText != "job description" {
		t.Errorf("Rewriter should see the job text, got %q", call.JobText)
	}
}

func TestImproveExhaustionReturnsOriginal(t *testing.T) {
	// Every candidate scores below the baseline: the loop must run the full
	// budget and hand back the original untouched.
	provider := &fakeProvider{
		rewrites: []string{"weak candidate"},
		embeddings: map[string][]float64{
			"weak candidate": vectorWithCosine(0.3),
		},
	}

	improver := NewImprover(provider, provider, 3, testLogger)
	outcome, err := improver.Improve(context.Background(), testResume, testJob, testJobVector, 0.5)
	if err != nil {
		t.Fatalf("Improve returned error: %v", err)
	}

	if outcome.Improved {
		t.Error("Expected outcome not to be marked improved")
	}
	if outcome.Text != "original resume" {
		t.Errorf("Expected original text after exhaustion, got %q", outcome.Text)
	}
	if outcome.Score != 0.5 {
		t.Errorf("Expected baseline score after exhaustion, got %f", outcome.Score)
	}
	if outcome.Attempts != 3 {
		t.Errorf("Expected attempts == maxAttempts, got %d", outcome.Attempts)
	}
	if len(provider.rewriteCalls) != 3 {
		t.Errorf("Expected 3 rewriter calls, got %d", len(provider.rewriteCalls))
	}
}

func TestImproveEqualScoreIsNotImprovement(t *testing.T) {
	// Matching the baseline exactly is not a strict improvement.
	provider := &fakeProvider{
		rewrites: []string{"sideways candidate"},
		embeddings: map[string][]float64{
			"sideways candidate": vectorWithCosine(0.5),
		},
	}

	improver := NewImprover(provider, provider, 2, testLogger)
	outcome, err := improver.Improve(context.Background(), testResume, testJob, testJobVector, 0.5)
	if err != nil {
		t.Fatalf("Improve returned error: %v", err)
	}
	if outcome.Improved {
		t.Error("Equal score must not count as improvement")
	}
	if outcome.Attempts != 2 {
		t.Errorf("Expected full budget, got %d attempts", outcome.Attempts)
	}
}

func TestImproveRewriterErrorAborts(t *testing.T) {
	provider := &fakeProvider{
		rewriteErr: errors.NewAIError(errors.ErrCodeAIServiceFailed, "model unavailable", nil),
	}

	improver := NewImprover(provider, provider, 5, testLogger)
	outcome, err := improver.Improve(context.Background(), testResume, testJob, testJobVector, 0.5)
	if !errors.IsAI(err) {
		t.Fatalf("Expected AI error to propagate, got %v", err)
	}
	if len(provider.rewriteCalls) != 1 {
		t.Errorf("Expected the loop to abort after the failing attempt, got %d calls", len(provider.rewriteCalls))
	}
	if outcome == nil || outcome.Attempts != 1 {
		t.Errorf("Expected the failing attempt to be counted, got %+v", outcome)
	}
}

func TestImproveEmbedderErrorAborts(t *testing.T) {
	provider := &fakeProvider{
		rewrites: []string{"candidate"},
		embedErr: errors.NewAIError(errors.ErrCodeEmbeddingFailed, "embedding failed", nil),
	}

	improver := NewImprover(provider, provider, 5, testLogger)
	outcome, err := improver.Improve(context.Background(), testResume, testJob, testJobVector, 0.5)
	if err == nil {
		t.Fatal("Expected embedder error to propagate")
	}
	if len(provider.rewriteCalls) != 1 {
		t.Errorf("Expected no further attempts after the embedding failure, got %d calls", len(provider.rewriteCalls))
	}
	if outcome == nil || outcome.Attempts != 1 {
		t.Errorf("Expected the failing attempt to be counted, got %+v", outcome)
	}
}

func TestImproveDefaultAttemptBudget(t *testing.T) {
	provider := &fakeProvider{
		rewrites: []string{"weak candidate"},
		embeddings: map[string][]float64{
			"weak candidate": vectorWithCosine(0.1),
		},
	}

	// Zero and negative budgets fall back to the default.
	improver := NewImprover(provider, provider, 0, testLogger)
	outcome, err := improver.Improve(context.Background(), testResume, testJob, testJobVector, 0.5)
	if err != nil {
		t.Fatalf("Improve returned error: %v", err)
	}
	if outcome.Attempts != DefaultMaxAttempts {
		t.Errorf("Expected default budget %d, got %d attempts", DefaultMaxAttempts, outcome.Attempts)
	}
}
