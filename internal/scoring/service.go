package scoring

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"resumatcher/internal/ai"
	"resumatcher/internal/config"
	"resumatcher/internal/errors"
	"resumatcher/internal/formatters"
	"resumatcher/internal/store"
	"resumatcher/internal/types"
	"resumatcher/internal/validation"
)

// MetricsRecorder receives business metrics from completed runs. A nil
// recorder disables recording.
type MetricsRecorder interface {
	RecordImprovementRun(ctx context.Context, attempts int, scoreDelta float64, duration time.Duration, success bool)
}

// Service orchestrates an improvement run end to end: readiness checks,
// baseline scoring, the rewrite loop, HTML rendering and the preview.
type Service struct {
	validator *validation.Validator
	locker    store.PairLocker
	improver  *Improver
	renderer  *PreviewRenderer
	embedder  ai.AIProvider
	cfg       config.ImproveConfig
	logger    *errors.Logger
	metrics   MetricsRecorder
}

// Deps bundles the collaborators a Service needs. Locker and Metrics may
// be nil; a nil Locker admits every run.
type Deps struct {
	Store    store.EntityStore
	Locker   store.PairLocker
	Rewriter ai.AIProvider
	Embedder ai.AIProvider
	Preview  ai.AIProvider
	Metrics  MetricsRecorder
}

func NewService(deps Deps, cfg config.ImproveConfig, logger *errors.Logger) *Service {
	locker := deps.Locker
	if locker == nil {
		locker = store.NewNoopLocker()
	}
	return &Service{
		validator: validation.NewValidator(deps.Store, logger),
		locker:    locker,
		improver:  NewImprover(deps.Rewriter, deps.Embedder, cfg.MaxAttempts, logger),
		renderer:  NewPreviewRenderer(deps.Preview, logger),
		embedder:  deps.Embedder,
		cfg:       cfg,
		logger:    logger,
		metrics:   deps.Metrics,
	}
}

// Run executes a single-shot improvement run for a (resume, job) pair.
func (s *Service) Run(ctx context.Context, resumeID, jobID string) (*types.ImprovementResult, error) {
	return s.run(ctx, resumeID, jobID, nil)
}

// run is the shared pipeline behind Run and RunStream. emit, when non-nil,
// receives a progress notification as each stage begins.
func (s *Service) run(ctx context.Context, resumeID, jobID string, emit func(status, message string)) (*types.ImprovementResult, error) {
	start := time.Now()
	notify := func(status, message string) {
		if emit != nil {
			emit(status, message)
		}
	}

	notify(types.StageStarting, "Starting resume improvement")

	release, err := s.locker.Acquire(ctx, resumeID, jobID)
	if err != nil {
		return nil, err
	}
	defer release()

	resume, err := s.validator.EnsureReady(ctx, types.KindResume, resumeID)
	if err != nil {
		return nil, err
	}
	job, err := s.validator.EnsureReady(ctx, types.KindJob, jobID)
	if err != nil {
		return nil, err
	}
	notify(types.StageParsing, "Resume and job description parsed")

	// Baseline embeddings touch disjoint data (resume content vs job
	// keywords), so they run concurrently.
	var resumeVector, jobVector []float64
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		batch, embedErr := s.embedder.EmbedText(groupCtx, resume.Content)
		if embedErr != nil {
			return embedErr
		}
		resumeVector = Flatten(batch)
		return nil
	})
	group.Go(func() error {
		var embedErr error
		jobVector, embedErr = EmbedKeywords(groupCtx, s.embedder, job.Keywords)
		return embedErr
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	originalScore := CosineSimilarity(resumeVector, jobVector)
	notify(types.StageScoring, fmt.Sprintf("Baseline match score %.4f", originalScore))

	notify(types.StageImproving, "Rewriting resume against the job description")
	outcome, err := s.improver.Improve(ctx, resume, job, jobVector, originalScore)
	if err != nil {
		s.recordRun(ctx, outcome.Attempts, 0, time.Since(start), false)
		return nil, err
	}

	// The improved text travels only in the result. Stored documents are
	// raw submissions and stay untouched, so re-running the same pair
	// always scores the same baseline.
	notify(types.StageGenerating, "Rendering improved resume")
	resumeHTML, err := formatters.MarkdownToHTML(outcome.Text)
	if err != nil {
		s.logger.Warn("HTML rendering failed, continuing without HTML",
			"resume_id", resumeID, "error", err.Error())
		resumeHTML = ""
	}

	preview, err := s.renderer.Render(ctx, outcome.Text)
	if err != nil {
		s.recordRun(ctx, outcome.Attempts, outcome.Score-originalScore, time.Since(start), false)
		return nil, err
	}

	elapsed := time.Since(start)
	result := &types.ImprovementResult{
		ResumeID:       resumeID,
		JobID:          jobID,
		OriginalScore:  originalScore,
		NewScore:       outcome.Score,
		Attempts:       outcome.Attempts,
		UpdatedResume:  outcome.Text,
		ResumeHTML:     resumeHTML,
		ResumePreview:  preview,
		ExecutionTime:  elapsed,
		ExecutionTimeS: elapsed.Seconds(),
	}

	s.recordRun(ctx, outcome.Attempts, outcome.Score-originalScore, elapsed, true)
	s.logger.Info("Improvement run finished",
		"resume_id", resumeID,
		"job_id", jobID,
		"original_score", originalScore,
		"new_score", outcome.Score,
		"attempts", outcome.Attempts,
		"improved", outcome.Improved,
		"duration_seconds", elapsed.Seconds())

	return result, nil
}

func (s *Service) recordRun(ctx context.Context, attempts int, delta float64, duration time.Duration, success bool) {
	if s.metrics != nil {
		s.metrics.RecordImprovementRun(ctx, attempts, delta, duration, success)
	}
}
