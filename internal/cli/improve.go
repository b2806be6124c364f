package cli

import (
	"context"
	"fmt"
	"os"

	"resumatcher/internal/ai"
	"resumatcher/internal/common"
	"resumatcher/internal/config"
	"resumatcher/internal/errors"
	"resumatcher/internal/ingest"
	"resumatcher/internal/scoring"
	"resumatcher/internal/store"
	"resumatcher/internal/types"

	"github.com/spf13/cobra"
)

var improveCmd = &cobra.Command{
	Use:   "improve [resume-file] [job-description-file]",
	Short: "Improve a resume's match against a job description",
	Long: `Score a resume against a job description using embedding similarity,
then iteratively rewrite it with AI until the match score improves.
The command takes two arguments: the path to your resume file and
the path to the job description file. Both files should be in plain text format.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if improveConfig.OutputFormat == "" {
			improveConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(improveConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runImprove,
}

var improveConfig common.CommandConfig
var improveShowProgress bool

func init() {
	improveCmd.Flags().StringVarP(&improveConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	improveCmd.Flags().StringVar(&improveConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	improveCmd.Flags().BoolVar(&improveShowProgress, "progress", false, "Print pipeline stage progress to stderr")

	// Add completion for format flag
	_ = improveCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runImprove(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	providers, err := buildProviders(cfg, logger)
	if err != nil {
		return err
	}

	pipeline := func(ctx context.Context, contents []string) (*types.ImprovementResult, error) {
		if len(contents) != 2 {
			return nil, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}

		// CLI runs are one-shot, so documents live in a process-local store.
		memStore := store.NewMemoryStore()
		defer memStore.Close()

		ingestService := ingest.NewService(memStore, providers["extract"], logger)

		logger.Info("Extracting keywords",
			"resume_chars", len(contents[0]),
			"job_chars", len(contents[1]))

		resume, err := ingestService.Ingest(ctx, types.KindResume, contents[0])
		if err != nil {
			return nil, fmt.Errorf("failed to ingest resume: %w", err)
		}
		job, err := ingestService.Ingest(ctx, types.KindJob, contents[1])
		if err != nil {
			return nil, fmt.Errorf("failed to ingest job description: %w", err)
		}

		scoringService := scoring.NewService(scoring.Deps{
			Store:    memStore,
			Rewriter: providers["rewrite"],
			Embedder: providers["embed"],
			Preview:  providers["preview"],
		}, cfg.Improve, logger)

		if improveShowProgress {
			return runWithProgress(ctx, scoringService, resume.SourceID, job.SourceID)
		}
		return scoringService.Run(ctx, resume.SourceID, job.SourceID)
	}

	err = common.RunPipelineCommand(cmd.Context(), logger, improveConfig, args, pipeline)
	if err != nil {
		return fmt.Errorf("failed to improve resume: %w", err)
	}
	logger.Info("Resume improvement completed successfully")
	return nil
}

// runWithProgress consumes the streaming variant, echoing each stage to
// stderr so the formatted result on stdout stays clean.
func runWithProgress(ctx context.Context, service *scoring.Service, resumeID, jobID string) (*types.ImprovementResult, error) {
	var result *types.ImprovementResult
	for event := range service.RunStream(ctx, resumeID, jobID) {
		switch event.Status {
		case types.StageError:
			return nil, fmt.Errorf("improvement failed: %s", event.Message)
		case types.StageCompleted:
			result = event.Data
		default:
			fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Status, event.Message)
		}
	}
	if result == nil {
		return nil, fmt.Errorf("stream ended without a result")
	}
	return result, nil
}

// buildProviders creates one AI provider per pipeline operation from the
// per-operation configuration.
func buildProviders(cfg *config.Config, logger *errors.Logger) (map[string]ai.AIProvider, error) {
	configs := map[string]config.OperationAIConfig{
		"rewrite": cfg.GetRewriteConfig(),
		"extract": cfg.GetExtractConfig(),
		"preview": cfg.GetPreviewConfig(),
		"embed":   cfg.GetEmbedConfig(),
	}

	providers := make(map[string]ai.AIProvider)
	for operation, opConfig := range configs {
		service, err := ai.NewService(&opConfig, operation, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s AI service: %w", operation, err)
		}
		providers[operation] = service.Provider
	}
	return providers, nil
}
