package common

import (
	"context"
	"fmt"

	"resumatcher/internal/errors"
)

// PipelineFunc runs the actual work of a file-based CLI command against
// the contents of the validated input files.
type PipelineFunc[Output any] func(ctx context.Context, contents []string) (Output, error)

// RunPipelineCommand encapsulates the common logic for file-based CLI
// commands: validate and read the input files, run the pipeline, then
// format and write the result.
func RunPipelineCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	pipeline PipelineFunc[Output],
) error {
	// Pass the logger when creating helpers
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	contents, err := fileProcessor.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	result, err := pipeline(ctx, contents)
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
