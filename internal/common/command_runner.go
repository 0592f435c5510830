package common

import (
	"context"
	"fmt"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// Runner executes one evaluation request end to end
type Runner interface {
	Run(ctx context.Context, req types.EvaluationRequest) (*types.Outcome, error)
}

// BuildRequestFunc turns the contents of the command's input files into a pipeline request.
type BuildRequestFunc func(files []InputFile) (types.EvaluationRequest, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(req types.EvaluationRequest, cfg CommandConfig)

// RunPipelineCommand encapsulates the common logic for file-based CLI commands with token usage reporting.
func RunPipelineCommand(
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	runner Runner,
	paths []string,
	buildRequest BuildRequestFunc,
	logDetails LogDetailsFunc,
) error {
	fileProcessor := NewFileProcessor(logger).WithMaxFileSize(cmdConfig.MaxFileSize)
	outputHandler := NewOutputHandler(logger, cmdConfig.Out)

	// Fail on a bad output path before spending a model call
	if err := fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	files, err := fileProcessor.ValidateAndReadFiles(paths...)
	if err != nil {
		return err
	}

	req, err := buildRequest(files)
	if err != nil {
		return fmt.Errorf("failed to create request from file contents: %w", err)
	}

	if logDetails != nil {
		logDetails(req, cmdConfig)
	}

	outcome, err := runner.Run(ctx, req)
	if err != nil {
		return err
	}

	if outcome.Usage != nil {
		logger.Info("AI token usage",
			"input_tokens", outcome.Usage.PromptTokens,
			"output_tokens", outcome.Usage.CompletionTokens,
			"total_tokens", outcome.Usage.TotalTokens)
	}

	return outputHandler.HandleOutput(outcome, cmdConfig)
}
