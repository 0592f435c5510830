package cli

import (
	"context"
	"fmt"

	"resumatch/internal/ats"
	"resumatch/internal/common"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

// pipeline is what the commands need from ats.Service
type pipeline interface {
	common.Runner
	Stats() map[string]any
	Close() error
}

// newPipeline builds the evaluation pipeline. Tests replace it with a fake.
var newPipeline = func(ctx context.Context, cfg *config.Config, om *observability.ObservabilityManager, logger *errors.Logger) (pipeline, error) {
	return ats.NewFromConfig(ctx, cfg, om, logger)
}

// NewRootCommand assembles the command tree
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "resumatch",
		Short: "Score resumes against job descriptions with an LLM",
		Long: `Resumatch is an ATS-style resume matcher. It extracts text from a resume,
composes a prompt with the job description and asks a language model for a
match percentage, missing keywords and a profile summary. It can also summarize
job postings, and serve the same operations over HTTP.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newEvaluateCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newSummaryCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

// Execute runs the root command with cfg and logger available to all subcommands
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	return execute(ctx, NewRootCommand(), cfg, logger)
}

func execute(ctx context.Context, rootCmd *cobra.Command, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	return rootCmd.ExecuteContext(ctx)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("config not found in context")
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) (*errors.Logger, error) {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger, nil
	}
	return nil, fmt.Errorf("logger not found in context")
}

// outputFlags registers --output and --format on cmd and returns the config they fill
func outputFlags(cmd *cobra.Command) *common.CommandConfig {
	cmdConfig := &common.CommandConfig{}
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
	return cmdConfig
}

// runPipelineCommand resolves the output settings, builds the pipeline and runs one request
func runPipelineCommand(cmd *cobra.Command, cmdConfig *common.CommandConfig, paths []string,
	buildRequest common.BuildRequestFunc, logDetails common.LogDetailsFunc) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	format, err := common.ResolveOutputFormat(cmdConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
	if err != nil {
		return err
	}

	run := *cmdConfig
	run.OutputFormat = format
	run.MaxFileSize = cfg.App.MaxFileSize
	run.Out = cmd.OutOrStdout()

	p, err := newPipeline(cmd.Context(), cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to close pipeline", "error", err)
		}
	}()

	return common.RunPipelineCommand(cmd.Context(), logger, run, p, paths, buildRequest, logDetails)
}
