package common

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = errors.NewLoggerWithWriter(io.Discard, slog.LevelError)

type recordingRunner struct {
	requests []types.EvaluationRequest
	outcome  *types.Outcome
	err      error
}

func (r *recordingRunner) Run(ctx context.Context, req types.EvaluationRequest) (*types.Outcome, error) {
	r.requests = append(r.requests, req)
	return r.outcome, r.err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func jobSummaryRequest(files []InputFile) (types.EvaluationRequest, error) {
	return types.EvaluationRequest{
		Operation:      types.OperationJobSummary,
		JobDescription: files[0].Text(),
		Job:            types.JobMetadata{Title: "Go Engineer"},
	}, nil
}

func TestRunPipelineCommandWritesFormattedOutcome(t *testing.T) {
	dir := t.TempDir()
	jd := writeFile(t, dir, "jd.txt", "Build APIs")

	runner := &recordingRunner{outcome: &types.Outcome{
		Result: types.EvaluationResult{Summary: "A senior Go role."},
		Prompt: types.ComposedPrompt{Template: types.OperationJobSummary},
		Model:  "fake-model",
		Usage:  &types.TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}}

	var out bytes.Buffer
	err := RunPipelineCommand(context.Background(), testLogger,
		CommandConfig{OutputFormat: "text", Out: &out},
		runner, []string{jd, ""}, jobSummaryRequest, nil)
	require.NoError(t, err)

	require.Len(t, runner.requests, 1)
	assert.Equal(t, "Build APIs", runner.requests[0].JobDescription)
	assert.Contains(t, out.String(), "=== JOB SUMMARY ===")
	assert.Contains(t, out.String(), "A senior Go role.")
}

func TestRunPipelineCommandWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	jd := writeFile(t, dir, "jd.txt", "Build APIs")
	target := filepath.Join(dir, "out", "summary.json")

	runner := &recordingRunner{outcome: &types.Outcome{
		Result: types.EvaluationResult{Summary: "ok"},
		Prompt: types.ComposedPrompt{Template: types.OperationJobSummary},
	}}

	err := RunPipelineCommand(context.Background(), testLogger,
		CommandConfig{OutputFormat: "json", OutputFile: target},
		runner, []string{jd}, jobSummaryRequest, nil)
	require.NoError(t, err)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"summary": "ok"`)
}

func TestRunPipelineCommandFailsBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	big := writeFile(t, dir, "jd.txt", "0123456789")

	tests := []struct {
		name  string
		cfg   CommandConfig
		paths []string
	}{
		{name: "missing input", cfg: CommandConfig{OutputFormat: "json"}, paths: []string{filepath.Join(dir, "missing.txt")}},
		{name: "input too large", cfg: CommandConfig{OutputFormat: "json", MaxFileSize: 5}, paths: []string{big}},
		{name: "output is a directory", cfg: CommandConfig{OutputFormat: "json", OutputFile: dir}, paths: []string{big}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &recordingRunner{}
			err := RunPipelineCommand(context.Background(), testLogger, tt.cfg, runner, tt.paths, jobSummaryRequest, nil)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			assert.Empty(t, runner.requests)
		})
	}
}

func TestRunPipelineCommandReturnsPipelineError(t *testing.T) {
	dir := t.TempDir()
	jd := writeFile(t, dir, "jd.txt", "Build APIs")

	pipelineErr := errors.NewModelCallError(errors.ErrCodeAIServiceFailed, "AI service failed", 500, nil)
	runner := &recordingRunner{err: pipelineErr}

	var out bytes.Buffer
	err := RunPipelineCommand(context.Background(), testLogger,
		CommandConfig{OutputFormat: "json", Out: &out},
		runner, []string{jd}, jobSummaryRequest, nil)
	assert.ErrorIs(t, err, pipelineErr)
	assert.Empty(t, out.String())
}
