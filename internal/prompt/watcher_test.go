package prompt

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReloadsChangedTemplate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "summary.tmpl")
	require.NoError(t, os.WriteFile(file, []byte("Summarize {{.job_title}}"), 0o600))

	c := newTestComposer(t, testPromptConfig())
	logger := errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
	w := NewWatcher(c, map[types.Operation]string{types.OperationJobSummary: file}, 20*time.Millisecond, logger)
	require.NoError(t, w.Start())
	defer func() { _ = w.Stop() }()

	require.NoError(t, os.WriteFile(file, []byte("Describe {{.job_title}} briefly"), 0o600))
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(file, future, future))

	assert.Eventually(t, func() bool {
		return c.Template(types.OperationJobSummary) == "Describe {{.job_title}} briefly"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcherKeepsTemplateOnParseError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "evaluate.tmpl")
	require.NoError(t, os.WriteFile(file, []byte("ok"), 0o600))

	c := newTestComposer(t, testPromptConfig())
	before := c.Template(types.OperationEvaluate)
	logger := errors.NewLoggerWithWriter(io.Discard, slog.LevelDebug)
	w := NewWatcher(c, map[types.Operation]string{types.OperationEvaluate: file}, time.Millisecond, logger)

	require.NoError(t, os.WriteFile(file, []byte("{{.resume_text"), 0o600))
	w.reloadChanged()

	assert.Equal(t, before, c.Template(types.OperationEvaluate))
}

func TestWatcherWithoutFiles(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())
	w := NewWatcher(c, nil, 0, errors.NewLoggerWithWriter(io.Discard, slog.LevelInfo))

	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
}
