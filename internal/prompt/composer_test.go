package prompt

import (
	"strings"
	"testing"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPromptConfig() config.PromptConfig {
	return config.PromptConfig{
		MaxResumeChars:         12000,
		MaxJobDescriptionChars: 4000,
		MaxCoverLetterChars:    2000,
		MaxJobTitleChars:       200,
	}
}

func newTestComposer(t *testing.T, cfg config.PromptConfig) *Composer {
	t.Helper()
	c, err := NewComposer(cfg)
	require.NoError(t, err)
	return c
}

func TestComposeEvaluate(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())

	got, err := c.Compose(types.OperationEvaluate, map[string]string{
		FieldResumeText:     "Go developer, 5 years",
		FieldJobDescription: "Backend engineer with Docker",
	})
	require.NoError(t, err)

	assert.Equal(t, types.OperationEvaluate, got.Template)
	assert.Contains(t, got.Text, "resume: Go developer, 5 years\n")
	assert.Contains(t, got.Text, "description: Backend engineer with Docker\n")
	assert.Contains(t, got.Text, `{"JD Match": "%", "MissingKeywords": [], "Profile Summary": ""}`)
}

func TestComposeIsDeterministic(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())
	fields := map[string]string{
		FieldJobTitle:        "Platform Engineer",
		FieldJobDescription:  "Run Kubernetes clusters",
		FieldExperienceYears: "3",
		FieldTags:            "go, kubernetes",
	}

	first, err := c.Compose(types.OperationJobSummary, fields)
	require.NoError(t, err)
	for range 5 {
		again, err := c.Compose(types.OperationJobSummary, fields)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestComposeMissingField(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())

	_, err := c.Compose(types.OperationEvaluate, map[string]string{
		FieldResumeText: "Go developer",
	})
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeValidation, appErr.Type)
	assert.Equal(t, errors.ErrCodeTemplateField, appErr.Code)
	assert.Equal(t, FieldJobDescription, appErr.Context["field"])
}

func TestComposeOptionalCoverLetter(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())
	fields := map[string]string{
		FieldResumeText:     "Go developer",
		FieldJobDescription: "Backend engineer",
		FieldCoverLetter:    "",
	}

	without, err := c.Compose(types.OperationAnalyzeResume, fields)
	require.NoError(t, err)
	assert.NotContains(t, without.Text, "cover letter:")

	fields[FieldCoverLetter] = "I love distributed systems"
	with, err := c.Compose(types.OperationAnalyzeResume, fields)
	require.NoError(t, err)
	assert.Contains(t, with.Text, "cover letter: I love distributed systems")
}

func TestComposeTruncatesFreeText(t *testing.T) {
	cfg := testPromptConfig()
	cfg.MaxJobDescriptionChars = 10
	cfg.MaxResumeChars = 4
	c := newTestComposer(t, cfg)

	got, err := c.Compose(types.OperationEvaluate, map[string]string{
		FieldResumeText:     "ééééééé",
		FieldJobDescription: strings.Repeat("x", 50),
	})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "resume: éééé\n")
	assert.Contains(t, got.Text, "description: "+strings.Repeat("x", 10)+"\n")
}

func TestComposeUnknownTemplate(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())

	_, err := c.Compose(types.Operation("tailor"), map[string]string{})
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestTemplateOverrides(t *testing.T) {
	cfg := testPromptConfig()
	cfg.Templates.Evaluate = "Match {{.resume_text}} to {{.job_description}}"
	c := newTestComposer(t, cfg)

	got, err := c.Compose(types.OperationEvaluate, map[string]string{
		FieldResumeText:     "A",
		FieldJobDescription: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "Match A to B", got.Text)
	assert.Equal(t, []string{FieldJobDescription, FieldResumeText}, c.Fields(types.OperationEvaluate))
}

func TestSetTemplateKeepsPreviousOnError(t *testing.T) {
	c := newTestComposer(t, testPromptConfig())
	before := c.Template(types.OperationJobSummary)

	err := c.SetTemplate(types.OperationJobSummary, "broken {{.job_title")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	assert.Equal(t, before, c.Template(types.OperationJobSummary))
}

func TestNewComposerRejectsInvalidOverride(t *testing.T) {
	cfg := testPromptConfig()
	cfg.Templates.AnalyzeResume = "{{if .resume_text}}"

	_, err := NewComposer(cfg)
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"日本語テキスト", 3, "日本語"},
		{"anything", 0, "anything"},
		{"", 3, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Truncate(tt.in, tt.limit), "Truncate(%q, %d)", tt.in, tt.limit)
	}
}
