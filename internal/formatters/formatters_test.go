package formatters

import (
	"encoding/json"
	"testing"

	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outcome(op types.Operation, result types.EvaluationResult) types.Outcome {
	return types.Outcome{
		Result: result,
		Prompt: types.ComposedPrompt{Template: op, Text: "prompt"},
		Model:  "x-ai/grok-4.1-fast:free",
	}
}

func TestFormatRegistry(t *testing.T) {
	evaluation := outcome(types.OperationEvaluate, types.EvaluationResult{
		JDMatch:         "70%",
		MissingKeywords: []string{"Docker"},
		Summary:         "Solid backend skills.",
	})
	analysis := outcome(types.OperationAnalyzeResume, types.EvaluationResult{
		Score:           81,
		JDMatch:         "81%",
		MissingKeywords: []string{},
		Summary:         "Analysis pending",
	})
	summary := outcome(types.OperationJobSummary, types.EvaluationResult{Summary: "A senior Go role."})

	tests := []struct {
		name    string
		data    any
		format  string
		want    []string
		wantNot []string
	}{
		{
			name:   "evaluation text",
			data:   evaluation,
			format: FormatText,
			want:   []string{"=== ATS EVALUATION ===", "JD Match: 70%", "- Docker", "Solid backend skills.", "Model: x-ai/grok-4.1-fast:free"},
		},
		{
			name:    "evaluation markdown from pointer",
			data:    &evaluation,
			format:  FormatMarkdown,
			want:    []string{"# ATS Evaluation", "**JD Match:** 70%", "## Missing Keywords", "- Docker"},
			wantNot: []string{"Score:"},
		},
		{
			name:   "analysis text without keywords",
			data:   analysis,
			format: FormatText,
			want:   []string{"Score: 81/100", "Missing Keywords:\nNone", "Analysis pending"},
		},
		{
			name:   "analysis markdown",
			data:   analysis,
			format: FormatMarkdown,
			want:   []string{"**Score:** 81/100", "_None_"},
		},
		{
			name:    "job summary text",
			data:    summary,
			format:  FormatText,
			want:    []string{"=== JOB SUMMARY ===", "A senior Go role."},
			wantNot: []string{"JD Match"},
		},
		{
			name:   "job summary markdown",
			data:   summary,
			format: FormatMarkdown,
			want:   []string{"# Job Summary", "_Model: x-ai/grok-4.1-fast:free_"},
		},
	}

	registry := NewFormatterRegistry()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := registry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, output, want)
			}
			for _, notWant := range tt.wantNot {
				assert.NotContains(t, output, notWant)
			}
		})
	}
}

func TestJSONFormatUsesOutcomeShape(t *testing.T) {
	data := outcome(types.OperationEvaluate, types.EvaluationResult{JDMatch: "70%", MissingKeywords: []string{}})

	output, err := NewFormatterRegistry().Format(data, FormatJSON)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))
	assert.Equal(t, "x-ai/grok-4.1-fast:free", decoded["model"])
	assert.Equal(t, "70%", decoded["result"].(map[string]any)["jd_match"])
	assert.NotContains(t, decoded, "usage")
}

func TestFormatUnknownFormat(t *testing.T) {
	_, err := NewFormatterRegistry().Format(types.Outcome{}, "xml")
	assert.ErrorContains(t, err, "no formatter found for format 'xml'")

	// Text has no generic fallback
	_, err = NewFormatterRegistry().Format(map[string]string{"a": "b"}, FormatText)
	assert.Error(t, err)
}

func TestTypedFormatterRejectsOtherOperations(t *testing.T) {
	_, err := (&EvaluationTextFormatter{}).Format(outcome(types.OperationJobSummary, types.EvaluationResult{}))
	assert.Error(t, err)
}

func TestGetSupportedFormats(t *testing.T) {
	assert.ElementsMatch(t, []string{FormatJSON, FormatText, FormatMarkdown}, NewFormatterRegistry().GetSupportedFormats())
}
