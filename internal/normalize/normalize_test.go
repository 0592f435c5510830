package normalize

import (
	"strings"
	"testing"

	"resumatch/internal/errors"
	"resumatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEvaluateReply(t *testing.T) {
	raw := `{"JD Match":"70%","MissingKeywords":["Docker"],"Profile Summary":"Solid backend skills."}`

	result, err := Normalize(raw, types.OperationEvaluate)
	require.NoError(t, err)
	assert.Equal(t, "70%", result.JDMatch)
	assert.Equal(t, []string{"Docker"}, result.MissingKeywords)
	assert.Equal(t, "Solid backend skills.", result.Summary)
	assert.Equal(t, 0, result.Score)
}

func TestNormalizeStripsFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json tag", "```json\n{\"JD Match\": \"80%\"}\n```"},
		{"uppercase tag", "```JSON\n{\"JD Match\": \"80%\"}\n```"},
		{"no tag", "```\n{\"JD Match\": \"80%\"}\n```"},
		{"inline", "```{\"JD Match\": \"80%\"}```"},
		{"surrounding whitespace", "\n\n  ```json\n{\"JD Match\": \"80%\"}\n```  \n"},
		{"bare", `{"JD Match": "80%"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Normalize(tt.raw, types.OperationEvaluate)
			require.NoError(t, err)
			assert.Equal(t, "80%", result.JDMatch)
		})
	}
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	tests := []struct {
		purpose types.Operation
		summary string
	}{
		{types.OperationEvaluate, FallbackEvaluateSummary},
		{types.OperationAnalyzeResume, FallbackAnalyzeSummary},
		{types.OperationJobSummary, FallbackJobSummarySummary},
	}

	for _, tt := range tests {
		t.Run(string(tt.purpose), func(t *testing.T) {
			result, err := Normalize("{}", tt.purpose)
			require.NoError(t, err)
			assert.Equal(t, NotAvailable, result.JDMatch)
			assert.NotNil(t, result.MissingKeywords)
			assert.Empty(t, result.MissingKeywords)
			assert.Equal(t, tt.summary, result.Summary)
			assert.Equal(t, 0, result.Score)
		})
	}
}

func TestNormalizeClampsScore(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`{"score": 150}`, 100},
		{`{"score": -5}`, 0},
		{`{"score": 72.6}`, 73},
		{`{"score": "88"}`, 88},
		{`{"score": "64%"}`, 64},
		{`{"score": "high"}`, 0},
		{`{"score": true}`, 0},
		{`{"score": 1e9}`, 100},
		{`{"score": 1e400}`, 100},
		{`{"score": -1e309}`, 0},
		{`{"score": "1e400"}`, 100},
		{`{"score": "-1e400"}`, 0},
		{`{"score": 1e-400}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			result, err := Normalize(tt.raw, types.OperationAnalyzeResume)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Score)
			assert.GreaterOrEqual(t, result.Score, 0)
			assert.LessOrEqual(t, result.Score, 100)
		})
	}
}

func TestNormalizeCoercesKeywords(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{`{"MissingKeywords": "Docker, Kubernetes"}`, []string{}},
		{`{"MissingKeywords": {"a": 1}}`, []string{}},
		{`{"MissingKeywords": 3}`, []string{}},
		{`{"MissingKeywords": null}`, []string{}},
		{`{"MissingKeywords": ["Go", 7, "", " Kafka "]}`, []string{"Go", "Kafka"}},
		{`{"missing_keywords": ["Terraform"]}`, []string{"Terraform"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			result, err := Normalize(tt.raw, types.OperationEvaluate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.MissingKeywords)
		})
	}
}

func TestNormalizeAnalyzeReply(t *testing.T) {
	raw := "```json\n" +
		`{"score": 81, "jd_match": "81%", "missing_keywords": ["GraphQL"], "summary": "Strong React background."}` +
		"\n```"

	result, err := Normalize(raw, types.OperationAnalyzeResume)
	require.NoError(t, err)
	assert.Equal(t, &types.EvaluationResult{
		JDMatch:         "81%",
		Score:           81,
		MissingKeywords: []string{"GraphQL"},
		Summary:         "Strong React background.",
	}, result)
}

func TestNormalizeNumericMatch(t *testing.T) {
	result, err := Normalize(`{"jd_match": 65}`, types.OperationAnalyzeResume)
	require.NoError(t, err)
	assert.Equal(t, "65%", result.JDMatch)
}

func TestNormalizeInvalidJSON(t *testing.T) {
	raw := "Sure! The candidate looks great. " + strings.Repeat("lorem ipsum ", 100)

	_, err := Normalize(raw, types.OperationEvaluate)
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNormalization, appErr.Type)
	assert.Equal(t, errors.ErrCodeInvalidJSON, appErr.Code)
	assert.Equal(t, "AI response was not valid JSON", appErr.Message)
	assert.NotEmpty(t, appErr.Excerpt)
	assert.LessOrEqual(t, len([]rune(appErr.Excerpt)), errors.ExcerptLimit)
	assert.True(t, strings.HasPrefix(raw, appErr.Excerpt))
}

func TestNormalizeShortInvalidReplyKeepsWholeExcerpt(t *testing.T) {
	_, err := Normalize("```json\n{\"JD Match\": \n```", types.OperationEvaluate)
	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, "```json\n{\"JD Match\": \n```", appErr.Excerpt)
}

func TestNormalizeRejectsNonObject(t *testing.T) {
	_, err := Normalize(`["Docker"]`, types.OperationEvaluate)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNormalization))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
	assert.Equal(t, "", StripFences("```\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("``` json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```\t JSON {\"a\":1}```"))
}

func TestNormalizeOutOfRangeScoreKeepsOtherFields(t *testing.T) {
	raw := `{"score":1e400,"jd_match":"90%","missing_keywords":["Go"],"summary":"Strong."}`

	result, err := Normalize(raw, types.OperationAnalyzeResume)
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, "90%", result.JDMatch)
	assert.Equal(t, []string{"Go"}, result.MissingKeywords)
	assert.Equal(t, "Strong.", result.Summary)
}

func TestNormalizeRejectsTrailingData(t *testing.T) {
	_, err := Normalize(`{"score": 1} {"score": 2}`, types.OperationAnalyzeResume)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNormalization))
}
