// Package normalize turns raw model replies into evaluation results.
package normalize

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

// NotAvailable is reported when the model omits the match percentage
const NotAvailable = "N/A"

// Fallback summaries per operation
const (
	FallbackEvaluateSummary   = "No profile summary was provided."
	FallbackAnalyzeSummary    = "Analysis pending"
	FallbackJobSummarySummary = ""
)

// Accepted spellings of each key, most specific first
var (
	matchKeys   = []string{"JD Match", "jd_match", "jdMatch", "match"}
	keywordKeys = []string{"MissingKeywords", "missing_keywords", "Missing Keywords", "missingKeywords"}
	summaryKeys = []string{"Profile Summary", "summary", "profile_summary", "profileSummary", "Summary"}
	scoreKeys   = []string{"score", "Score", "ats_score", "atsScore"}
)

const (
	fenceMarker = "```"
	minScore    = 0
	maxScore    = 100
	invalidJSON = "AI response was not valid JSON"
	notAnObject = "AI response was not a JSON object"
)

// Normalize parses raw as the reply for purpose. It fails only when the reply is not a JSON
// object; missing or mistyped fields fall back to defaults.
func Normalize(raw string, purpose types.Operation) (*types.EvaluationResult, error) {
	cleaned := StripFences(raw)

	parsed, err := decode(cleaned)
	if err != nil {
		return nil, errors.NewNormalizationError(errors.ErrCodeInvalidJSON, invalidJSON, raw, err)
	}
	fields, ok := parsed.(map[string]any)
	if !ok {
		return nil, errors.NewNormalizationError(errors.ErrCodeInvalidJSON, notAnObject, raw,
			fmt.Errorf("reply decoded to %T", parsed))
	}

	result := &types.EvaluationResult{
		JDMatch:         NotAvailable,
		MissingKeywords: []string{},
		Summary:         fallbackSummary(purpose),
	}

	if value, found := lookup(fields, matchKeys); found {
		if match, ok := matchString(value); ok {
			result.JDMatch = match
		}
	}
	if value, found := lookup(fields, keywordKeys); found {
		result.MissingKeywords = keywordList(value)
	}
	if value, found := lookup(fields, summaryKeys); found {
		if summary, ok := value.(string); ok && strings.TrimSpace(summary) != "" {
			result.Summary = strings.TrimSpace(summary)
		}
	}
	if value, found := lookup(fields, scoreKeys); found {
		result.Score = ClampScore(numeric(value))
	}

	return result, nil
}

// decode parses a single JSON value. Numbers stay json.Number so out-of-range scores
// can still be clamped.
func decode(text string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var parsed any
	if err := decoder.Decode(&parsed); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); err != io.EOF {
		return nil, stderrors.New("unexpected data after the JSON value")
	}
	return parsed, nil
}

// StripFences removes a surrounding markdown code fence and its optional language tag
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, fenceMarker) {
		s = strings.TrimPrefix(s, fenceMarker)
		s = strings.TrimLeft(s, " \t")
		s = strings.TrimLeftFunc(s, isTagRune)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fenceMarker)
	return strings.TrimSpace(s)
}

func isTagRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '+'
}

// ClampScore rounds score and limits it to [0, 100]
func ClampScore(score float64) int {
	if math.IsNaN(score) {
		return minScore
	}
	rounded := math.Round(score)
	if rounded < minScore {
		return minScore
	}
	if rounded > maxScore {
		return maxScore
	}
	return int(rounded)
}

func fallbackSummary(purpose types.Operation) string {
	switch purpose {
	case types.OperationAnalyzeResume:
		return FallbackAnalyzeSummary
	case types.OperationJobSummary:
		return FallbackJobSummarySummary
	default:
		return FallbackEvaluateSummary
	}
}

func lookup(fields map[string]any, keys []string) (any, bool) {
	for _, key := range keys {
		if value, ok := fields[key]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}

// matchString accepts "85%", "85" and 85
func matchString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String() + "%", true
	default:
		return "", false
	}
}

// keywordList keeps the non-empty strings of a list; anything else becomes an empty list
func keywordList(value any) []string {
	items, ok := value.([]any)
	if !ok {
		return []string{}
	}
	keywords := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				keywords = append(keywords, s)
			}
		}
	}
	return keywords
}

// numeric reads a JSON number or a numeric string such as "72" or "72%". Values beyond
// the float64 range come back as ±Inf.
func numeric(value any) float64 {
	switch v := value.(type) {
	case json.Number:
		return parseScore(v.String())
	case string:
		return parseScore(strings.TrimSuffix(strings.TrimSpace(v), "%"))
	default:
		return 0
	}
}

func parseScore(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !stderrors.Is(err, strconv.ErrRange) {
		return 0
	}
	return f
}
