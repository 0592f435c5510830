package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumatch/internal/types"
)

// Data types an outcome is registered under, one per pipeline operation
const (
	TypeAny             = "any"
	TypeEvaluation      = "EvaluationOutcome"
	TypeResumeAnalysis  = "ResumeAnalysisOutcome"
	TypeJobSummary      = "JobSummaryOutcome"
	FormatJSON          = "json"
	FormatText          = "text"
	FormatMarkdown      = "markdown"
	noMissingKeywords   = "None"
	noMissingKeywordsMD = "_None_"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry holds the default formatters used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter(FormatJSON, TypeAny, &JSONFormatter{})
	registry.RegisterFormatter(FormatText, TypeEvaluation, &EvaluationTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, TypeEvaluation, &EvaluationMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, TypeResumeAnalysis, &ResumeAnalysisTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, TypeResumeAnalysis, &ResumeAnalysisMarkdownFormatter{})
	registry.RegisterFormatter(FormatText, TypeJobSummary, &JobSummaryTextFormatter{})
	registry.RegisterFormatter(FormatMarkdown, TypeJobSummary, &JobSummaryMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	if outcome, ok := data.(*types.Outcome); ok && outcome != nil {
		data = *outcome
	}
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	outcome, ok := data.(types.Outcome)
	if !ok {
		return TypeAny
	}
	switch outcome.Prompt.Template {
	case types.OperationEvaluate:
		return TypeEvaluation
	case types.OperationAnalyzeResume:
		return TypeResumeAnalysis
	case types.OperationJobSummary:
		return TypeJobSummary
	default:
		return TypeAny
	}
}

func asOutcome(data any, want string) (types.Outcome, error) {
	outcome, ok := data.(types.Outcome)
	if !ok || getDataType(outcome) != want {
		return types.Outcome{}, fmt.Errorf("expected %s, got %T", want, data)
	}
	return outcome, nil
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// EvaluationTextFormatter handles text formatting for evaluate results
type EvaluationTextFormatter struct{}

func (f *EvaluationTextFormatter) Format(data any) (string, error) {
	outcome, err := asOutcome(data, TypeEvaluation)
	if err != nil {
		return "", err
	}
	result := outcome.Result

	var output strings.Builder
	output.WriteString("=== ATS EVALUATION ===\n\n")
	fmt.Fprintf(&output, "JD Match: %s\n\n", result.JDMatch)
	writeKeywordsText(&output, result.MissingKeywords)
	output.WriteString("Profile Summary:\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")
	writeFooterText(&output, outcome)

	return output.String(), nil
}

func (f *EvaluationTextFormatter) SupportedType() string {
	return TypeEvaluation
}

// EvaluationMarkdownFormatter handles markdown formatting for evaluate results
type EvaluationMarkdownFormatter struct{}

func (f *EvaluationMarkdownFormatter) Format(data any) (string, error) {
	outcome, err := asOutcome(data, TypeEvaluation)
	if err != nil {
		return "", err
	}
	result := outcome.Result

	var output strings.Builder
	output.WriteString("# ATS Evaluation\n\n")
	fmt.Fprintf(&output, "**JD Match:** %s\n\n", result.JDMatch)
	writeKeywordsMarkdown(&output, result.MissingKeywords)
	output.WriteString("## Profile Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")
	writeFooterMarkdown(&output, outcome)

	return output.String(), nil
}

func (f *EvaluationMarkdownFormatter) SupportedType() string {
	return TypeEvaluation
}

// ResumeAnalysisTextFormatter handles text formatting for analyze-resume results
type ResumeAnalysisTextFormatter struct{}

func (f *ResumeAnalysisTextFormatter) Format(data any) (string, error) {
	outcome, err := asOutcome(data, TypeResumeAnalysis)
	if err != nil {
		return "", err
	}
	result := outcome.Result

	var output strings.Builder
	output.WriteString("=== RESUME ANALYSIS ===\n\n")
	fmt.Fprintf(&output, "Score: %d/100\n", result.Score)
	fmt.Fprintf(&output, "JD Match: %s\n\n", result.JDMatch)
	writeKeywordsText(&output, result.MissingKeywords)
	output.WriteString("Summary:\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")
	writeFooterText(&output, outcome)

	return output.String(), nil
}

func (f *ResumeAnalysisTextFormatter) SupportedType() string {
	return TypeResumeAnalysis
}

// ResumeAnalysisMarkdownFormatter handles markdown formatting for analyze-resume results
type ResumeAnalysisMarkdownFormatter struct{}

func (f *ResumeAnalysisMarkdownFormatter) Format(data any) (string, error) {
	outcome, err := asOutcome(data, TypeResumeAnalysis)
	if err != nil {
		return "", err
	}
	result := outcome.Result

	var output strings.Builder
	output.WriteString("# Resume Analysis\n\n")
	fmt.Fprintf(&output, "**Score:** %d/100\n\n", result.Score)
	fmt.Fprintf(&output, "**JD Match:** %s\n\n", result.JDMatch)
	writeKeywordsMarkdown(&output, result.MissingKeywords)
	output.WriteString("## Summary\n\n")
	output.WriteString(result.Summary)
	output.WriteString("\n")
	writeFooterMarkdown(&output, outcome)

	return output.String(), nil
}

func (f *ResumeAnalysisMarkdownFormatter) SupportedType() string {
	return TypeResumeAnalysis
}

// JobSummaryTextFormatter handles text formatting for job summaries
type JobSummaryTextFormatter struct{}

func (f *JobSummaryTextFormatter) Format(data any) (string, error) {
	outcome, err := asOutcome(data, TypeJobSummary)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("=== JOB SUMMARY ===\n\n")
	output.WriteString(outcome.Result.Summary)
	output.WriteString("\n")
	writeFooterText(&output, outcome)

	return output.String(), nil
}

func (f *JobSummaryTextFormatter) SupportedType() string {
	return TypeJobSummary
}

// JobSummaryMarkdownFormatter handles markdown formatting for job summaries
type JobSummaryMarkdownFormatter struct{}

func (f *JobSummaryMarkdownFormatter) Format(data any) (string, error) {
	outcome, err := asOutcome(data, TypeJobSummary)
	if err != nil {
		return "", err
	}

	var output strings.Builder
	output.WriteString("# Job Summary\n\n")
	output.WriteString(outcome.Result.Summary)
	output.WriteString("\n")
	writeFooterMarkdown(&output, outcome)

	return output.String(), nil
}

func (f *JobSummaryMarkdownFormatter) SupportedType() string {
	return TypeJobSummary
}

func writeKeywordsText(output *strings.Builder, keywords []string) {
	output.WriteString("Missing Keywords:\n")
	if len(keywords) == 0 {
		output.WriteString(noMissingKeywords + "\n\n")
		return
	}
	for _, keyword := range keywords {
		fmt.Fprintf(output, "- %s\n", keyword)
	}
	output.WriteString("\n")
}

func writeKeywordsMarkdown(output *strings.Builder, keywords []string) {
	output.WriteString("## Missing Keywords\n\n")
	if len(keywords) == 0 {
		output.WriteString(noMissingKeywordsMD + "\n\n")
		return
	}
	for _, keyword := range keywords {
		fmt.Fprintf(output, "- %s\n", keyword)
	}
	output.WriteString("\n")
}

func writeFooterText(output *strings.Builder, outcome types.Outcome) {
	if outcome.Model == "" {
		return
	}
	fmt.Fprintf(output, "\nModel: %s\n", outcome.Model)
}

func writeFooterMarkdown(output *strings.Builder, outcome types.Outcome) {
	if outcome.Model == "" {
		return
	}
	fmt.Fprintf(output, "\n---\n_Model: %s_\n", outcome.Model)
}
