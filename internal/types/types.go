package types

import "strings"

// Operation identifies one variant of the evaluation pipeline
type Operation string

const (
	OperationEvaluate      Operation = "evaluate"
	OperationAnalyzeResume Operation = "analyze_resume"
	OperationJobSummary    Operation = "job_summary"
)

// ResumeSource is either uploaded bytes or a remote location to fetch
type ResumeSource struct {
	Filename    string
	ContentType string
	Data        []byte
	URL         string
}

// IsEmpty reports whether neither bytes nor a URL were supplied
func (s ResumeSource) IsEmpty() bool {
	return len(s.Data) == 0 && strings.TrimSpace(s.URL) == ""
}

// EvaluationRequest is the transport-independent input of the pipeline
type EvaluationRequest struct {
	Operation      Operation
	Resume         ResumeSource
	JobDescription string
	CoverLetter    string
	Job            JobMetadata

	// Model and APIKey override the configured values for this request only.
	Model  string
	APIKey string
}

// JobMetadata is optional structured job information
type JobMetadata struct {
	Title                   string
	RequiredExperienceYears int
	Tags                    []string
}

// EvaluationResult is the normalized model output
type EvaluationResult struct {
	JDMatch         string   `json:"jd_match"`
	Score           int      `json:"score"`
	MissingKeywords []string `json:"missing_keywords"`
	Summary         string   `json:"summary"`
}

// ComposedPrompt is the exact prompt sent to the model and the template that produced it
type ComposedPrompt struct {
	Template Operation `json:"template"`
	System   string    `json:"system,omitempty"`
	Text     string    `json:"text"`
}

// Outcome bundles a result with the prompt that produced it
type Outcome struct {
	Result EvaluationResult `json:"result"`
	Prompt ComposedPrompt   `json:"prompt"`
	Model  string           `json:"model"`
	Usage  *TokenUsage      `json:"usage,omitempty"`
}

// TokenUsage reports provider token accounting when available
type TokenUsage struct {
	PromptTokens     int32 `json:"promptTokens"`
	CompletionTokens int32 `json:"completionTokens"`
	TotalTokens      int32 `json:"totalTokens"`
}

// AnalyzeResumeRequest is the JSON body of the analyze-resume endpoint
type AnalyzeResumeRequest struct {
	ResumeURL      string `json:"resume_url" validate:"required,resume_url"`
	JobDescription string `json:"job_description"`
	CoverLetter    string `json:"cover_letter,omitempty" validate:"max=20000"`
}

// JobSummaryRequest is the JSON body of the job-summary endpoint
type JobSummaryRequest struct {
	JobTitle                string   `json:"job_title" validate:"max=200"`
	JobDescription          string   `json:"job_description"`
	RequiredExperienceYears int      `json:"required_experience_years" validate:"gte=0,lte=60"`
	Tags                    []string `json:"tags" validate:"max=50,dive,max=100"`
}

// EvaluateResponse is returned by the evaluate endpoint
type EvaluateResponse struct {
	JDMatch         string   `json:"jd_match"`
	MissingKeywords []string `json:"missing_keywords"`
	ProfileSummary  string   `json:"profile_summary"`
	PromptUsed      string   `json:"prompt_used"`
}

// EvaluateJSONData is the data block of the evaluate-json endpoint
type EvaluateJSONData struct {
	JDMatch         string   `json:"jdMatch"`
	MissingKeywords []string `json:"missingKeywords"`
	ProfileSummary  string   `json:"profileSummary"`
}

// EvaluateJSONResponse is returned by the evaluate-json endpoint
type EvaluateJSONResponse struct {
	Success bool             `json:"success"`
	Data    EvaluateJSONData `json:"data"`
	Prompt  string           `json:"prompt"`
}

// AnalyzeResumeResponse is returned by the analyze-resume endpoint
type AnalyzeResumeResponse struct {
	Score           int      `json:"score"`
	JDMatch         string   `json:"jd_match"`
	MissingKeywords []string `json:"missing_keywords"`
	Summary         string   `json:"summary"`
}

// JobSummaryResponse is returned by the job-summary endpoint
type JobSummaryResponse struct {
	Summary string `json:"summary"`
}
