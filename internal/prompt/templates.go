package prompt

import "resumatch/internal/types"

// Field names available to templates
const (
	FieldResumeText      = "resume_text"
	FieldJobDescription  = "job_description"
	FieldCoverLetter     = "cover_letter"
	FieldJobTitle        = "job_title"
	FieldExperienceYears = "required_experience_years"
	FieldTags            = "tags"
)

// DefaultTemplates holds the built-in user prompt of every operation
var DefaultTemplates = map[types.Operation]string{
	types.OperationEvaluate: `
Act as a skilled and very experienced Application Tracking System (ATS) with a deep understanding of 
tech field, software engineering, data science, data analysis, and big data engineering. 
Your task is to evaluate the resume based on the given job description. 
You must consider the job market is very competitive and you should provide 
best assistance for improving the resumes.

resume: {{.resume_text}}
description: {{.job_description}}

I want the response in a single string having the structure:
{"JD Match": "%", "MissingKeywords": [], "Profile Summary": ""}
`,

	types.OperationAnalyzeResume: `
Act as a skilled and very experienced Application Tracking System (ATS) with a deep understanding of 
tech field, software engineering, data science, data analysis, and big data engineering. 
Your task is to score the applicant's resume against the given job description. 
Treat the cover letter as additional context from the applicant when one is provided.

resume: {{.resume_text}}
description: {{.job_description}}
{{- if .cover_letter}}
cover letter: {{.cover_letter}}
{{- end}}

Respond with a single JSON object and nothing else, having the structure:
{"score": 0, "jd_match": "%", "missing_keywords": [], "summary": ""}
score is an integer between 0 and 100. summary is two or three sentences for the recruiter.
`,

	types.OperationJobSummary: `
You are an experienced technical recruiter. Write a concise summary of the job posting below 
for candidates browsing a job board. Use two or three sentences and mention the most important 
skills and the experience level.

job title: {{.job_title}}
required experience: {{.required_experience_years}} years
tags: {{.tags}}
description: {{.job_description}}

Respond with a single JSON object and nothing else, having the structure:
{"summary": ""}
`,
}
