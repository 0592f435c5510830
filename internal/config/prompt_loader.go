package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"resumatch/internal/types"
)

// LoadPromptFiles replaces inline template overrides with the content of their files
func (c *Config) LoadPromptFiles() error {
	for op, file := range c.Prompt.Templates.Files() {
		content, err := ReadPromptFile(file)
		if err != nil {
			return fmt.Errorf("%s template: %w", op, err)
		}
		c.Prompt.Templates.Set(op, content)
		log.Printf("[CONFIG] Loaded %s prompt template from file: %s (%d characters)", op, file, len(content))
	}
	return nil
}

// ReadPromptFile reads a template file, rejecting missing or blank files
func ReadPromptFile(filePath string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for prompt file '%s': %w", filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("prompt file not found: %s", absPath)
		}
		return "", fmt.Errorf("failed to read prompt file '%s': %w", absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("prompt file '%s' is empty", absPath)
	}
	return trimmed, nil
}

// Files returns the configured template file per operation
func (t PromptTemplates) Files() map[types.Operation]string {
	files := make(map[types.Operation]string)
	if t.EvaluateFile != "" {
		files[types.OperationEvaluate] = t.EvaluateFile
	}
	if t.AnalyzeResumeFile != "" {
		files[types.OperationAnalyzeResume] = t.AnalyzeResumeFile
	}
	if t.JobSummaryFile != "" {
		files[types.OperationJobSummary] = t.JobSummaryFile
	}
	return files
}

// Get returns the inline template override for op, or "" when none is set
func (t PromptTemplates) Get(op types.Operation) string {
	switch op {
	case types.OperationEvaluate:
		return t.Evaluate
	case types.OperationAnalyzeResume:
		return t.AnalyzeResume
	case types.OperationJobSummary:
		return t.JobSummary
	default:
		return ""
	}
}

// Set stores an inline template override for op
func (t *PromptTemplates) Set(op types.Operation, content string) {
	switch op {
	case types.OperationEvaluate:
		t.Evaluate = content
	case types.OperationAnalyzeResume:
		t.AnalyzeResume = content
	case types.OperationJobSummary:
		t.JobSummary = content
	}
}
