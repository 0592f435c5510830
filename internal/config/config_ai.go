package config

import "resumatch/internal/types"

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationAIConfig) {
	if opCfg.Provider == "" {
		opCfg.Provider = c.AI.Provider
	}
	if opCfg.BaseURL == "" && opCfg.Provider == c.AI.Provider {
		opCfg.BaseURL = c.AI.BaseURL
	}
	if opCfg.Model == "" {
		opCfg.Model = c.AI.Model
	}
	if opCfg.APIKey == "" && opCfg.Provider == c.AI.Provider {
		opCfg.APIKey = c.AI.APIKey
	}
	if opCfg.SystemPrompt == "" {
		opCfg.SystemPrompt = c.AI.SystemPrompt
	}
	if opCfg.Temperature == nil && c.AI.Temperature != nil {
		temperature := *c.AI.Temperature
		opCfg.Temperature = &temperature
	}
	if opCfg.MaxTokens == nil && c.AI.MaxTokens != nil {
		maxTokens := *c.AI.MaxTokens
		opCfg.MaxTokens = &maxTokens
	}
}

// GetOperationConfig returns the AI configuration for op with fallback to the global config
func (c *Config) GetOperationConfig(op types.Operation) OperationAIConfig {
	var config OperationAIConfig
	switch op {
	case types.OperationEvaluate:
		config = c.AI.Evaluate
	case types.OperationAnalyzeResume:
		config = c.AI.AnalyzeResume
	case types.OperationJobSummary:
		config = c.AI.JobSummary
	}

	c.applyOperationDefaults(&config)
	return config
}

// operationConfigs returns the resolved configuration of every operation keyed by name
func (c *Config) operationConfigs() map[string]OperationAIConfig {
	return map[string]OperationAIConfig{
		"evaluate":      c.GetOperationConfig(types.OperationEvaluate),
		"analyzeResume": c.GetOperationConfig(types.OperationAnalyzeResume),
		"jobSummary":    c.GetOperationConfig(types.OperationJobSummary),
	}
}

// Operations lists every pipeline operation in a stable order
func Operations() []types.Operation {
	return []types.Operation{
		types.OperationEvaluate,
		types.OperationAnalyzeResume,
		types.OperationJobSummary,
	}
}
