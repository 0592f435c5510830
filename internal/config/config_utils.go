package config

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks
func (c *Config) applyFallbacks() {
	c.applyProviderKeyFallbacks()
	c.applyServerListFallbacks()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyProviderKeyFallbacks fills missing credentials from the provider's conventional variable
func (c *Config) applyProviderKeyFallbacks() {
	envByProvider := map[string]string{
		ProviderOpenRouter: "OPENROUTER_API_KEY",
		ProviderGemini:     "GEMINI_API_KEY",
		ProviderAnthropic:  "ANTHROPIC_API_KEY",
	}

	if c.AI.APIKey == "" {
		c.AI.APIKey = os.Getenv(envByProvider[c.AI.Provider])
	}

	for _, op := range []*OperationAIConfig{&c.AI.Evaluate, &c.AI.AnalyzeResume, &c.AI.JobSummary} {
		if op.APIKey != "" || op.Provider == "" || op.Provider == c.AI.Provider {
			continue
		}
		op.APIKey = os.Getenv(envByProvider[op.Provider])
	}
}

// applyServerListFallbacks parses comma-separated list variables
func (c *Config) applyServerListFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		c.Server.APIKeys = SplitList(os.Getenv("RESUMATCH_SERVER_APIKEYS"))
	}

	if origins := os.Getenv("RESUMATCH_SERVER_CORSORIGINS"); origins != "" {
		c.Server.CORSOrigins = SplitList(origins)
	} else if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = SplitList(origins)
	} else {
		c.Server.CORSOrigins = SplitList(strings.Join(c.Server.CORSOrigins, ","))
	}
}

// SplitList splits a comma-separated list, trimming whitespace and dropping empty entries
func SplitList(value string) []string {
	result := []string{}
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.Server.TLS.Mode == "" {
		c.Server.TLS.Mode = "disabled"
	}
	if c.Server.TLS.Mode == "mutual" && c.Server.TLS.ClientAuthPolicy == "" {
		c.Server.TLS.ClientAuthPolicy = "require"
	}
	if c.Server.TLS.MinVersion == "" && c.Server.TLS.Mode != "disabled" {
		c.Server.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

func generateServiceInstanceID(serviceName string) string {
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"RESUMATCH_AI_APIKEY",
		"RESUMATCH_AI_PROVIDER",
		"RESUMATCH_AI_MODEL",
		"RESUMATCH_SERVER_PORT",
		"RESUMATCH_SERVER_HOST",
		"RESUMATCH_SERVER_CORSORIGINS",
		"RESUMATCH_APP_LOGLEVEL",
		"RESUMATCH_VAULT_ENABLED",
		"OPENROUTER_API_KEY",
		"GEMINI_API_KEY",
		"ANTHROPIC_API_KEY",
		"CORS_ORIGINS",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "key") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] AI Provider: %s", c.AI.Provider)
	log.Printf("[CONFIG] AI Model: %s", c.AI.Model)
	if c.AI.APIKey != "" {
		log.Println("[CONFIG] AI API Key: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] AI API Key: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server: %s:%s", c.Server.Host, c.Server.Port)
	log.Printf("[CONFIG] CORS Origins: %s", strings.Join(c.Server.CORSOrigins, ", "))
	log.Printf("[CONFIG] Fetch Timeout: %s", c.Fetch.Timeout)
	log.Printf("[CONFIG] Log Level: %s", c.App.LogLevel)
	log.Printf("[CONFIG] TLS Mode: %s", c.Server.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Operation-Specific AI Configurations ===")
	for name, op := range c.operationConfigs() {
		log.Printf("[CONFIG] %s - Provider: %s, Model: %s", name, op.Provider, op.Model)
	}
	log.Println("[CONFIG] =====================================")
}
