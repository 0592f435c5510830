package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultBaseURL      = "https://openrouter.ai/api/v1"
	DefaultModel        = "x-ai/grok-4.1-fast:free"
	DefaultSystemPrompt = "You are a helpful ATS assistant."
	DefaultCORSOrigin   = "http://localhost:3000"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// AI Configuration - Global defaults
	v.SetDefault("ai.provider", ProviderOpenRouter)
	v.SetDefault("ai.baseURL", DefaultBaseURL)
	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("ai.apiKey", "")
	v.SetDefault("ai.systemPrompt", DefaultSystemPrompt)
	v.SetDefault("ai.allowRequestKeys", true)

	for _, op := range []string{"evaluate", "analyzeResume", "jobSummary"} {
		prefix := "ai." + op
		v.SetDefault(prefix+".provider", "")
		v.SetDefault(prefix+".baseURL", "")
		v.SetDefault(prefix+".model", "")
		v.SetDefault(prefix+".apiKey", "")
		v.SetDefault(prefix+".systemPrompt", "")

		// Circuit breaker is opt-in; it never repeats a call
		v.SetDefault(prefix+".circuitBreaker.enabled", false)
		v.SetDefault(prefix+".circuitBreaker.maxRequests", 3)
		v.SetDefault(prefix+".circuitBreaker.interval", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.timeout", 60*time.Second)
		v.SetDefault(prefix+".circuitBreaker.minRequests", 5)
		v.SetDefault(prefix+".circuitBreaker.failureThreshold", 0.6)
	}

	// Prompt composition
	v.SetDefault("prompt.maxResumeChars", 12000)
	v.SetDefault("prompt.maxJobDescriptionChars", 4000)
	v.SetDefault("prompt.maxCoverLetterChars", 2000)
	v.SetDefault("prompt.maxJobTitleChars", 200)
	v.SetDefault("prompt.watchFiles", false)
	v.SetDefault("prompt.templates.evaluate", "")
	v.SetDefault("prompt.templates.evaluateFile", "")
	v.SetDefault("prompt.templates.analyzeResume", "")
	v.SetDefault("prompt.templates.analyzeResumeFile", "")
	v.SetDefault("prompt.templates.jobSummary", "")
	v.SetDefault("prompt.templates.jobSummaryFile", "")

	// Remote resume download
	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.maxBytes", 10*1024*1024)
	v.SetDefault("fetch.userAgent", "resumatch/1.0")
	v.SetDefault("fetch.s3.enabled", false)
	v.SetDefault("fetch.s3.region", "auto")
	v.SetDefault("fetch.s3.endpoint", "")
	v.SetDefault("fetch.s3.accessKeyID", "")
	v.SetDefault("fetch.s3.secretAccessKey", "")
	v.SetDefault("fetch.s3.usePathStyle", false)

	// Server Configuration
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 180*time.Second) // model calls carry no timeout of their own
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.maxRequestSize", 10*1024*1024)
	v.SetDefault("server.corsOrigins", []string{DefaultCORSOrigin})

	v.SetDefault("server.tls.mode", "disabled")
	v.SetDefault("server.tls.certFile", "")
	v.SetDefault("server.tls.keyFile", "")
	v.SetDefault("server.tls.caFile", "")
	v.SetDefault("server.tls.minVersion", "1.2")
	v.SetDefault("server.tls.clientAuthPolicy", "require")

	v.SetDefault("server.apiKeys", []string{})
	v.SetDefault("server.keyWatcher.enabled", false)
	v.SetDefault("server.keyWatcher.pollInterval", 5*time.Minute)

	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "json")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024)

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiKeys", "")
	v.SetDefault("vault.secrets.providerKey", "")
	v.SetDefault("vault.secrets.tlsCerts", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", true)
	v.SetDefault("observability.serviceName", "resumatch")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)
	v.SetDefault("observability.customMetrics.aiOperations.enabled", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.aiOperations.trackTokenUsage", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.businessMetrics.trackContentSizes", true)
	v.SetDefault("observability.customMetrics.trackRateLimits", true)
	v.SetDefault("observability.console.enabled", false)
	v.SetDefault("observability.console.prettyPrint", true)
	v.SetDefault("observability.prometheus.enabled", true)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "")
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
