package cli

import (
	"context"
	"fmt"
	"time"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
	"resumatch/internal/prompt"
	"resumatch/internal/server"

	"github.com/spf13/cobra"
)

// serveFlags holds command line overrides for the server configuration
type serveFlags struct {
	port     string
	host     string
	tlsMode  string
	certFile string
	keyFile  string
	caFile   string
}

// apply copies every set flag onto cfg
func (f serveFlags) apply(cfg *config.ServerConfig) {
	override := func(target *string, value string) {
		if value != "" {
			*target = value
		}
	}
	override(&cfg.Port, f.port)
	override(&cfg.Host, f.host)
	override(&cfg.TLS.Mode, f.tlsMode)
	override(&cfg.TLS.CertFile, f.certFile)
	override(&cfg.TLS.KeyFile, f.keyFile)
	override(&cfg.TLS.CAFile, f.caFile)
}

func newServeCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server that exposes resume evaluation over REST.

Available endpoints:
- POST /evaluate: Evaluate an uploaded PDF resume (multipart: resume, job_description)
- POST /evaluate-json: Same as /evaluate with optional api_key and model fields
- POST /api/analyze-resume: Score a resume fetched from a URL
- POST /api/generate-job-summary: Summarize a job posting
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

TLS Configuration:
- Use --tls-mode to set TLS mode: disabled, server, mutual
- Use --cert-file and --key-file for TLS certificates
- Use --ca-file for mutual TLS client certificate verification`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVarP(&flags.port, "port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().StringVar(&flags.host, "host", "", "Host to bind to (default from config)")
	cmd.Flags().StringVar(&flags.tlsMode, "tls-mode", "", "TLS mode: disabled, server, mutual (overrides config)")
	cmd.Flags().StringVar(&flags.certFile, "cert-file", "", "Server certificate file (PEM, overrides config)")
	cmd.Flags().StringVar(&flags.keyFile, "key-file", "", "Server private key file (PEM, overrides config)")
	cmd.Flags().StringVar(&flags.caFile, "ca-file", "", "CA certificate file for client cert verification (PEM, overrides config)")
	return cmd
}

func runServe(ctx context.Context, flags serveFlags) error {
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return err
	}

	flags.apply(&cfg.Server)

	// Validate TLS configuration after applying overrides
	if err := cfg.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("invalid TLS configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer shutdownObservability(om, logger)

	p, err := newPipeline(ctx, cfg, om, logger)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.Warn("Failed to close pipeline", "error", err)
		}
	}()

	if stop, err := startPromptWatcher(cfg, p, logger); err != nil {
		return err
	} else if stop != nil {
		defer stop()
	}

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		CORSOrigins:    cfg.Server.CORSOrigins,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
		KeyWatcher:     cfg.Server.KeyWatcher,
	}

	if cfg.Server.KeyWatcher.Enabled {
		vaultClient, err := config.NewVaultClient(cfg.Vault, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize Vault client: %w", err)
		}
		// A nil *VaultClient must not become a non-nil interface
		if vaultClient != nil {
			serverCfg.Secrets = vaultClient
		}
	}

	return server.NewServer(cfg, serverCfg, p, om, logger).Start(ctx)
}

// startPromptWatcher reloads prompt template files on change when enabled
func startPromptWatcher(cfg *config.Config, p pipeline, logger *errors.Logger) (func(), error) {
	files := cfg.Prompt.Templates.Files()
	if !cfg.Prompt.WatchFiles || len(files) == 0 {
		return nil, nil
	}

	withComposer, ok := p.(interface{ Composer() *prompt.Composer })
	if !ok {
		return nil, nil
	}

	watcher := prompt.NewWatcher(withComposer.Composer(), files, 0, logger)
	if err := watcher.Start(); err != nil {
		return nil, fmt.Errorf("failed to watch prompt files: %w", err)
	}
	return func() {
		if err := watcher.Stop(); err != nil {
			logger.Warn("Failed to stop prompt watcher", "error", err)
		}
	}, nil
}

// shutdownObservability flushes exporters before exit
func shutdownObservability(om *observability.ObservabilityManager, logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}
