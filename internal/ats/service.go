// Package ats runs the resume screening pipeline shared by every entry point:
// validate, fetch, extract, compose, call the model, normalize.
package ats

import (
	"context"
	"fmt"

	"resumatch/internal/ai"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/fetch"
	"resumatch/internal/observability"
	"resumatch/internal/prompt"
	"resumatch/internal/types"
)

// Generator calls the model configured for one operation
type Generator interface {
	Generate(ctx context.Context, prompt types.ComposedPrompt, override ai.Override) (*ai.Reply, error)
	Model() string
}

// DocumentFetcher downloads a resume referenced by URL
type DocumentFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.Document, error)
}

// Options wires the pipeline collaborators
type Options struct {
	Fetcher          DocumentFetcher
	Composer         *prompt.Composer
	Models           map[types.Operation]Generator
	SystemPrompts    map[types.Operation]string
	AllowRequestKeys bool
	Observability    *observability.ObservabilityManager
	Logger           *errors.Logger
}

// Service runs EvaluationRequests through the pipeline. It holds no per-request state.
type Service struct {
	fetcher          DocumentFetcher
	extractor        *extract.Extractor
	composer         *prompt.Composer
	models           map[types.Operation]Generator
	systemPrompts    map[types.Operation]string
	allowRequestKeys bool
	obs              *observability.ObservabilityManager
	logger           *errors.Logger
	closers          []func() error
}

// New creates a pipeline from explicit collaborators
func New(opts Options) *Service {
	systemPrompts := opts.SystemPrompts
	if systemPrompts == nil {
		systemPrompts = map[types.Operation]string{}
	}
	return &Service{
		fetcher:          opts.Fetcher,
		extractor:        extract.NewExtractor(),
		composer:         opts.Composer,
		models:           opts.Models,
		systemPrompts:    systemPrompts,
		allowRequestKeys: opts.AllowRequestKeys,
		obs:              opts.Observability,
		logger:           opts.Logger,
	}
}

// NewFromConfig builds the fetcher, composer and one model client per operation from cfg
func NewFromConfig(ctx context.Context, cfg *config.Config, obs *observability.ObservabilityManager, logger *errors.Logger) (*Service, error) {
	fetcher, err := fetch.NewFetcher(ctx, cfg.Fetch, logger)
	if err != nil {
		return nil, err
	}

	composer, err := prompt.NewComposer(cfg.Prompt)
	if err != nil {
		return nil, err
	}

	opts := Options{
		Fetcher:          fetcher,
		Composer:         composer,
		Models:           make(map[types.Operation]Generator),
		SystemPrompts:    make(map[types.Operation]string),
		AllowRequestKeys: cfg.AI.AllowRequestKeys,
		Observability:    obs,
		Logger:           logger,
	}

	var closers []func() error
	for _, op := range config.Operations() {
		opCfg := cfg.GetOperationConfig(op)
		svc, err := ai.NewService(ctx, opCfg, op, logger)
		if err != nil {
			for _, closeFn := range closers {
				_ = closeFn()
			}
			return nil, fmt.Errorf("failed to create %s model client: %w", op, err)
		}
		opts.Models[op] = svc
		opts.SystemPrompts[op] = opCfg.SystemPrompt
		closers = append(closers, svc.Close)
	}

	s := New(opts)
	s.closers = closers
	return s, nil
}

// Composer exposes the prompt composer, e.g. for template hot reload
func (s *Service) Composer() *prompt.Composer {
	return s.composer
}

// Stats reports the state of every model client that exposes it
func (s *Service) Stats() map[string]any {
	stats := make(map[string]any, len(s.models))
	for op, model := range s.models {
		if reporter, ok := model.(interface{ GetStats() map[string]any }); ok {
			stats[string(op)] = reporter.GetStats()
		} else {
			stats[string(op)] = map[string]any{"model": model.Model()}
		}
	}
	return stats
}

// Close releases model clients created by NewFromConfig
func (s *Service) Close() error {
	var first error
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
