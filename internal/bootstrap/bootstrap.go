// Package bootstrap builds the pipeline dependencies shared by the server
// and the worker: the store, the reply generator and the channel sender.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"retailassist.app/relay/common/llm"
	"retailassist.app/relay/core/config"
	"retailassist.app/relay/core/db"
	"retailassist.app/relay/internal/meta"
	"retailassist.app/relay/internal/responder"
	"retailassist.app/relay/internal/service"
	"retailassist.app/relay/internal/store"
)

type Components struct {
	Stores    store.Provider
	Generator responder.Generator
	Sender    meta.Sender
	// Memory is set in mock mode.
	Memory *store.Memory

	closers []func()
}

// Build connects to Postgres and the external APIs, or in mock mode wires the
// seeded in-memory store and the mock generator and sender.
func Build(ctx context.Context, cfg config.Config) (*Components, error) {
	if cfg.MockMode {
		return buildMock(ctx, cfg)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	slog.InfoContext(ctx, "database connected")

	c := &Components{
		Stores:    store.NewStores(database.Queries()),
		Generator: newGenerator(ctx, cfg.LLM),
		Sender:    meta.NewGraphClient(cfg.Meta.GraphURL(), cfg.Meta.SendTimeout),
	}
	c.closers = append(c.closers, database.Close)
	return c, nil
}

func buildMock(ctx context.Context, cfg config.Config) (*Components, error) {
	seed, err := store.LoadSeed(cfg.MockSeedFile)
	if err != nil {
		return nil, fmt.Errorf("loading mock seed: %w", err)
	}

	mem := store.NewMemory()
	mem.Apply(seed)

	slog.InfoContext(ctx, "mock mode enabled",
		"workspaces", len(seed.Workspaces),
		"agents", len(seed.Agents),
		"rules", len(seed.Rules))

	return &Components{
		Stores:    mem,
		Generator: responder.NewMockGenerator(),
		Sender:    meta.NewMockSender(),
		Memory:    mem,
	}, nil
}

func newGenerator(ctx context.Context, cfg config.LLMConfig) responder.Generator {
	defaults := responder.Defaults{
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout,
	}

	var client llm.Client
	if cfg.Enabled() {
		c, err := llm.New(llm.Config{
			Provider: cfg.Provider,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
			Timeout:  cfg.Timeout,
		})
		if err != nil {
			slog.ErrorContext(ctx, "completion client unavailable, replies will fail", "error", err)
		} else {
			client = c
		}
	} else {
		slog.WarnContext(ctx, "LLM_API_KEY not set, replies will fail until it is configured")
	}

	return responder.NewLLMGenerator(client, cfg.Provider, defaults)
}

// AutomationConfig derives the pipeline settings from the service config. The
// claim lease equals the stale age, so the sweeper only picks up events whose
// claim has expired.
func AutomationConfig(cfg config.Config) service.AutomationConfig {
	return service.AutomationConfig{
		PageAccessToken:  cfg.Meta.PageAccessToken,
		DedupeDeliveries: cfg.Meta.DedupeDeliveries,
		ClaimLease:       cfg.Pipeline.StaleAfter,
	}
}

func (c *Components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
