package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/docspace-ai/docspace/internal/adapters/driven/ai"
	"github.com/docspace-ai/docspace/internal/adapters/driven/config/file"
	"github.com/docspace-ai/docspace/internal/adapters/driven/searchindex"
	"github.com/docspace-ai/docspace/internal/adapters/driven/storage/memory"
	"github.com/docspace-ai/docspace/internal/adapters/driven/storage/sqlite"
	"github.com/docspace-ai/docspace/internal/adapters/driving/cli"
	"github.com/docspace-ai/docspace/internal/core/domain"
	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/services"
	"github.com/docspace-ai/docspace/internal/logger"
)

// buildServices wires adapters to services for one configuration directory.
// Settings problems leave the index services nil so the config commands
// can still repair them.
func buildServices(configDir string) (*cli.Services, error) {
	store, overridden, err := openConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	settingsService := services.NewSettingsService(store)

	out := &cli.Services{
		Settings:   settingsService,
		Validator:  ai.NewConfigValidator(),
		ConfigPath: store.Path(),
		Overridden: overridden,
	}

	settings, err := settingsService.Get()
	if err != nil {
		out.IndexErr = err
		return out, nil
	}

	var closers []func() error
	out.Close = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	var ledger driven.KeyLedger
	if !settings.Ledger.Disabled {
		ledger, err = openLedger(settings.Ledger.DataDir)
		if err != nil {
			logger.Warn("key ledger unavailable, keeping entries for this run only: %v", err)
			ledger = memory.NewKeyLedger()
		}
		closers = append(closers, ledger.Close)
		out.Keys = services.NewKeyService(ledger)
	}

	if !settings.Search.IsConfigured() {
		out.IndexErr = &domain.ConfigError{
			Key:    "search.endpoint",
			Reason: "search.endpoint, search.index and a credential must be set",
		}
		return out, nil
	}

	transport, err := newTransport(&settings.Search)
	if err != nil {
		out.IndexErr = err
		return out, nil
	}
	closers = append(closers, transport.Close)

	var gateway *services.EmbeddingGateway
	provider, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		logger.Warn("embedding disabled: %v", err)
	} else if provider != nil {
		closers = append(closers, provider.Close)
		gateway, err = services.NewEmbeddingGateway(provider, settings.Embedding.Dimensions, settings.Embedding.MaxInputChars)
		if err != nil {
			out.IndexErr = err
			return out, nil
		}
	}

	schema, err := services.NewSchemaNegotiator(transport, services.SchemaOptions{
		IndexName:   settings.Search.IndexName,
		APIVersions: settings.Search.APIVersions,
		Vector: domain.VectorConfig{
			Enabled:    settings.Search.VectorEnabled,
			Dimensions: settings.Embedding.Dimensions,
		},
	})
	if err != nil {
		out.IndexErr = err
		return out, nil
	}

	pipeline := services.NewUpsertPipeline(schema, transport, gateway)
	queries := services.NewQueryEngine(schema, transport, gateway)

	out.Schema = schema
	out.Query = queries
	out.Similarity = services.NewFallbackSearcher(queries, services.NewRetrievalOrchestrator(queries))
	out.Ingest = services.NewIngester(pipeline, ledger)
	return out, nil
}

func openLedger(dataDir string) (driven.KeyLedger, error) {
	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return store.KeyLedger(), nil
}

func newTransport(s *domain.SearchSettings) (*searchindex.Transport, error) {
	cfg := searchindex.Config{
		Endpoint:          s.Endpoint,
		Timeout:           s.Timeout,
		RequestsPerSecond: s.RequestsPerSecond,
		Burst:             s.Burst,
	}
	if s.UsesTokenAuth() {
		cfg.TokenSource = searchindex.ClientCredentials(s.TenantID, s.ClientID, s.ClientSecret)
	} else {
		cfg.APIKey = s.APIKey
	}
	return searchindex.NewTransport(cfg)
}

// openConfigStore opens the TOML store in configDir. Without a usable
// directory, settings come from the environment alone and nothing is saved.
func openConfigStore(configDir string) (driven.ConfigStore, func(key string) bool, error) {
	store, err := file.NewConfigStore(configDir)
	if err == nil {
		return store, store.IsOverridden, nil
	}
	if !errors.Is(err, file.ErrNoConfigDir) {
		return nil, nil, err
	}
	logger.Warn("%v, reading settings from the environment only", err)
	mem := memory.NewConfigStoreFrom(file.EnvOverrides(os.Environ()))
	return mem, func(key string) bool {
		_, ok := mem.Get(key)
		return ok
	}, nil
}
