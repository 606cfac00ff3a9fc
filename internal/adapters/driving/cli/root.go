// Package cli provides the docspace command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docspace-ai/docspace/internal/core/ports/driven"
	"github.com/docspace-ai/docspace/internal/core/ports/driving"
	"github.com/docspace-ai/docspace/internal/logger"
)

// Services holds the driving ports the commands use.
type Services struct {
	Settings   driving.SettingsService
	Validator  driven.AIConfigValidator
	Keys       driving.KeyService
	Schema     driving.SchemaService
	Query      driving.QueryService
	Similarity driving.SimilarityService
	Ingest     driving.IngestService

	// ConfigPath is the configuration file the settings come from.
	ConfigPath string

	// Overridden reports whether the environment supplies a key. May be nil.
	Overridden func(key string) bool

	// IndexErr explains why the index services are nil.
	IndexErr error

	// Close releases adapters. May be nil.
	Close func() error
}

// Loader builds the services for a configuration directory. It runs on
// first use, so commands that need no configuration never call it.
type Loader func(configDir string) (*Services, error)

var (
	version = "dev"

	verbose   bool
	configDir string

	loader   Loader
	services *Services
)

var rootCmd = &cobra.Command{
	Use:   "docspace",
	Short: "Index documents into a cloud search index and retrieve them by similarity",
	Long: `docspace writes extracted document text into a cloud search index,
optionally with embedding vectors, and retrieves similar documents for
search and for grounding generation requests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docspace)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetLoader sets the function that builds services on first use.
func SetLoader(l Loader) {
	loader = l
}

// Execute runs the root command and releases services afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	return rootCmd.ExecuteContext(ctx)
}

func loadServices() (*Services, error) {
	if services != nil {
		return services, nil
	}
	if loader == nil {
		return nil, errors.New("services not configured")
	}
	s, err := loader(configDir)
	if err != nil {
		return nil, err
	}
	services = s
	return services, nil
}

func closeServices() {
	if services != nil && services.Close != nil {
		if err := services.Close(); err != nil {
			logger.Warn("closing services: %v", err)
		}
	}
	services = nil
}

// indexServices returns the services after checking the index is configured.
func indexServices() (*Services, error) {
	s, err := loadServices()
	if err != nil {
		return nil, err
	}
	if s.Query == nil || s.Similarity == nil || s.Schema == nil || s.Ingest == nil {
		if s.IndexErr != nil {
			return nil, fmt.Errorf("search index not configured: %w", s.IndexErr)
		}
		return nil, errors.New("search index not configured")
	}
	return s, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
