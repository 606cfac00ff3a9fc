package driving

import "github.com/docspace-ai/docspace/internal/core/domain"

// SettingsService reads and updates application settings.
type SettingsService interface {
	// Get loads and validates the current settings.
	Get() (*domain.Settings, error)

	// Set parses value for a known key and persists it.
	Set(key, value string) error

	// Keys lists the recognised setting keys in display order.
	Keys() []string

	// IsSecret reports whether a key holds a credential.
	IsSecret(key string) bool
}
