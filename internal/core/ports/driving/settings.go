package driving

import "github.com/custodia-labs/chai-cli/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves settings from defaults, the config file and the environment.
	Get() (*domain.AppSettings, error)

	// Set stores a single config file value by dotted key.
	Set(key, value string) error

	// Keys returns every supported config key.
	Keys() []string

	// Path returns the config file path.
	Path() string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
	ValidateEmbeddingConfig() error
}
