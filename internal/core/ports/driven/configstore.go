package driven

import "github.com/custodia-labs/campaign-rag/internal/core/domain"

// ConfigStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and type conversion.
type ConfigStore interface {
	// Settings returns the current configuration with defaults applied.
	Settings() domain.Settings

	// Update replaces the configuration and persists it immediately.
	Update(settings domain.Settings) error

	// Values returns the configuration flattened to dotted keys
	// (e.g. "retrieval.k").
	Values() map[string]any

	// Set assigns a single dotted key from its string form and persists.
	// Returns domain.ErrInvalidInput for unknown keys or unparsable values.
	Set(key, value string) error

	// Save persists the current configuration to storage.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Exists reports whether the configuration file is present.
	Exists() bool

	// Path returns the configuration file path.
	Path() string
}
