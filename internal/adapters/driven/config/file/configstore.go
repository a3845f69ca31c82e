package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/campaign-rag/internal/core/domain"
	"github.com/custodia-labs/campaign-rag/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
// Configuration is stored in config.toml within the campaign-rag config directory.
type ConfigStore struct {
	mu       sync.RWMutex
	filePath string
	settings domain.Settings
}

// NewConfigStore creates a new TOML-based config store.
// If configDir is empty, defaults to ~/.campaign-rag/config.toml.
func NewConfigStore(configDir string) (*ConfigStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".campaign-rag")
	}

	// Ensure directory exists
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	s := &ConfigStore{
		filePath: filepath.Join(configDir, "config.toml"),
		settings: domain.DefaultSettings(),
	}

	if err := s.Load(); err != nil {
		return nil, err
	}

	return s, nil
}

// Settings returns a copy of the current configuration.
func (s *ConfigStore) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the configuration and writes it to disk.
func (s *ConfigStore) Update(settings domain.Settings) error {
	settings.ApplyDefaults()

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	return s.Save()
}

// Values returns the configuration flattened to dotted keys.
func (s *ConfigStore) Values() map[string]any {
	nested, err := s.tree()
	if err != nil {
		return map[string]any{}
	}
	return flattenMap(nested, "")
}

// Set parses value according to the current type of key and persists the
// result. Values that fall outside the accepted range are reset to defaults.
func (s *ConfigStore) Set(key, value string) error {
	nested, err := s.tree()
	if err != nil {
		return err
	}

	section, field, ok := strings.Cut(key, ".")
	table, isTable := nested[section].(map[string]any)
	if !ok || !isTable {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}
	current, ok := table[field]
	if !ok {
		return fmt.Errorf("%w: unknown config key %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseAs(current, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	table[field] = parsed

	data, err := toml.Marshal(nested)
	if err != nil {
		return err
	}
	settings := domain.DefaultSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}

	return s.Update(settings)
}

// Save writes the configuration to the TOML file.
func (s *ConfigStore) Save() error {
	s.mu.RLock()
	data, err := toml.Marshal(s.settings)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads the configuration from the TOML file. Keys missing from the
// file keep their defaults; a missing file leaves the defaults in place.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.mu.Lock()
		s.settings = domain.DefaultSettings()
		s.mu.Unlock()
		return nil
	}
	if err != nil {
		return err
	}

	settings := domain.DefaultSettings()
	if err := toml.Unmarshal(data, &settings); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	settings.ApplyDefaults()

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// Exists reports whether the config file has been written.
func (s *ConfigStore) Exists() bool {
	_, err := os.Stat(s.filePath)
	return err == nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}

// tree returns the settings as a generic TOML document.
func (s *ConfigStore) tree() (map[string]any, error) {
	s.mu.RLock()
	data, err := toml.Marshal(s.settings)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return nil, err
	}
	return nested, nil
}

// parseAs converts raw into the TOML type of current.
func parseAs(current any, raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	// TOML integers are decoded as int64 and floats as float64
	switch current.(type) {
	case int64:
		return strconv.ParseInt(raw, 10, 64)
	case float64:
		return strconv.ParseFloat(raw, 64)
	case bool:
		return strconv.ParseBool(raw)
	case string:
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", current)
	}
}

// flattenMap converts nested maps to dot-notation keys.
// e.g., {"retrieval": {"k": 5}} becomes {"retrieval.k": 5}
func flattenMap(m map[string]any, prefix string) map[string]any {
	result := make(map[string]any)

	for key, value := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			// Recursively flatten nested maps
			for k, v := range flattenMap(nested, fullKey) {
				result[k] = v
			}
		} else {
			result[fullKey] = value
		}
	}

	return result
}
