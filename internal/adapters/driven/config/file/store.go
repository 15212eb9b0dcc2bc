// Package file provides a TOML file-backed ConfigStore.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/msgraph-cli/internal/core/domain"
	"github.com/custodia-labs/msgraph-cli/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// Environment variables that override secrets from the file.
const (
	EnvAccessToken  = "MSGRAPH_ACCESS_TOKEN"
	EnvClientSecret = "MSGRAPH_CLIENT_SECRET"
	EnvRefreshToken = "MSGRAPH_REFRESH_TOKEN"
)

// ConfigStore reads and writes settings as TOML.
type ConfigStore struct {
	path string
}

// NewConfigStore creates a store at path. An empty path selects
// ~/.msgraph/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(dir, "config.toml")
	}
	return &ConfigStore{path: path}, nil
}

// DefaultDir returns ~/.msgraph.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".msgraph"), nil
}

// Path returns the config file location.
func (s *ConfigStore) Path() string {
	return s.path
}

// Load decodes the file over the defaults and applies environment
// overrides. A relative metadata cache path is taken relative to the
// config file's directory.
func (s *ConfigStore) Load() (*domain.Settings, error) {
	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&settings); err != nil {
			var strict *toml.StrictMissingError
			if errors.As(err, &strict) {
				return nil, fmt.Errorf("config %s: %s: %w", s.path, strict.String(), domain.ErrInvalidInput)
			}
			return nil, fmt.Errorf("parse config %s: %w", s.path, err)
		}
	}

	if settings.MetadataCache != "" && !filepath.IsAbs(settings.MetadataCache) {
		settings.MetadataCache = filepath.Join(filepath.Dir(s.path), settings.MetadataCache)
	}
	applyEnv(&settings.Auth)
	return &settings, nil
}

// Save writes settings, creating the directory if needed. Secrets that
// came from the environment are written too, so callers should clear them
// first if that is unwanted.
func (s *ConfigStore) Save(settings *domain.Settings) error {
	if settings == nil {
		return fmt.Errorf("nil settings: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	out := *settings
	if rel, err := filepath.Rel(filepath.Dir(s.path), out.MetadataCache); err == nil && filepath.IsAbs(out.MetadataCache) && filepath.IsLocal(rel) {
		out.MetadataCache = rel
	}

	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	// The file may hold client secrets and tokens.
	if err := os.WriteFile(s.path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func applyEnv(auth *domain.AuthSettings) {
	if v := os.Getenv(EnvAccessToken); v != "" {
		auth.AccessToken = v
	}
	if v := os.Getenv(EnvClientSecret); v != "" {
		auth.ClientSecret = v
	}
	if v := os.Getenv(EnvRefreshToken); v != "" {
		auth.RefreshToken = v
	}
}
