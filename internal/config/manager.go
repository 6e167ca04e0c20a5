package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Manager holds the active configuration and gates updates behind validation.
// An update that fails validation is rejected outright; the previously
// applied configuration stays in effect so a bad edit can never take down
// the database connection settings.
type Manager struct {
	mu   sync.RWMutex
	path string
	cfg  *Config
}

// NewManager creates a manager with cfg as the initial known-good
// configuration. Saves are written to path.
func NewManager(path string, cfg *Config) (*Manager, error) {
	if r := cfg.Validate(); !r.Ok() {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(r.Errors, "; "))
	}
	return &Manager{path: path, cfg: cfg}, nil
}

// Current returns the active configuration.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Apply validates and activates a new configuration without persisting it.
func (m *Manager) Apply(cfg *Config) error {
	if r := cfg.Validate(); !r.Ok() {
		return fmt.Errorf("invalid configuration: %s", strings.Join(r.Errors, "; "))
	}
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
	return nil
}

// Save validates, activates, and persists a new configuration. The file is
// written to a temporary path and renamed so a crash mid-write leaves the
// previous file intact.
func (m *Manager) Save(cfg *Config) error {
	if err := m.Apply(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(m.path), "."+filepath.Base(m.path)+".tmp")
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing configuration: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing configuration file: %w", err)
	}
	return nil
}
