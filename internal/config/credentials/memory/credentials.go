// Package memory provides an in-memory credentials store built from the
// application configuration.
package memory

import (
	"fmt"

	"github.com/warekit/scantrack/internal/config"
	"github.com/warekit/scantrack/internal/config/credentials"
)

// CredentialStore resolves database credentials from the loaded
// configuration. Host-authenticated modes resolve to empty credentials since
// the server identifies the connecting process itself.
type CredentialStore struct {
	username string
	password string
}

// NewCredentialStore initializes a store from the database configuration.
func NewCredentialStore(cfg config.DatabaseConfig) *CredentialStore {
	return &CredentialStore{username: cfg.Username, password: cfg.Password}
}

// Resolve returns the credentials for the given auth type.
func (s *CredentialStore) Resolve(authType string) (credentials.Credentials, error) {
	switch authType {
	case config.AuthTypeSQL:
		return credentials.Credentials{Username: s.username, Password: s.password}, nil
	case config.AuthTypeWindows:
		return credentials.Credentials{}, nil
	default:
		return credentials.Credentials{}, fmt.Errorf("unsupported auth type: %s", authType)
	}
}
