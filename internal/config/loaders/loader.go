// Package loaders provides configuration loaders layered on viper, combining
// file contents with environment variable overrides.
package loaders

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/warekit/scantrack/internal/config"
)

// envPrefix namespaces the environment overrides, e.g. SCANTRACK_DATABASE_SERVER.
const envPrefix = "SCANTRACK"

// ViperLoader loads configuration from an optional file with environment
// variable overrides layered on top. It implements the Loader interface.
type ViperLoader struct {
	// path is the configuration file to read. Empty means environment only.
	path string
}

// NewViperLoader creates a loader reading the given file path. An empty path
// skips the file and loads from defaults plus environment overrides.
func NewViperLoader(path string) *ViperLoader {
	return &ViperLoader{path: path}
}

// Load builds the configuration: defaults first, then the file, then any
// SCANTRACK_* environment variables.
func (l *ViperLoader) Load(ctx context.Context) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := config.Default()
	v.SetDefault("server", map[string]any{})
	v.SetDefault("database", map[string]any{})
	v.SetDefault("pool", map[string]any{})
	v.SetDefault("telemetry", map[string]any{})
	v.SetDefault("log_level", defaults.LogLevel)

	if l.path != "" {
		v.SetConfigFile(l.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := config.Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}
