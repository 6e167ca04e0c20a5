// Package config defines the application settings and the loaders that
// populate them from files and the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/warekit/scantrack/internal/config/credentials"
	"github.com/warekit/scantrack/internal/validation"
)

// Authentication modes for the database connection.
const (
	AuthTypeSQL     = validation.AuthTypeSQL
	AuthTypeWindows = validation.AuthTypeWindows
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the database connection settings. AuthType selects
// between credential-based logins and host-authenticated ones; only the
// former requires a username and password.
type DatabaseConfig struct {
	Server   string `yaml:"server" mapstructure:"server"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Database string `yaml:"database" mapstructure:"database"`
	AuthType string `yaml:"auth_type" mapstructure:"auth_type"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// Timeout is the connect timeout in seconds. Zero means the driver default.
	Timeout int `yaml:"timeout" mapstructure:"timeout"`
}

// PoolConfig holds the connection pool sizing.
type PoolConfig struct {
	MinConns    int           `yaml:"min_conns" mapstructure:"min_conns"`
	MaxConns    int           `yaml:"max_conns" mapstructure:"max_conns"`
	MaxIdleTime time.Duration `yaml:"max_idle_time" mapstructure:"max_idle_time"`
}

// TelemetryConfig holds the tracing exporter settings.
type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	Host        string  `yaml:"host" mapstructure:"host"`
	Probability float64 `yaml:"probability" mapstructure:"probability"`
}

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Pool      PoolConfig      `yaml:"pool" mapstructure:"pool"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	LogLevel  string          `yaml:"log_level" mapstructure:"log_level"`
}

// Default returns a configuration with workable local-development values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Database: DatabaseConfig{
			Server:   "localhost",
			Port:     5432,
			Database: "scantrack",
			AuthType: AuthTypeSQL,
		},
		Pool: PoolConfig{
			MinConns:    2,
			MaxConns:    10,
			MaxIdleTime: 5 * time.Minute,
		},
		Telemetry: TelemetryConfig{Probability: 0.05},
		LogLevel:  "info",
	}
}

// Validate checks the database section. Callers must not apply or persist a
// configuration that fails validation.
func (c *Config) Validate() validation.Result {
	v := validation.NewConfigValidator()
	return v.Validate(validation.DatabaseConfig{
		Server:   c.Database.Server,
		Database: c.Database.Database,
		AuthType: c.Database.AuthType,
		Username: c.Database.Username,
		Password: c.Database.Password,
		Port:     c.Database.Port,
		Timeout:  c.Database.Timeout,
	})
}

// DSN builds the Postgres connection string with the resolved login pair.
// Host-authenticated modes resolve to empty credentials, which omits the
// user info and leaves authentication to the server.
func (c *Config) DSN(creds credentials.Credentials) string {
	d := c.Database

	host := d.Server
	if d.Port != 0 {
		host = fmt.Sprintf("%s:%d", d.Server, d.Port)
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   host,
		Path:   "/" + d.Database,
	}
	if creds.Username != "" {
		u.User = url.UserPassword(creds.Username, creds.Password)
	}

	q := url.Values{"sslmode": []string{"disable"}}
	if d.Timeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", d.Timeout))
	}
	u.RawQuery = q.Encode()
	return u.String()
}
