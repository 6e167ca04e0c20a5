package validation

import (
	"fmt"
	"strings"
)

// Database authentication modes.
const (
	AuthTypeSQL     = "SQL"
	AuthTypeWindows = "Windows"
)

// DatabaseConfig is the connection configuration subject to validation.
// Zero values for Port and Timeout mean the field was not supplied.
type DatabaseConfig struct {
	Server   string
	Database string
	AuthType string
	Username string
	Password string
	Port     int
	Timeout  int
}

// ConfigValidator gates configuration saves. A settings write is applied
// only when validation passes; the previous configuration stays in effect
// otherwise.
type ConfigValidator struct{}

// NewConfigValidator creates a configuration validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// Validate checks the whole connection configuration and accumulates every
// failing check.
func (v *ConfigValidator) Validate(cfg DatabaseConfig) Result {
	var errs []string

	if !IsNotEmpty(cfg.Server) {
		errs = append(errs, "server name cannot be empty")
	}
	if !IsNotEmpty(cfg.Database) {
		errs = append(errs, "database name cannot be empty")
	}

	if r := v.ValidateAuthType(cfg.AuthType); !r.Ok() {
		errs = append(errs, r.Message)
	}
	if cfg.AuthType == AuthTypeSQL {
		if r := v.ValidateSQLCredentials(cfg.Username, cfg.Password); !r.Ok() {
			errs = append(errs, r.Errors...)
		}
	}

	if r := v.ValidatePort(cfg.Port); !r.Ok() {
		errs = append(errs, r.Message)
	}
	if r := v.ValidateTimeout(cfg.Timeout); !r.Ok() {
		errs = append(errs, r.Message)
	}

	if len(errs) > 0 {
		return Failure("configuration validation failed", errs...)
	}
	return Success("configuration is valid")
}

// ValidateAuthType checks that the mode is one of the supported values.
func (v *ConfigValidator) ValidateAuthType(authType string) Result {
	if !IsNotEmpty(authType) {
		return Failure("authentication type cannot be empty")
	}
	if authType != AuthTypeSQL && authType != AuthTypeWindows {
		return Failure(fmt.Sprintf("authentication type must be one of: %s. got: %s",
			strings.Join([]string{AuthTypeSQL, AuthTypeWindows}, ", "), authType))
	}
	return Success("")
}

// ValidateSQLCredentials checks that both username and password are present.
// Each missing credential is reported separately.
func (v *ConfigValidator) ValidateSQLCredentials(username, password string) Result {
	var errs []string
	if !IsNotEmpty(username) {
		errs = append(errs, "username is required for SQL authentication")
	}
	if !IsNotEmpty(password) {
		errs = append(errs, "password is required for SQL authentication")
	}
	if len(errs) > 0 {
		return Failure("SQL credential validation failed", errs...)
	}
	return Success("")
}

// ValidatePort checks the optional port. Zero means unset and passes.
func (v *ConfigValidator) ValidatePort(port int) Result {
	if port == 0 {
		return Success("")
	}
	if !IsWithinRange(float64(port), 1, 65535) {
		return Failure("port must be between 1 and 65535")
	}
	return Success("")
}

// ValidateTimeout checks the optional timeout in seconds. Zero means unset
// and passes.
func (v *ConfigValidator) ValidateTimeout(timeout int) Result {
	if timeout == 0 {
		return Success("")
	}
	if !IsWithinRange(float64(timeout), 1, 300) {
		return Failure("timeout must be between 1 and 300 seconds")
	}
	return Success("")
}
