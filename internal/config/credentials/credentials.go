// Package credentials resolves the database login pair for a configured
// authentication mode.
package credentials

// Credentials is a resolved username and password pair.
type Credentials struct {
	Username string
	Password string
}

// Store provides access to database credentials by authentication mode.
type Store interface {
	// Resolve returns the credentials for the given auth type. Modes that
	// authenticate at the host level return empty credentials.
	Resolve(authType string) (Credentials, error)
}
