// Package validation implements the rule checks that gate scan intake,
// bulk imports, and configuration changes. Validators read from repositories
// but never write; every check produces a uniform Result so callers can
// treat all validators alike.
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the wire format for user-supplied dates.
const DateLayout = "2006-01-02"

// Result is the outcome of one validation pass. Message summarizes the
// failure; Errors lists every failing check in the order it was evaluated.
type Result struct {
	Valid   bool
	Message string
	Errors  []string
}

// Ok reports whether validation passed.
func (r Result) Ok() bool { return r.Valid }

// Success builds a passing result.
func Success(message string) Result {
	return Result{Valid: true, Message: message}
}

// Failure builds a failing result.
func Failure(message string, errs ...string) Result {
	return Result{Valid: false, Message: message, Errors: errs}
}

// IsNotEmpty reports whether the value contains anything besides whitespace.
func IsNotEmpty(value string) bool {
	return strings.TrimSpace(value) != ""
}

// IsPositiveInteger reports whether the string parses as an integer > 0.
func IsPositiveInteger(value string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	return err == nil && n > 0
}

// IsValidDate reports whether the string parses with the given layout.
func IsValidDate(value, layout string) bool {
	if value == "" {
		return false
	}
	_, err := time.Parse(layout, value)
	return err == nil
}

// IsWithinRange reports whether value lies in [min, max] inclusive.
func IsWithinRange(value, min, max float64) bool {
	return value >= min && value <= max
}

// IsValidEmail performs a minimal shape check: exactly one "@" with
// non-blank text on both sides.
func IsValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return IsNotEmpty(parts[0]) && IsNotEmpty(parts[1])
}

// CoerceID parses an identifier that may arrive as "7", "7.0", or padded
// with whitespace, as spreadsheet exports produce. "nan" and empty values
// are rejected.
func CoerceID(value string) (int, error) {
	s := strings.TrimSpace(value)
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, fmt.Errorf("value is empty or missing")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not numeric", s)
	}
	return int(f), nil
}
