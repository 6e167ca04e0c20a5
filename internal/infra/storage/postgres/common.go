// Package postgres implements the domain repositories over the database
// gateway with hand-written SQL. Every operation runs inside a traced span.
package postgres

import (
	"go.opentelemetry.io/otel/attribute"
)

// defaultDBAttributes defines standard OpenTelemetry attributes for database
// operations.
var defaultDBAttributes = []attribute.KeyValue{
	attribute.String("db.system", "postgresql"),
}
