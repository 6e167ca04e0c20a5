package scanning

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// defaultAuditLimit caps audit history queries without an explicit limit.
const defaultAuditLimit = 100

// AuditService is the read side of the audit trail. Entries are written by
// ScanService alongside the mutations they record; nothing edits or deletes
// them afterwards.
type AuditService struct {
	log    *logger.Logger
	tracer trace.Tracer

	audit scanning.AuditLogRepository
}

// NewAuditService creates the audit query service.
func NewAuditService(log *logger.Logger, tracer trace.Tracer, audit scanning.AuditLogRepository) *AuditService {
	return &AuditService{log: log, tracer: tracer, audit: audit}
}

// History returns audit entries matching the filter, newest first.
func (s *AuditService) History(ctx context.Context, filter scanning.AuditFilter) ([]scanning.AuditLogEntry, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "audit_service.history")
	defer span.End()

	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	entries, err := s.audit.History(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("querying audit history: %w", err)
	}
	return entries, nil
}

// Summary aggregates one day's audit activity.
func (s *AuditService) Summary(ctx context.Context, date time.Time) (*scanning.AuditSummary, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "audit_service.summary",
		attribute.String("date", date.Format("2006-01-02")))
	defer span.End()

	summary, err := s.audit.Summary(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("querying audit summary: %w", err)
	}
	return summary, nil
}
