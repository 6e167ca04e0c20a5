package scanning

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/warekit/scantrack/internal/domain/scanning"
	"github.com/warekit/scantrack/internal/validation"
	"github.com/warekit/scantrack/pkg/common/logger"
	"github.com/warekit/scantrack/pkg/common/otel"
)

// ImportResult summarizes one bulk import. Rows fail independently; Errors
// carries a 1-based row-numbered message per failed row.
type ImportResult struct {
	Imported int
	Failed   int
	Errors   []string
}

// Success reports whether every row was imported.
func (r *ImportResult) Success() bool { return r.Failed == 0 }

// ImportService loads batches of scan rows, typically parsed from CSV or a
// spreadsheet export. The whole batch is shape-checked first; rows that pass
// are then inserted one by one so a bad row never blocks its neighbors.
type ImportService struct {
	log    *logger.Logger
	tracer trace.Tracer

	validator *validation.ImportValidator
	scans     scanning.ScanLogRepository
}

// NewImportService creates the bulk import service.
func NewImportService(
	log *logger.Logger,
	tracer trace.Tracer,
	validator *validation.ImportValidator,
	scans scanning.ScanLogRepository,
) *ImportService {
	return &ImportService{log: log, tracer: tracer, validator: validator, scans: scans}
}

// ImportScans validates and inserts a batch of rows. A non-nil error means
// the batch could not be processed at all; per-row failures are reported in
// the result instead.
func (s *ImportService) ImportScans(ctx context.Context, rows []map[string]string, userID string) (*ImportResult, error) {
	ctx, span := otel.AddSpan(ctx, s.tracer, "import_service.import_scans",
		attribute.Int("row_count", len(rows)))
	defer span.End()

	if userID == "" {
		userID = systemUserID
	}

	if len(rows) == 0 {
		return &ImportResult{Errors: []string{"no rows to import"}}, nil
	}
	if r := s.validator.ValidateRequiredColumns(rows[0]); !r.Ok() {
		return &ImportResult{Failed: len(rows), Errors: r.Errors}, nil
	}

	result := &ImportResult{}
	for i, row := range rows {
		vr, err := s.validator.ValidateRow(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("validating row %d: %w", i+1, err)
		}
		if !vr.Ok() {
			result.Failed++
			for _, e := range vr.Errors {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %s", i+1, e))
			}
			continue
		}

		record, err := s.buildRecord(row, userID)
		if err == nil {
			err = s.scans.Insert(ctx, record)
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		result.Imported++
	}

	s.log.Info(ctx, "import finished",
		"imported", result.Imported, "failed", result.Failed, "changed_by", userID)
	return result, nil
}

func (s *ImportService) buildRecord(row map[string]string, userID string) (*scanning.ScanLog, error) {
	jobID, err := validation.CoerceID(row[validation.ColMainJobID])
	if err != nil {
		return nil, fmt.Errorf("main job id: %w", err)
	}

	record := &scanning.ScanLog{
		Barcode: strings.TrimSpace(row[validation.ColBarcode]),
		JobID:   jobID,
		UserID:  userID,
		Notes:   strings.TrimSpace(row[validation.ColNotes]),
	}

	if raw := strings.TrimSpace(row[validation.ColSubJobID]); raw != "" {
		subID, err := validation.CoerceID(raw)
		if err != nil {
			return nil, fmt.Errorf("sub job id: %w", err)
		}
		record.SubJobID = &subID
	}
	return record, nil
}
