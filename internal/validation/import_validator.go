package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

// Import column names as they appear in spreadsheet headers.
const (
	ColBarcode   = "barcode"
	ColMainJobID = "main_job_id"
	ColSubJobID  = "sub_job_id"
	ColNotes     = "notes"
)

// RequiredImportColumns must be present in every import row.
var RequiredImportColumns = []string{ColBarcode, ColMainJobID, ColSubJobID}

// ImportValidator checks bulk import rows before any of them are inserted.
// Rows come straight from spreadsheet parsing, so every field is a string
// and numeric IDs may arrive as "10", "10.0", or "nan".
type ImportValidator struct {
	jobTypes scanning.JobTypeRepository
	subJobs  scanning.SubJobRepository
}

// NewImportValidator creates an import validator. Pass nil repositories to
// validate shape only.
func NewImportValidator(jobTypes scanning.JobTypeRepository, subJobs scanning.SubJobRepository) *ImportValidator {
	return &ImportValidator{jobTypes: jobTypes, subJobs: subJobs}
}

// Validate checks the whole batch. Errors are aggregated across rows and
// prefixed with the 1-based row number; the batch fails if any row fails.
// The error return is reserved for repository failures.
func (v *ImportValidator) Validate(ctx context.Context, rows []map[string]string) (Result, error) {
	if len(rows) == 0 {
		return Failure("no rows to import"), nil
	}

	if r := v.ValidateRequiredColumns(rows[0]); !r.Ok() {
		return r, nil
	}

	var errs []string
	for i, row := range rows {
		rowResult, err := v.ValidateRow(ctx, row)
		if err != nil {
			return Result{}, fmt.Errorf("validating row %d: %w", i+1, err)
		}
		for _, e := range rowResult.Errors {
			errs = append(errs, fmt.Sprintf("row %d: %s", i+1, e))
		}
	}

	if len(errs) > 0 {
		return Failure(fmt.Sprintf("import validation failed with %d errors", len(errs)), errs...), nil
	}
	return Success(fmt.Sprintf("validated %d rows", len(rows))), nil
}

// ValidateRequiredColumns checks that a row carries every required column.
func (v *ImportValidator) ValidateRequiredColumns(row map[string]string) Result {
	var missing []string
	for _, col := range RequiredImportColumns {
		if _, ok := row[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		errs := make([]string, len(missing))
		for i, col := range missing {
			errs[i] = "missing: " + col
		}
		return Failure("missing required columns: "+strings.Join(missing, ", "), errs...)
	}
	return Success("")
}

// ValidateRow checks one row: field shape first, then existence and
// relationship against the repositories when they were supplied. Database
// checks run only when the shape checks all passed, so a malformed ID never
// triggers a lookup.
func (v *ImportValidator) ValidateRow(ctx context.Context, row map[string]string) (Result, error) {
	var errs []string

	if r := v.validateBarcodeField(row[ColBarcode]); !r.Ok() {
		errs = append(errs, r.Message)
	}
	mainJobID, r := v.validateIDField(row[ColMainJobID], ColMainJobID)
	if !r.Ok() {
		errs = append(errs, r.Message)
	}
	subJobID, r := v.validateIDField(row[ColSubJobID], ColSubJobID)
	if !r.Ok() {
		errs = append(errs, r.Message)
	}

	if len(errs) == 0 && v.jobTypes != nil && v.subJobs != nil {
		dbErrs, err := v.validateAgainstDatabase(ctx, mainJobID, subJobID)
		if err != nil {
			return Result{}, err
		}
		errs = append(errs, dbErrs...)
	}

	if len(errs) > 0 {
		return Failure("row validation failed", errs...), nil
	}
	return Success(""), nil
}

func (v *ImportValidator) validateBarcodeField(value string) Result {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "nan") {
		return Failure("barcode is empty or missing")
	}
	if len(trimmed) < BarcodeMinLen || len(trimmed) > BarcodeMaxLen {
		return Failure(fmt.Sprintf("barcode must be %d-%d characters", BarcodeMinLen, BarcodeMaxLen))
	}
	if !barcodePattern.MatchString(trimmed) {
		return Failure("barcode may only contain letters, digits, '-', '_' and '.'")
	}
	return Success("")
}

func (v *ImportValidator) validateIDField(value, field string) (int, Result) {
	id, err := CoerceID(value)
	if err != nil {
		return 0, Failure(fmt.Sprintf("%s %s", field, err.Error()))
	}
	if id <= 0 {
		return 0, Failure(fmt.Sprintf("%s must be a positive integer, got %d", field, id))
	}
	return id, Success("")
}

func (v *ImportValidator) validateAgainstDatabase(ctx context.Context, mainJobID, subJobID int) ([]string, error) {
	var errs []string

	job, err := v.jobTypes.FindByID(ctx, mainJobID)
	if err != nil {
		return nil, fmt.Errorf("looking up job type %d: %w", mainJobID, err)
	}
	if job == nil {
		errs = append(errs, fmt.Sprintf("job type %d not found", mainJobID))
	}

	sub, err := v.subJobs.FindByID(ctx, subJobID)
	if err != nil {
		return nil, fmt.Errorf("looking up sub-job %d: %w", subJobID, err)
	}
	switch {
	case sub == nil:
		errs = append(errs, fmt.Sprintf("sub-job type %d not found", subJobID))
	case !sub.IsActive:
		errs = append(errs, fmt.Sprintf("sub-job type %d is inactive", subJobID))
	}

	if job != nil && sub != nil && sub.MainJobID != mainJobID {
		errs = append(errs, fmt.Sprintf("sub-job %d does not belong to job type %d", subJobID, mainJobID))
	}
	return errs, nil
}
