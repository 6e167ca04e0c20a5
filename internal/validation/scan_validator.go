package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

// Barcode length bounds.
const (
	BarcodeMinLen = 3
	BarcodeMaxLen = 50
)

var barcodePattern = regexp.MustCompile(`^[A-Za-z0-9\-_.]+$`)

// ScanValidator checks scan intake data before it reaches the persistence
// path. Both repositories are optional; when nil the existence and
// relationship checks are skipped and only shape checks run.
type ScanValidator struct {
	jobTypes scanning.JobTypeRepository
	subJobs  scanning.SubJobRepository
}

// NewScanValidator creates a scan validator. Pass nil repositories to
// validate shape only.
func NewScanValidator(jobTypes scanning.JobTypeRepository, subJobs scanning.SubJobRepository) *ScanValidator {
	return &ScanValidator{jobTypes: jobTypes, subJobs: subJobs}
}

// Validate runs every check and accumulates failures. The relationship
// check between job and sub-job runs only when both IDs passed their own
// checks, so a bad ID never produces a confusing mismatch message on top.
// The error return is reserved for repository failures.
func (v *ScanValidator) Validate(ctx context.Context, req scanning.ScanRequest) (Result, error) {
	var errs []string

	if r := v.ValidateBarcode(req.Barcode); !r.Ok() {
		errs = append(errs, r.Message)
	}

	jobOK, err := v.validateJobTypeID(ctx, req.JobID, &errs)
	if err != nil {
		return Result{}, err
	}
	subOK, err := v.validateSubJobID(ctx, req.SubJobID, &errs)
	if err != nil {
		return Result{}, err
	}

	if jobOK && subOK {
		r, err := v.ValidateRelationship(ctx, req.JobID, *req.SubJobID)
		if err != nil {
			return Result{}, err
		}
		if !r.Ok() {
			errs = append(errs, r.Message)
		}
	}

	if len(errs) > 0 {
		return Failure(strings.Join(errs, "; "), errs...), nil
	}
	return Success("validation successful"), nil
}

// ValidateBarcode checks the barcode alone: non-empty, length bounds, and
// the allowed character set (letters, digits, '-', '_', '.').
func (v *ScanValidator) ValidateBarcode(barcode string) Result {
	trimmed := strings.TrimSpace(barcode)
	if trimmed == "" {
		return Failure("barcode is required")
	}
	if len(trimmed) < BarcodeMinLen || len(trimmed) > BarcodeMaxLen {
		return Failure(fmt.Sprintf("barcode must be %d-%d characters", BarcodeMinLen, BarcodeMaxLen))
	}
	if !barcodePattern.MatchString(trimmed) {
		return Failure("barcode may only contain letters, digits, '-', '_' and '.'")
	}
	return Success("")
}

func (v *ScanValidator) validateJobTypeID(ctx context.Context, jobID int, errs *[]string) (bool, error) {
	if jobID <= 0 {
		*errs = append(*errs, "job type id must be a positive integer")
		return false, nil
	}
	if v.jobTypes != nil {
		job, err := v.jobTypes.FindByID(ctx, jobID)
		if err != nil {
			return false, fmt.Errorf("looking up job type %d: %w", jobID, err)
		}
		if job == nil {
			*errs = append(*errs, fmt.Sprintf("job type %d not found", jobID))
			return false, nil
		}
	}
	return true, nil
}

func (v *ScanValidator) validateSubJobID(ctx context.Context, subJobID *int, errs *[]string) (bool, error) {
	if subJobID == nil {
		*errs = append(*errs, "sub-job type is required")
		return false, nil
	}
	if *subJobID <= 0 {
		*errs = append(*errs, "sub-job type id must be a positive integer")
		return false, nil
	}
	if v.subJobs != nil {
		sub, err := v.subJobs.FindByID(ctx, *subJobID)
		if err != nil {
			return false, fmt.Errorf("looking up sub-job %d: %w", *subJobID, err)
		}
		if sub == nil {
			*errs = append(*errs, fmt.Sprintf("sub-job type %d not found", *subJobID))
			return false, nil
		}
	}
	return true, nil
}

// ValidateRelationship checks that the sub-job's parent is the given job.
// Skipped when no sub-job repository was supplied.
func (v *ScanValidator) ValidateRelationship(ctx context.Context, jobID, subJobID int) (Result, error) {
	if v.subJobs == nil {
		return Success(""), nil
	}
	sub, err := v.subJobs.FindByID(ctx, subJobID)
	if err != nil {
		return Result{}, fmt.Errorf("looking up sub-job %d: %w", subJobID, err)
	}
	if sub != nil && sub.MainJobID != jobID {
		return Failure("sub-job does not belong to the selected job type"), nil
	}
	return Success(""), nil
}
