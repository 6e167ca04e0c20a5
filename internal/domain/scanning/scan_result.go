package scanning

import "fmt"

// ScanRequest carries one scan attempt from the UI or API into the service.
type ScanRequest struct {
	Barcode  string
	JobID    int
	SubJobID *int
	UserID   string
	Notes    string
}

// ScanOutcome distinguishes the terminal states of a scan attempt. Policy
// rejections are ordinary outcomes; infrastructure failures are returned as
// errors instead and never appear here.
type ScanOutcome string

const (
	// ScanAccepted means the scan passed every gate and was persisted.
	ScanAccepted ScanOutcome = "ACCEPTED"

	// ScanRejectedValidation means the request was malformed (bad barcode,
	// bad ids, sub-job/job mismatch).
	ScanRejectedValidation ScanOutcome = "REJECTED_VALIDATION"

	// ScanRejectedDependency means a prerequisite job has not been scanned
	// for this barcode yet.
	ScanRejectedDependency ScanOutcome = "REJECTED_DEPENDENCY"

	// ScanRejectedDuplicate means an identical (barcode, job, sub-job) scan
	// already exists.
	ScanRejectedDuplicate ScanOutcome = "REJECTED_DUPLICATE"
)

func (o ScanOutcome) String() string { return string(o) }

// ScanResult is the structured outcome of a scan attempt.
type ScanResult struct {
	Outcome ScanOutcome
	Message string

	// Record is the persisted scan when Outcome is ScanAccepted.
	Record *ScanLog

	// MissingJob names the unsatisfied prerequisite when Outcome is
	// ScanRejectedDependency.
	MissingJob string

	// Duplicate is the pre-existing record when Outcome is
	// ScanRejectedDuplicate.
	Duplicate *ScanLog

	// Errors holds the individual validation failures when Outcome is
	// ScanRejectedValidation.
	Errors []string
}

// Accepted reports whether the scan was persisted.
func (r *ScanResult) Accepted() bool { return r.Outcome == ScanAccepted }

// AcceptedScan builds the result for a persisted scan.
func AcceptedScan(record *ScanLog) *ScanResult {
	return &ScanResult{
		Outcome: ScanAccepted,
		Message: fmt.Sprintf("barcode %s recorded", record.Barcode),
		Record:  record,
	}
}

// DependencyRejection builds the result for an unsatisfied prerequisite,
// naming the missing job so the operator knows what to scan first.
func DependencyRejection(missingJob string) *ScanResult {
	return &ScanResult{
		Outcome:    ScanRejectedDependency,
		Message:    fmt.Sprintf("job %q must be scanned first", missingJob),
		MissingJob: missingJob,
	}
}

// DuplicateRejection builds the result for an already-scanned triple.
func DuplicateRejection(existing *ScanLog) *ScanResult {
	return &ScanResult{
		Outcome:   ScanRejectedDuplicate,
		Message:   fmt.Sprintf("barcode %s already scanned for %q", existing.Barcode, existing.JobName),
		Duplicate: existing,
	}
}

// ValidationRejection builds the result for malformed scan input.
func ValidationRejection(message string, errs []string) *ScanResult {
	return &ScanResult{
		Outcome: ScanRejectedValidation,
		Message: message,
		Errors:  errs,
	}
}
