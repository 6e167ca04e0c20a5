package scanning

import "errors"

// Domain errors returned by the application services. Repositories report
// "not found" as a nil result; services translate that into these sentinels
// when the absence is an error for the operation at hand.
var (
	// ErrJobTypeNotFound indicates no job type exists with the given id or name.
	ErrJobTypeNotFound = errors.New("job type not found")

	// ErrSubJobNotFound indicates no sub-job type exists with the given id.
	ErrSubJobNotFound = errors.New("sub-job type not found")

	// ErrScanNotFound indicates no scan record exists with the given id.
	ErrScanNotFound = errors.New("scan record not found")

	// ErrDependencyNotFound indicates the dependency edge does not exist.
	ErrDependencyNotFound = errors.New("job dependency not found")

	// ErrDuplicateJobName indicates a job type with that name already exists.
	ErrDuplicateJobName = errors.New("job type name already exists")

	// ErrDuplicateSubJobName indicates the main job already has an active
	// sub-job with that name.
	ErrDuplicateSubJobName = errors.New("sub-job name already exists for this job")

	// ErrDuplicateDependency indicates the dependency edge already exists.
	ErrDuplicateDependency = errors.New("job dependency already exists")

	// ErrSelfDependency indicates a job was asked to depend on itself.
	ErrSelfDependency = errors.New("job cannot depend on itself")

	// ErrCircularDependency indicates the new edge would close a cycle,
	// which would make both jobs unsatisfiable.
	ErrCircularDependency = errors.New("dependency would create a circular reference")

	// ErrScanHasDependents indicates a scan record cannot be deleted because
	// another scan for the same barcode depends on its job.
	ErrScanHasDependents = errors.New("scan record has dependent scans")
)
