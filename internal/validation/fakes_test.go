package validation

import (
	"context"

	"github.com/warekit/scantrack/internal/domain/scanning"
)

// fakeJobTypeRepo serves FindByID from a map; the embedded interface makes
// unused methods panic if a test reaches them.
type fakeJobTypeRepo struct {
	scanning.JobTypeRepository
	jobs map[int]*scanning.JobType
	err  error
}

func (f *fakeJobTypeRepo) FindByID(_ context.Context, id int) (*scanning.JobType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.jobs[id], nil
}

type fakeSubJobRepo struct {
	scanning.SubJobRepository
	subs map[int]*scanning.SubJobType
	err  error
}

func (f *fakeSubJobRepo) FindByID(_ context.Context, id int) (*scanning.SubJobType, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.subs[id], nil
}

func intPtr(v int) *int { return &v }
