package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/skillmatch/internal/jsearch"
)

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile creates a filter that removes jobs listed in the exclude file.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Validate() error { return nil }

func (f *excludeFileFilter) Apply(_ context.Context, jobs *jsearch.Jobs) (*jsearch.Jobs, Step, error) {
	initial := jobs.Len()
	if f.path == "" {
		return jobs, Step{Initial: initial, Dropped: 0, Left: jobs.Len()}, nil
	}

	excluded, err := jsearch.LoadExcludedJobs(f.path)
	if err != nil {
		return jobs, Step{}, fmt.Errorf("getting excluded jobs from file: %w", err)
	}

	removed := jobs.Exclude(jsearch.JobIDField, excluded.IDs())

	return jobs, Step{Initial: initial, Dropped: len(removed), Left: jobs.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
