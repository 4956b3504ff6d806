package filtering

import (
	"context"
	"strings"

	"github.com/spigell/skillmatch/internal/jsearch"
)

type employersFilter struct {
	toggle
	employers []string
}

// NewExcludedEmployers creates a filter that removes jobs posted by the given employers.
func NewExcludedEmployers(employers []string) Filter {
	cleaned := make([]string, 0, len(employers))
	for _, e := range employers {
		if e = strings.TrimSpace(e); e != "" {
			cleaned = append(cleaned, e)
		}
	}
	return &employersFilter{employers: cleaned}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Validate() error { return nil }

func (f *employersFilter) Apply(_ context.Context, jobs *jsearch.Jobs) (*jsearch.Jobs, Step, error) {
	initial := jobs.Len()
	if len(f.employers) == 0 {
		return jobs, Step{Initial: initial, Dropped: 0, Left: jobs.Len()}, nil
	}

	excluded := jobs.Exclude(jsearch.JobEmployerField, f.employers)

	return jobs, Step{Initial: initial, Dropped: len(excluded), Left: jobs.Len()}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
