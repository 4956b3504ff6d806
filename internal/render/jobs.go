package render

import (
	"fmt"
	"io"
	"time"

	"github.com/spigell/skillmatch/internal/jsearch"
)

const noJobsMessage = "No job listings found. Try different search terms or location."

// JobList is the structured form of a live search response.
type JobList struct {
	Count int            `json:"count" yaml:"count"`
	Jobs  []*jsearch.Job `json:"jobs" yaml:"jobs"`
}

func NewJobList(jobs *jsearch.Jobs) JobList {
	list := JobList{Jobs: []*jsearch.Job{}}
	if jobs != nil && jobs.Len() > 0 {
		list.Jobs = jobs.Items
	}
	list.Count = len(list.Jobs)
	return list
}

// Jobs writes live search results. now is used for "posted" dates.
func Jobs(w io.Writer, format Format, jobs *jsearch.Jobs, now time.Time) error {
	if format != FormatTable {
		return encode(w, format, NewJobList(jobs))
	}

	if jobs.Len() == 0 {
		_, err := warning.Fprintln(w, noJobsMessage)
		return err
	}

	good.Fprintf(w, "Found %d job listings\n", jobs.Len())
	for _, job := range jobs.Items {
		fmt.Fprintln(w)
		heading.Fprint(w, job.Title)
		if job.Match != nil {
			good.Fprintf(w, " (%.2f%% match)", *job.Match)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s • %s • %s\n", job.EmployerName, job.Location(), job.Type())
		muted.Fprintf(w, "  Posted: %s\n", job.Posted(now))
		if salary := job.SalaryText(); salary != "" {
			label.Fprint(w, "  Salary: ")
			fmt.Fprintln(w, salary)
		}
		if job.ApplyLink != "" {
			label.Fprint(w, "  Apply: ")
			fmt.Fprintln(w, job.ApplyLink)
		}
		if _, err := fmt.Fprintf(w, "  %s\n", job.ShortDescription(jsearch.DescriptionPreviewLength)); err != nil {
			return err
		}
	}
	return nil
}
