package jsearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

const (
	JobIDField       = "ID"
	JobEmployerField = "Employer"
)

type Jobs struct {
	Items []*Job
}

type ExcludedJobs struct {
	Items []*ExcludedJob
}

type ExcludedJob struct {
	ID           string
	URL          string
	EmployerName string
	ExcludedAt   time.Time
}

func (j *Jobs) Len() int {
	if j == nil {
		return 0
	}
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func (j *Jobs) truncate(n int) *Jobs {
	if n >= 0 && len(j.Items) > n {
		j.Items = j.Items[:n]
	}
	return j
}

func (j *Job) stringField(name string) string {
	switch name {
	case JobIDField:
		return j.ID
	case JobEmployerField:
		return j.EmployerName
	default:
		return ""
	}
}

// Exclude removes jobs whose field matches any target and returns their ids.
// The order of the remaining jobs is preserved.
func (j *Jobs) Exclude(field string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	set := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		set[t] = struct{}{}
	}

	var excluded []string
	kept := j.Items[:0]
	for _, job := range j.Items {
		if _, ok := set[job.stringField(field)]; ok {
			excluded = append(excluded, job.ID)
			continue
		}
		kept = append(kept, job)
	}
	j.Items = kept

	return excluded
}

// ReportByEmployer groups a printable summary of the jobs by employer.
func (j *Jobs) ReportByEmployer() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, job := range j.Items {
		entry := map[string]string{
			"title":    job.Title,
			"url":      job.ApplyLink,
			"location": job.Location(),
			"type":     job.Type(),
		}
		if salary := job.SalaryText(); salary != "" {
			entry["salary"] = salary
		}
		if job.Match != nil {
			entry["match"] = fmt.Sprintf("%.2f%%", *job.Match)
		}
		report[job.EmployerName] = append(report[job.EmployerName], entry)
	}
	return report
}

func (j *Jobs) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "jobs_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func (j *Jobs) ToExcluded() *ExcludedJobs {
	excluded := &ExcludedJobs{}
	now := time.Now().UTC()
	for _, job := range j.Items {
		excluded.Items = append(excluded.Items, &ExcludedJob{
			ID:           job.ID,
			URL:          job.ApplyLink,
			EmployerName: job.EmployerName,
			ExcludedAt:   now,
		})
	}
	return excluded
}

// LoadExcludedJobs reads the exclude file. A missing or empty file yields an
// empty list.
func LoadExcludedJobs(path string) (*ExcludedJobs, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &ExcludedJobs{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedJobs{}, nil
	}

	var excluded ExcludedJobs
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, fmt.Errorf("decoding exclude file %q: %w", path, err)
	}
	return &excluded, nil
}

func (e *ExcludedJobs) Append(other *ExcludedJobs) {
	if other == nil {
		return
	}
	e.Items = append(e.Items, other.Items...)
}

func (e *ExcludedJobs) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, job := range e.Items {
		ids = append(ids, job.ID)
	}
	return ids
}

func (e *ExcludedJobs) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
