package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/matching"
)

const SkillSimilarityName = "skill_similarity"

type skillSimilarityFilter struct {
	toggle
	skills        string
	minSimilarity float64
}

// NewSkillSimilarity ranks jobs by the similarity of their title and
// description to skills and drops the ones below minSimilarity percent.
func NewSkillSimilarity(skills string, minSimilarity float64) Filter {
	return &skillSimilarityFilter{skills: skills, minSimilarity: minSimilarity}
}

func (f *skillSimilarityFilter) Name() string { return SkillSimilarityName }

func (f *skillSimilarityFilter) Validate() error {
	if strings.TrimSpace(f.skills) == "" {
		return matching.ErrInvalidQuery
	}
	if f.minSimilarity < 0 || f.minSimilarity > 100 {
		return fmt.Errorf("min similarity must be within [0, 100], got %v", f.minSimilarity)
	}
	return nil
}

func (f *skillSimilarityFilter) Apply(_ context.Context, jobs *jsearch.Jobs) (*jsearch.Jobs, Step, error) {
	initial := jobs.Len()
	if initial == 0 {
		return jobs, Step{}, nil
	}

	postings := make([]corpus.JobPosting, initial)
	for i, job := range jobs.Items {
		postings[i] = corpus.JobPosting{
			Index:  i,
			Link:   job.ApplyLink,
			Skills: job.Title + "\n" + job.Description,
		}
	}

	results, err := matching.Rank(postings, f.skills, initial)
	if errors.Is(err, matching.ErrEmptyCorpus) {
		return jobs, Step{Initial: initial, Left: initial}, nil
	}
	if err != nil {
		return jobs, Step{}, err
	}

	ranked := make([]*jsearch.Job, 0, len(results))
	for _, r := range results {
		if r.SimilarityPercentage < f.minSimilarity {
			continue
		}
		job := jobs.Items[r.Index]
		match := r.SimilarityPercentage
		job.Match = &match
		ranked = append(ranked, job)
	}
	jobs.Items = ranked

	return jobs, Step{Initial: initial, Dropped: initial - len(ranked), Left: len(ranked)}, nil
}

func (f *skillSimilarityFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{
			"min_similarity": strconv.FormatFloat(f.minSimilarity, 'f', 2, 64),
		},
	}
}
