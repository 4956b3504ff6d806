package matching

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/spigell/skillmatch/internal/corpus"
)

// DefaultTopN is the number of matches returned when the caller does not ask
// for a specific amount.
const DefaultTopN = 5

var (
	// ErrInvalidQuery is returned for blank skills or a non-positive top-N.
	ErrInvalidQuery = errors.New("please provide skills")
	// ErrInvalidTopN is returned for a non-positive top-N. It also matches
	// ErrInvalidQuery.
	ErrInvalidTopN = errors.New("top-n must be positive")
	// ErrEmptyCorpus is returned when no posting is eligible for matching.
	ErrEmptyCorpus = errors.New("corpus has no eligible job postings")
)

// IsNoMatches reports whether err should be presented as an empty result
// rather than a failure.
func IsNoMatches(err error) bool {
	return errors.Is(err, ErrEmptyCorpus) || errors.Is(err, corpus.ErrCorpusUnavailable)
}

// MatchResult is a single ranked posting.
type MatchResult struct {
	JobLink              string  `json:"job_link" yaml:"job_link"`
	Skills               string  `json:"skills_text" yaml:"skills_text"`
	SimilarityScore      float64 `json:"similarity_score" yaml:"similarity_score"`
	SimilarityPercentage float64 `json:"similarity_percentage" yaml:"similarity_percentage"`
	// Index is the position of the posting in the corpus it was ranked against.
	Index int `json:"-" yaml:"-"`
}

type invalidTopNError int

func (e invalidTopNError) Error() string {
	return fmt.Sprintf("%s, got %d", ErrInvalidTopN, int(e))
}

func (invalidTopNError) Is(target error) bool {
	return target == ErrInvalidTopN || target == ErrInvalidQuery
}

// ValidateQuery checks the caller-facing preconditions of Rank.
func ValidateQuery(userSkills string, topN int) error {
	if strings.TrimSpace(userSkills) == "" {
		return ErrInvalidQuery
	}
	if topN <= 0 {
		return invalidTopNError(topN)
	}
	return nil
}

// Rank scores every posting against userSkills and returns the best topN,
// highest score first. Ties keep corpus order.
func Rank(postings []corpus.JobPosting, userSkills string, topN int) ([]MatchResult, error) {
	if err := ValidateQuery(userSkills, topN); err != nil {
		return nil, err
	}

	scores, err := Score(postings, userSkills)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})

	if topN > len(order) {
		topN = len(order)
	}

	results := make([]MatchResult, 0, topN)
	for _, idx := range order[:topN] {
		results = append(results, MatchResult{
			JobLink:              postings[idx].Link,
			Skills:               postings[idx].Skills,
			SimilarityScore:      scores[idx],
			SimilarityPercentage: Percentage(scores[idx]),
			Index:                idx,
		})
	}

	return results, nil
}

// Score returns the similarity of every posting to query, in posting order.
func Score(postings []corpus.JobPosting, query string) ([]float64, error) {
	documents := make([]string, len(postings))
	for i, p := range postings {
		documents[i] = p.Skills
	}

	vectorizer, vectors, err := Fit(documents)
	if err != nil {
		return nil, err
	}

	queryVector := vectorizer.Transform(query)

	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		scores[i] = Cosine(queryVector, v)
	}

	return scores, nil
}

// Percentage converts a similarity score to a percentage rounded to two
// decimals.
func Percentage(score float64) float64 {
	return math.Round(score*100*100) / 100
}
