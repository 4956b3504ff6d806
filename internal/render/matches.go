package render

import (
	"fmt"
	"io"

	"github.com/spigell/skillmatch/internal/matching"
)

const (
	// NoMatchesMessage is shown instead of an empty match list.
	NoMatchesMessage = "No matching jobs found. Try adjusting your skills or adding more relevant ones."
	noMatchesShort   = "no matches found"
)

// MatchList is the structured form of a ranking response.
type MatchList struct {
	Matches []matching.MatchResult `json:"matches" yaml:"matches"`
	Message string                 `json:"message,omitempty" yaml:"message,omitempty"`
}

// NewMatchList wraps results, adding the "no matches found" message when
// there are none.
func NewMatchList(results []matching.MatchResult) MatchList {
	list := MatchList{Matches: results}
	if len(results) == 0 {
		list.Matches = []matching.MatchResult{}
		list.Message = noMatchesShort
	}
	return list
}

// Matches writes ranked matches in the requested format.
func Matches(w io.Writer, format Format, results []matching.MatchResult) error {
	if format != FormatTable {
		return encode(w, format, NewMatchList(results))
	}

	if len(results) == 0 {
		_, err := warning.Fprintln(w, NoMatchesMessage)
		return err
	}

	heading.Fprintln(w, "Top Job Matches")
	for i, r := range results {
		fmt.Fprintln(w)
		good.Fprintf(w, "Match #%d - %.2f%% Match\n", i+1, r.SimilarityPercentage)
		label.Fprint(w, "  Job Link: ")
		fmt.Fprintln(w, r.JobLink)
		label.Fprint(w, "  Required Skills: ")
		if _, err := fmt.Fprintln(w, r.Skills); err != nil {
			return err
		}
	}
	return nil
}
