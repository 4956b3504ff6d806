package matching

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/skillmatch/internal/corpus"
)

func postings(skills ...string) []corpus.JobPosting {
	out := make([]corpus.JobPosting, len(skills))
	for i, s := range skills {
		out[i] = corpus.JobPosting{Index: i, Link: string(rune('A' + i)), Skills: s}
	}
	return out
}

func links(results []MatchResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.JobLink
	}
	return out
}

func TestRankExampleScenario(t *testing.T) {
	jobs := postings("python sql", "java spring", "python pandas sql")

	results, err := Rank(jobs, "python, sql", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []string{"A", "C"}, links(results))
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-9)
	assert.Greater(t, results[1].SimilarityScore, 0.0)
	assert.Less(t, results[1].SimilarityScore, results[0].SimilarityScore)
	assert.Equal(t, "python pandas sql", results[1].Skills)
	assert.Equal(t, 2, results[1].Index)

	all, err := Rank(jobs, "python, sql", 3)
	require.NoError(t, err)
	assert.Equal(t, "B", all[2].JobLink)
	assert.Zero(t, all[2].SimilarityScore)
}

func TestRankKnownWeights(t *testing.T) {
	jobs := postings("python sql", "java spring", "python pandas sql")

	results, err := Rank(jobs, "python, sql", 3)
	require.NoError(t, err)

	// idf(python)=idf(sql)=ln(4/3)+1, idf(pandas)=ln(2)+1.
	assert.InDelta(t, 0.7324, results[1].SimilarityScore, 1e-4)
	assert.InDelta(t, 73.24, results[1].SimilarityPercentage, 1e-9)
}

func TestRankFewerPostingsThanTopN(t *testing.T) {
	results, err := Rank(postings("go", "rust"), "go", 5)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRankNoVocabularyOverlap(t *testing.T) {
	jobs := postings("python sql", "java spring", "python pandas sql", "go")

	results, err := Rank(jobs, "Quantum Basket Weaving", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, []string{"A", "B", "C"}, links(results))
	for _, r := range results {
		assert.Zero(t, r.SimilarityScore)
		assert.Zero(t, r.SimilarityPercentage)
	}
}

func TestRankTiesKeepCorpusOrder(t *testing.T) {
	jobs := postings("rust", "go", "java", "go")

	results, err := Rank(jobs, "go", 4)
	require.NoError(t, err)

	assert.Equal(t, []string{"B", "D", "A", "C"}, links(results))
	assert.Equal(t, results[0].SimilarityScore, results[1].SimilarityScore)
}

func TestRankIsCaseInsensitive(t *testing.T) {
	jobs := postings("Python, SQL", "Java")

	results, err := Rank(jobs, "PYTHON sql", 1)
	require.NoError(t, err)
	assert.Equal(t, "A", results[0].JobLink)
	assert.InDelta(t, 1.0, results[0].SimilarityScore, 1e-9)
}

func TestRankInvalidQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		skills string
		topN   int
	}{
		{name: "empty skills", skills: "", topN: 5},
		{name: "whitespace skills", skills: "   ", topN: 5},
		{name: "tabs and newlines", skills: "\t\n", topN: 5},
		{name: "zero top-n", skills: "go", topN: 0},
		{name: "negative top-n", skills: "go", topN: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			results, err := Rank(postings("go"), tt.skills, tt.topN)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Nil(t, results)
		})
	}
}

func TestValidateQueryTopN(t *testing.T) {
	err := ValidateQuery("go", 0)
	assert.ErrorIs(t, err, ErrInvalidTopN)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.EqualError(t, err, "top-n must be positive, got 0")

	err = ValidateQuery(" ", 5)
	assert.ErrorIs(t, err, ErrInvalidQuery)
	assert.NotErrorIs(t, err, ErrInvalidTopN)
}

func TestRankInvalidQueryBeforeCorpusCheck(t *testing.T) {
	_, err := Rank(nil, " ", 5)
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestRankEmptyCorpus(t *testing.T) {
	results, err := Rank(nil, "go", 5)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.Nil(t, results)
	assert.True(t, IsNoMatches(err))
}

func TestRankIdempotent(t *testing.T) {
	jobs := postings("python sql", "java spring", "python pandas sql", "sql server", "python django")

	first, err := Rank(jobs, "Python, SQL", 5)
	require.NoError(t, err)
	second, err := Rank(jobs, "Python, SQL", 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRankProperties(t *testing.T) {
	vocabulary := []string{"go", "python", "sql", "java", "docker", "kubernetes", "aws", "react", "spark", "excel"}
	rnd := rand.New(rand.NewSource(42))

	pick := func(n int) string {
		words := make([]string, n)
		for i := range words {
			words[i] = vocabulary[rnd.Intn(len(vocabulary))]
		}
		return strings.Join(words, ", ")
	}

	for round := 0; round < 50; round++ {
		t.Run(fmt.Sprintf("round-%d", round), func(t *testing.T) {
			jobs := make([]string, 1+rnd.Intn(20))
			for i := range jobs {
				jobs[i] = pick(1 + rnd.Intn(5))
			}
			query := pick(1 + rnd.Intn(4))
			topN := 1 + rnd.Intn(10)

			results, err := Rank(postings(jobs...), query, topN)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(results), topN)
			assert.LessOrEqual(t, len(results), len(jobs))

			for i, r := range results {
				assert.GreaterOrEqual(t, r.SimilarityScore, 0.0)
				assert.LessOrEqual(t, r.SimilarityScore, 1.0)
				assert.Equal(t, Percentage(r.SimilarityScore), r.SimilarityPercentage)

				if i == 0 {
					continue
				}
				prev := results[i-1]
				assert.GreaterOrEqual(t, prev.SimilarityScore, r.SimilarityScore)
				if prev.SimilarityScore == r.SimilarityScore {
					assert.Less(t, prev.Index, r.Index)
				}
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0))
	assert.Equal(t, 100.0, Percentage(1))
	assert.Equal(t, 73.24, Percentage(0.732449))
	assert.Equal(t, 12.35, Percentage(0.123456))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t,
		[]string{"python", "sql", "go", "k8s", "node_js", "münchen"},
		Tokenize("Python, SQL; C++ & Go/K8s node_js R München"),
	)
	assert.Empty(t, Tokenize(" , ; "))
}

func TestCosineZeroMagnitude(t *testing.T) {
	v := Vector{Indices: []int{0}, Weights: []float64{1}}
	assert.Zero(t, Cosine(v, Vector{}))
	assert.Zero(t, Cosine(Vector{}, v))
	assert.InDelta(t, 1.0, Cosine(v, v), 1e-12)
}

func TestVectorizerIgnoresUnknownTerms(t *testing.T) {
	v, vectors, err := Fit([]string{"go rust", "go"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, 2, v.Vocabulary())

	q := v.Transform("go haskell")
	assert.Equal(t, 1, q.Len())
	assert.InDelta(t, 1.0, q.Norm(), 1e-12)

	assert.Zero(t, v.Transform("haskell").Len())
}
