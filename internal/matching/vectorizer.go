package matching

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// Vector is a sparse term-weight vector. Indices are sorted ascending so that
// every arithmetic pass visits terms in the same order.
type Vector struct {
	Indices []int
	Weights []float64
}

func (v Vector) Len() int { return len(v.Indices) }

// Norm returns the Euclidean magnitude of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v.Weights {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Vectorizer holds a TF-IDF vocabulary fitted on a set of documents.
// Term weights are raw counts times the smoothed idf ln((1+n)/(1+df))+1,
// and every vector is L2-normalised.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// Fit builds the vocabulary from documents and returns their vectors in the
// same order.
func Fit(documents []string) (*Vectorizer, []Vector, error) {
	if len(documents) == 0 {
		return nil, nil, ErrEmptyCorpus
	}

	counts := make([]map[string]int, len(documents))
	v := &Vectorizer{vocabulary: make(map[string]int)}
	var df []int

	for i, doc := range documents {
		tokens := Tokenize(doc)
		counts[i] = make(map[string]int, len(tokens))
		for _, term := range tokens {
			idx, ok := v.vocabulary[term]
			if !ok {
				idx = len(v.vocabulary)
				v.vocabulary[term] = idx
				df = append(df, 0)
			}
			if counts[i][term] == 0 {
				df[idx]++
			}
			counts[i][term]++
		}
	}

	n := float64(len(documents))
	v.idf = make([]float64, len(df))
	for idx, freq := range df {
		v.idf[idx] = math.Log((1+n)/(1+float64(freq))) + 1
	}

	vectors := make([]Vector, len(documents))
	for i := range counts {
		vectors[i] = v.weigh(counts[i])
	}

	return v, vectors, nil
}

// Transform projects text into the fitted space. Unknown terms are ignored.
func (v *Vectorizer) Transform(text string) Vector {
	return v.weigh(termCounts(text))
}

// Vocabulary returns the number of distinct fitted terms.
func (v *Vectorizer) Vocabulary() int {
	return len(v.vocabulary)
}

func (v *Vectorizer) weigh(counts map[string]int) Vector {
	type entry struct {
		idx   int
		count int
	}

	entries := make([]entry, 0, len(counts))
	for term, count := range counts {
		if idx, ok := v.vocabulary[term]; ok {
			entries = append(entries, entry{idx: idx, count: count})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })

	vec := Vector{
		Indices: make([]int, len(entries)),
		Weights: make([]float64, len(entries)),
	}
	for i, e := range entries {
		vec.Indices[i] = e.idx
		vec.Weights[i] = float64(e.count) * v.idf[e.idx]
	}

	norm := vec.Norm()
	if norm == 0 {
		return vec
	}
	for i := range vec.Weights {
		vec.Weights[i] /= norm
	}
	return vec
}

// Cosine returns the cosine similarity of a and b clamped to [0,1]. It is 0
// when either vector has zero magnitude.
func Cosine(a, b Vector) float64 {
	normA, normB := a.Norm(), b.Norm()
	if normA == 0 || normB == 0 {
		return 0
	}

	var dot float64
	for i, j := 0, 0; i < len(a.Indices) && j < len(b.Indices); {
		switch {
		case a.Indices[i] == b.Indices[j]:
			dot += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}

	sim := dot / (normA * normB)
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}

// Tokenize lowercases text and splits it into runs of letters, digits and
// underscores; runs shorter than two runes are discarded.
func Tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsMark(r) && r != '_'
	})

	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len([]rune(w)) < 2 {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

func termCounts(text string) map[string]int {
	counts := make(map[string]int)
	for _, token := range Tokenize(text) {
		counts[token]++
	}
	return counts
}
