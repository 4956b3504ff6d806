package matching

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/logger"
)

type stubSource struct {
	corpus *corpus.Corpus
	err    error
	calls  int
}

func (s *stubSource) Snapshot(context.Context) (*corpus.Corpus, error) {
	s.calls++
	return s.corpus, s.err
}

func newObservedEngine(source Source) (*Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewEngine(source, zap.New(core)), logs
}

func TestEngineMatch(t *testing.T) {
	c := corpus.New("jobs.csv", postings("python sql", "java spring", "python pandas sql"))
	c.Version = corpus.Version{Size: 42, ModTime: time.Unix(1700000000, 0)}
	source := &stubSource{corpus: c}
	engine, logs := newObservedEngine(source)

	ctx := logger.WithRequestID(context.Background(), "req-1")
	results, err := engine.Match(ctx, "python, sql", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, links(results))
	assert.Equal(t, 1, source.calls)

	entries := logs.FilterMessage("ranked job matches").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-1", fields[logger.FieldRequestID])
	assert.Equal(t, "matching", fields["component"])
	assert.Equal(t, "jobs.csv", fields[logger.FieldCorpusSource])
	assert.EqualValues(t, 3, fields[logger.FieldCorpusSize])
	assert.EqualValues(t, 2, fields[logger.FieldMatches])
}

func TestEngineMatchGeneratesRequestID(t *testing.T) {
	source := &stubSource{corpus: corpus.New("jobs.csv", postings("go"))}
	engine, logs := newObservedEngine(source)

	_, err := engine.Match(context.Background(), "go", 1)
	require.NoError(t, err)

	entries := logs.FilterMessage("ranked job matches").All()
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ContextMap()[logger.FieldRequestID])
}

func TestEngineRejectsInvalidQueryWithoutLoadingCorpus(t *testing.T) {
	for _, skills := range []string{"", "  ", "\n\t"} {
		t.Run(fmt.Sprintf("%q", skills), func(t *testing.T) {
			source := &stubSource{err: errors.New("must not be called")}
			engine, _ := newObservedEngine(source)

			results, err := engine.Match(context.Background(), skills, DefaultTopN)
			assert.ErrorIs(t, err, ErrInvalidQuery)
			assert.Nil(t, results)
			assert.Zero(t, source.calls)
		})
	}
}

func TestEngineCorpusUnavailable(t *testing.T) {
	source := &stubSource{err: fmt.Errorf("%w: open jobs.csv: no such file", corpus.ErrCorpusUnavailable)}
	engine, logs := newObservedEngine(source)

	results, err := engine.Match(context.Background(), "go", DefaultTopN)
	assert.ErrorIs(t, err, corpus.ErrCorpusUnavailable)
	assert.True(t, IsNoMatches(err))
	assert.Nil(t, results)
	assert.Equal(t, 1, logs.FilterMessage("corpus unavailable").Len())
}

func TestEngineEmptyCorpus(t *testing.T) {
	source := &stubSource{corpus: corpus.New("jobs.csv", postings("", "   "))}
	engine, logs := newObservedEngine(source)

	results, err := engine.Match(context.Background(), "go", DefaultTopN)
	assert.ErrorIs(t, err, ErrEmptyCorpus)
	assert.True(t, IsNoMatches(err))
	assert.Nil(t, results)

	entries := logs.FilterMessage("corpus has no eligible postings").All()
	require.Len(t, entries, 1)
	assert.EqualValues(t, 2, entries[0].ContextMap()["dropped"])
}

func TestEngineMatchIsIdempotent(t *testing.T) {
	source := &stubSource{corpus: corpus.New("jobs.csv", postings("python sql", "java spring", "python pandas sql"))}
	engine, _ := newObservedEngine(source)

	first, err := engine.Match(context.Background(), "Python, SQL", 3)
	require.NoError(t, err)
	second, err := engine.Match(context.Background(), "Python, SQL", 3)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
