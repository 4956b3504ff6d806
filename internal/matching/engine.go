package matching

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/logger"
)

// Source provides the corpus snapshot a ranking request works on.
type Source interface {
	Snapshot(ctx context.Context) (*corpus.Corpus, error)
}

// Engine ranks skills against the corpus provided by its source.
type Engine struct {
	source Source
	logger *zap.Logger
}

func NewEngine(source Source, log *zap.Logger) *Engine {
	return &Engine{
		source: source,
		logger: logger.WithFields(log, zap.String("component", "matching")),
	}
}

// Match validates the query, takes one corpus snapshot and ranks it.
// Errors matching IsNoMatches should be shown as "no matches found".
func (e *Engine) Match(ctx context.Context, userSkills string, topN int) ([]MatchResult, error) {
	requestID := logger.RequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := e.logger.With(zap.String(logger.FieldRequestID, requestID))

	if err := ValidateQuery(userSkills, topN); err != nil {
		log.Debug("rejecting match request", zap.Error(err))
		return nil, err
	}

	start := time.Now()

	snapshot, err := e.source.Snapshot(ctx)
	if err != nil {
		if errors.Is(err, corpus.ErrCorpusUnavailable) {
			log.Error("corpus unavailable", zap.Error(err))
		}
		return nil, err
	}

	results, err := Rank(snapshot.Postings(), userSkills, topN)
	if err != nil {
		if errors.Is(err, ErrEmptyCorpus) {
			log.Warn("corpus has no eligible postings",
				zap.String("source", snapshot.Source),
				zap.Int("dropped", snapshot.Dropped),
			)
		}
		return nil, err
	}

	log.Info("ranked job matches",
		logger.MatchFields(snapshot.Source, snapshot.Version.String(), snapshot.Len(), len(results))...,
	)
	log.Debug("match timing",
		zap.Int("top_n", topN),
		zap.Duration("duration", time.Since(start)),
	)

	return results, nil
}
