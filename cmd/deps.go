package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spigell/skillmatch/internal/ai/gemini"
	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/resume"
	"github.com/spigell/skillmatch/internal/secrets"

	"go.uber.org/zap"
)

const (
	geminiKeyEnv  = "GEMINI_API_KEY"
	jsearchKeyEnv = "JSEARCH_API_KEY"
)

var errAIDisabled = errors.New("ai provider is disabled")

func newAnalyzer(ctx context.Context, cfg AIConfig, logger *zap.Logger) (*gemini.Analyzer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	switch provider {
	case gemini.Provider:
	case "", "none":
		return nil, errAIDisabled
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   geminiKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiKeyEnv)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Config, logger)
	if err != nil {
		return nil, err
	}

	analyzerLogger := logger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))
	return gemini.NewAnalyzer(generator, analyzerLogger, cfg.Gemini.MaxLogLength), nil
}

func newJSearchClient(cfg JSearchConfig, logger *zap.Logger) (*jsearch.Client, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "jsearch api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   jsearchKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set jsearch.api-key-file or %s)", err, jsearchKeyEnv)
	}

	return jsearch.New(logger, apiKey, cfg.Config), nil
}

// skillExtractor is satisfied by *gemini.Analyzer.
type skillExtractor interface {
	ExtractSkills(ctx context.Context, resumeText string) (string, error)
}

// resumeSkills turns a résumé into a skills query. Without an extractor, or
// when extraction fails, the résumé text itself is the query.
func resumeSkills(ctx context.Context, doc *resume.Document, extractor skillExtractor, logger *zap.Logger) string {
	if extractor == nil {
		logger.Info("using resume text as skills", zap.String("reason", "ai is not configured"))
		return doc.Text
	}

	skills, err := extractor.ExtractSkills(ctx, doc.Text)
	if err != nil {
		logger.Warn("skill extraction failed, using resume text", zap.Error(err))
		return doc.Text
	}

	logger.Info("extracted skills from resume", zap.String("skills", skills))
	return skills
}

// optionalExtractor returns the Gemini analyzer when it can be built.
func optionalExtractor(ctx context.Context, cfg AIConfig, logger *zap.Logger) skillExtractor {
	analyzer, err := newAnalyzer(ctx, cfg, logger)
	if err != nil {
		if !errors.Is(err, errAIDisabled) {
			logger.Warn("skipping ai skill extraction", zap.Error(err))
		}
		return nil
	}
	return analyzer
}
