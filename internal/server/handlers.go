package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/filtering"
	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/matching"
	"github.com/spigell/skillmatch/internal/render"
)

const messageNoMatches = "no matches found"

var errNotConfigured = errors.New("job search is not configured")

type matchRequest struct {
	Skills string `json:"skills"`
	TopN   *int   `json:"top_n"`
}

type handlers struct {
	deps   Dependencies
	logger *zap.Logger
}

func (h *handlers) register(app *fiber.App) {
	app.Get("/health", h.health)

	v1 := app.Group("/api").Group("/v1")
	v1.Post("/matches", h.matches)
	v1.Get("/jobs", h.jobs)
	v1.Get("/salary", h.salary)
}

func (h *handlers) health(c fiber.Ctx) error {
	return success(c, MessageOK, nil)
}

func (h *handlers) matches(c fiber.Ctx) error {
	var req matchRequest
	if err := c.Bind().Body(&req); err != nil {
		return NewAppError(fiber.StatusBadRequest, "invalid request body", err)
	}

	topN := matching.DefaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}

	results, err := h.deps.Matcher.Match(c.Context(), req.Skills, topN)
	switch {
	case errors.Is(err, matching.ErrInvalidQuery):
		return NewAppError(fiber.StatusBadRequest, err.Error(), err)
	case matching.IsNoMatches(err):
		return success(c, messageNoMatches, render.NewMatchList(nil))
	case err != nil:
		return NewAppError(fiber.StatusInternalServerError, "", err)
	}

	list := render.NewMatchList(results)
	return success(c, list.Message, list)
}

func (h *handlers) jobs(c fiber.Ctx) error {
	if h.deps.Searcher == nil {
		return NewAppError(fiber.StatusServiceUnavailable, errNotConfigured.Error(), errNotConfigured)
	}

	params := &jsearch.SearchParams{
		Role:       c.Query("role"),
		Location:   c.Query("location"),
		RemoteOnly: fiber.Query[bool](c, "remote", false),
		Count:      fiber.Query[int](c, "count", jsearch.DefaultCount),
	}

	jobs, err := h.deps.Searcher.Search(c.Context(), params, nil)
	if err != nil {
		if jobs.Len() == 0 {
			return searchError(err)
		}
		h.logger.Warn("returning partial search results",
			zap.String(logger.FieldRequestID, logger.RequestID(c.Context())),
			zap.Int("jobs", jobs.Len()),
			zap.Error(err),
		)
	}

	if skills := strings.TrimSpace(c.Query("skills")); skills != "" {
		steps := []filtering.Filter{
			filtering.NewSkillSimilarity(skills, fiber.Query[float64](c, "min_similarity", 0)),
		}
		jobs, err = filtering.Run(c.Context(), h.logger, steps, jobs)
		if err != nil {
			return NewAppError(fiber.StatusBadRequest, err.Error(), err)
		}
	}

	return success(c, MessageOK, render.NewJobList(jobs))
}

func (h *handlers) salary(c fiber.Ctx) error {
	if h.deps.Salary == nil {
		return NewAppError(fiber.StatusServiceUnavailable, errNotConfigured.Error(), errNotConfigured)
	}

	estimate, err := h.deps.Salary.EstimateSalary(c.Context(), &jsearch.SalaryParams{
		Title:      c.Query("title"),
		Location:   c.Query("location"),
		Experience: c.Query("experience"),
	})
	if err != nil {
		return searchError(err)
	}

	return success(c, MessageOK, estimate)
}

func searchError(err error) error {
	var statusErr *jsearch.StatusError
	switch {
	case errors.Is(err, jsearch.ErrInvalidParams), errors.Is(err, jsearch.ErrInvalidExperience):
		return NewAppError(fiber.StatusBadRequest, err.Error(), err)
	case errors.Is(err, jsearch.ErrRateLimited):
		return NewAppError(fiber.StatusTooManyRequests, jsearch.ErrRateLimited.Error(), err)
	case errors.Is(err, jsearch.ErrNoSalaryData):
		return NewAppError(fiber.StatusNotFound, jsearch.ErrNoSalaryData.Error(), err)
	case errors.Is(err, jsearch.ErrMalformedResponse), errors.As(err, &statusErr):
		return NewAppError(fiber.StatusBadGateway, "job search provider error", err)
	}
	return NewAppError(fiber.StatusInternalServerError, "", err)
}
