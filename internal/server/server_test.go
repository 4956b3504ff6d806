package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/skillmatch/internal/corpus"
	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/logger"
	"github.com/spigell/skillmatch/internal/matching"
)

type stubMatcher struct {
	results []matching.MatchResult
	err     error
	panic   bool

	skills    string
	topN      int
	requestID string
}

func (m *stubMatcher) Match(ctx context.Context, skills string, topN int) ([]matching.MatchResult, error) {
	if m.panic {
		panic("boom")
	}
	m.skills, m.topN = skills, topN
	m.requestID = logger.RequestID(ctx)
	if err := matching.ValidateQuery(skills, topN); err != nil {
		return nil, err
	}
	return m.results, m.err
}

type stubSearcher struct {
	jobs   *jsearch.Jobs
	err    error
	params *jsearch.SearchParams
}

func (s *stubSearcher) Search(_ context.Context, params *jsearch.SearchParams, _ jsearch.ProgressFunc) (*jsearch.Jobs, error) {
	s.params = params
	return s.jobs, s.err
}

type stubSalary struct {
	estimate *jsearch.SalaryEstimate
	err      error
}

func (s *stubSalary) EstimateSalary(context.Context, *jsearch.SalaryParams) (*jsearch.SalaryEstimate, error) {
	return s.estimate, s.err
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, deps Dependencies) (*fiber.App, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	srv, err := New(Config{}, zap.New(core), deps)
	require.NoError(t, err)
	return srv.App(), logs
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, envelope) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return resp, env
}

func postMatches(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/matches", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNewRequiresMatcher(t *testing.T) {
	_, err := New(Config{}, nil, Dependencies{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}})

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, MessageOK, env.Message)
	assert.NotEmpty(t, resp.Header.Get(HeaderRequestID))
}

func TestMatches(t *testing.T) {
	matcher := &stubMatcher{results: []matching.MatchResult{
		{JobLink: "https://jobs.example/a", Skills: "python sql", SimilarityScore: 1, SimilarityPercentage: 100},
	}}
	app, logs := newTestServer(t, Dependencies{Matcher: matcher})

	req := postMatches(`{"skills":"python, sql","top_n":3}`)
	req.Header.Set(HeaderRequestID, "req-42")

	resp, env := do(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-42", resp.Header.Get(HeaderRequestID))
	assert.Equal(t, "python, sql", matcher.skills)
	assert.Equal(t, 3, matcher.topN)
	assert.Equal(t, "req-42", matcher.requestID)
	assert.JSONEq(t, `{"matches":[{
		"job_link":"https://jobs.example/a",
		"skills_text":"python sql",
		"similarity_score":1,
		"similarity_percentage":100
	}]}`, string(env.Data))

	access := logs.FilterMessage("http access").All()
	require.Len(t, access, 1)
	assert.Equal(t, "req-42", access[0].ContextMap()[logger.FieldRequestID])
	assert.EqualValues(t, http.StatusOK, access[0].ContextMap()["status"])
}

func TestMatchesDefaultTopN(t *testing.T) {
	matcher := &stubMatcher{}
	app, _ := newTestServer(t, Dependencies{Matcher: matcher})

	resp, _ := do(t, app, postMatches(`{"skills":"go"}`))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, matching.DefaultTopN, matcher.topN)
}

func TestMatchesInvalidQuery(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "blank skills", body: `{"skills":"   "}`, message: "please provide skills"},
		{name: "missing skills", body: `{}`, message: "please provide skills"},
		{name: "zero top_n", body: `{"skills":"go","top_n":0}`, message: "top-n must be positive, got 0"},
		{name: "negative top_n", body: `{"skills":"go","top_n":-2}`, message: "top-n must be positive, got -2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}})

			resp, env := do(t, app, postMatches(tt.body))
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, http.StatusBadRequest, env.Status)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}

func TestMatchesMalformedBody(t *testing.T) {
	app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}})

	resp, env := do(t, app, postMatches(`{"skills":`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", env.Message)
}

func TestMatchesNoMatches(t *testing.T) {
	for _, err := range []error{
		matching.ErrEmptyCorpus,
		fmt.Errorf("%w: open jobs.csv", corpus.ErrCorpusUnavailable),
	} {
		t.Run(err.Error(), func(t *testing.T) {
			app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{err: err}})

			resp, env := do(t, app, postMatches(`{"skills":"go"}`))
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "no matches found", env.Message)
			assert.JSONEq(t, `{"matches":[],"message":"no matches found"}`, string(env.Data))
		})
	}
}

func TestMatchesUnexpectedErrorIsHidden(t *testing.T) {
	app, logs := newTestServer(t, Dependencies{Matcher: &stubMatcher{err: fmt.Errorf("disk on fire")}})

	resp, env := do(t, app, postMatches(`{"skills":"go"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, MessageInternalServerError, env.Message)
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}

func TestRecoversFromPanic(t *testing.T) {
	app, logs := newTestServer(t, Dependencies{Matcher: &stubMatcher{panic: true}})

	resp, env := do(t, app, postMatches(`{"skills":"go"}`))
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, MessageInternalServerError, env.Message)
	assert.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestUnknownRoute(t *testing.T) {
	app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}})

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, http.StatusNotFound, env.Status)
}

func TestJobsNotConfigured(t *testing.T) {
	app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}})

	for _, target := range []string{"/api/v1/jobs?role=go&location=berlin", "/api/v1/salary?title=go&location=berlin"} {
		resp, env := do(t, app, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, target)
		assert.Equal(t, "job search is not configured", env.Message, target)
	}
}

func TestJobs(t *testing.T) {
	searcher := &stubSearcher{jobs: &jsearch.Jobs{Items: []*jsearch.Job{
		{ID: "1", Title: "Java Developer", EmployerName: "Acme", Description: "java spring"},
		{ID: "2", Title: "Go Developer", EmployerName: "Initech", Description: "go kubernetes"},
	}}}
	app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}, Searcher: searcher})

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet,
		"/api/v1/jobs?role=developer&location=berlin&remote=true&count=20&skills=go,kubernetes&min_similarity=10", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "developer", searcher.params.Role)
	assert.Equal(t, "berlin", searcher.params.Location)
	assert.True(t, searcher.params.RemoteOnly)
	assert.Equal(t, 20, searcher.params.Count)

	var list struct {
		Count int            `json:"count"`
		Jobs  []*jsearch.Job `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "2", list.Jobs[0].ID)
	require.NotNil(t, list.Jobs[0].Match)
	assert.Greater(t, *list.Jobs[0].Match, 10.0)
}

func TestJobsErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{name: "invalid params", err: fmt.Errorf("%w: please enter both job role and location", jsearch.ErrInvalidParams), status: http.StatusBadRequest},
		{name: "rate limited", err: jsearch.ErrRateLimited, status: http.StatusTooManyRequests, message: jsearch.ErrRateLimited.Error()},
		{name: "upstream status", err: &jsearch.StatusError{StatusCode: 500}, status: http.StatusBadGateway, message: "job search provider error"},
		{name: "malformed", err: jsearch.ErrMalformedResponse, status: http.StatusBadGateway, message: "job search provider error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}, Searcher: &stubSearcher{err: tt.err}})

			resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?role=go&location=berlin", nil))
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.message != "" {
				assert.Equal(t, tt.message, env.Message)
			}
		})
	}
}

func TestJobsPartialResults(t *testing.T) {
	searcher := &stubSearcher{
		jobs: &jsearch.Jobs{Items: []*jsearch.Job{{ID: "1", Title: "Go Developer", EmployerName: "Acme"}}},
		err:  jsearch.ErrRateLimited,
	}
	app, logs := newTestServer(t, Dependencies{Matcher: &stubMatcher{}, Searcher: searcher})

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?role=go&location=berlin", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(env.Data), `"count":1`)
	assert.Equal(t, 1, logs.FilterMessage("returning partial search results").Len())
}

func TestSalary(t *testing.T) {
	median := 120000.0
	salary := &stubSalary{estimate: &jsearch.SalaryEstimate{JobTitle: "Data Engineer", MedianSalary: &median, SalaryCurrency: "USD"}}
	app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}, Salary: salary})

	resp, env := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/salary?title=Data+Engineer&location=Austin", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var estimate jsearch.SalaryEstimate
	require.NoError(t, json.Unmarshal(env.Data, &estimate))
	assert.Equal(t, "Data Engineer", estimate.JobTitle)
	require.NotNil(t, estimate.MedianSalary)
	assert.Equal(t, median, *estimate.MedianSalary)
}

func TestSalaryErrors(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{err: jsearch.ErrNoSalaryData, status: http.StatusNotFound},
		{err: fmt.Errorf("%w: %q", jsearch.ErrInvalidExperience, "SOME"), status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		app, _ := newTestServer(t, Dependencies{Matcher: &stubMatcher{}, Salary: &stubSalary{err: tt.err}})

		resp, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/salary?title=go&location=berlin", nil))
		assert.Equal(t, tt.status, resp.StatusCode, tt.err.Error())
	}
}
