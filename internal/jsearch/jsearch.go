package jsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://jsearch.p.rapidapi.com"
	apiHost        = "jsearch.p.rapidapi.com"
	userAgent      = "spigell/skillmatch"

	defaultTimeout           = 30 * time.Second
	defaultRequestsPerSecond = 1.0
)

var (
	ErrRateLimited       = errors.New("API rate limit exceeded, please try again later")
	ErrMalformedResponse = errors.New("no jobs found or invalid response format")
	ErrNoSalaryData      = errors.New("no salary data available for this job and location")
	ErrInvalidExperience = errors.New("invalid experience level")
	ErrInvalidParams     = errors.New("invalid request parameters")
)

// StatusError is returned for non-200 responses other than 429.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: status code %d", e.StatusCode)
}

// Config holds the "jsearch" configuration section.
type Config struct {
	BaseURL string        `mapstructure:"base-url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestsPerSecond paces page requests.
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`
}

type Client struct {
	apiKey     string
	logger     *zap.Logger
	limiter    *rate.Limiter
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
}

func New(logger *zap.Logger, apiKey string, cfg Config) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRequestsPerSecond
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		apiKey:  apiKey,
		logger:  logger.With(zap.String("component", "jsearch")),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		UserAgent: userAgent,
		BaseURL:   baseURL,
	}
}

// Search fetches up to params.Count jobs. When a later page fails the jobs
// fetched so far are returned together with the error.
func (c *Client) Search(ctx context.Context, params *SearchParams, progress ProgressFunc) (*Jobs, error) {
	return c.search(ctx, params, progress)
}

func (c *Client) EstimateSalary(ctx context.Context, params *SalaryParams) (*SalaryEstimate, error) {
	return c.estimateSalary(ctx, params)
}
