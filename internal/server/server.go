package server

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/spigell/skillmatch/internal/jsearch"
	"github.com/spigell/skillmatch/internal/matching"
)

const (
	appName                = "skillmatch"
	defaultAddr            = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

type Config struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = defaultReadTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	return c
}

// Matcher ranks skills against the job corpus.
type Matcher interface {
	Match(ctx context.Context, userSkills string, topN int) ([]matching.MatchResult, error)
}

type JobSearcher interface {
	Search(ctx context.Context, params *jsearch.SearchParams, progress jsearch.ProgressFunc) (*jsearch.Jobs, error)
}

type SalaryEstimator interface {
	EstimateSalary(ctx context.Context, params *jsearch.SalaryParams) (*jsearch.SalaryEstimate, error)
}

// Dependencies are the services behind the API. Searcher and Salary may be
// nil when no JSearch key is configured.
type Dependencies struct {
	Matcher  Matcher
	Searcher JobSearcher
	Salary   SalaryEstimator
}

type Server struct {
	app    *fiber.App
	config Config
	logger *zap.Logger
}

func New(config Config, logger *zap.Logger, deps Dependencies) (*Server, error) {
	if deps.Matcher == nil {
		return nil, errors.New("server: matcher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	config = config.withDefaults()
	logger = logger.With(zap.String("component", "http"))

	app := fiber.New(fiber.Config{
		AppName:     appName,
		ReadTimeout: config.ReadTimeout,
	})

	app.Use(accessLog(logger))
	app.Use(recoverErrors(logger))

	h := &handlers{deps: deps, logger: logger}
	h.register(app)

	return &Server{app: app, config: config, logger: logger}, nil
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.config.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	s.logger.Info("http server listening", zap.String("addr", s.config.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
