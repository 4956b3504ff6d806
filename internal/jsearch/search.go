package jsearch

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	SearchPath = "/search"
	// PageSize is the number of jobs JSearch returns per page.
	PageSize = 10

	DefaultCount           = 10
	defaultDatePosted      = "all"
	defaultEmploymentTypes = "FULLTIME,CONTRACTOR,PARTTIME,INTERN"
)

// ProgressFunc is called after every fetched page.
type ProgressFunc func(page, pages int)

type SearchParams struct {
	Role       string `mapstructure:"role"`
	Location   string `mapstructure:"location"`
	RemoteOnly bool   `mapstructure:"remote"`
	// Count is the number of jobs wanted; it decides how many pages are read.
	Count           int    `mapstructure:"count"`
	DatePosted      string `mapstructure:"date-posted"`
	EmploymentTypes string `mapstructure:"employment-types"`
}

// Query is the free-text query sent to JSearch.
func (p *SearchParams) Query() string {
	query := fmt.Sprintf("%s in %s", strings.TrimSpace(p.Role), strings.TrimSpace(p.Location))
	if p.RemoteOnly {
		query = "remote " + query
	}
	return query
}

// Pages is the number of pages needed for Count jobs.
func (p *SearchParams) Pages() int {
	return (p.Count + PageSize - 1) / PageSize
}

func (p *SearchParams) normalize() error {
	if strings.TrimSpace(p.Role) == "" || strings.TrimSpace(p.Location) == "" {
		return fmt.Errorf("%w: please enter both job role and location", ErrInvalidParams)
	}
	if p.Count < 0 {
		return fmt.Errorf("%w: count must be positive, got %d", ErrInvalidParams, p.Count)
	}
	if p.Count == 0 {
		p.Count = DefaultCount
	}
	if p.DatePosted == "" {
		p.DatePosted = defaultDatePosted
	}
	if p.EmploymentTypes == "" {
		p.EmploymentTypes = defaultEmploymentTypes
	}
	return nil
}

func (p *SearchParams) values(page int) url.Values {
	q := url.Values{}
	q.Set("query", p.Query())
	q.Set("page", strconv.Itoa(page))
	q.Set("num_pages", "1")
	q.Set("date_posted", p.DatePosted)
	q.Set("remote_jobs_only", strconv.FormatBool(p.RemoteOnly))
	q.Set("employment_types", p.EmploymentTypes)
	return q
}

func (c *Client) search(ctx context.Context, params *SearchParams, progress ProgressFunc) (*Jobs, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: search parameters are required", ErrInvalidParams)
	}
	p := *params
	if err := p.normalize(); err != nil {
		return nil, err
	}

	pages := p.Pages()
	jobs := &Jobs{}
	dropped := 0

	for page := 1; page <= pages; page++ {
		items, err := c.getData(ctx, SearchPath, p.values(page))
		if err != nil {
			if jobs.Len() == 0 {
				return nil, err
			}
			c.logger.Warn("stopping search after failed page",
				zap.Int("page", page),
				zap.Int("fetched", jobs.Len()),
				zap.Error(err),
			)
			return jobs.truncate(p.Count), err
		}

		if len(items) == 0 {
			c.logger.Debug("no more results", zap.Int("page", page))
			break
		}

		decoded, skipped, err := decodeItems[Job](items)
		if err != nil {
			return nil, err
		}
		jobs.Items = append(jobs.Items, decoded...)
		dropped += skipped

		if progress != nil {
			progress(page, pages)
		}
	}

	if dropped > 0 {
		c.logger.Warn("dropped malformed jobs", zap.Int("count", dropped))
	}

	c.logger.Debug("search finished",
		zap.String("query", p.Query()),
		zap.Int("pages", pages),
		zap.Int("jobs", jobs.Len()),
	)

	return jobs.truncate(p.Count), nil
}
