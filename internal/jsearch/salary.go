package jsearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

const (
	SalaryPath = "/estimated-salary"

	salaryRadius       = "100"
	salaryLocationType = "ANY"
)

// Experience levels accepted by the salary endpoint.
const (
	ExperienceAll           = "ALL"
	ExperienceLessThanOne   = "LESS_THAN_ONE"
	ExperienceOneToThree    = "ONE_TO_THREE"
	ExperienceFourToSix     = "FOUR_TO_SIX"
	ExperienceSevenToNine   = "SEVEN_TO_NINE"
	ExperienceTenToFourteen = "TEN_TO_FOURTEEN"
	ExperienceAboveFifteen  = "ABOVE_FIFTEEN"
)

// ExperienceLevels maps every accepted level to its label, in menu order.
var ExperienceLevels = []struct {
	Code  string
	Label string
}{
	{ExperienceAll, "All Experience Levels"},
	{ExperienceLessThanOne, "Less than 1 year"},
	{ExperienceOneToThree, "1-3 years"},
	{ExperienceFourToSix, "4-6 years"},
	{ExperienceSevenToNine, "7-9 years"},
	{ExperienceTenToFourteen, "10-14 years"},
	{ExperienceAboveFifteen, "15+ years"},
}

// ParseExperience validates an experience code. Empty means ALL.
func ParseExperience(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return ExperienceAll, nil
	}
	for _, level := range ExperienceLevels {
		if level.Code == code {
			return code, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidExperience, s)
}

type SalaryParams struct {
	Title      string
	Location   string
	Experience string
}

type SalaryEstimate struct {
	Location       string   `json:"location" yaml:"location"`
	JobTitle       string   `json:"job_title" yaml:"job_title"`
	Publisher      string   `json:"publisher_name" yaml:"publisher_name"`
	MinSalary      *float64 `json:"min_salary,omitempty" yaml:"min_salary,omitempty"`
	MaxSalary      *float64 `json:"max_salary,omitempty" yaml:"max_salary,omitempty"`
	MedianSalary   *float64 `json:"median_salary,omitempty" yaml:"median_salary,omitempty"`
	SalaryPeriod   string   `json:"salary_period" yaml:"salary_period"`
	SalaryCurrency string   `json:"salary_currency" yaml:"salary_currency"`
	LastUpdated    string   `json:"last_updated,omitempty" yaml:"last_updated,omitempty"`
}

func (s *SalaryEstimate) validate() error {
	if s.MinSalary == nil && s.MaxSalary == nil && s.MedianSalary == nil {
		return ErrNoSalaryData
	}
	return nil
}

// Source names the publisher of the estimate.
func (s *SalaryEstimate) Source() string {
	if strings.TrimSpace(s.Publisher) == "" {
		return "JSearch"
	}
	return s.Publisher
}

// Updated is the last update of the estimate, or "Recently".
func (s *SalaryEstimate) Updated() string {
	if strings.TrimSpace(s.LastUpdated) == "" {
		return "Recently"
	}
	return s.LastUpdated
}

func (c *Client) estimateSalary(ctx context.Context, params *SalaryParams) (*SalaryEstimate, error) {
	if params == nil || strings.TrimSpace(params.Title) == "" || strings.TrimSpace(params.Location) == "" {
		return nil, fmt.Errorf("%w: please enter both job title and location", ErrInvalidParams)
	}

	experience, err := ParseExperience(params.Experience)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("job_title", strings.TrimSpace(params.Title))
	q.Set("location", strings.TrimSpace(params.Location))
	q.Set("radius", salaryRadius)
	q.Set("location_type", salaryLocationType)
	q.Set("years_of_experience", experience)

	items, err := c.getData(ctx, SalaryPath, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNoSalaryData
	}

	estimates, _, err := decodeItems[SalaryEstimate](items[:1])
	if err != nil {
		return nil, err
	}
	if len(estimates) == 0 {
		return nil, ErrNoSalaryData
	}

	return estimates[0], nil
}
