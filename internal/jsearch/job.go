package jsearch

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/skillmatch/internal/utils"
)

// DescriptionPreviewLength is the length of Job.ShortDescription previews.
const DescriptionPreviewLength = 500

var printer = message.NewPrinter(language.English)

type Job struct {
	ID             string   `json:"job_id" yaml:"job_id"`
	Title          string   `json:"job_title" yaml:"job_title"`
	EmployerName   string   `json:"employer_name" yaml:"employer_name"`
	EmployerLogo   string   `json:"employer_logo,omitempty" yaml:"employer_logo,omitempty"`
	Publisher      string   `json:"job_publisher,omitempty" yaml:"job_publisher,omitempty"`
	EmploymentType string   `json:"job_employment_type,omitempty" yaml:"job_employment_type,omitempty"`
	ApplyLink      string   `json:"job_apply_link,omitempty" yaml:"job_apply_link,omitempty"`
	Description    string   `json:"job_description,omitempty" yaml:"job_description,omitempty"`
	IsRemote       bool     `json:"job_is_remote" yaml:"job_is_remote"`
	City           string   `json:"job_city,omitempty" yaml:"job_city,omitempty"`
	State          string   `json:"job_state,omitempty" yaml:"job_state,omitempty"`
	Country        string   `json:"job_country,omitempty" yaml:"job_country,omitempty"`
	PostedAt       string   `json:"job_posted_at_datetime_utc,omitempty" yaml:"job_posted_at_datetime_utc,omitempty"`
	MinSalary      *float64 `json:"job_min_salary,omitempty" yaml:"job_min_salary,omitempty"`
	MaxSalary      *float64 `json:"job_max_salary,omitempty" yaml:"job_max_salary,omitempty"`
	SalaryCurrency string   `json:"job_salary_currency,omitempty" yaml:"job_salary_currency,omitempty"`
	SalaryPeriod   string   `json:"job_salary_period,omitempty" yaml:"job_salary_period,omitempty"`

	// Match is the skill similarity percentage set by the skill filter.
	Match *float64 `json:"match_percentage,omitempty" yaml:"match_percentage,omitempty"`
}

func (j *Job) validate() error {
	var missing []string
	if strings.TrimSpace(j.ID) == "" {
		missing = append(missing, "job_id")
	}
	if strings.TrimSpace(j.Title) == "" {
		missing = append(missing, "job_title")
	}
	if strings.TrimSpace(j.EmployerName) == "" {
		missing = append(missing, "employer_name")
	}
	if len(missing) > 0 {
		return errors.New("missing fields: " + strings.Join(missing, ", "))
	}
	return nil
}

// Location is "City, State", the country, or "Remote".
func (j *Job) Location() string {
	parts := make([]string, 0, 2)
	for _, p := range []string{j.City, j.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, ", ")
	}
	if country := strings.TrimSpace(j.Country); country != "" {
		return country
	}
	return "Remote"
}

func (j *Job) Type() string {
	if t := strings.TrimSpace(j.EmploymentType); t != "" {
		return t
	}
	return "Full-time"
}

// SalaryText describes the advertised salary range, or "" when none is given.
func (j *Job) SalaryText() string {
	low, high := positive(j.MinSalary), positive(j.MaxSalary)
	suffix := periodSuffix(j.SalaryPeriod)

	switch {
	case low != nil && high != nil:
		return fmt.Sprintf("%s - %s%s", Money(j.SalaryCurrency, *low), Money(j.SalaryCurrency, *high), suffix)
	case low != nil:
		return fmt.Sprintf("From %s%s", Money(j.SalaryCurrency, *low), suffix)
	case high != nil:
		return fmt.Sprintf("Up to %s%s", Money(j.SalaryCurrency, *high), suffix)
	}
	return ""
}

// ShortDescription is the description cut to limit runes.
func (j *Job) ShortDescription(limit int) string {
	description := strings.TrimSpace(j.Description)
	if description == "" {
		return "No description available."
	}
	return utils.Truncate(description, limit)
}

func (j *Job) Posted(now time.Time) string {
	return PostedAgo(j.PostedAt, now)
}

// PostedAgo renders an RFC 3339 timestamp relative to now.
func PostedAgo(posted string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(posted))
	if err != nil {
		return "Recently"
	}

	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "Yesterday"
	}
	return fmt.Sprintf("%d days ago", days)
}

// Money formats an amount with thousands separators, e.g. "$120,000".
func Money(currency string, amount float64) string {
	return currencySymbol(currency) + printer.Sprintf("%d", int64(math.Trunc(amount)))
}

// MoneyOrDash is Money for optional amounts.
func MoneyOrDash(currency string, amount *float64) string {
	if amount == nil {
		return "--"
	}
	return Money(currency, *amount)
}

func currencySymbol(currency string) string {
	switch c := strings.TrimSpace(currency); strings.ToUpper(c) {
	case "", "USD", "$":
		return "$"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "INR":
		return "₹"
	default:
		return c + " "
	}
}

func periodSuffix(period string) string {
	switch strings.ToUpper(strings.TrimSpace(period)) {
	case "", "YEAR":
		return "/year"
	case "MONTH":
		return "/month"
	case "HOUR":
		return "/hour"
	}
	return ""
}

func positive(v *float64) *float64 {
	if v == nil || *v <= 0 {
		return nil
	}
	return v
}
