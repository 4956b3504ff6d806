package render

import (
	"fmt"
	"io"

	"github.com/spigell/skillmatch/internal/jsearch"
)

// Salary writes a salary estimate for title in location.
func Salary(w io.Writer, format Format, title, location string, estimate *jsearch.SalaryEstimate) error {
	if format != FormatTable {
		return encode(w, format, estimate)
	}

	currency := estimate.SalaryCurrency

	heading.Fprintf(w, "Salary Estimate for %s in %s\n", title, location)
	fmt.Fprintf(w, "  %-8s %s\n", "Minimum", jsearch.MoneyOrDash(currency, estimate.MinSalary))
	fmt.Fprintf(w, "  %-8s %s\n", "Median", jsearch.MoneyOrDash(currency, estimate.MedianSalary))
	fmt.Fprintf(w, "  %-8s %s\n", "Maximum", jsearch.MoneyOrDash(currency, estimate.MaxSalary))
	_, err := muted.Fprintf(w, "Source: %s • Last updated: %s\n", estimate.Source(), estimate.Updated())
	return err
}
