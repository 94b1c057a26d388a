package ledger

import (
	"fmt"
	"time"
)

const periodLayout = "2006-01"

// Period is a reporting month.
type Period struct {
	Year  int
	Month time.Month
}

// NewPeriod validates a year and month pair.
func NewPeriod(year, month int) (Period, error) {
	if month < 1 || month > 12 {
		return Period{}, fmt.Errorf("invalid month %d", month)
	}
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("invalid year %d", year)
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// ParsePeriod parses YYYY-MM.
func ParsePeriod(s string) (Period, error) {
	t, err := time.Parse(periodLayout, s)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period %q, use YYYY-MM", s)
	}
	return PeriodOf(t), nil
}

// PeriodOf returns the period containing the calendar date of t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Bounds returns the half-open date range [from, to) covered by the period.
func (p Period) Bounds() (from, to time.Time) {
	from = NewDate(p.Year, p.Month, 1)
	return from, from.AddDate(0, 1, 0)
}

// Contains reports whether the calendar date of t falls in the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// CurrentPeriod returns the period containing now, read in UTC.
func CurrentPeriod(now time.Time) Period {
	return PeriodOf(now.UTC())
}
