package pos

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar day in the business time zone
// =============================================================================

// DayLayout is the wire and storage format of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar day such as "2025-03-10". It carries no zone; the
// zone is supplied when converting to instants.
type Day string

// DayOf returns the calendar day of t in loc.
func DayOf(t time.Time, loc *time.Location) Day {
	return Day(t.In(loc).Format(DayLayout))
}

// ParseDay validates s as YYYY-MM-DD.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", &ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", s)}
	}
	return Day(s), nil
}

func (d Day) String() string { return string(d) }

func (d Day) date() time.Time {
	t, _ := time.Parse(DayLayout, string(d))
	return t
}

// Start returns midnight at the beginning of the day in loc.
func (d Day) Start(loc *time.Location) time.Time {
	t := d.date()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// End returns midnight at the beginning of the following day in loc.
// Use it as an exclusive bound.
func (d Day) End(loc *time.Location) time.Time {
	t := d.date()
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}

// Contains reports whether t falls within the day in loc.
func (d Day) Contains(t time.Time, loc *time.Location) bool {
	return !t.Before(d.Start(loc)) && t.Before(d.End(loc))
}

func (d Day) AddDays(n int) Day {
	return Day(d.date().AddDate(0, 0, n).Format(DayLayout))
}

func (d Day) Prev() Day { return d.AddDays(-1) }

// Filter returns the SaleFilter selecting the day's sales.
func (d Day) Filter(loc *time.Location) SaleFilter {
	return SaleFilter{From: d.Start(loc).UTC(), To: d.End(loc).UTC()}
}
