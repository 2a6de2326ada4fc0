package engine

import (
	"fmt"
	"time"

	"github.com/tartampluch/go-eventtracker/internal/config"
)

const hoursPerDay = 24

// Date is a calendar date without time of day or zone.
// Recurring events are defined by the local calendar date, not an instant,
// so the engine never compares time.Time values directly.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date without validating it. Use IsValid to check.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses the ISO 8601 extended form YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(config.DateFormatISO, s)
	if err != nil {
		return Date{}, fmt.Errorf("%s: %q: %w", config.ErrDateFormat, s, err)
	}
	return DateOf(t), nil
}

// String renders the date as YYYY-MM-DD regardless of locale.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsValid reports whether the date exists in the proleptic Gregorian calendar.
func (d Date) IsValid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	return d.Day <= daysIn(d.Year, d.Month)
}

// Validate is IsValid with an error suitable for callers.
func (d Date) Validate() error {
	if !d.IsValid() {
		return fmt.Errorf("%s: %s", config.ErrDateInvalid, d)
	}
	return nil
}

// Time returns midnight UTC of the date. The result is only meaningful for valid dates.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// DaysUntil returns the number of days from d to o (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours() / hoursPerDay)
}

// AddYears moves the date by n years keeping month and day.
// Feb 29 becomes Feb 28 when the target year is not a leap year.
func (d Date) AddYears(n int) Date {
	out := Date{Year: d.Year + n, Month: d.Month, Day: d.Day}
	if last := daysIn(out.Year, out.Month); out.Day > last {
		out.Day = last
	}
	return out
}

// IsLeapYear reports whether year has a Feb 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysIn(year int, month time.Month) int {
	if month == time.February && IsLeapYear(year) {
		return 29
	}
	return [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}[month-1]
}
