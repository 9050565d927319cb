package core

import (
	"regexp"
	"time"
)

// DateLayout is the storage format of every calendar date.
const DateLayout = "2006-01-02"

var monthKeyRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Date is a calendar date at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string. Impossible dates such as 2023-02-30 are rejected.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM prefix used to group by month.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// AddDays shifts the date by n days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.Time.AddDate(0, 0, n)}
}

// AddMonths shifts the date by n calendar months keeping the day of month. When the day
// does not exist in the target month it is clamped to that month's last day, so Jan 31
// plus one month is Feb 28 (or 29), never Mar 2 or 3.
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return NewDate(first.Year(), int(first.Month()), day)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidMonthKey reports whether s looks like YYYY-MM.
func ValidMonthKey(s string) bool {
	return monthKeyRe.MatchString(s)
}
