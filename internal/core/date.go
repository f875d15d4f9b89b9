package core

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// CalendarDate is a local calendar day in YYYY-MM-DD form. String order is
// chronological order.
type CalendarDate string

// DateOf normalises t to its local calendar date.
func DateOf(t time.Time) CalendarDate {
	return CalendarDate(t.In(time.Local).Format(dateLayout))
}

// Today returns the current local calendar date.
func Today() CalendarDate {
	return DateOf(time.Now())
}

// ParseCalendarDate accepts YYYY-MM-DD and rejects anything else, including
// impossible days such as 2024-02-30.
func ParseCalendarDate(s string) (CalendarDate, error) {
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return "", ErrInvalidDate
	}
	return DateOf(t), nil
}

func (d CalendarDate) Validate() error {
	_, err := ParseCalendarDate(string(d))
	return err
}

func (d CalendarDate) String() string {
	return string(d)
}

// Time returns midnight of d in the local zone.
func (d CalendarDate) Time() time.Time {
	t, _ := time.ParseInLocation(dateLayout, string(d), time.Local)
	return t
}

// After reports whether d falls strictly later than other.
func (d CalendarDate) After(other CalendarDate) bool {
	return d > other
}
