package types

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Day is a calendar day in ISO-8601 form ("2006-01-02"). Due-date
// comparisons ignore time-of-day, so scheduling logic works on Day values
// instead of wall-clock instants. The ISO form makes string ordering equal
// to chronological ordering.
type Day string

const (
	EmptyDay  Day = ""
	dayLayout     = "2006-01-02"
)

// DayOf truncates t to its calendar day in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(dayLayout))
}

func (d Day) String() string {
	return string(d)
}

func (d Day) Validate() error {
	if _, err := time.Parse(dayLayout, string(d)); err != nil {
		return goerr.Wrap(err, "invalid day format", goerr.V("day", d))
	}
	return nil
}

// Time returns midnight of the day in the given location.
func (d Day) Time(loc *time.Location) time.Time {
	t, err := time.ParseInLocation(dayLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns a new Day offset by n calendar days.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time(time.UTC).AddDate(0, 0, n))
}

func (d Day) Before(other Day) bool {
	return d != EmptyDay && other != EmptyDay && d < other
}

func (d Day) After(other Day) bool {
	return d != EmptyDay && other != EmptyDay && d > other
}
