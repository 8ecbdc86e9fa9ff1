package models

import "time"

const secondsPerDay = 24 * 60 * 60

// Day truncates t to midnight UTC of its calendar day. Circulation dates
// carry no time of day; every comparison goes through Day first.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EpochDay is the number of calendar days between 1970-01-01 and t in UTC.
func EpochDay(t time.Time) int64 {
	return Day(t).Unix() / secondsPerDay
}

// DaysBetween counts calendar days from a to b; negative when b is earlier.
func DaysBetween(a, b time.Time) int64 {
	return EpochDay(b) - EpochDay(a)
}

// DateLayout is the wire format of circulation dates.
const DateLayout = time.DateOnly

// ParseDate parses a YYYY-MM-DD date as a UTC calendar day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDate renders t's UTC calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}
