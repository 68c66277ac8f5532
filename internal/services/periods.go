package services

import (
	"time"
)

// Period label helpers for query responses. Labels and reset triggers share
// one location so "this week's board" and "the week that just reset" agree.

// CurrentISOWeek returns the ISO-8601 week number (1-53) for the current
// date in loc. ISO weeks always start on Monday.
func CurrentISOWeek(loc *time.Location) int {
	return isoWeek(time.Now().In(loc))
}

// CurrentMonthName returns the full month name (e.g. "January") for the
// current date in loc.
func CurrentMonthName(loc *time.Location) string {
	return monthName(time.Now().In(loc))
}

func isoWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

func monthName(t time.Time) string {
	return t.Month().String()
}
