package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestISOWeek(t *testing.T) {
	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{
			name: "mid-year Monday",
			date: time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC),
			want: 36,
		},
		{
			name: "Jan 1 belonging to previous ISO year",
			date: time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
			want: 53,
		},
		{
			name: "late December belonging to week 1 of next ISO year",
			date: time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isoWeek(tt.date))
		})
	}
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "January", monthName(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "December", monthName(time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func TestCurrentHelpersUseLocation(t *testing.T) {
	// Both helpers must agree with the plain computations for "now" in the
	// same location.
	now := time.Now().In(time.UTC)
	assert.Equal(t, isoWeek(now), CurrentISOWeek(time.UTC))
	assert.Equal(t, monthName(now), CurrentMonthName(time.UTC))
}
