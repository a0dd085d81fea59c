package normalize

import (
	"testing"
	"time"
)

func TestSeasonForMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  string
	}{
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.April, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.July, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonAutumn},
		{time.October, SeasonAutumn},
		{time.November, SeasonAutumn},
		{time.December, SeasonWinter},
	}

	for _, tt := range tests {
		if got := SeasonForMonth(tt.month); got != tt.want {
			t.Errorf("SeasonForMonth(%v) = %q, want %q", tt.month, got, tt.want)
		}
	}
}

func TestIsHeatingSeason(t *testing.T) {
	heating := map[time.Month]bool{
		time.January:   true,
		time.February:  true,
		time.March:     true,
		time.April:     true,
		time.May:       false,
		time.June:      false,
		time.July:      false,
		time.August:    false,
		time.September: false,
		time.October:   true,
		time.November:  true,
		time.December:  true,
	}

	for month, want := range heating {
		if got := IsHeatingSeason(month); got != want {
			t.Errorf("IsHeatingSeason(%v) = %v, want %v", month, got, want)
		}
	}
}

func TestQuarterForMonth(t *testing.T) {
	tests := []struct {
		month time.Month
		want  int
	}{
		{time.January, 1},
		{time.March, 1},
		{time.April, 2},
		{time.June, 2},
		{time.July, 3},
		{time.September, 3},
		{time.October, 4},
		{time.December, 4},
	}

	for _, tt := range tests {
		if got := QuarterForMonth(tt.month); got != tt.want {
			t.Errorf("QuarterForMonth(%v) = %d, want %d", tt.month, got, tt.want)
		}
	}
}
