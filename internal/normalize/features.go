package normalize

import "time"

// Season labels derived from the reading month.
const (
	SeasonWinter = "winter"
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
)

// SeasonForMonth maps a calendar month to its season label. Total for
// months 1-12.
func SeasonForMonth(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return SeasonWinter
	case time.March, time.April, time.May:
		return SeasonSpring
	case time.June, time.July, time.August:
		return SeasonSummer
	default:
		return SeasonAutumn
	}
}

// IsHeatingSeason reports whether the month falls in the October-April
// heating season.
func IsHeatingSeason(month time.Month) bool {
	switch month {
	case time.October, time.November, time.December,
		time.January, time.February, time.March, time.April:
		return true
	}
	return false
}

// QuarterForMonth returns the calendar quarter (1-4) of a month.
func QuarterForMonth(month time.Month) int {
	return (int(month)-1)/3 + 1
}
