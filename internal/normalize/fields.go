package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldError reports a field-level parse failure. Field failures never
// propagate past the cleaners; callers resolve them to a null value
// and leave row survival to the validator.
type FieldError struct {
	Field  string
	Value  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s (value %q)", e.Field, e.Reason, e.Value)
}

const nonBreakingSpace = " "

// isPlaceholder reports whether a trimmed value is one of the empty
// markers the source system emits instead of a blank cell.
func isPlaceholder(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none":
		return true
	}
	return false
}

// CleanDate parses a reading date in DD.MM.YYYY or DD.MM.YY form and
// normalizes it to a calendar date. Non-digit characters inside each
// part are stripped. Two-digit years pivot at 50: 00-49 map to 20xx,
// 50-99 to 19xx. Already-normalized ISO dates pass through unchanged,
// which makes the cleaner idempotent.
func CleanDate(value string) (time.Time, error) {
	s := strings.TrimSpace(value)
	if isPlaceholder(s) {
		return time.Time{}, &FieldError{Field: "reading_date", Value: value, Reason: "empty or placeholder"}
	}

	if !strings.Contains(s, ".") {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t, nil
		}
		return time.Time{}, &FieldError{Field: "reading_date", Value: value, Reason: "unrecognized format"}
	}

	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return time.Time{}, &FieldError{Field: "reading_date", Value: value, Reason: "expected day.month.year"}
	}

	day := digitsOnly(parts[0])
	month := digitsOnly(parts[1])
	year := digitsOnly(parts[2])
	if day == "" || month == "" || year == "" {
		return time.Time{}, &FieldError{Field: "reading_date", Value: value, Reason: "non-numeric date part"}
	}

	switch len(year) {
	case 2:
		yy, _ := strconv.Atoi(year)
		if yy < 50 {
			year = "20" + year
		} else {
			year = "19" + year
		}
	case 4:
		// Four-digit years pass through.
	default:
		return time.Time{}, &FieldError{Field: "reading_date", Value: value, Reason: "invalid year length"}
	}

	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, &FieldError{Field: "reading_date", Value: value, Reason: "day or month out of range"}
	}

	return t, nil
}

// CleanMeterID strips every non-digit character from a meter
// identifier. The result may be empty, which the row validator treats
// as a missing required field.
func CleanMeterID(value string) string {
	return digitsOnly(value)
}

// CleanConsumption parses a locale-formatted consumption value:
// thousands separated by regular or non-breaking spaces, comma as the
// decimal separator. After stripping, only digits, dots and minus
// signs remain; whatever strconv.ParseFloat rejects (for example a
// multi-dot residue like "12.3.4") resolves to a parse failure rather
// than a guessed number.
func CleanConsumption(value string) (float64, error) {
	s := strings.TrimSpace(value)
	if isPlaceholder(s) {
		return 0, &FieldError{Field: "consumption", Value: value, Reason: "empty or placeholder"}
	}

	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, nonBreakingSpace, "")
	s = strings.ReplaceAll(s, ",", ".")

	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	if cleaned == "" || cleaned == "-" {
		return 0, &FieldError{Field: "consumption", Value: value, Reason: "no numeric content"}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, &FieldError{Field: "consumption", Value: value, Reason: "not a number"}
	}

	return f, nil
}

// CleanText normalizes a free-text field: trims surrounding space,
// strips embedded quote characters and replaces non-breaking spaces
// with ordinary ones. It is total and never fails.
func CleanText(value string) string {
	s := strings.TrimSpace(value)
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, nonBreakingSpace, " ")
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
