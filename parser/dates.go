package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// FixDate normalizes a workshop date string using the current
// calendar year.
func FixDate(date string) string {
	return FixDateAt(date, time.Now())
}

// FixDateAt stamps dates that arrive without an explicit year with
// the year of now, and standardizes the " @ " separator on dates that
// already carry one. Sentinel values pass through untouched so a
// missing-data default never gets a fabricated year.
func FixDateAt(date string, now time.Time) string {
	if date == UnknownValue || date == UnknownSize {
		return date
	}

	if yearPattern.MatchString(date) {
		// Already dated; only standardize the separator.
		return strings.ReplaceAll(date, " @ ", ", ")
	}

	year := now.Year()

	if strings.Contains(date, " @ ") {
		// Format: "1 Jan @ 12:20pm"
		parts := strings.SplitN(date, " @ ", 2)
		return fmt.Sprintf("%s, %d, %s", parts[0], year, parts[1])
	}

	if parts := strings.Split(date, ", "); len(parts) >= 2 {
		// Format: "1 Jan, 12:20pm" (comma but no year)
		return fmt.Sprintf("%s, %d, %s", parts[0], year, strings.Join(parts[1:], ", "))
	}

	return strings.ReplaceAll(date, " @ ", ", ")
}
