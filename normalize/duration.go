package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// isoDurationRe matches ISO-8601 durations of the shape schema.org uses for
// cookTime/prepTime, e.g. "PT10M", "PT1H30M", "P1DT2H".
var isoDurationRe = regexp.MustCompile(`(?i)^P(?:(\d+)D)?(?:T(?:(\d+(?:\.\d+)?)H)?(?:(\d+(?:\.\d+)?)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

var (
	hourPhraseRe   = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|hr)\b`)
	minutePhraseRe = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:minutes?|mins?|min)\b`)
)

// ParseISODuration converts an ISO-8601 duration string to whole minutes,
// rounded to nearest. Returns false for anything that is not a duration or
// that rounds to a non-positive value.
func ParseISODuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	m := isoDurationRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}

	var minutes float64
	if m[1] != "" {
		d, _ := strconv.ParseFloat(m[1], 64)
		minutes += d * 24 * 60
	}
	if m[2] != "" {
		h, _ := strconv.ParseFloat(m[2], 64)
		minutes += h * 60
	}
	if m[3] != "" {
		mm, _ := strconv.ParseFloat(m[3], 64)
		minutes += mm
	}
	if m[4] != "" {
		sec, _ := strconv.ParseFloat(m[4], 64)
		minutes += sec / 60
	}

	rounded := int(math.Round(minutes))
	if rounded <= 0 {
		return 0, false
	}
	return rounded, true
}

// ParseTimePhrase converts free-text time phrases ("1 hour 30 minutes",
// "45 mins", "2 hrs") to whole minutes.
func ParseTimePhrase(s string) (int, bool) {
	var minutes float64
	found := false

	if m := hourPhraseRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		minutes += h * 60
		found = true
	}
	if m := minutePhraseRe.FindStringSubmatch(s); m != nil {
		mm, _ := strconv.ParseFloat(m[1], 64)
		minutes += mm
		found = true
	}

	if !found {
		return 0, false
	}
	rounded := int(math.Round(minutes))
	if rounded <= 0 {
		return 0, false
	}
	return rounded, true
}

// ParseMinutes accepts a bare number of minutes, an ISO-8601 duration, or a
// free-text time phrase, in that order of preference.
func ParseMinutes(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		rounded := int(math.Round(n))
		if rounded <= 0 {
			return 0, false
		}
		return rounded, true
	}
	if n, ok := ParseISODuration(s); ok {
		return n, true
	}
	return ParseTimePhrase(s)
}
