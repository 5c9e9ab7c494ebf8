package absence

import (
	"regexp"
	"strconv"
	"strings"
)

var durationToken = regexp.MustCompile(`\b(\d{1,3}:[0-5]\d(?::[0-5]\d)?)\b`)

// ParseDuration converts an "HH:MM" (or "HH:MM:SS") string into fractional
// hours. Empty, "00:00" and malformed values yield 0.
func ParseDuration(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "00:00" {
		return 0
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes >= 60 {
		return 0
	}
	seconds := 0
	if len(parts) == 3 {
		seconds, err = strconv.Atoi(parts[2])
		if err != nil || seconds < 0 || seconds >= 60 {
			return 0
		}
	}

	return float64(hours) + float64(minutes)/60 + float64(seconds)/3600
}

// FindDuration parses the first "HH:MM" token found inside free text,
// e.g. "Atraso 01:15". Returns 0 when there is none.
func FindDuration(text string) float64 {
	m := durationToken.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	return ParseDuration(m[1])
}
