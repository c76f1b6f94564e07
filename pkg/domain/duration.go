package domain

import (
	"strconv"
	"strings"
)

// ParseDuration converts a compact media-duration string into seconds.
// Accepted forms: ISO-8601 like "PT1H2M3S", colon-separated like "1:02:03"
// or "12:34", and bare seconds like "754". Returns false for anything else,
// including the empty string.
func ParseDuration(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if strings.HasPrefix(s, "PT") || strings.HasPrefix(s, "pt") {
		return parseISODuration(s[2:])
	}

	if strings.Contains(s, ":") {
		return parseColonDuration(s)
	}

	secs, err := strconv.Atoi(s)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs, true
}

// parseISODuration handles the time part of an ISO-8601 duration: a sequence
// of number+designator pairs, H then M then S, each optional.
func parseISODuration(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	total, num := 0, 0
	seen := false
	for _, r := range strings.ToUpper(s) {
		switch {
		case r >= '0' && r <= '9':
			num = num*10 + int(r-'0')
			seen = true
		case r == 'H':
			if !seen {
				return 0, false
			}
			total += num * 3600
			num, seen = 0, false
		case r == 'M':
			if !seen {
				return 0, false
			}
			total += num * 60
			num, seen = 0, false
		case r == 'S':
			if !seen {
				return 0, false
			}
			total += num
			num, seen = 0, false
		default:
			return 0, false
		}
	}
	if seen { // trailing digits without a designator
		return 0, false
	}
	return total, true
}

// parseColonDuration handles H:MM:SS and MM:SS forms
func parseColonDuration(s string) (int, bool) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return total, true
}
