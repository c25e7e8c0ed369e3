package utils

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// QueryEscape encodes a search term for a query-string parameter.
func QueryEscape(s string) string { return url.QueryEscape(s) }

// PathEscape encodes a value for a URL path segment. Spaces become %20;
// QueryEscape's + would be read as a literal character there.
func PathEscape(s string) string { return url.PathEscape(s) }

// Truncate shortens text to at most maxLen runes, appending an ellipsis.
func Truncate(text string, maxLen int) string {
	if text == "" || maxLen <= 0 {
		return ""
	}
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-1]) + "…"
}

// FormatCount renders a count for display (1200 -> "1.2k").
func FormatCount(n int64) string {
	switch {
	case n >= 1000000:
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	case n >= 1000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// ExtractDomain returns the hostname of a URL without a www. prefix.
func ExtractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "Website"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

var isoDurationRE = regexp.MustCompile(`PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?`)

// FormatISODuration converts an ISO-8601 duration (PT1H2M10S) into a
// display clock like "1:02:10". Returns "" for unparseable input.
func FormatISODuration(iso string) string {
	m := isoDurationRE.FindStringSubmatch(iso)
	if iso == "" || m == nil {
		return ""
	}
	h := atoi(m[1])
	min := atoi(m[2])
	s := atoi(m[3])
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, min, s)
	}
	return fmt.Sprintf("%d:%02d", min, s)
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
