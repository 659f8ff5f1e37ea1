package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xlatombet/abt/internal/racing"
)

var (
	digitsPattern = regexp.MustCompile(`\d+`)

	// Weekday annotations, in ASCII or full-width parentheses. Segments
	// holding digits are kept so a bracketed date survives.
	parenPattern = regexp.MustCompile(`[（(][^（）()0-9０-９]*[）)]`)
)

// Markers returns the runes of s that are one of markers, in order of
// appearance, joined by sep. No marker present yields "".
func Markers(s string, markers []string, sep string) string {
	s = strings.TrimSpace(s)
	found := make([]string, 0)
	for _, r := range s {
		ch := string(r)
		for _, m := range markers {
			if ch == m {
				found = append(found, ch)
				break
			}
		}
	}
	return strings.Join(found, sep)
}

// ContainsAny reports whether s contains any of markers.
func ContainsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// FirstInt returns the first run of digits in s.
func FirstInt(s string) (int, error) {
	m := digitsPattern.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, racing.Malformed("number", s)
	}
	return strconv.Atoi(m)
}

// Ints returns every run of digits in s.
func Ints(s string) []int {
	matches := digitsPattern.FindAllString(s, -1)
	out := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// CaptureOne returns the first submatch group of re in s and requires the
// pattern to match exactly once. A repeated match is both an
// ErrAmbiguousMatch and an ErrMalformedLabel.
func CaptureOne(re *regexp.Regexp, s, field string) (string, error) {
	matches := re.FindAllStringSubmatch(s, -1)
	switch {
	case len(matches) == 0:
		return "", racing.Malformed(field, s)
	case len(matches) > 1:
		return "", fmt.Errorf("%w: %w: %d %s in %q",
			racing.ErrMalformedLabel, racing.ErrAmbiguousMatch, len(matches), field, s)
	}
	return matches[0][1], nil
}

// CaptureInt is CaptureOne for a digit group.
func CaptureInt(re *regexp.Regexp, s, field string) (int, error) {
	v, err := CaptureOne(re, s, field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, racing.Malformed(field, s)
	}
	return n, nil
}

// StripParens removes parenthesized segments without digits, e.g. a weekday.
func StripParens(s string) string {
	return parenPattern.ReplaceAllString(s, "")
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
