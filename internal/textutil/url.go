package textutil

import (
	"fmt"
	"strings"

	"github.com/xlatombet/abt/internal/racing"
)

// LastSegment returns the final path segment of a URL-like string after
// dropping one trailing "/". It is how horse and trainer ids are derived
// from netkeiba profile links such as "https://db.netkeiba.com/horse/2019104251/".
func LastSegment(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	s = strings.TrimSuffix(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "", fmt.Errorf("%w: %q", racing.ErrMalformedURL, rawURL)
	}
	return s, nil
}
