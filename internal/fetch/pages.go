package fetch

import (
	"context"
	"net/http"

	"github.com/xlatombet/abt/internal/document"
)

// Pages is an in-memory Fetcher keyed by URL. Unknown URLs fail with a 404
// *Error, the same way Client reports a missing page.
type Pages map[string]string

// Fetch parses the stored page for url.
func (p Pages) Fetch(_ context.Context, url string) (document.Node, error) {
	page, ok := p[url]
	if !ok {
		return nil, &Error{URL: url, StatusCode: http.StatusNotFound}
	}
	doc, err := document.ParseString(page)
	if err != nil {
		return nil, &Error{URL: url, Err: err}
	}
	return doc, nil
}
