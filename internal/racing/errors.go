package racing

import (
	"errors"
	"fmt"
)

// Extraction failures. Extractors wrap these with context via fmt.Errorf,
// so callers should match them with errors.Is.
var (
	// ErrMissingField means a required label or cell is absent.
	ErrMissingField = errors.New("missing field")

	// ErrAmbiguousMatch means more than one match was found where exactly
	// one was expected.
	ErrAmbiguousMatch = errors.New("ambiguous match")

	// ErrAmbiguousDate is the ErrAmbiguousMatch raised for date labels.
	ErrAmbiguousDate = fmt.Errorf("ambiguous date: %w", ErrAmbiguousMatch)

	// ErrMalformedLabel means a composite label did not match its pattern.
	ErrMalformedLabel = errors.New("malformed label")

	// ErrMalformedURL means no path segment could be derived from a URL.
	ErrMalformedURL = errors.New("malformed url")

	// ErrUnknownLocation means a racecourse has no code in the table.
	ErrUnknownLocation = errors.New("unknown location")

	// ErrFetch means page retrieval failed.
	ErrFetch = errors.New("fetch failed")

	// ErrUnknownCategory means a row category has no registered handler.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrDuplicateCategory means a handler was registered twice.
	ErrDuplicateCategory = errors.New("duplicate category")
)

// Missing returns ErrMissingField annotated with what was looked for.
func Missing(what string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, what)
}

// Malformed returns ErrMalformedLabel annotated with the field and text.
func Malformed(field, text string) error {
	return fmt.Errorf("%w: %s %q", ErrMalformedLabel, field, text)
}
