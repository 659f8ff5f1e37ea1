package racing

import (
	"context"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Extractor is implemented by every page-kind extractor. Init fetches and
// parses; Data returns the resulting table with a contiguous row order.
// Data on an extractor whose Init has not succeeded returns an empty table.
type Extractor interface {
	Init(ctx context.Context) error
	Data() dataframe.DataFrame
}

// DateLayout is how dates are rendered in tables.
const DateLayout = "2006-01-02"

// IntColumn builds an int column where nil becomes NaN.
func IntColumn(name string, values []*int) series.Series {
	elems := make([]interface{}, len(values))
	for i, v := range values {
		if v != nil {
			elems[i] = *v
		}
	}
	return series.New(elems, series.Int, name)
}

// FloatColumn builds a float column where nil becomes NaN.
func FloatColumn(name string, values []*float64) series.Series {
	elems := make([]interface{}, len(values))
	for i, v := range values {
		if v != nil {
			elems[i] = *v
		}
	}
	return series.New(elems, series.Float, name)
}

// DateColumn builds a string column of dates in DateLayout.
func DateColumn(name string, values []time.Time) series.Series {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.Format(DateLayout)
	}
	return series.New(out, series.String, name)
}

// Empty is the table returned before a successful Init.
func Empty() dataframe.DataFrame {
	return dataframe.New()
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
