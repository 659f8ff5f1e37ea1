package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatCSV  OutputFormat = "csv"
)

// ParseOutputFormat validates a --format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	}
	return "", fmt.Errorf("invalid format: %s (must be 'text', 'json' or 'csv')", s)
}

// OutputResult contains data to be output
type OutputResult struct {
	// Name is the file name used by --save.
	Name  string
	Title string
	Table dataframe.DataFrame
	// Notes are printed under the table in text mode only.
	Notes []string
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return result.Table.WriteJSON(w)
	case FormatCSV:
		return result.Table.WriteCSV(w)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeText renders the table with go-pretty
func writeText(w io.Writer, result *OutputResult) error {
	if result.Table.Nrow() == 0 {
		fmt.Fprintln(w, "No rows found.")
		writeNotes(w, result.Notes)
		return nil
	}

	if result.Title != "" {
		fmt.Fprintln(w, result.Title)
	}

	records := result.Table.Records()
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(toRow(records[0]))
	for _, rec := range records[1:] {
		t.AppendRow(toRow(rec))
	}
	t.SetStyle(table.StyleRounded)
	// Column names are printed as they appear in json and csv output.
	t.Style().Format.Header = text.FormatDefault
	t.Render()

	writeNotes(w, result.Notes)
	fmt.Fprintf(w, "\nTotal: %d rows\n", result.Table.Nrow())
	return nil
}

func writeNotes(w io.Writer, notes []string) {
	for _, note := range notes {
		fmt.Fprintln(w, note)
	}
}

func toRow(rec []string) table.Row {
	row := make(table.Row, len(rec))
	for i, v := range rec {
		row[i] = v
	}
	return row
}

func raceIDTable(id, shutubaURL, resultURL string) dataframe.DataFrame {
	return dataframe.New(
		series.New([]string{id}, series.String, "raceId"),
		series.New([]string{shutubaURL}, series.String, "netkeibaURL"),
		series.New([]string{resultURL}, series.String, "resultURL"),
	)
}
