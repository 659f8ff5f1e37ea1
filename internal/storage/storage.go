package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-gota/gota/dataframe"
)

// Format is a table file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat accepts "csv" or "json" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("invalid storage format: %s (must be 'csv' or 'json')", s)
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Storage handles persistence of extracted tables
type Storage struct {
	dataDir string
}

// New creates a new Storage instance
func New(dataDir string) (*Storage, error) {
	// Expand ~ to home directory
	if dataDir == "~" || strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, strings.TrimPrefix(dataDir[1:], "/"))
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &Storage{
		dataDir: dataDir,
	}, nil
}

// Dir returns the expanded data directory.
func (s *Storage) Dir() string {
	return s.dataDir
}

// Path returns the file a table is stored in. Characters outside
// [A-Za-z0-9._-] in name are replaced by "_".
func (s *Storage) Path(name string, format Format) string {
	name = unsafeName.ReplaceAllString(name, "_")
	return filepath.Join(s.dataDir, name+"."+string(format))
}

// SaveTable writes df and returns the file path.
func (s *Storage) SaveTable(name string, df dataframe.DataFrame, format Format) (string, error) {
	if df.Err != nil {
		return "", fmt.Errorf("saving %s: %w", name, df.Err)
	}
	path := s.Path(name, format)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating table file: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatCSV:
		err = df.WriteCSV(f)
	case FormatJSON:
		err = df.WriteJSON(f)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return "", fmt.Errorf("writing table %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing table file: %w", err)
	}
	return path, nil
}

// LoadTable reads a table written by SaveTable. Column types are inferred.
func (s *Storage) LoadTable(name string, format Format) (dataframe.DataFrame, error) {
	f, err := os.Open(s.Path(name, format))
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("reading table: %w", err)
	}
	defer f.Close()

	var df dataframe.DataFrame
	switch format {
	case FormatCSV:
		df = dataframe.ReadCSV(f)
	case FormatJSON:
		df = dataframe.ReadJSON(f)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("unsupported format %q", format)
	}
	if df.Err != nil {
		return df, fmt.Errorf("parsing table %s: %w", name, df.Err)
	}
	return df, nil
}
