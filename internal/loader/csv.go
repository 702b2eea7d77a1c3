package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ckanutils/ckansync/internal/ckan"
)

// readDelimited parses a delimited file into records keyed by slugified
// header names. Unnamed header columns are dropped, fully empty rows are
// skipped, every value stays a string (the datastore casts on its side).
func readDelimited(path string, delimiter rune) ([]string, []ckan.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1 // ragged rows happen in the wild
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("loader: %s: empty file", path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loader: read header: %w", err)
	}

	// column index -> slug; empty headers are dropped entirely
	names := make([]string, len(header))
	var columns []string
	for i, raw := range header {
		slug := Slugify(raw)
		names[i] = slug
		if slug != "" {
			columns = append(columns, slug)
		}
	}
	if len(columns) == 0 {
		return nil, nil, fmt.Errorf("loader: %s: no usable columns", path)
	}

	var records []ckan.Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("loader: read row: %w", err)
		}

		record := make(ckan.Record, len(columns))
		empty := true
		for i, value := range row {
			if i >= len(names) || names[i] == "" {
				continue
			}
			if value != "" {
				empty = false
			}
			record[names[i]] = value
		}
		if empty {
			continue
		}
		records = append(records, record)
	}

	return columns, records, nil
}
