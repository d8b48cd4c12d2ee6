// Package canonical loads the external canonical facility dataset used
// by the cross_reference matching strategy.
package canonical

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/minedex/minedex/internal/domain/entities"
)

// Dataset is an in-memory snapshot of the external canonical table.
// It implements ports.CanonicalDataset.
type Dataset struct {
	entries []entities.CanonicalEntry
}

// Entries returns all dataset rows in file order.
func (d *Dataset) Entries() []entities.CanonicalEntry {
	return d.entries
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.entries)
}

// LoadCSV loads the dataset from a CSV file with columns
// id, name, lat, lon, commodities, company_id (commodities is a
// semicolon-separated list). A missing file yields a nil dataset with no
// error: the cross_reference strategy is simply disabled for the run.
func LoadCSV(path string) (*Dataset, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening canonical dataset: %w", err)
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing canonical dataset %s: %w", path, err)
	}
	return d, nil
}

// Parse reads the canonical table from a reader.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}
	for _, col := range []string{"id", "name"} {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	var entries []entities.CanonicalEntry
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}

		get := func(col string) string {
			i, ok := colIndex[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		entry := entities.CanonicalEntry{
			ID:        get("id"),
			Name:      get("name"),
			CompanyID: get("company_id"),
		}
		if entry.ID == "" || entry.Name == "" {
			continue
		}

		if v := get("lat"); v != "" {
			lat, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid lat %q: %w", lineNum, v, err)
			}
			entry.Lat = &lat
		}
		if v := get("lon"); v != "" {
			lon, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid lon %q: %w", lineNum, v, err)
			}
			entry.Lon = &lon
		}
		if v := get("commodities"); v != "" {
			for _, c := range strings.Split(v, ";") {
				if c = strings.TrimSpace(c); c != "" {
					entry.Commodities = append(entry.Commodities, c)
				}
			}
		}

		entries = append(entries, entry)
	}

	return &Dataset{entries: entries}, nil
}
