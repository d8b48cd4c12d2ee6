package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CSVParser parses facility records from CSV format.
type CSVParser struct{}

// Parse reads CSV from the reader and returns parsed facilities.
// Required columns: name. Optional columns: facility_id, aliases, lat,
// lon, precision, country_iso3, region, town, status, commodities,
// operator_company_id, source_type, source_id, source_url.
// aliases is a semicolon-separated list; commodities is a
// semicolon-separated list of "metal" or "metal:Formula" entries, the
// first of which is treated as primary.
func (p *CSVParser) Parse(r io.Reader) ([]RawFacility, error) {
	reader := csv.NewReader(r)

	colIndex, err := p.readHeader(reader)
	if err != nil {
		return nil, err
	}

	return p.readRecords(reader, colIndex)
}

// readHeader reads and validates the CSV header row.
func (p *CSVParser) readHeader(reader *csv.Reader) (map[string]int, error) {
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(strings.ToLower(col))] = i
	}

	if _, ok := colIndex["name"]; !ok {
		return nil, fmt.Errorf("missing required column: name")
	}

	return colIndex, nil
}

// readRecords reads all data rows and converts them to RawFacilities.
func (p *CSVParser) readRecords(reader *csv.Reader, colIndex map[string]int) ([]RawFacility, error) {
	var facilities []RawFacility
	lineNum := 1 // Header is line 1

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

		raw := RawFacility{
			FacilityID:  get("facility_id"),
			Name:        get("name"),
			Precision:   get("precision"),
			CountryISO3: get("country_iso3"),
			Region:      get("region"),
			Town:        get("town"),
			Status:      get("status"),
			OperatorID:  get("operator_company_id"),
			SourceType:  get("source_type"),
			SourceID:    get("source_id"),
			SourceURL:   get("source_url"),
			LineNum:     lineNum,
		}

		if v := get("aliases"); v != "" {
			for _, alias := range strings.Split(v, ";") {
				if alias = strings.TrimSpace(alias); alias != "" {
					raw.Aliases = append(raw.Aliases, alias)
				}
			}
		}

		if v := get("lat"); v != "" {
			lat, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid lat %q: %w", lineNum, v, err)
			}
			raw.Lat = &lat
		}
		if v := get("lon"); v != "" {
			lon, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid lon %q: %w", lineNum, v, err)
			}
			raw.Lon = &lon
		}

		raw.Commodities = parseCommodities(get("commodities"))

		facilities = append(facilities, raw)
	}

	return facilities, nil
}

// parseCommodities splits "copper:Cu;nickel" into commodity entries.
// The first entry is the primary commodity.
func parseCommodities(s string) []RawCommodity {
	if s == "" {
		return nil
	}
	var out []RawCommodity
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		entry := RawCommodity{Metal: part, Primary: len(out) == 0}
		if metal, formula, found := strings.Cut(part, ":"); found {
			entry.Metal = strings.TrimSpace(metal)
			entry.ChemicalFormula = strings.TrimSpace(formula)
		}
		out = append(out, entry)
	}
	return out
}
