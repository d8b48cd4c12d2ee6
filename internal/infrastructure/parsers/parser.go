// Package parsers provides parsers for importing facility records from
// various formats.
package parsers

import (
	"io"
	"path/filepath"
	"strings"
)

// RawCommodity is a commodity entry parsed from an external source.
type RawCommodity struct {
	Metal           string `json:"metal"`
	ChemicalFormula string `json:"chemical_formula,omitempty"`
	Primary         bool   `json:"primary,omitempty"`
}

// RawFacility represents a facility parsed from an external source
// before validation.
type RawFacility struct {
	FacilityID  string         `json:"facility_id,omitempty"`
	Name        string         `json:"name"`
	Aliases     []string       `json:"aliases,omitempty"`
	Lat         *float64       `json:"lat,omitempty"` // Pointers distinguish 0 from unset
	Lon         *float64       `json:"lon,omitempty"`
	Precision   string         `json:"precision,omitempty"`
	CountryISO3 string         `json:"country_iso3,omitempty"`
	Region      string         `json:"region,omitempty"`
	Town        string         `json:"town,omitempty"`
	Status      string         `json:"status,omitempty"`
	Commodities []RawCommodity `json:"commodities,omitempty"`
	OperatorID  string         `json:"operator_company_id,omitempty"`
	SourceType  string         `json:"source_type,omitempty"`
	SourceID    string         `json:"source_id,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	LineNum     int            `json:"-"` // Line number in source file (set by parser)
}

// Parser defines the interface for parsing facility records.
type Parser interface {
	Parse(r io.Reader) ([]RawFacility, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}
