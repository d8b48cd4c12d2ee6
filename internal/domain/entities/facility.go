// Package entities contains core domain data structures.
package entities

import (
	"fmt"
	"strings"
	"time"
)

// Precision describes how accurately a location pinpoints a facility.
type Precision string

// Location precision levels, from most to least specific.
const (
	PrecisionSite    Precision = "site"
	PrecisionTown    Precision = "town"
	PrecisionRegion  Precision = "region"
	PrecisionCountry Precision = "country"
	PrecisionUnknown Precision = "unknown"
)

// Verification statuses, in increasing order of trust.
const (
	VerificationUnknown  = "unknown"
	VerificationLLM      = "llm_verified"
	VerificationCSV      = "csv_imported"
	VerificationHuman    = "human_verified"
	StatusUnknown        = "unknown"
)

// Location is a geographic point with a stated precision.
// Lat and Lon are always set together; a facility without coordinates
// carries a nil *Location instead.
type Location struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Precision Precision `json:"precision"`
}

// Commodity is a metal or mineral produced at a facility.
// Entries are unique per facility by the case-normalized metal name.
type Commodity struct {
	Metal           string `json:"metal"`
	ChemicalFormula string `json:"chemical_formula,omitempty"`
	Primary         bool   `json:"primary"`
}

// Key returns the case-normalized dedup key for the commodity.
func (c Commodity) Key() string {
	return NormalizeName(c.Metal)
}

// Product is a refined or intermediate output of a facility.
type Product struct {
	Name     string `json:"name"`
	Material string `json:"material,omitempty"`
}

// CompanyLink is a weak reference to a company entity. The facility
// corpus never loads or mutates the referenced company.
type CompanyLink struct {
	CompanyID  string   `json:"company_id"`
	Role       string   `json:"role,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
	Confidence float64  `json:"confidence"`
}

// CompanyMention is a raw company name seen in a source document,
// before resolution against a company registry.
type CompanyMention struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// SourceRef records where a piece of facility data came from.
// References are deduplicated by (Type, ID).
type SourceRef struct {
	Type string    `json:"type"`
	ID   string    `json:"id"`
	URL  string    `json:"url,omitempty"`
	Date time.Time `json:"date,omitzero"`
}

// DedupKey returns the (type, id) identity of the source reference.
func (s SourceRef) DedupKey() string {
	return s.Type + "\x00" + s.ID
}

// Verification tracks how much the record has been checked.
type Verification struct {
	Status      string    `json:"status"`
	Confidence  float64   `json:"confidence"`
	LastChecked time.Time `json:"last_checked,omitzero"`
	Notes       string    `json:"notes,omitempty"`
}

// Facility represents one physical industrial site in the corpus.
type Facility struct {
	FacilityID      string           `json:"facility_id"`
	Name            string           `json:"name"`
	Aliases         []string         `json:"aliases,omitempty"`
	Location        *Location        `json:"location,omitempty"`
	CountryISO3     string           `json:"country_iso3,omitempty"`
	Region          string           `json:"region,omitempty"`
	Town            string           `json:"town,omitempty"`
	Status          string           `json:"status,omitempty"`
	Commodities     []Commodity      `json:"commodities,omitempty"`
	Products        []Product        `json:"products,omitempty"`
	OperatorLink    *CompanyLink     `json:"operator_link,omitempty"`
	OwnerLinks      []CompanyLink    `json:"owner_links,omitempty"`
	CompanyMentions []CompanyMention `json:"company_mentions,omitempty"`
	Sources         []SourceRef      `json:"sources,omitempty"`
	Verification    Verification     `json:"verification"`
	CanonicalName   string           `json:"canonical_name,omitempty"`
	CanonicalSlug   string           `json:"canonical_slug,omitempty"`
	ExternalRefID   string           `json:"external_ref_id,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// NormalizeName converts a name to lowercase for case-insensitive matching.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidationError reports a malformed facility record. Malformed records
// are skipped with a warning; they never participate in matching or merging.
type ValidationError struct {
	FacilityID string
	Field      string
	Message    string
}

func (e *ValidationError) Error() string {
	id := e.FacilityID
	if id == "" {
		id = "<no id>"
	}
	return fmt.Sprintf("facility %s: %s: %s", id, e.Field, e.Message)
}

// Validate checks the record invariants at the corpus boundary.
func (f *Facility) Validate() error {
	if strings.TrimSpace(f.FacilityID) == "" {
		return &ValidationError{FacilityID: f.FacilityID, Field: "facility_id", Message: "missing"}
	}
	if strings.TrimSpace(f.Name) == "" {
		return &ValidationError{FacilityID: f.FacilityID, Field: "name", Message: "missing"}
	}
	if f.Location != nil {
		if f.Location.Precision == "" {
			return &ValidationError{FacilityID: f.FacilityID, Field: "location.precision", Message: "missing for record with coordinates"}
		}
		if f.Location.Lat < -90 || f.Location.Lat > 90 {
			return &ValidationError{FacilityID: f.FacilityID, Field: "location.lat", Message: fmt.Sprintf("out of range: %v", f.Location.Lat)}
		}
		if f.Location.Lon < -180 || f.Location.Lon > 180 {
			return &ValidationError{FacilityID: f.FacilityID, Field: "location.lon", Message: fmt.Sprintf("out of range: %v", f.Location.Lon)}
		}
	}
	if f.Verification.Confidence < 0 || f.Verification.Confidence > 1 {
		return &ValidationError{FacilityID: f.FacilityID, Field: "verification.confidence", Message: fmt.Sprintf("out of [0,1]: %v", f.Verification.Confidence)}
	}
	return nil
}

// HasCoordinates reports whether the facility carries a usable location.
func (f *Facility) HasCoordinates() bool {
	return f.Location != nil
}

// HasAlias reports whether name matches one of the facility's aliases,
// case-insensitively.
func (f *Facility) HasAlias(name string) bool {
	key := NormalizeName(name)
	for _, a := range f.Aliases {
		if NormalizeName(a) == key {
			return true
		}
	}
	return false
}

// CommodityKeys returns the set of case-normalized commodity metals.
func (f *Facility) CommodityKeys() map[string]bool {
	keys := make(map[string]bool, len(f.Commodities))
	for _, c := range f.Commodities {
		if k := c.Key(); k != "" {
			keys[k] = true
		}
	}
	return keys
}

// Clone returns a deep copy of the facility. The merge engine folds
// duplicate groups into a clone so callers see pure, diff-style results.
func (f *Facility) Clone() *Facility {
	out := *f
	if f.Location != nil {
		loc := *f.Location
		out.Location = &loc
	}
	if f.OperatorLink != nil {
		op := *f.OperatorLink
		if f.OperatorLink.Percentage != nil {
			pct := *f.OperatorLink.Percentage
			op.Percentage = &pct
		}
		out.OperatorLink = &op
	}
	out.Aliases = append([]string(nil), f.Aliases...)
	out.Commodities = append([]Commodity(nil), f.Commodities...)
	out.Products = append([]Product(nil), f.Products...)
	out.OwnerLinks = append([]CompanyLink(nil), f.OwnerLinks...)
	for i, l := range out.OwnerLinks {
		if l.Percentage != nil {
			pct := *l.Percentage
			out.OwnerLinks[i].Percentage = &pct
		}
	}
	out.CompanyMentions = append([]CompanyMention(nil), f.CompanyMentions...)
	out.Sources = append([]SourceRef(nil), f.Sources...)
	return &out
}
