// Package handlers wires the resolution services to the CLI commands at
// the application layer.
package handlers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minedex/minedex/internal/domain/entities"
	"github.com/minedex/minedex/internal/domain/ports"
	"github.com/minedex/minedex/internal/domain/services"
	"github.com/minedex/minedex/internal/infrastructure/parsers"
)

// DefaultDuplicateThreshold is the ranked confidence at which an
// imported record is held back as a likely duplicate.
const DefaultDuplicateThreshold = 0.90

// slugGeohashLen is the geohash prefix length used as a slug
// disambiguator (~1.2 km cells).
const slugGeohashLen = 6

// ImportHandler imports facility records from files, screening each one
// against the existing corpus before it is admitted.
type ImportHandler struct {
	store   ports.CorpusStore
	matcher *services.Matcher
	log     *zap.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(store ports.CorpusStore, matcher *services.Matcher, log *zap.Logger) *ImportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ImportHandler{store: store, matcher: matcher, log: log}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format             string  // "json", "csv", or "auto"
	DryRun             bool    // Validate and match without saving
	AllowDuplicates    bool    // Import records even when a likely duplicate exists
	DuplicateThreshold float64 // Confidence cutoff; 0 means DefaultDuplicateThreshold
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// DuplicateReport names an incoming record held back because it matched
// an existing facility.
type DuplicateReport struct {
	Line      int
	Name      string
	Candidate entities.Candidate
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported   int
	Skipped    int
	Duplicates []DuplicateReport
	Errors     []ImportError
}

// Handle imports facility records from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}
	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	raws, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	if len(raws) == 0 {
		return &ImportResult{}, nil
	}

	corpus, err := h.store.ListFacilities(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}

	// Slug uniqueness is corpus-wide: seed the registry before the batch.
	registry := services.NewSlugRegistry()
	slugs, err := h.store.LoadSlugs(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading slugs: %w", err)
	}
	registry.LoadExisting(slugs)

	threshold := opts.DuplicateThreshold
	if threshold == 0 {
		threshold = DefaultDuplicateThreshold
	}

	result := &ImportResult{}
	for _, raw := range raws {
		fac, importErr := facilityFromRaw(raw)
		if importErr != nil {
			result.Errors = append(result.Errors, *importErr)
			continue
		}

		ranked := services.Rank(h.matcher.FindDuplicates(fac, corpus))
		if len(ranked) > 0 && ranked[0].Confidence >= threshold && !opts.AllowDuplicates {
			result.Skipped++
			result.Duplicates = append(result.Duplicates, DuplicateReport{
				Line:      raw.LineNum,
				Name:      fac.Name,
				Candidate: ranked[0],
			})
			continue
		}

		assignSlug(fac, registry)

		if !opts.DryRun {
			if err := h.store.SaveFacility(ctx, fac); err != nil {
				return nil, fmt.Errorf("saving facility %s: %w", fac.FacilityID, err)
			}
		}
		// Later rows in the same batch must match against this one too.
		corpus = append(corpus, fac)
		result.Imported++
	}

	return result, nil
}

// facilityFromRaw converts a parsed record into a validated Facility.
func facilityFromRaw(raw parsers.RawFacility) (*entities.Facility, *ImportError) {
	if (raw.Lat == nil) != (raw.Lon == nil) {
		return nil, &ImportError{Line: raw.LineNum, Field: "lat/lon", Message: "lat and lon must be set together"}
	}

	fac := &entities.Facility{
		FacilityID:  raw.FacilityID,
		Name:        raw.Name,
		Aliases:     raw.Aliases,
		CountryISO3: raw.CountryISO3,
		Region:      raw.Region,
		Town:        raw.Town,
		Status:      raw.Status,
		Verification: entities.Verification{
			Status:      entities.VerificationCSV,
			Confidence:  0.8,
			LastChecked: time.Now().UTC(),
		},
	}
	if fac.FacilityID == "" {
		fac.FacilityID = "fac-" + uuid.New().String()
	}

	if raw.Lat != nil {
		precision := entities.Precision(raw.Precision)
		if precision == "" {
			precision = entities.PrecisionSite
		}
		fac.Location = &entities.Location{Lat: *raw.Lat, Lon: *raw.Lon, Precision: precision}
	}

	for _, c := range raw.Commodities {
		fac.Commodities = append(fac.Commodities, entities.Commodity{
			Metal:           c.Metal,
			ChemicalFormula: c.ChemicalFormula,
			Primary:         c.Primary,
		})
	}

	if raw.OperatorID != "" {
		fac.OperatorLink = &entities.CompanyLink{CompanyID: raw.OperatorID, Role: "operator", Confidence: 0.8}
	}

	if raw.SourceType != "" || raw.SourceID != "" {
		fac.Sources = append(fac.Sources, entities.SourceRef{
			Type: raw.SourceType,
			ID:   raw.SourceID,
			URL:  raw.SourceURL,
			Date: time.Now().UTC(),
		})
	}

	if err := fac.Validate(); err != nil {
		return nil, &ImportError{Line: raw.LineNum, Field: "record", Message: err.Error()}
	}
	return fac, nil
}

// assignSlug gives a facility its canonical name and a corpus-unique slug.
func assignSlug(fac *entities.Facility, registry *services.SlugRegistry) {
	if fac.CanonicalName == "" {
		fac.CanonicalName = fac.Name
	}
	if fac.CanonicalSlug != "" {
		return
	}
	var gh string
	if fac.HasCoordinates() {
		gh = services.GeohashPrefix(fac.Location.Lat, fac.Location.Lon, slugGeohashLen)
	}
	fac.CanonicalSlug = registry.Unique(services.Slugify(fac.CanonicalName), fac.Region, fac.Town, gh)
}
