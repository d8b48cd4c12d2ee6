package services

import (
	"fmt"
	"regexp"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

var (
	// reSlugInvalid matches characters that can't appear in a slug.
	reSlugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	// reSlugDashes matches consecutive dashes.
	reSlugDashes = regexp.MustCompile(`-+`)
)

// Slugify converts a display name into a URL-safe slug: lowercased,
// non-alphanumerics collapsed to single dashes, trimmed.
func Slugify(s string) string {
	out := strings.ToLower(strings.TrimSpace(s))
	out = strings.ReplaceAll(out, " ", "-")
	out = reSlugInvalid.ReplaceAllString(out, "-")
	out = reSlugDashes.ReplaceAllString(out, "-")
	return strings.Trim(out, "-")
}

// GeohashPrefix returns the first n characters of the geohash for a
// coordinate, used as a slug disambiguator.
func GeohashPrefix(lat, lon float64, n int) string {
	gh := geohash.Encode(lat, lon)
	if n > 0 && len(gh) > n {
		gh = gh[:n]
	}
	return gh
}

// SlugRegistry assigns corpus-wide-unique canonical slugs. Uniqueness is
// a corpus invariant, not a per-batch one: seed the registry with every
// already-assigned slug via LoadExisting before processing a new batch.
// The registry owns its seen-set explicitly, so independent batches each
// get their own seeded instance and stay unit-testable.
type SlugRegistry struct {
	seen map[string]struct{}
}

// NewSlugRegistry creates an empty registry.
func NewSlugRegistry() *SlugRegistry {
	return &SlugRegistry{seen: make(map[string]struct{})}
}

// LoadExisting seeds the registry with slugs already assigned elsewhere
// in the corpus.
func (r *SlugRegistry) LoadExisting(slugs []string) {
	for _, s := range slugs {
		if s != "" {
			r.seen[s] = struct{}{}
		}
	}
}

// Len returns the number of reserved slugs.
func (r *SlugRegistry) Len() int {
	return len(r.seen)
}

// Unique returns baseSlug if it is free, otherwise disambiguates in
// strict order: slugified region, slugified town, geohash prefix, then a
// numeric suffix starting at 2. The numeric fallback is unbounded, so
// Unique always terminates with a fresh value; it never fails. The
// returned slug is reserved immediately.
func (r *SlugRegistry) Unique(baseSlug, region, town, geohashPrefix string) string {
	base := Slugify(baseSlug)
	if base == "" {
		base = "facility"
	}

	if r.reserve(base) {
		return base
	}
	if s := Slugify(region); s != "" && r.reserve(base+"-"+s) {
		return base + "-" + s
	}
	if s := Slugify(town); s != "" && r.reserve(base+"-"+s) {
		return base + "-" + s
	}
	if s := Slugify(geohashPrefix); s != "" && r.reserve(base+"-"+s) {
		return base + "-" + s
	}

	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if r.reserve(candidate) {
			return candidate
		}
	}
}

// reserve adds the slug to the seen-set, reporting whether it was free.
func (r *SlugRegistry) reserve(slug string) bool {
	if _, taken := r.seen[slug]; taken {
		return false
	}
	r.seen[slug] = struct{}{}
	return true
}
