// Package textmatch provides string-similarity backends for the
// duplicate-detection strategies.
package textmatch

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"

	"github.com/minedex/minedex/internal/domain/ports"
)

// Backend names accepted in configuration.
const (
	BackendLevenshtein = "levenshtein"
	BackendJaroWinkler = "jaro_winkler"
)

// Levenshtein scores similarity as 1 - editDistance/maxLen.
type Levenshtein struct{}

// Ratio returns the normalized Levenshtein similarity of a and b in [0, 1].
func (Levenshtein) Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

// JaroWinkler scores similarity with the Jaro-Winkler metric, which
// favors strings sharing a common prefix.
type JaroWinkler struct{}

// Ratio returns the Jaro-Winkler similarity of a and b in [0, 1].
func (JaroWinkler) Ratio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	return matchr.JaroWinkler(a, b, false)
}

// ForBackend returns the similarity backend for a configured name.
// An empty name selects the Levenshtein default.
func ForBackend(name string) (ports.StringSimilarity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendLevenshtein:
		return Levenshtein{}, nil
	case BackendJaroWinkler:
		return JaroWinkler{}, nil
	default:
		return nil, fmt.Errorf("unknown similarity backend %q (valid: %s, %s)", name, BackendLevenshtein, BackendJaroWinkler)
	}
}
