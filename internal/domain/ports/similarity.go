package ports

// StringSimilarity computes a normalized similarity ratio between two
// strings. Implementations return a value in [0, 1] where 1 means the
// strings are identical. The concrete backend is swappable without
// touching strategy logic.
type StringSimilarity interface {
	Ratio(a, b string) float64
}
