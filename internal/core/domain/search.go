package domain

// DefaultSearchLimit is the number of results returned when none is requested.
const DefaultSearchLimit = 5

// MaxSearchLimit bounds the number of results a single query may request.
const MaxSearchLimit = 50

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero means DefaultSearchLimit.
	Limit int
}

// EffectiveLimit returns the limit after defaults and bounds are applied.
func (o SearchOptions) EffectiveLimit() int {
	switch {
	case o.Limit <= 0:
		return DefaultSearchLimit
	case o.Limit > MaxSearchLimit:
		return MaxSearchLimit
	default:
		return o.Limit
	}
}

// VectorHit is a single nearest-neighbour match from the vector index.
type VectorHit struct {
	// ID is the document ID.
	ID string

	// Distance is the cosine distance in [0, 2].
	Distance float64
}

// Similarity converts the distance to a similarity score (1 - distance).
// The value is passed through unclamped.
func (h VectorHit) Similarity() float64 {
	return 1 - h.Distance
}
