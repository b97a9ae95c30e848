// Package pagination normalizes limit and offset inputs for list endpoints.
package pagination

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 50
	// MaxLimit caps how many rows any list query can request.
	MaxLimit = 100
	// MaxOffset bounds how deep a caller can page into a result set.
	MaxOffset = 1 << 30
)

// Page is a normalized limit and offset window ready for a store query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the given limit and offset into a valid window.
func Normalize(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset > MaxOffset {
		offset = MaxOffset
	}
	return Page{Limit: limit, Offset: offset}
}
