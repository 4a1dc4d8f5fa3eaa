package pagination

// DefaultLimit is the page size used when none is requested
const DefaultLimit = 50

// MaxLimit is the maximum allowed page size
const MaxLimit = 500

// OffsetRequest represents an offset-based pagination request
type OffsetRequest struct {
	Limit  int `json:"limit" query:"limit"`
	Offset int `json:"offset" query:"offset"`
}

// Normalize clamps limit and offset into their allowed ranges
func (r *OffsetRequest) Normalize() {
	if r.Limit <= 0 {
		r.Limit = DefaultLimit
	}
	if r.Limit > MaxLimit {
		r.Limit = MaxLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
}
