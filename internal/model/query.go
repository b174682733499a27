package model

// SearchFilters represents structured listing constraints. A nil field imposes no constraint.
type SearchFilters struct {
	Location *string  `json:"location,omitempty" form:"location"`
	MinPrice *float64 `json:"minPrice,omitempty" form:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice *float64 `json:"maxPrice,omitempty" form:"maxPrice" binding:"omitempty,gte=0"`
	Bedrooms *int     `json:"bedrooms,omitempty" form:"bedrooms" binding:"omitempty,gte=0"`
}

// IsEmpty reports whether no constraint is set
func (f *SearchFilters) IsEmpty() bool {
	return f == nil || (f.Location == nil && f.MinPrice == nil && f.MaxPrice == nil && f.Bedrooms == nil)
}
