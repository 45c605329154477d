package models

type SortOption string

const (
	SortRelevance    SortOption = "relevance"
	SortRating       SortOption = "rating"
	SortReviews      SortOption = "reviews"
	SortNewest       SortOption = "newest"
	SortAlphabetical SortOption = "alphabetical"
	SortDistance     SortOption = "distance"
)

// ParseSortOption falls back to relevance for unknown values.
func ParseSortOption(s string) SortOption {
	switch SortOption(s) {
	case SortRating, SortReviews, SortNewest, SortAlphabetical, SortDistance:
		return SortOption(s)
	}
	return SortRelevance
}

const (
	DefaultSearchRadiusMiles = 10.0
	DefaultPlacesPerPage     = 20
	MaxPlacesPerPage         = 100
)

// PlaceSearchParams is a normalized place search query.
type PlaceSearchParams struct {
	Query        string
	Categories   []PlaceCategory
	Amenities    []AmenityType
	PriceRanges  []PriceRange
	NoiseLevels  []NoiseLevel
	MinRating    float64
	VerifiedOnly bool
	HasPhotos    bool
	Latitude     float64
	Longitude    float64
	RadiusMiles  float64
	Sort         SortOption
	Page         PageRequest
}

// HasCenter reports whether a geo center was supplied. A zero coordinate means absent.
func (p PlaceSearchParams) HasCenter() bool {
	return p.Latitude != 0 && p.Longitude != 0
}

type PlaceSearchResult = Page[Place]
