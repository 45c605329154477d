package places

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/utils"
)

// ParseSearchParams turns raw query parameters into normalized search params.
// Repeatable keys: category, amenity, price, noise.
func ParseSearchParams(q url.Values) (models.PlaceSearchParams, error) {
	params := models.PlaceSearchParams{
		Query:       strings.TrimSpace(q.Get("q")),
		Sort:        models.ParseSortOption(q.Get("sort")),
		RadiusMiles: models.DefaultSearchRadiusMiles,
	}

	var err error
	if params.Categories, err = parseEnumList(q["category"], "category", models.PlaceCategory.Valid); err != nil {
		return params, err
	}
	if params.Amenities, err = parseEnumList(q["amenity"], "amenity", models.AmenityType.Valid); err != nil {
		return params, err
	}
	if params.PriceRanges, err = parseEnumList(q["price"], "price", models.PriceRange.Valid); err != nil {
		return params, err
	}
	if params.NoiseLevels, err = parseEnumList(q["noise"], "noise", models.NoiseLevel.Valid); err != nil {
		return params, err
	}

	if params.MinRating, err = parseFloat(q, "min_rating", 0); err != nil {
		return params, err
	}
	if params.MinRating < 0 || params.MinRating > 5 {
		return params, models.NewValidationError("min_rating", "must be between 0 and 5")
	}
	if params.VerifiedOnly, err = parseBool(q, "verified"); err != nil {
		return params, err
	}
	if params.HasPhotos, err = parseBool(q, "has_photos"); err != nil {
		return params, err
	}

	if params.Latitude, err = parseFloat(q, "lat", 0); err != nil {
		return params, err
	}
	if params.Longitude, err = parseFloat(q, "lng", 0); err != nil {
		return params, err
	}
	if !utils.ValidateCoordinates(params.Latitude, params.Longitude) {
		return params, models.NewValidationError("lat", "coordinates out of range")
	}
	if params.RadiusMiles, err = parseFloat(q, "radius", models.DefaultSearchRadiusMiles); err != nil {
		return params, err
	}
	if params.RadiusMiles <= 0 {
		params.RadiusMiles = models.DefaultSearchRadiusMiles
	}

	page, err := parseInt(q, "page", 1)
	if err != nil {
		return params, err
	}
	perPage, err := parseInt(q, "per_page", models.DefaultPlacesPerPage)
	if err != nil {
		return params, err
	}
	params.Page = models.NewPageRequest(page, perPage, models.DefaultPlacesPerPage, models.MaxPlacesPerPage)

	return params, nil
}

func parseEnumList[T ~string](raw []string, field string, valid func(T) bool) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]T, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		v := T(r)
		if !valid(v) {
			return nil, models.NewValidationError(field, fmt.Sprintf("unknown value %q", r))
		}
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out, nil
}

func parseFloat(q url.Values, key string, def float64) (float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, models.NewValidationError(key, "must be a number")
	}
	return f, nil
}

func parseInt(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, models.NewValidationError(key, "must be an integer")
	}
	return n, nil
}

func parseBool(q url.Values, key string) (bool, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, models.NewValidationError(key, "must be true or false")
	}
	return b, nil
}

// cacheKey is a canonical encoding of params; filter order does not matter.
func cacheKey(p models.PlaceSearchParams) string {
	var b strings.Builder
	fmt.Fprintf(&b, "q=%s|", strings.ToLower(p.Query))
	writeSorted(&b, "c", p.Categories)
	writeSorted(&b, "a", p.Amenities)
	writeSorted(&b, "p", p.PriceRanges)
	writeSorted(&b, "n", p.NoiseLevels)
	fmt.Fprintf(&b, "r=%g|v=%t|ph=%t|geo=%g,%g,%g|s=%s|pg=%d,%d",
		p.MinRating, p.VerifiedOnly, p.HasPhotos, p.Latitude, p.Longitude, p.RadiusMiles, p.Sort, p.Page.Page, p.Page.PerPage)
	return b.String()
}

func writeSorted[T ~string](b *strings.Builder, key string, values []T) {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	b.WriteString(key)
	b.WriteByte('=')
	for i, v := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(string(v))
	}
	b.WriteByte('|')
}
