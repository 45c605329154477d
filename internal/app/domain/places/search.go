package places

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/go-kidspots/internal/app/models"
	"github.com/FACorreiaa/go-kidspots/internal/pkg/utils"
)

// Search filters, ranks and paginates candidates in memory. Candidates may be a
// superset of the answer (storage prefilters loosely); every predicate is applied
// here again, so the result only depends on params and the candidate set.
// The input slice is not modified.
func Search(candidates []models.Place, params models.PlaceSearchParams) models.PlaceSearchResult {
	m := newMatcher(params)

	matched := make([]models.Place, 0, len(candidates))
	for _, p := range candidates {
		if !m.matches(&p) {
			continue
		}
		if m.geo {
			d := utils.HaversineMiles(params.Latitude, params.Longitude, p.Latitude, p.Longitude)
			if d > params.RadiusMiles {
				continue
			}
			p.Distance = &d
		}
		matched = append(matched, p)
	}

	sortPlaces(matched, params.Sort, m.geo)

	page := searchPage(params)

	total := len(matched)
	start := min(page.Offset(), total)
	end := min(start+page.PerPage, total)

	return models.PlaceSearchResult{
		Data:       slices.Clone(matched[start:end]),
		Pagination: page.Paginate(total),
	}
}

func searchPage(params models.PlaceSearchParams) models.PageRequest {
	return models.NewPageRequest(params.Page.Page, params.Page.PerPage, models.DefaultPlacesPerPage, models.MaxPlacesPerPage)
}

// matcher holds the per-query state so each candidate check is allocation free.
type matcher struct {
	params models.PlaceSearchParams
	fold   cases.Caser
	query  string
	geo    bool
}

func newMatcher(params models.PlaceSearchParams) *matcher {
	fold := cases.Fold()
	return &matcher{
		params: params,
		fold:   fold,
		query:  fold.String(strings.TrimSpace(params.Query)),
		geo:    params.HasCenter() && params.RadiusMiles > 0,
	}
}

func (m *matcher) matches(p *models.Place) bool {
	params := m.params

	if m.query != "" && !m.matchesText(p) {
		return false
	}
	if len(params.Categories) > 0 && !slices.Contains(params.Categories, p.Category) {
		return false
	}
	for _, a := range params.Amenities {
		if !p.Amenities.Has(a) {
			return false
		}
	}
	if len(params.PriceRanges) > 0 && (p.PriceRange == nil || !slices.Contains(params.PriceRanges, *p.PriceRange)) {
		return false
	}
	if len(params.NoiseLevels) > 0 && !slices.Contains(params.NoiseLevels, p.Amenities.NoiseLevel) {
		return false
	}
	if params.MinRating > 0 && p.AverageRating < params.MinRating {
		return false
	}
	if params.VerifiedOnly && !p.IsVerified {
		return false
	}
	if params.HasPhotos && len(p.Images) == 0 {
		return false
	}
	return true
}

func (m *matcher) matchesText(p *models.Place) bool {
	fields := [...]string{p.Name, p.Address, p.City, ""}
	if p.Description != nil {
		fields[3] = *p.Description
	}
	for _, f := range fields {
		if f != "" && strings.Contains(m.fold.String(f), m.query) {
			return true
		}
	}
	return false
}

func sortPlaces(places []models.Place, sort models.SortOption, hasDistance bool) {
	switch sort {
	case models.SortRating:
		slices.SortStableFunc(places, func(a, b models.Place) int {
			return cmp.Compare(b.AverageRating, a.AverageRating)
		})
	case models.SortReviews:
		slices.SortStableFunc(places, func(a, b models.Place) int {
			return cmp.Compare(b.ReviewCount, a.ReviewCount)
		})
	case models.SortNewest:
		slices.SortStableFunc(places, func(a, b models.Place) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case models.SortAlphabetical:
		// collate.Collator is not safe for concurrent use, one per call.
		col := collate.New(language.English, collate.IgnoreCase)
		slices.SortStableFunc(places, func(a, b models.Place) int {
			return col.CompareString(a.Name, b.Name)
		})
	case models.SortDistance:
		if hasDistance {
			slices.SortStableFunc(places, func(a, b models.Place) int {
				return cmp.Compare(*a.Distance, *b.Distance)
			})
			return
		}
		sortByRelevance(places)
	default:
		sortByRelevance(places)
	}
}

func sortByRelevance(places []models.Place) {
	slices.SortStableFunc(places, func(a, b models.Place) int {
		return cmp.Or(
			cmp.Compare(b.AverageRating, a.AverageRating),
			cmp.Compare(b.ReviewCount, a.ReviewCount),
		)
	})
}
