package models

import (
	"time"

	"github.com/google/uuid"
)

// MinReviewContentLength applies to the trimmed review body.
const MinReviewContentLength = 10

// AmenityRatings are optional 0..5 sub-scores attached to a review.
type AmenityRatings struct {
	Cleanliness            *int `json:"cleanliness,omitempty" validate:"omitempty,min=0,max=5"`
	KidFriendliness        *int `json:"kid_friendliness,omitempty" validate:"omitempty,min=0,max=5"`
	StaffHelpfulness       *int `json:"staff_helpfulness,omitempty" validate:"omitempty,min=0,max=5"`
	ChangingStationQuality *int `json:"changing_station_quality,omitempty" validate:"omitempty,min=0,max=5"`
	StrollerAccessibility  *int `json:"stroller_accessibility,omitempty" validate:"omitempty,min=0,max=5"`
	NoiseAccuracy          *int `json:"noise_accuracy,omitempty" validate:"omitempty,min=0,max=5"`
}

type AuthorSummary struct {
	ID        uuid.UUID `json:"id"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}

type ReviewImage struct {
	ID        uuid.UUID `json:"id"`
	ReviewID  uuid.UUID `json:"review_id"`
	URL       string    `json:"url"`
	Caption   *string   `json:"caption,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Review struct {
	ID               uuid.UUID      `json:"id"`
	PlaceID          uuid.UUID      `json:"place_id"`
	UserID           uuid.UUID      `json:"user_id"`
	Rating           int            `json:"rating"`
	Title            *string        `json:"title"`
	Content          string         `json:"content"`
	VisitDate        *string        `json:"visit_date"` // YYYY-MM-DD
	WithChildrenAges []int32        `json:"with_children_ages"`
	AmenityRatings   AmenityRatings `json:"amenity_ratings"`
	IsVerifiedVisit  bool           `json:"is_verified_visit"`
	HelpfulCount     int            `json:"helpful_count"`
	Images           []ReviewImage  `json:"images"`
	Author           *AuthorSummary `json:"author,omitempty"`
	Place            *PlaceSummary  `json:"place,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type ReviewSort string

const (
	ReviewSortNewest  ReviewSort = "newest"
	ReviewSortOldest  ReviewSort = "oldest"
	ReviewSortHighest ReviewSort = "highest"
	ReviewSortLowest  ReviewSort = "lowest"
	ReviewSortHelpful ReviewSort = "helpful"
)

// ParseReviewSort falls back to newest for unknown values.
func ParseReviewSort(s string) ReviewSort {
	switch ReviewSort(s) {
	case ReviewSortOldest, ReviewSortHighest, ReviewSortLowest, ReviewSortHelpful:
		return ReviewSort(s)
	}
	return ReviewSortNewest
}

type CreateReviewRequest struct {
	Rating           int            `json:"rating" validate:"min=1,max=5"`
	Title            *string        `json:"title" validate:"omitempty,max=200"`
	Content          string         `json:"content" validate:"trimmedmin=10"`
	VisitDate        *string        `json:"visit_date" validate:"omitempty,datetime=2006-01-02"`
	WithChildrenAges []int32        `json:"with_children_ages" validate:"omitempty,dive,min=0,max=18"`
	AmenityRatings   AmenityRatings `json:"amenity_ratings"`
}

// UpdateReviewRequest carries the whitelisted editable fields. Nil means untouched.
type UpdateReviewRequest struct {
	Rating           *int            `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Title            *string         `json:"title,omitempty" validate:"omitempty,max=200"`
	Content          *string         `json:"content,omitempty" validate:"omitempty,trimmedmin=10"`
	VisitDate        *string         `json:"visit_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	WithChildrenAges []int32         `json:"with_children_ages,omitempty" validate:"omitempty,dive,min=0,max=18"`
	AmenityRatings   *AmenityRatings `json:"amenity_ratings,omitempty"`
}

func (r UpdateReviewRequest) IsEmpty() bool {
	return r.Rating == nil && r.Title == nil && r.Content == nil && r.VisitDate == nil &&
		r.WithChildrenAges == nil && r.AmenityRatings == nil
}
