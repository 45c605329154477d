package models

import (
	"time"

	"github.com/google/uuid"
)

type ArticleCategory string

const (
	ArticleCategoryFeeding       ArticleCategory = "feeding"
	ArticleCategorySleep         ArticleCategory = "sleep"
	ArticleCategoryDevelopment   ArticleCategory = "development"
	ArticleCategoryHealth        ArticleCategory = "health"
	ArticleCategoryActivities    ArticleCategory = "activities"
	ArticleCategoryTravel        ArticleCategory = "travel"
	ArticleCategoryGear          ArticleCategory = "gear"
	ArticleCategoryParentingTips ArticleCategory = "parenting_tips"
	ArticleCategoryDadLife       ArticleCategory = "dad_life"
	ArticleCategoryMomLife       ArticleCategory = "mom_life"
	ArticleCategoryRelationships ArticleCategory = "relationships"
	ArticleCategoryMentalHealth  ArticleCategory = "mental_health"
)

func (c ArticleCategory) Valid() bool {
	switch c {
	case ArticleCategoryFeeding, ArticleCategorySleep, ArticleCategoryDevelopment, ArticleCategoryHealth,
		ArticleCategoryActivities, ArticleCategoryTravel, ArticleCategoryGear, ArticleCategoryParentingTips,
		ArticleCategoryDadLife, ArticleCategoryMomLife, ArticleCategoryRelationships, ArticleCategoryMentalHealth:
		return true
	}
	return false
}

type Article struct {
	ID              uuid.UUID       `json:"id"`
	Title           string          `json:"title"`
	Slug            string          `json:"slug"`
	Excerpt         string          `json:"excerpt"`
	Content         string          `json:"content,omitempty"`
	CoverImage      *string         `json:"cover_image"`
	Author          *AuthorSummary  `json:"author,omitempty"`
	Category        ArticleCategory `json:"category"`
	Tags            []string        `json:"tags"`
	ReadTimeMinutes int             `json:"read_time_minutes"`
	IsFeatured      bool            `json:"is_featured"`
	PublishedAt     *time.Time      `json:"published_at"`
	ViewCount       int64           `json:"view_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ArticleFilter narrows the published article list. Zero values mean no filter.
type ArticleFilter struct {
	Category     ArticleCategory
	FeaturedOnly bool
	Tag          string
	Page         PageRequest
}
