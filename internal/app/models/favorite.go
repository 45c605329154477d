package models

import (
	"time"

	"github.com/google/uuid"
)

type Favorite struct {
	ID        uuid.UUID     `json:"id"`
	UserID    uuid.UUID     `json:"user_id"`
	PlaceID   uuid.UUID     `json:"place_id"`
	Note      *string       `json:"note"`
	CreatedAt time.Time     `json:"created_at"`
	Place     *PlaceSummary `json:"place,omitempty"`
}

type AddFavoriteRequest struct {
	PlaceID *uuid.UUID `json:"place_id" validate:"required"`
	Note    *string    `json:"note" validate:"omitempty,max=500"`
}
