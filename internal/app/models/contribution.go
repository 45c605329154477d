package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ContributionType string

const (
	ContributionNewPlace      ContributionType = "new_place"
	ContributionEditPlace     ContributionType = "edit_place"
	ContributionAddPhoto      ContributionType = "add_photo"
	ContributionUpdateAmenity ContributionType = "update_amenity"
	ContributionReportIssue   ContributionType = "report_issue"
)

func (t ContributionType) Valid() bool {
	switch t {
	case ContributionNewPlace, ContributionEditPlace, ContributionAddPhoto,
		ContributionUpdateAmenity, ContributionReportIssue:
		return true
	}
	return false
}

// UserSubmittable reports whether the type can be proposed directly through the API.
// new_place and edit_place are only emitted by place create/edit.
func (t ContributionType) UserSubmittable() bool {
	switch t {
	case ContributionAddPhoto, ContributionUpdateAmenity, ContributionReportIssue:
		return true
	}
	return false
}

type ContributionStatus string

const (
	ContributionPending  ContributionStatus = "pending"
	ContributionApproved ContributionStatus = "approved"
	ContributionRejected ContributionStatus = "rejected"
)

// Contribution is an append-only audit record of a proposed or applied change to a place.
type Contribution struct {
	ID         uuid.UUID          `json:"id"`
	PlaceID    uuid.UUID          `json:"place_id"`
	UserID     uuid.UUID          `json:"user_id"`
	Type       ContributionType   `json:"type"`
	Data       json.RawMessage    `json:"data"`
	Status     ContributionStatus `json:"status"`
	ReviewedBy *uuid.UUID         `json:"reviewed_by"`
	ReviewedAt *time.Time         `json:"reviewed_at"`
	CreatedAt  time.Time          `json:"created_at"`
}

type SubmitContributionRequest struct {
	Type ContributionType `json:"type" validate:"required"`
	Data json.RawMessage  `json:"data"`
}
