package models

import (
	"time"

	"github.com/google/uuid"
)

type PlaceCategory string

const (
	CategoryRestaurant    PlaceCategory = "restaurant"
	CategoryCafe          PlaceCategory = "cafe"
	CategoryPark          PlaceCategory = "park"
	CategoryPlayground    PlaceCategory = "playground"
	CategoryMuseum        PlaceCategory = "museum"
	CategoryLibrary       PlaceCategory = "library"
	CategoryShopping      PlaceCategory = "shopping"
	CategoryEntertainment PlaceCategory = "entertainment"
	CategoryHealthcare    PlaceCategory = "healthcare"
	CategoryOther         PlaceCategory = "other"
)

func (c PlaceCategory) Valid() bool {
	switch c {
	case CategoryRestaurant, CategoryCafe, CategoryPark, CategoryPlayground, CategoryMuseum,
		CategoryLibrary, CategoryShopping, CategoryEntertainment, CategoryHealthcare, CategoryOther:
		return true
	}
	return false
}

type PriceRange string

const (
	PriceBudget    PriceRange = "$"
	PriceModerate  PriceRange = "$$"
	PriceExpensive PriceRange = "$$$"
	PriceLuxury    PriceRange = "$$$$"
)

func (p PriceRange) Valid() bool {
	switch p {
	case PriceBudget, PriceModerate, PriceExpensive, PriceLuxury:
		return true
	}
	return false
}

type NoiseLevel string

const (
	NoiseQuiet    NoiseLevel = "quiet"
	NoiseModerate NoiseLevel = "moderate"
	NoiseLoud     NoiseLevel = "loud"
	NoiseUnknown  NoiseLevel = "unknown"
)

func (n NoiseLevel) Valid() bool {
	switch n {
	case NoiseQuiet, NoiseModerate, NoiseLoud, NoiseUnknown:
		return true
	}
	return false
}

// AmenityType is a filterable amenity key.
type AmenityType string

const (
	AmenityChangingStation      AmenityType = "changing_station"
	AmenityHighChairs           AmenityType = "high_chairs"
	AmenityKidsMenu             AmenityType = "kids_menu"
	AmenityStrollerFriendly     AmenityType = "stroller_friendly"
	AmenityOutdoorSeating       AmenityType = "outdoor_seating"
	AmenityPlayArea             AmenityType = "play_area"
	AmenityNursingRoom          AmenityType = "nursing_room"
	AmenityFamilyRestroom       AmenityType = "family_restroom"
	AmenityWheelchairAccessible AmenityType = "wheelchair_accessible"
	AmenityQuiet                AmenityType = "quiet"
	AmenityParking              AmenityType = "parking"
)

func (a AmenityType) Valid() bool {
	switch a {
	case AmenityChangingStation, AmenityHighChairs, AmenityKidsMenu, AmenityStrollerFriendly,
		AmenityOutdoorSeating, AmenityPlayArea, AmenityNursingRoom, AmenityFamilyRestroom,
		AmenityWheelchairAccessible, AmenityQuiet, AmenityParking:
		return true
	}
	return false
}

type ChangingStationLocation string

const (
	ChangingStationMens   ChangingStationLocation = "mens"
	ChangingStationWomens ChangingStationLocation = "womens"
	ChangingStationFamily ChangingStationLocation = "family"
	ChangingStationUnisex ChangingStationLocation = "unisex"
)

type ChangingStationInfo struct {
	Available bool                      `json:"available"`
	Locations []ChangingStationLocation `json:"locations"`
	Condition string                    `json:"condition,omitempty"` // excellent|good|fair|poor|unknown
	// LastVerified is a calendar date (YYYY-MM-DD).
	LastVerified *string `json:"last_verified,omitempty"`
}

type ParkingType string

const (
	ParkingStreet ParkingType = "street"
	ParkingLot    ParkingType = "lot"
	ParkingGarage ParkingType = "garage"
	ParkingValet  ParkingType = "valet"
)

type ParkingInfo struct {
	Available          bool          `json:"available"`
	Types              []ParkingType `json:"type"`
	StrollerAccessible bool          `json:"stroller_accessible"`
}

// PlaceAmenities is stored as jsonb on the place row.
type PlaceAmenities struct {
	ChangingStation      *ChangingStationInfo `json:"changing_station,omitempty"`
	HighChairs           bool                 `json:"high_chairs"`
	KidsMenu             bool                 `json:"kids_menu"`
	StrollerFriendly     bool                 `json:"stroller_friendly"`
	OutdoorSeating       bool                 `json:"outdoor_seating"`
	PlayArea             bool                 `json:"play_area"`
	NursingRoom          bool                 `json:"nursing_room"`
	FamilyRestroom       bool                 `json:"family_restroom"`
	WheelchairAccessible bool                 `json:"wheelchair_accessible"`
	NoiseLevel           NoiseLevel           `json:"noise_level"`
	Parking              *ParkingInfo         `json:"parking,omitempty"`
	Additional           []string             `json:"additional"`
}

// DefaultAmenities is what a newly created place starts with.
func DefaultAmenities() PlaceAmenities {
	return PlaceAmenities{
		NoiseLevel: NoiseUnknown,
		Additional: []string{},
	}
}

// Has reports whether the amenities satisfy the filter t.
func (a PlaceAmenities) Has(t AmenityType) bool {
	switch t {
	case AmenityChangingStation:
		return a.ChangingStation != nil && a.ChangingStation.Available
	case AmenityHighChairs:
		return a.HighChairs
	case AmenityKidsMenu:
		return a.KidsMenu
	case AmenityStrollerFriendly:
		return a.StrollerFriendly
	case AmenityOutdoorSeating:
		return a.OutdoorSeating
	case AmenityPlayArea:
		return a.PlayArea
	case AmenityNursingRoom:
		return a.NursingRoom
	case AmenityFamilyRestroom:
		return a.FamilyRestroom
	case AmenityWheelchairAccessible:
		return a.WheelchairAccessible
	case AmenityQuiet:
		return a.NoiseLevel == NoiseQuiet
	case AmenityParking:
		return a.Parking != nil && a.Parking.Available
	}
	return false
}

type DayHours struct {
	Open     string `json:"open,omitempty"`
	Close    string `json:"close,omitempty"`
	IsClosed bool   `json:"is_closed"`
}

// BusinessHours is keyed by lowercase weekday name.
type BusinessHours map[string]DayHours

type PlaceImage struct {
	ID        uuid.UUID  `json:"id"`
	PlaceID   uuid.UUID  `json:"place_id"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	URL       string     `json:"url"`
	Caption   *string    `json:"caption,omitempty"`
	IsPrimary bool       `json:"is_primary"`
	CreatedAt time.Time  `json:"created_at"`
}

type Place struct {
	ID                uuid.UUID      `json:"id"`
	Name              string         `json:"name"`
	Slug              string         `json:"slug"`
	Description       *string        `json:"description"`
	Category          PlaceCategory  `json:"category"`
	Address           string         `json:"address"`
	City              string         `json:"city"`
	State             string         `json:"state"`
	ZipCode           *string        `json:"zip_code"`
	Country           string         `json:"country"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	Phone             *string        `json:"phone"`
	Website           *string        `json:"website"`
	Hours             BusinessHours  `json:"hours"`
	PriceRange        *PriceRange    `json:"price_range"`
	Amenities         PlaceAmenities `json:"amenities"`
	Images            []PlaceImage   `json:"images"`
	IsVerified        bool           `json:"is_verified"`
	IsClaimed         bool           `json:"is_claimed"`
	ClaimedBy         *uuid.UUID     `json:"claimed_by"`
	CreatedBy         *uuid.UUID     `json:"created_by,omitempty"`
	AverageRating     float64        `json:"average_rating"`
	ReviewCount       int            `json:"review_count"`
	ContributionCount int            `json:"contribution_count"`
	ViewCount         int64          `json:"view_count"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	// Distance in miles from the search center, only set on geo searches.
	Distance *float64 `json:"distance,omitempty"`
}

// PlaceSummary is the compact form embedded in favorites and reviews.
type PlaceSummary struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Category      PlaceCategory `json:"category"`
	City          string        `json:"city"`
	State         string        `json:"state"`
	AverageRating float64       `json:"average_rating"`
	ReviewCount   int           `json:"review_count"`
	ImageURL      *string       `json:"image_url,omitempty"`
}

// PlaceDetail is a place with its reviews attached.
type PlaceDetail struct {
	Place
	Reviews []Review `json:"reviews"`
}

type CreatePlaceRequest struct {
	Name        string          `json:"name" validate:"required,trimmedmin=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Category    PlaceCategory   `json:"category" validate:"required,place_category"`
	Address     string          `json:"address" validate:"required,trimmedmin=1"`
	City        string          `json:"city" validate:"required,trimmedmin=1"`
	State       string          `json:"state" validate:"required,trimmedmin=1"`
	ZipCode     *string         `json:"zip_code"`
	Country     string          `json:"country"`
	Latitude    *float64        `json:"latitude" validate:"required,latitude"`
	Longitude   *float64        `json:"longitude" validate:"required,longitude"`
	Phone       *string         `json:"phone"`
	Website     *string         `json:"website" validate:"omitempty,url"`
	Hours       BusinessHours   `json:"hours"`
	PriceRange  *PriceRange     `json:"price_range" validate:"omitempty,price_range"`
	Amenities   *PlaceAmenities `json:"amenities"`
}

// UpdatePlaceRequest carries only the whitelisted editable fields. Nil means untouched.
type UpdatePlaceRequest struct {
	Name        *string         `json:"name,omitempty" validate:"omitempty,trimmedmin=1,max=200"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Address     *string         `json:"address,omitempty" validate:"omitempty,trimmedmin=1"`
	City        *string         `json:"city,omitempty" validate:"omitempty,trimmedmin=1"`
	State       *string         `json:"state,omitempty" validate:"omitempty,trimmedmin=1"`
	ZipCode     *string         `json:"zip_code,omitempty"`
	Phone       *string         `json:"phone,omitempty"`
	Website     *string         `json:"website,omitempty" validate:"omitempty,url"`
	Hours       BusinessHours   `json:"hours,omitempty"`
	PriceRange  *PriceRange     `json:"price_range,omitempty" validate:"omitempty,price_range"`
	Amenities   *PlaceAmenities `json:"amenities,omitempty"`
}

func (r UpdatePlaceRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.Address == nil && r.City == nil &&
		r.State == nil && r.ZipCode == nil && r.Phone == nil && r.Website == nil &&
		r.Hours == nil && r.PriceRange == nil && r.Amenities == nil
}
