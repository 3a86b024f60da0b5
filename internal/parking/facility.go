package parking

import (
	"context"

	"github.com/vso023/smartpark-project/internal/geo"
)

// FacilityType classifies a parking facility for display purposes.
type FacilityType string

const (
	TypeStandard   FacilityType = "standard"
	TypePremium    FacilityType = "premium"
	TypeLuxury     FacilityType = "luxury"
	TypeMall       FacilityType = "mall"
	TypeBasic      FacilityType = "basic"
	TypeUniversity FacilityType = "university"
	TypeCultural   FacilityType = "cultural"
)

// Facility is a parking location with capacity, price and live availability.
// Only Available and AvailableSpaces change after load, and only through
// availability events; every other field is fixed.
//
// Available and AvailableSpaces are tracked independently: upstream data can
// report a closed facility with spaces left, or an open one with none.
// Consumers must tolerate the disagreement and filter on both signals.
type Facility struct {
	ID              int64        `json:"id"`
	Name            string       `json:"name"`
	Location        geo.Location `json:"location"`
	PricePerHour    float64      `json:"price_per_hour"`
	Capacity        int          `json:"capacity"`
	AvailableSpaces int          `json:"available_spaces"`
	Available       bool         `json:"is_available"`
	Features        []string     `json:"features"`
	Rating          float64      `json:"rating,omitempty"`
	Type            FacilityType `json:"type"`
	OpenHours       string       `json:"open_hours,omitempty"`
}

// Filters narrows a candidate query. Zero-valued fields are ignored.
type Filters struct {
	MaxDistanceKm float64 `json:"max_distance,omitempty"`
	MaxPrice      float64 `json:"max_price,omitempty"`
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.MaxDistanceKm == 0 && f.MaxPrice == 0
}

// Repository provides read-only access to a candidate set of facilities.
// Availability filtering happens downstream in the scorer, not here.
type Repository interface {
	QueryCandidates(ctx context.Context, origin geo.Location, filters Filters) ([]Facility, error)
}
