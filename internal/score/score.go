package score

import (
	"errors"
	"math"
	"sort"

	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/parking"
)

// ErrNoCandidates is returned when no facility survives the availability
// filter. The orchestrator decides whether that means fallback or failure.
var ErrNoCandidates = errors.New("no available parking candidates")

const (
	// Facilities with fewer free spaces than this get a ranking penalty.
	lowAvailabilityThreshold = 10
	lowAvailabilityPenalty   = 0.5

	// Urban-traffic heuristic: four minutes per kilometer.
	minutesPerKm = 4
)

// Candidate is a facility enriched with the per-query scoring fields.
// Recomputed on every query and never persisted.
type Candidate struct {
	parking.Facility
	DistanceKm       float64 `json:"distance_km"`
	EstimatedMinutes int     `json:"estimated_time_minutes"`
	OccupancyRatio   float64 `json:"occupancy_ratio"`
	CompositeScore   float64 `json:"composite_score"`
}

// Rank filters, scores and orders the given facilities relative to origin.
//
// Eligibility requires both availability signals: the Available flag and a
// positive space count. Optional filters further restrict by price and
// distance. The composite score is distance plus a fixed penalty for
// nearly-full facilities, so a close-but-cramped facility can lose to a
// slightly farther one with room. The sort is stable: equal scores keep
// input order, which keeps results deterministic across runs.
func Rank(origin geo.Location, facilities []parking.Facility, filters parking.Filters) ([]Candidate, error) {
	candidates := make([]Candidate, 0, len(facilities))
	for _, f := range facilities {
		if !f.Available || f.AvailableSpaces <= 0 {
			continue
		}
		if filters.MaxPrice > 0 && f.PricePerHour > filters.MaxPrice {
			continue
		}

		distance := geo.Distance(origin, f.Location)
		if filters.MaxDistanceKm > 0 && distance > filters.MaxDistanceKm {
			continue
		}

		c := Candidate{
			Facility:         f,
			DistanceKm:       distance,
			EstimatedMinutes: int(math.Ceil(distance * minutesPerKm)),
			CompositeScore:   distance,
		}
		if f.Capacity > 0 {
			c.OccupancyRatio = float64(f.Capacity-f.AvailableSpaces) / float64(f.Capacity)
		}
		if f.AvailableSpaces < lowAvailabilityThreshold {
			c.CompositeScore += lowAvailabilityPenalty
		}
		candidates = append(candidates, c)
	}

	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CompositeScore < candidates[j].CompositeScore
	})
	return candidates, nil
}
