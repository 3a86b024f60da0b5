package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/parking"
)

// facilityAt builds a facility offset north of the origin by roughly
// distanceKm (one degree of latitude ~ 111.19 km on the 6371 km sphere).
func facilityAt(id int64, distanceKm float64, spaces int) parking.Facility {
	return parking.Facility{
		ID:              id,
		Name:            "test facility",
		Location:        geo.Location{Lat: distanceKm / 111.19, Lng: 0},
		Available:       true,
		Capacity:        100,
		AvailableSpaces: spaces,
	}
}

func TestRank_FiltersUnavailable(t *testing.T) {
	origin := geo.Location{}
	closed := facilityAt(1, 1, 50)
	closed.Available = false
	full := facilityAt(2, 1, 0)
	open := facilityAt(3, 2, 50)

	ranked, err := Rank(origin, []parking.Facility{closed, full, open}, parking.Filters{})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(3), ranked[0].ID)
}

func TestRank_NoCandidates(t *testing.T) {
	origin := geo.Location{}
	closed := facilityAt(1, 1, 50)
	closed.Available = false

	_, err := Rank(origin, []parking.Facility{closed}, parking.Filters{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = Rank(origin, nil, parking.Filters{})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestRank_SortedByCompositeScore(t *testing.T) {
	origin := geo.Location{}
	facilities := []parking.Facility{
		facilityAt(1, 5, 50),
		facilityAt(2, 1, 50),
		facilityAt(3, 3, 50),
	}

	ranked, err := Rank(origin, facilities, parking.Filters{})
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	for i := 1; i < len(ranked); i++ {
		assert.LessOrEqual(t, ranked[i-1].CompositeScore, ranked[i].CompositeScore)
	}
	assert.Equal(t, int64(2), ranked[0].ID)
}

func TestRank_LowAvailabilityPenaltyFlipsOrder(t *testing.T) {
	origin := geo.Location{}
	// A: 1.0 km with 5 spaces -> score 1.5. B: 1.2 km with 50 -> score 1.2.
	a := facilityAt(1, 1.0, 5)
	b := facilityAt(2, 1.2, 50)

	ranked, err := Rank(origin, []parking.Facility{a, b}, parking.Filters{})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(2), ranked[0].ID, "well-stocked farther facility should win")
	assert.Equal(t, int64(1), ranked[1].ID)
	assert.InDelta(t, 1.5, ranked[1].CompositeScore, 0.01)
	assert.InDelta(t, 1.2, ranked[0].CompositeScore, 0.01)
}

func TestRank_StableOnEqualScores(t *testing.T) {
	origin := geo.Location{}
	first := facilityAt(10, 2, 50)
	second := facilityAt(20, 2, 50)
	second.Location = first.Location

	ranked, err := Rank(origin, []parking.Facility{first, second}, parking.Filters{})
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(10), ranked[0].ID, "equal scores must keep input order")
	assert.Equal(t, int64(20), ranked[1].ID)
}

func TestRank_DerivedFields(t *testing.T) {
	origin := geo.Location{}
	f := facilityAt(1, 2.3, 25)

	ranked, err := Rank(origin, []parking.Facility{f}, parking.Filters{})
	require.NoError(t, err)
	c := ranked[0]
	assert.InDelta(t, 2.3, c.DistanceKm, 0.01)
	assert.Equal(t, 10, c.EstimatedMinutes, "ceil(2.3 * 4)")
	assert.InDelta(t, 0.75, c.OccupancyRatio, 1e-9)
}

func TestRank_PriceAndDistanceFilters(t *testing.T) {
	origin := geo.Location{}
	cheapNear := facilityAt(1, 1, 50)
	cheapNear.PricePerHour = 2000
	pricey := facilityAt(2, 1, 50)
	pricey.PricePerHour = 5000
	far := facilityAt(3, 20, 50)
	far.PricePerHour = 2000

	ranked, err := Rank(origin, []parking.Facility{cheapNear, pricey, far},
		parking.Filters{MaxPrice: 3000, MaxDistanceKm: 5})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, int64(1), ranked[0].ID)
}
