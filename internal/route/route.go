package route

import (
	"math/rand"
	"sync"

	"github.com/vso023/smartpark-project/internal/geo"
)

// Waypoints is the number of points in a synthesized path, endpoints included.
const Waypoints = 13

// jitterDegrees bounds the cosmetic lateral offset applied to interior
// waypoints. The offset is centered, so a point moves at most half of this
// in either axis.
const jitterDegrees = 0.0002

// Synthesizer produces display polylines between two coordinates by linear
// interpolation with a small jitter on interior points, so the rendered line
// does not look artificially straight. It is not a road router: the output
// follows no street network and exists only to feed a map display.
type Synthesizer struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSynthesizer creates a synthesizer with its own seeded random source,
// so tests can pin the jitter and assert exact waypoints.
func NewSynthesizer(seed int64) *Synthesizer {
	return &Synthesizer{rnd: rand.New(rand.NewSource(seed))}
}

// Polyline returns exactly Waypoints points from origin to destination.
// The endpoints are exact; interior points are interpolated and jittered
// within jitterDegrees of the straight line.
func (s *Synthesizer) Polyline(origin, destination geo.Location) []geo.Location {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := Waypoints - 1
	points := make([]geo.Location, 0, Waypoints)
	for i := 0; i <= steps; i++ {
		progress := float64(i) / float64(steps)
		lat := origin.Lat + (destination.Lat-origin.Lat)*progress
		lng := origin.Lng + (destination.Lng-origin.Lng)*progress
		if i > 0 && i < steps {
			lat += (s.rnd.Float64() - 0.5) * jitterDegrees
			lng += (s.rnd.Float64() - 0.5) * jitterDegrees
		}
		points = append(points, geo.Location{Lat: lat, Lng: lng})
	}
	return points
}
