// Package sim hosts the availability simulator: a background timer that
// stands in for real occupancy sensors by flipping random facilities.
package sim

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/parking"
)

// Simulator periodically picks a random facility and publishes its toggled
// availability on the bus. The bus listeners (search service, notification
// pool) do the actual state changes; the simulator only publishes.
type Simulator struct {
	catalog  *parking.Catalog
	bus      *bus.Bus
	interval time.Duration
	rnd      *rand.Rand
	logger   *log.Logger
}

// New creates a simulator. A non-positive interval defaults to 45 seconds.
func New(catalog *parking.Catalog, b *bus.Bus, interval time.Duration, logger *log.Logger) *Simulator {
	if interval <= 0 {
		interval = 45 * time.Second
	}
	return &Simulator{
		catalog:  catalog,
		bus:      b,
		interval: interval,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger,
	}
}

// Run toggles facilities until the context is cancelled.
func (s *Simulator) Run(ctx context.Context) {
	s.logger.Printf("availability simulator started, interval %s", s.interval)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("availability simulator shutting down")
			return
		case <-timer.C:
			s.Tick()
			timer.Reset(s.interval)
		}
	}
}

// Tick flips one random facility and publishes the change.
func (s *Simulator) Tick() {
	ids := s.catalog.IDs()
	if len(ids) == 0 {
		return
	}

	id := ids[s.rnd.Intn(len(ids))]
	current, ok := s.catalog.Get(id)
	if !ok {
		return
	}

	ev := bus.Event{FacilityID: id, Available: !current.Available}
	s.logger.Printf("simulator: facility %d (%s) -> available=%t", id, current.Name, ev.Available)
	s.bus.Publish(ev)
}
