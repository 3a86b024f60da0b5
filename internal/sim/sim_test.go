package sim

import (
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/parking"
)

func TestTick_PublishesToggledAvailability(t *testing.T) {
	catalog := parking.NewCatalog([]parking.Facility{
		{ID: 5, Name: "only", Available: true, Capacity: 10, AvailableSpaces: 4},
	})
	b := bus.New()

	var events []bus.Event
	b.Subscribe(func(ev bus.Event) {
		events = append(events, ev)
		catalog.SetAvailability(ev.FacilityID, ev.Available)
	})

	s := New(catalog, b, time.Minute, log.New(io.Discard, "", 0))
	s.Tick()
	s.Tick()

	require.Len(t, events, 2)
	assert.Equal(t, bus.Event{FacilityID: 5, Available: false}, events[0])
	assert.Equal(t, bus.Event{FacilityID: 5, Available: true}, events[1], "toggles alternate once listeners apply them")
}

func TestTick_EmptyCatalogIsNoOp(t *testing.T) {
	b := bus.New()
	var published int
	b.Subscribe(func(bus.Event) { published++ })

	s := New(parking.NewCatalog(nil), b, time.Minute, log.New(io.Discard, "", 0))
	s.Tick()

	assert.Zero(t, published)
}
