package parking

import (
	"context"
	"sync"

	"github.com/vso023/smartpark-project/internal/geo"
)

// Catalog is the local facility repository: a fixed in-memory dataset whose
// availability fields can be patched by availability events. All access is
// serialized through the catalog's mutex because events may arrive while a
// query snapshot is being taken.
type Catalog struct {
	mu         sync.RWMutex
	facilities []Facility
}

// NewCatalog builds a catalog from a fixed dataset. The slice is copied;
// later mutation of the caller's slice has no effect.
func NewCatalog(facilities []Facility) *Catalog {
	c := &Catalog{facilities: make([]Facility, len(facilities))}
	copy(c.facilities, facilities)
	return c
}

// QueryCandidates returns a snapshot of every facility in catalog order.
// The context is accepted for interface symmetry; the catalog never blocks.
func (c *Catalog) QueryCandidates(_ context.Context, _ geo.Location, _ Filters) ([]Facility, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Facility, len(c.facilities))
	copy(out, c.facilities)
	return out, nil
}

// Get returns a snapshot of a single facility.
func (c *Catalog) Get(id int64) (Facility, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, f := range c.facilities {
		if f.ID == id {
			return f, true
		}
	}
	return Facility{}, false
}

// SetAvailability patches a facility's availability flag and returns the
// updated snapshot. The space count is left untouched: the flag and the
// count are independent signals in the source data.
func (c *Catalog) SetAvailability(id int64, available bool) (Facility, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.facilities {
		if c.facilities[i].ID == id {
			c.facilities[i].Available = available
			return c.facilities[i], true
		}
	}
	return Facility{}, false
}

// IDs returns every facility ID in catalog order.
func (c *Catalog) IDs() []int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]int64, len(c.facilities))
	for i, f := range c.facilities {
		ids[i] = f.ID
	}
	return ids
}

// DefaultCatalog returns the built-in Cali dataset used when no remote
// source is reachable.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultFacilities)
}

var defaultFacilities = []Facility{
	{
		ID: 1, Name: "Parqueadero Norte Premium",
		Location: geo.Location{Lat: 3.4690, Lng: -76.5160},
		Available: true, PricePerHour: 4000, Capacity: 120, AvailableSpaces: 45,
		Features: []string{"covered", "24/7 security", "cameras", "easy access"},
		Rating:   4.5, Type: TypePremium, OpenHours: "24h",
	},
	{
		ID: 2, Name: "Parking Plaza Centro",
		Location: geo.Location{Lat: 3.4530, Lng: -76.5330},
		Available: true, PricePerHour: 3500, Capacity: 80, AvailableSpaces: 23,
		Features: []string{"covered", "security", "pedestrian access"},
		Rating:   4.2, Type: TypeStandard, OpenHours: "06:00-22:00",
	},
	{
		ID: 3, Name: "Estacionamiento Premium Elite",
		Location: geo.Location{Lat: 3.4700, Lng: -76.5140},
		Available: false, PricePerHour: 5000, Capacity: 200, AvailableSpaces: 0,
		Features: []string{"covered", "24/7 security", "cameras", "valet", "car wash"},
		Rating:   4.8, Type: TypeLuxury, OpenHours: "24h",
	},
	{
		ID: 4, Name: "Parqueadero El Bosque",
		Location: geo.Location{Lat: 3.4670, Lng: -76.5130},
		Available: true, PricePerHour: 3000, Capacity: 150, AvailableSpaces: 67,
		Features: []string{"semi-covered", "security", "cameras"},
		Rating:   4.0, Type: TypeStandard, OpenHours: "05:00-23:00",
	},
	{
		ID: 5, Name: "Centro Comercial Chipichape",
		Location: geo.Location{Lat: 3.4810, Lng: -76.5420},
		Available: true, PricePerHour: 2500, Capacity: 300, AvailableSpaces: 128,
		Features: []string{"covered", "24/7 security", "mall access"},
		Rating:   4.3, Type: TypeMall, OpenHours: "24h",
	},
	{
		ID: 6, Name: "Parqueadero Unicentro",
		Location: geo.Location{Lat: 3.3820, Lng: -76.5360},
		Available: true, PricePerHour: 3000, Capacity: 400, AvailableSpaces: 89,
		Features: []string{"covered", "security", "mall access"},
		Rating:   4.1, Type: TypeMall, OpenHours: "24h",
	},
	{
		ID: 7, Name: "Terminal Transporte",
		Location: geo.Location{Lat: 3.4220, Lng: -76.5020},
		Available: false, PricePerHour: 2000, Capacity: 250, AvailableSpaces: 0,
		Features: []string{"open air", "basic security"},
		Rating:   3.5, Type: TypeBasic, OpenHours: "24h",
	},
	{
		ID: 8, Name: "Parqueadero Granada VIP",
		Location: geo.Location{Lat: 3.4610, Lng: -76.5290},
		Available: true, PricePerHour: 4500, Capacity: 100, AvailableSpaces: 12,
		Features: []string{"covered", "24/7 security", "cameras", "vip zone"},
		Rating:   4.6, Type: TypePremium, OpenHours: "24h",
	},
	{
		ID: 9, Name: "Universidad del Valle",
		Location: geo.Location{Lat: 3.3770, Lng: -76.5320},
		Available: true, PricePerHour: 1500, Capacity: 180, AvailableSpaces: 95,
		Features: []string{"open air", "basic security"},
		Rating:   3.8, Type: TypeUniversity, OpenHours: "06:00-22:00",
	},
	{
		ID: 10, Name: "San Antonio Plaza",
		Location: geo.Location{Lat: 3.4540, Lng: -76.5390},
		Available: true, PricePerHour: 4500, Capacity: 90, AvailableSpaces: 8,
		Features: []string{"covered", "security", "cultural district"},
		Rating:   4.4, Type: TypeCultural, OpenHours: "08:00-24:00",
	},
	{
		ID: 11, Name: "Centro Histórico Parking",
		Location: geo.Location{Lat: 3.4500, Lng: -76.5310},
		Available: true, PricePerHour: 3200, Capacity: 95, AvailableSpaces: 34,
		Features: []string{"semi-covered", "security", "pedestrian access"},
		Rating:   4.0, Type: TypeStandard, OpenHours: "07:00-22:00",
	},
	{
		ID: 12, Name: "Plaza de Toros Parking",
		Location: geo.Location{Lat: 3.4620, Lng: -76.5260},
		Available: true, PricePerHour: 2800, Capacity: 150, AvailableSpaces: 78,
		Features: []string{"open air", "basic security"},
		Rating:   3.7, Type: TypeBasic, OpenHours: "24h",
	},
	{
		ID: 13, Name: "Zona Sur Premium",
		Location: geo.Location{Lat: 3.3790, Lng: -76.5340},
		Available: true, PricePerHour: 3500, Capacity: 110, AvailableSpaces: 42,
		Features: []string{"covered", "24/7 security", "wifi"},
		Rating:   4.3, Type: TypePremium, OpenHours: "24h",
	},
	{
		ID: 14, Name: "Terminal Oriente",
		Location: geo.Location{Lat: 3.4190, Lng: -76.4980},
		Available: true, PricePerHour: 2200, Capacity: 180, AvailableSpaces: 95,
		Features: []string{"open air", "basic security"},
		Rating:   3.5, Type: TypeBasic, OpenHours: "24h",
	},
	{
		ID: 15, Name: "Chipichape Norte",
		Location: geo.Location{Lat: 3.4820, Lng: -76.5380},
		Available: true, PricePerHour: 4200, Capacity: 200, AvailableSpaces: 67,
		Features: []string{"covered", "24/7 security", "valet"},
		Rating:   4.5, Type: TypePremium, OpenHours: "24h",
	},
}
