package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/search"
	"github.com/vso023/smartpark-project/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	search  *search.Service
	store   store.Store
	catalog *parking.Catalog
	bus     *bus.Bus
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(svc *search.Service, s store.Store, catalog *parking.Catalog, b *bus.Bus, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		search:  svc,
		store:   s,
		catalog: catalog,
		bus:     b,
		webpush: webpushOptions,
	}
}
