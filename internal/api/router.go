package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/vso023/smartpark-project/config"
	"github.com/vso023/smartpark-project/internal/bus"
	"github.com/vso023/smartpark-project/internal/mw"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/search"
	"github.com/vso023/smartpark-project/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *search.Service, s store.Store, catalog *parking.Catalog, b *bus.Bus,
	webpushOptions *webpush.Options, serverCfg config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(svc, s, catalog, b, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(serverCfg.RateLimitPerSec), serverCfg.RateLimitBurst)

	responseTTL := time.Duration(serverCfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(responseTTL, 2*responseTTL)
	caching := mw.Cache(cacheStore, responseTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// POST /api/search/nearest
		api.POST("/search/nearest", handler.SearchNearest)

		// PATCH /api/parking/{id}/availability
		api.PATCH("/parking/:id/availability", handler.PatchAvailability)

		// GET /api/search/history
		api.GET("/search/history", caching, handler.GetSearchHistory)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
