package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vso023/smartpark-project/internal/geo"
	"github.com/vso023/smartpark-project/internal/model"
	"github.com/vso023/smartpark-project/internal/parking"
	"github.com/vso023/smartpark-project/internal/search"
)

type searchRequest struct {
	Latitude  *float64        `json:"latitude" binding:"required"`
	Longitude *float64        `json:"longitude" binding:"required"`
	Filters   parking.Filters `json:"filters"`
}

// SearchNearest runs a full search cycle for the requested origin and
// returns the best facility with alternatives and a display route.
func (h *Handler) SearchNearest(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	origin := geo.Location{Lat: *req.Latitude, Lng: *req.Longitude}
	result, err := h.search.Search(c.Request.Context(), origin, req.Filters)
	if err != nil {
		status, message := failureResponse(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	// History is best effort: a storage hiccup must not fail the search.
	if h.store != nil {
		entry := model.SearchHistory{
			Latitude:         origin.Lat,
			Longitude:        origin.Lng,
			ResultFacilityID: result.Primary.ID,
			FacilityName:     result.Primary.Name,
			CreatedAt:        time.Now().UTC(),
		}
		if err := h.store.RecordSearch(c.Request.Context(), entry); err != nil {
			c.Error(err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// failureResponse maps a search failure to an HTTP status and client message.
func failureResponse(err error) (int, string) {
	f, ok := search.AsFailure(err)
	if !ok {
		return http.StatusInternalServerError, "internal error"
	}
	switch f.Kind {
	case search.FailInvalidLocation:
		return http.StatusBadRequest, f.Message
	case search.FailRateLimited:
		return http.StatusTooManyRequests, f.Message
	case search.FailNoAvailability:
		return http.StatusNotFound, f.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
