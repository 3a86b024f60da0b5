package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vso023/smartpark-project/internal/bus"
)

type availabilityRequest struct {
	Available *bool `json:"is_available" binding:"required"`
}

// PatchAvailability toggles a facility's availability flag and broadcasts
// the change to every listener.
func (h *Handler) PatchAvailability(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid facility id"})
		return
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_available is required"})
		return
	}

	facility, ok := h.catalog.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("facility %d not found", id)})
		return
	}

	h.bus.Publish(bus.Event{FacilityID: id, Available: *req.Available})

	status := "unavailable"
	if *req.Available {
		status = "available"
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           id,
		"name":         facility.Name,
		"is_available": *req.Available,
		"message":      fmt.Sprintf("%s is now %s", facility.Name, status),
	})
}
