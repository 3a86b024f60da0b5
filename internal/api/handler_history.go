package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// historyLimit caps how many recent searches the history endpoint returns.
const historyLimit = 10

// GetSearchHistory returns the most recent searches, newest first.
func (h *Handler) GetSearchHistory(c *gin.Context) {
	entries, err := h.store.RecentSearches(c.Request.Context(), historyLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": entries})
}
