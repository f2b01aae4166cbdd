package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flightsim/internal/models"
)

// SetDemand handles POST /admin/demand.
func (h *Handlers) SetDemand(c *gin.Context) {
	var req models.SetDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Flights.SetDemand(c.Request.Context(), req.FlightID, *req.DemandLevel)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RetryEmail handles POST /admin/email-queue/:id/retry.
func (h *Handlers) RetryEmail(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.emails.Retry(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"email_id": id,
	})
}

// EmailQueue handles GET /admin/email-queue.
func (h *Handlers) EmailQueue(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	emails, err := h.emails.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"count":  len(emails),
		"emails": emails,
	})
}
