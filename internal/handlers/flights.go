package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"flightsim/internal/logger"
	"flightsim/internal/models"
)

// ListFlights handles GET /flights.
func (h *Handlers) ListFlights(c *gin.Context) {
	flights, err := h.services.Flights.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"count":   len(flights),
		"flights": flights,
	})
}

// GetFlight handles GET /flights/:id.
func (h *Handlers) GetFlight(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := h.services.Flights.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"flight": flight,
	})
}

// GetFlightPrice handles GET /flights/:id/price.
func (h *Handlers) GetFlightPrice(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.services.Flights.CurrentPrice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetSeatMap handles GET /flights/:id/seats.
func (h *Handlers) GetSeatMap(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.services.Flights.SeatMap(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetFareHistory handles GET /flights/:id/fare-history.
func (h *Handlers) GetFareHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := h.services.Flights.FareHistory(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"flight_id": id,
		"history":   history,
	})
}

// SearchFlights handles GET /search. The q parameter triggers the
// full-text index when available; the structured filters always run
// against the database.
func (h *Handlers) SearchFlights(c *gin.Context) {
	if q := c.Query("q"); q != "" && h.searchClient != nil {
		flights, err := h.searchClient.SearchFlights(c.Request.Context(), q, c.Query("date"), 20)
		if err != nil {
			logger.Get().Warn("full-text search failed, falling back to database", "error", err)
		} else {
			c.JSON(http.StatusOK, gin.H{
				"status":  "success",
				"count":   len(flights),
				"flights": flights,
			})
			return
		}
	}

	query := models.SearchQuery{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
		Sort:        c.Query("sort"),
	}
	if v := c.Query("min_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			query.MinPrice = &f
		}
	}
	if v := c.Query("max_price"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			query.MaxPrice = &f
		}
	}
	if v := c.Query("min_seats"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			query.MinSeats = &n
		}
	}

	flights, err := h.services.Flights.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"count":   len(flights),
		"flights": flights,
	})
}

// GetStats handles GET /stats.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.services.Flights.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats":  stats,
	})
}

// ListAirlines handles GET /airlines.
func (h *Handlers) ListAirlines(c *gin.Context) {
	airlines, err := h.services.Flights.Airlines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"airlines": airlines,
	})
}

// ListAirports handles GET /airports.
func (h *Handlers) ListAirports(c *gin.Context) {
	airports, err := h.services.Flights.Airports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"airports": airports,
	})
}
