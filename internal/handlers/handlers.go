package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "flightsim/internal/errors"
	"flightsim/internal/logger"
	"flightsim/internal/search"
	"flightsim/internal/service"
)

// Handlers exposes the HTTP API over the services. searchClient is nil
// when Elasticsearch is disabled.
type Handlers struct {
	services     *service.Services
	emails       service.EmailStore
	searchClient *search.ElasticsearchClient
}

// New creates the handler set.
func New(services *service.Services, emails service.EmailStore, searchClient *search.ElasticsearchClient) *Handlers {
	return &Handlers{
		services:     services,
		emails:       emails,
		searchClient: searchClient,
	}
}

// respondError maps domain errors to HTTP statuses. Anything unmatched
// is a storage failure and comes back as a 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperrors.ErrFlightNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound),
		errors.Is(err, apperrors.ErrEmailNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidSeat),
		errors.Is(err, apperrors.ErrDemandOutOfRange):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrSeatConflict),
		errors.Is(err, apperrors.ErrSoldOut),
		errors.Is(err, apperrors.ErrAlreadyCancelled),
		errors.Is(err, apperrors.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrHoldExpired):
		status = http.StatusGone
	case errors.Is(err, apperrors.ErrPaymentDeclined):
		status = http.StatusPaymentRequired
	case errors.Is(err, apperrors.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		logger.Get().Error("request failed", "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}
