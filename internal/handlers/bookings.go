package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "flightsim/internal/errors"
	"flightsim/internal/models"
)

// requesterAllowed reports whether the authenticated user owns the
// resource or is an admin.
func requesterAllowed(c *gin.Context, ownerEmail string) bool {
	return c.GetBool("is_admin") || c.GetString("user_email") == ownerEmail
}

// InitiateBooking handles POST /bookings/initiate.
func (h *Handlers) InitiateBooking(c *gin.Context) {
	var req models.InitiateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.Initiate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmBooking handles POST /bookings/confirm.
func (h *Handlers) ConfirmBooking(c *gin.Context) {
	var req models.ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.services.Bookings.Confirm(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetBooking handles GET /bookings/:pnr.
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.services.Bookings.Get(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"booking": booking,
	})
}

// CancelBooking handles DELETE /bookings/:pnr. Only the passenger who
// made the booking or an admin may cancel it.
func (h *Handlers) CancelBooking(c *gin.Context) {
	booking, err := h.services.Bookings.Get(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	if !requesterAllowed(c, booking.PassengerEmail) {
		respondError(c, apperrors.ErrForbidden)
		return
	}

	resp, err := h.services.Bookings.Cancel(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReceipt handles GET /bookings/:pnr/receipt.
func (h *Handlers) GetReceipt(c *gin.Context) {
	receipt, err := h.services.Bookings.Receipt(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"receipt": receipt,
	})
}

// BookingHistory handles GET /bookings?email=.
func (h *Handlers) BookingHistory(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query parameter is required"})
		return
	}
	if !requesterAllowed(c, email) {
		respondError(c, apperrors.ErrForbidden)
		return
	}

	bookings, err := h.services.Bookings.History(c.Request.Context(), email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"count":    len(bookings),
		"bookings": bookings,
	})
}
