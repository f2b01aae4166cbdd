package errors

import "errors"

// Expected booking outcomes. Handlers map these to HTTP statuses with
// errors.Is; anything unmatched is treated as a storage failure.
var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrSoldOut          = errors.New("no available seats on this flight")
	ErrSeatConflict     = errors.New("seat is already booked or on hold")
	ErrHoldExpired      = errors.New("seat hold not found or expired")
	ErrPaymentDeclined  = errors.New("payment declined")
	ErrAlreadyCancelled = errors.New("booking already cancelled")
	ErrDemandOutOfRange = errors.New("demand level must be between 0.1 and 10.0")
	ErrInvalidSeat      = errors.New("seat number is not part of the flight layout")
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")
var ErrEmailTaken = errors.New("email already registered")
var ErrEmailNotFound = errors.New("queued email not found")
