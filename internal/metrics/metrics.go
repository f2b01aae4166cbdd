package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	BookingsConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_bookings_confirmed_total",
		Help: "Number of bookings confirmed.",
	})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_bookings_cancelled_total",
		Help: "Number of bookings cancelled.",
	})

	PaymentsDeclined = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_payments_declined_total",
		Help: "Number of simulated payments declined.",
	})

	HoldsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_seat_holds_created_total",
		Help: "Number of seat holds created.",
	})

	HoldsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_seat_holds_expired_total",
		Help: "Number of expired seat holds swept.",
	})

	FareChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_fare_changes_total",
		Help: "Number of fare history entries recorded.",
	})

	SimulationTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_simulation_ticks_total",
		Help: "Number of completed market simulation ticks.",
	})

	EmailsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flightsim_emails_sent_total",
		Help: "Number of queued emails delivered.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flightsim_http_requests_total",
		Help: "HTTP requests by method, path and status.",
	}, []string{"method", "path", "status"})
)

// Handler exposes the Prometheus scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
