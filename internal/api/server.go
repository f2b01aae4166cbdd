package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flightsim/internal/cache"
	"flightsim/internal/config"
	"flightsim/internal/database"
	"flightsim/internal/handlers"
	"flightsim/internal/logger"
	"flightsim/internal/metrics"
	"flightsim/internal/middleware"
	"flightsim/internal/service"
)

// Server wraps the gin engine and the underlying http.Server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	db         *database.DB
}

// NewServer builds the router with all routes and middleware.
func NewServer(cfg *config.Config, h *handlers.Handlers, users service.UserStore, authCache *cache.Cache, db *database.DB) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	s := &Server{
		router: router,
		db:     db,
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
			IdleTimeout:  2 * cfg.RequestTimeout,
		},
	}

	router.GET("/health", s.health)
	router.GET("/metrics", metrics.Handler())

	router.POST("/users/register", h.Register)

	router.GET("/airlines", h.ListAirlines)
	router.GET("/airports", h.ListAirports)
	router.GET("/flights", h.ListFlights)
	router.GET("/flights/:id", h.GetFlight)
	router.GET("/flights/:id/price", h.GetFlightPrice)
	router.GET("/flights/:id/seats", h.GetSeatMap)
	router.GET("/flights/:id/fare-history", h.GetFareHistory)
	router.GET("/search", h.SearchFlights)
	router.GET("/stats", h.GetStats)

	authed := router.Group("/", middleware.BasicAuth(users, authCache))
	{
		authed.POST("/bookings/initiate", h.InitiateBooking)
		authed.POST("/bookings/confirm", h.ConfirmBooking)
		authed.GET("/bookings", h.BookingHistory)
		authed.GET("/bookings/:pnr", h.GetBooking)
		authed.GET("/bookings/:pnr/receipt", h.GetReceipt)
		authed.DELETE("/bookings/:pnr", h.CancelBooking)
	}

	admin := router.Group("/admin", middleware.BasicAuth(users, authCache), middleware.AdminOnly(users))
	{
		admin.POST("/demand", h.SetDemand)
		admin.GET("/email-queue", h.EmailQueue)
		admin.POST("/email-queue/:id/retry", h.RetryEmail)
	}

	return s
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"

	if s.db != nil {
		if err := s.db.HealthCheck(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			dbStatus = err.Error()
		}
	}

	resp := gin.H{
		"status":   "ok",
		"database": dbStatus,
		"time":     time.Now().UTC(),
	}
	if s.db != nil {
		resp["pool"] = s.db.Stats()
	}
	if status != http.StatusOK {
		resp["status"] = "degraded"
	}
	c.JSON(status, resp)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until the server is shut down.
func (s *Server) Start() error {
	logger.Get().Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
