// Package router registers the HTTP routes and middleware of the API.
package router

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/seat-booking/internal/config"
	"github.com/iliyamo/seat-booking/internal/handler"
	"github.com/iliyamo/seat-booking/internal/middleware"
)

// Deps carries everything the routes need.  Redis may be nil, which
// turns caching and rate limiting off.
type Deps struct {
	Shows     handler.ShowService
	Bookings  handler.BookingService
	Reaper    handler.ReaperStatser
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       logrus.FieldLogger
}

// New builds the echo instance with global middleware and all routes.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.Logger(d.Log))
	// inside Logger, so a recovered panic still gets an access log line
	e.Use(echomw.Recover())

	Register(e, d)
	return e
}

// Register maps every endpoint.  Read endpoints for shows go through the
// Redis response cache; writes go through the rate limiter.  Seat maps
// and bookings are never cached.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cache := middleware.NewRedisCache(d.Cache, d.Redis, d.Log)
	limit := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)

	v1 := e.Group("/v1")

	shows := handler.NewShowHandler(d.Shows, d.Log)
	v1.POST("/shows", shows.Create, limit)
	v1.GET("/shows", shows.List, cache)
	v1.GET("/shows/:id", shows.Get, cache)
	v1.DELETE("/shows/:id", shows.Delete, limit)

	bookings := handler.NewBookingHandler(d.Bookings, d.Log)
	v1.GET("/bookings/seats/:showId", bookings.Seats)
	v1.POST("/bookings", bookings.Create, limit)
	v1.GET("/bookings/:id", bookings.Get)

	if d.Reaper != nil {
		v1.GET("/admin/reaper", handler.ReaperStats(d.Reaper))
	}
}
