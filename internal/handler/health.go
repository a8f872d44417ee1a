package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-booking/internal/worker"
)

// Health is a simple health-check endpoint used by load balancers.  It
// returns a plain text "ok" with status 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// ReaperStatser reports the pending-booking reaper's counters.
type ReaperStatser interface {
	Stats() worker.ReaperStats
}

// ReaperStats serves GET /v1/admin/reaper.
func ReaperStats(r ReaperStatser) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, r.Stats())
	}
}
