package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/seat-booking/internal/repository"
)

const internalError = "Internal server error"

func jsonError(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}

// storeError maps not-found sentinels to 404 and everything else to a
// logged 500.
func storeError(c echo.Context, log logrus.FieldLogger, err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrShowNotFound):
		return jsonError(c, http.StatusNotFound, "Show not found")
	case errors.Is(err, repository.ErrBookingNotFound):
		return jsonError(c, http.StatusNotFound, "Booking not found")
	}
	log.WithError(err).WithField("op", op).Error("request failed")
	return jsonError(c, http.StatusInternalServerError, internalError)
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
