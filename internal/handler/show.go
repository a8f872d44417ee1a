package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/seat-booking/internal/model"
)

// ShowService is the show lifecycle used by ShowHandler.
type ShowService interface {
	CreateShow(ctx context.Context, name string, startTime time.Time, totalSeats int) (*model.Show, error)
	ListShows(ctx context.Context) ([]model.Show, error)
	GetShow(ctx context.Context, id uint64) (*model.Show, error)
	DeleteShow(ctx context.Context, id uint64) error
}

// ShowHandler serves the /v1/shows endpoints.
type ShowHandler struct {
	shows ShowService
	log   logrus.FieldLogger
}

func NewShowHandler(shows ShowService, log logrus.FieldLogger) *ShowHandler {
	return &ShowHandler{shows: shows, log: log}
}

type createShowRequest struct {
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	TotalSeats *int   `json:"total_seats"`
}

// Create handles POST /v1/shows.  The show's seats are created with it.
func (h *ShowHandler) Create(c echo.Context) error {
	var body createShowRequest
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || strings.TrimSpace(body.StartTime) == "" || body.TotalSeats == nil {
		return jsonError(c, http.StatusBadRequest, "Missing required fields")
	}
	if *body.TotalSeats <= 0 {
		return jsonError(c, http.StatusBadRequest, "total_seats must be a positive number")
	}
	if *body.TotalSeats > model.MaxSeatsPerShow {
		return jsonError(c, http.StatusBadRequest, fmt.Sprintf("total_seats must not exceed %d", model.MaxSeatsPerShow))
	}
	start, err := time.Parse(time.RFC3339, strings.TrimSpace(body.StartTime))
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "start_time must be an RFC3339 timestamp")
	}

	show, err := h.shows.CreateShow(c.Request().Context(), name, start, *body.TotalSeats)
	if err != nil {
		return storeError(c, h.log, err, "create show")
	}
	return c.JSON(http.StatusCreated, show)
}

// List handles GET /v1/shows.
func (h *ShowHandler) List(c echo.Context) error {
	shows, err := h.shows.ListShows(c.Request().Context())
	if err != nil {
		return storeError(c, h.log, err, "list shows")
	}
	return c.JSON(http.StatusOK, shows)
}

// Get handles GET /v1/shows/:id.
func (h *ShowHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid show id")
	}
	show, err := h.shows.GetShow(c.Request().Context(), id)
	if err != nil {
		return storeError(c, h.log, err, "get show")
	}
	return c.JSON(http.StatusOK, show)
}

// Delete handles DELETE /v1/shows/:id and removes the show with all of
// its seats and bookings.
func (h *ShowHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid show id")
	}
	if err := h.shows.DeleteShow(c.Request().Context(), id); err != nil {
		return storeError(c, h.log, err, "delete show")
	}
	return c.JSON(http.StatusOK, map[string]any{"message": "Show deleted", "id": id})
}
