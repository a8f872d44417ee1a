package handler

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/seat-booking/internal/model"
)

// BookingService is the booking engine as seen by BookingHandler.
type BookingService interface {
	AttemptBooking(ctx context.Context, showID uint64, contact string, seatNumbers []int) (*model.Booking, error)
	ListSeats(ctx context.Context, showID uint64) ([]model.Seat, error)
	GetBooking(ctx context.Context, id uint64) (*model.Booking, error)
}

// BookingHandler serves the /v1/bookings endpoints.
type BookingHandler struct {
	bookings BookingService
	log      logrus.FieldLogger
}

func NewBookingHandler(bookings BookingService, log logrus.FieldLogger) *BookingHandler {
	return &BookingHandler{bookings: bookings, log: log}
}

type createBookingRequest struct {
	ShowID      uint64 `json:"show_id"`
	UserEmail   string `json:"user_email"`
	SeatNumbers []int  `json:"seat_numbers"`
}

// bookingResponse is the JSON view of a booking.  Exactly one of Missing
// and ConflictSeats is set on a failed booking that has offending seats.
type bookingResponse struct {
	ID            uint64              `json:"id"`
	ShowID        uint64              `json:"show_id"`
	UserEmail     string              `json:"user_email"`
	SeatNumbers   []int               `json:"seat_numbers"`
	Status        model.BookingStatus `json:"status"`
	Reason        string              `json:"reason,omitempty"`
	Missing       []int               `json:"missing,omitempty"`
	ConflictSeats []int               `json:"conflictSeats,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

func newBookingResponse(b *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:          b.ID,
		ShowID:      b.ShowID,
		UserEmail:   b.UserEmail,
		SeatNumbers: b.SeatNumbers,
		Status:      b.Status,
		CreatedAt:   b.CreatedAt,
	}
	if resp.SeatNumbers == nil {
		resp.SeatNumbers = []int{}
	}
	switch out := b.Outcome().(type) {
	case model.Confirmed:
		resp.SeatNumbers = out.SeatNumbers
	case model.Failed:
		resp.Reason = out.Reason
		resp.Missing = out.Missing()
		resp.ConflictSeats = out.ConflictSeats()
	}
	return resp
}

type seatResponse struct {
	ID         uint64  `json:"id"`
	SeatNumber int     `json:"seat_number"`
	Booked     bool    `json:"booked"`
	BookingID  *uint64 `json:"booking_id"`
}

func newSeatResponse(s model.Seat) seatResponse {
	return seatResponse{ID: s.ID, SeatNumber: s.SeatNumber, Booked: s.Booked, BookingID: nullID(s.BookingID)}
}

func nullID(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	id := uint64(n.Int64)
	return &id
}

// maxSeatsPerBooking keeps the locking query well under the placeholder
// limit of a MySQL prepared statement.
const maxSeatsPerBooking = 1000

// validate reports the first problem with the request, or "".
func (r *createBookingRequest) validate() string {
	r.UserEmail = strings.TrimSpace(r.UserEmail)
	if r.ShowID == 0 || r.UserEmail == "" || len(r.SeatNumbers) == 0 {
		return "Missing required fields or invalid seat_numbers"
	}
	if len(r.SeatNumbers) > maxSeatsPerBooking {
		return fmt.Sprintf("seat_numbers must not list more than %d seats", maxSeatsPerBooking)
	}
	if _, err := mail.ParseAddress(r.UserEmail); err != nil {
		return "user_email must be a valid email address"
	}
	for _, n := range r.SeatNumbers {
		if n <= 0 {
			return "seat_numbers must be positive integers"
		}
	}
	return ""
}

// Create handles POST /v1/bookings.  A confirmed booking answers 201; a
// booking rejected for missing or taken seats answers 409 with the
// offending seat numbers.
func (h *BookingHandler) Create(c echo.Context) error {
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := body.validate(); msg != "" {
		return jsonError(c, http.StatusBadRequest, msg)
	}

	b, err := h.bookings.AttemptBooking(c.Request().Context(), body.ShowID, body.UserEmail, body.SeatNumbers)
	if err != nil {
		return storeError(c, h.log, err, "create booking")
	}
	status := http.StatusConflict
	if b.Status == model.BookingConfirmed {
		status = http.StatusCreated
	}
	return c.JSON(status, newBookingResponse(b))
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid booking id")
	}
	b, err := h.bookings.GetBooking(c.Request().Context(), id)
	if err != nil {
		return storeError(c, h.log, err, "get booking")
	}
	return c.JSON(http.StatusOK, newBookingResponse(b))
}

// Seats handles GET /v1/bookings/seats/:showId.  An unknown show yields
// an empty list.
func (h *BookingHandler) Seats(c echo.Context) error {
	showID, ok := pathID(c, "showId")
	if !ok {
		return jsonError(c, http.StatusBadRequest, "Invalid show id")
	}
	seats, err := h.bookings.ListSeats(c.Request().Context(), showID)
	if err != nil {
		return storeError(c, h.log, err, "list seats")
	}
	out := make([]seatResponse, len(seats))
	for i, s := range seats {
		out[i] = newSeatResponse(s)
	}
	return c.JSON(http.StatusOK, out)
}
