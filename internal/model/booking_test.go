package model

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingOutcome(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		b := Booking{Status: BookingPending, SeatNumbers: SeatNumbers{1}}
		assert.Equal(t, Pending{}, b.Outcome())
		assert.Equal(t, BookingPending, b.Outcome().Status())
	})

	t.Run("confirmed keeps requested seats", func(t *testing.T) {
		b := Booking{Status: BookingConfirmed, SeatNumbers: SeatNumbers{2, 1}}
		out, ok := b.Outcome().(Confirmed)
		require.True(t, ok)
		assert.Equal(t, []int{2, 1}, out.SeatNumbers)
	})

	t.Run("invalid seats exposes missing only", func(t *testing.T) {
		b := Booking{
			Status:      BookingFailed,
			Reason:      sql.NullString{String: ReasonInvalidSeats, Valid: true},
			FailedSeats: SeatNumbers{999},
		}
		out, ok := b.Outcome().(Failed)
		require.True(t, ok)
		assert.Equal(t, []int{999}, out.Missing())
		assert.Nil(t, out.ConflictSeats())
	})

	t.Run("seats taken exposes conflicts only", func(t *testing.T) {
		b := Booking{
			Status:      BookingFailed,
			Reason:      sql.NullString{String: ReasonSeatsTaken, Valid: true},
			FailedSeats: SeatNumbers{2},
		}
		out, ok := b.Outcome().(Failed)
		require.True(t, ok)
		assert.Nil(t, out.Missing())
		assert.Equal(t, []int{2}, out.ConflictSeats())
	})

	t.Run("expired has neither list", func(t *testing.T) {
		b := Booking{
			Status: BookingFailed,
			Reason: sql.NullString{String: ReasonPendingExpired, Valid: true},
		}
		out := b.Outcome().(Failed)
		assert.Nil(t, out.Missing())
		assert.Nil(t, out.ConflictSeats())
	})
}

func TestSeatNumbersScanValue(t *testing.T) {
	v, err := SeatNumbers{3, 3, 7}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[3,3,7]", v)

	v, err = SeatNumbers(nil).Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	var s SeatNumbers
	require.NoError(t, s.Scan([]byte("[1,2]")))
	assert.Equal(t, SeatNumbers{1, 2}, s)

	require.NoError(t, s.Scan(nil))
	assert.Nil(t, s)

	assert.Error(t, s.Scan(42))
	assert.Error(t, s.Scan("not json"))
}
