package booking_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/model"
)

func TestIsHolding(t *testing.T) {
	assert.True(t, bk.IsHolding(model.BookingPending))
	assert.True(t, bk.IsHolding(model.BookingActive))
	assert.True(t, bk.IsHolding(model.BookingAccepted))
	assert.False(t, bk.IsHolding(model.BookingCancelled))
	assert.False(t, bk.IsHolding(model.BookingUserCancelled))
	assert.False(t, bk.IsHolding(""))
}

func TestHoldingPlaceholders(t *testing.T) {
	placeholders, args := bk.HoldingPlaceholders()
	assert.Equal(t, "?,?,?", placeholders)
	require.Len(t, args, 3)
	assert.Equal(t, model.BookingPending, args[0])
	assert.Equal(t, model.BookingActive, args[1])
	assert.Equal(t, model.BookingAccepted, args[2])
}

func TestValidateSeatSelection(t *testing.T) {
	assert.ErrorIs(t, bk.ValidateSeatSelection(nil), bk.ErrNoSeats)
	assert.ErrorIs(t, bk.ValidateSeatSelection([]uint64{}), bk.ErrNoSeats)
	assert.ErrorIs(t, bk.ValidateSeatSelection([]uint64{1, 0}), bk.ErrInvalidSeat)
	assert.ErrorIs(t, bk.ValidateSeatSelection([]uint64{5, 7, 5}), bk.ErrDuplicateSeat)
	assert.NoError(t, bk.ValidateSeatSelection([]uint64{5, 7, 9}))
}

func TestConflictingReturnsSortedIntersection(t *testing.T) {
	held := map[uint64]struct{}{9: {}, 3: {}, 12: {}}
	got := bk.Conflicting([]uint64{12, 3, 4, 5}, held)
	assert.Equal(t, []uint64{3, 12}, got)

	assert.Empty(t, bk.Conflicting([]uint64{4, 5}, held))
}

func TestBookable(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(3 * time.Hour)

	st := &model.Showtime{Status: model.ShowtimeScheduled, StartsAt: future}
	assert.NoError(t, bk.Bookable(st, now))

	st.Status = model.ShowtimeCancelled
	assert.ErrorIs(t, bk.Bookable(st, now), bk.ErrShowtimeNotOpen)

	st.Status = model.ShowtimeScheduled
	st.StartsAt = now.Add(-time.Minute)
	assert.ErrorIs(t, bk.Bookable(st, now), bk.ErrShowtimeNotOpen)

	// Starts exactly now: too late.
	st.StartsAt = now
	assert.ErrorIs(t, bk.Bookable(st, now), bk.ErrShowtimeNotOpen)
}

func TestCanConfirmPayment(t *testing.T) {
	assert.NoError(t, bk.CanConfirmPayment(&model.Booking{Status: model.BookingPending}))
	assert.ErrorIs(t, bk.CanConfirmPayment(&model.Booking{Status: model.BookingActive}), bk.ErrNotPayable)
	assert.ErrorIs(t, bk.CanConfirmPayment(&model.Booking{Status: model.BookingUserCancelled}), bk.ErrNotPayable)
}

func TestCanCancelByUserCutoff(t *testing.T) {
	cutoff := 2 * time.Hour
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	b := &model.Booking{Status: model.BookingActive}

	// 2h01m of lead time: allowed.
	assert.NoError(t, bk.CanCancelByUser(b, now.Add(2*time.Hour+time.Minute), now, cutoff))

	// 1h59m: inside the cutoff window.
	err := bk.CanCancelByUser(b, now.Add(2*time.Hour-time.Minute), now, cutoff)
	assert.ErrorIs(t, err, bk.ErrCutoffPassed)

	// Exactly 2h: still rejected, the window must be strictly larger.
	err = bk.CanCancelByUser(b, now.Add(2*time.Hour), now, cutoff)
	assert.ErrorIs(t, err, bk.ErrCutoffPassed)
}

func TestCanCancelByUserStates(t *testing.T) {
	cutoff := 2 * time.Hour
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	startsAt := now.Add(24 * time.Hour)

	for _, status := range []string{model.BookingPending, model.BookingActive} {
		b := &model.Booking{Status: status}
		assert.NoError(t, bk.CanCancelByUser(b, startsAt, now, cutoff), status)
	}
	for _, status := range []string{model.BookingAccepted, model.BookingCancelled, model.BookingUserCancelled} {
		b := &model.Booking{Status: status}
		assert.ErrorIs(t, bk.CanCancelByUser(b, startsAt, now, cutoff), bk.ErrNotCancellable, status)
	}
}

func TestPaymentStatusOnCancel(t *testing.T) {
	assert.Equal(t, model.PaymentRefundPending, bk.PaymentStatusOnCancel(model.PaymentPaid))
	assert.Equal(t, model.PaymentCancelled, bk.PaymentStatusOnCancel(model.PaymentPending))
	assert.Equal(t, model.PaymentCancelled, bk.PaymentStatusOnCancel(model.PaymentFailed))
}

func TestCanVerify(t *testing.T) {
	paid := &model.Booking{Status: model.BookingActive, PaymentStatus: model.PaymentPaid}

	assert.NoError(t, bk.CanVerify(paid, 7, 7))

	// Staff from another theater is refused before any state check.
	assert.ErrorIs(t, bk.CanVerify(paid, 7, 8), bk.ErrTheaterMismatch)

	accepted := &model.Booking{Status: model.BookingAccepted, PaymentStatus: model.PaymentPaid}
	assert.ErrorIs(t, bk.CanVerify(accepted, 7, 7), bk.ErrAlreadyVerified)

	pending := &model.Booking{Status: model.BookingPending, PaymentStatus: model.PaymentPending}
	assert.ErrorIs(t, bk.CanVerify(pending, 7, 7), bk.ErrNotVerifiable)

	unpaid := &model.Booking{Status: model.BookingActive, PaymentStatus: model.PaymentPending}
	assert.ErrorIs(t, bk.CanVerify(unpaid, 7, 7), bk.ErrNotVerifiable)
}

func TestSeatsUnavailableErrorNamesSeats(t *testing.T) {
	err := &bk.SeatsUnavailableError{Labels: []string{"B7", "B8"}}
	assert.Equal(t, "seats unavailable: B7, B8", err.Error())
}
