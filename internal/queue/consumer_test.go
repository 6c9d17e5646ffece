package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatLineBookingCreated(t *testing.T) {
	line, err := formatLine(Envelope{
		Kind: KindBookingCreated,
		BookingCreated: &BookingEvent{
			BookingID:      42,
			UserID:         7,
			ShowtimeID:     3,
			TheaterName:    "Galaxy Central",
			ScreenName:     "Screen 2",
			MovieTitle:     "Interstellar",
			StartsAt:       "2026-10-01T18:30:00Z",
			SeatLabels:     []string{"B7", "B8"},
			TotalCents:     90000,
			PaymentOrderID: "ord-1",
			OccurredAt:     "2026-09-01T10:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, line, "Booking created")
	assert.Contains(t, line, "booking_id=42")
	assert.Contains(t, line, "seats=[B7,B8]")
	assert.Contains(t, line, `"Interstellar"`)
}

func TestFormatLineCancellationRefundFlag(t *testing.T) {
	line, err := formatLine(Envelope{
		Kind: KindBookingCancelled,
		BookingCancelled: &CancellationEvent{
			BookingID:     42,
			UserID:        7,
			ShowtimeID:    3,
			MovieTitle:    "Interstellar",
			RefundPending: true,
			Reason:        "cancelled by customer",
			OccurredAt:    "2026-09-01T10:00:00Z",
		},
	})
	require.NoError(t, err)
	assert.Contains(t, line, "refund_pending=yes")
}

func TestFormatLineMissingPayload(t *testing.T) {
	_, err := formatLine(Envelope{Kind: KindShowtimeCancelled})
	assert.Error(t, err)
}

func TestFormatLineUnknownKind(t *testing.T) {
	_, err := formatLine(Envelope{Kind: "something.else"})
	assert.Error(t, err)
}

func TestSeatListEmpty(t *testing.T) {
	assert.Equal(t, "[]", seatList(nil))
	assert.Equal(t, "[A1]", seatList([]string{"A1"}))
}
