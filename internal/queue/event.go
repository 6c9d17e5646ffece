// Package queue defines notification payloads exchanged over the
// message broker and the background consumer that turns them into
// customer-facing notification lines.
package queue

// Event kinds carried on the notifications queue. The consumer switches
// on this value to pick a log format.
const (
	KindBookingCreated    = "booking.created"
	KindBookingConfirmed  = "booking.confirmed"
	KindBookingCancelled  = "booking.cancelled"
	KindShowtimeCancelled = "showtime.cancelled"
)

// Envelope wraps every published event with its kind so a single queue
// can carry all notification types.
type Envelope struct {
	Kind              string             `json:"kind"`
	BookingCreated    *BookingEvent      `json:"booking_created,omitempty"`
	BookingConfirmed  *BookingEvent      `json:"booking_confirmed,omitempty"`
	BookingCancelled  *CancellationEvent `json:"booking_cancelled,omitempty"`
	ShowtimeCancelled *ShowtimeEvent     `json:"showtime_cancelled,omitempty"`
}

// BookingEvent is published when a booking is created (seats held,
// payment pending) and again when payment is confirmed. It carries
// enough context for downstream consumers to notify the customer
// without querying the primary database.
type BookingEvent struct {
	BookingID      uint64   `json:"booking_id"`
	UserID         uint64   `json:"user_id"`
	ShowtimeID     uint64   `json:"showtime_id"`
	TheaterName    string   `json:"theater_name"`
	ScreenName     string   `json:"screen_name"`
	MovieTitle     string   `json:"movie_title"`
	StartsAt       string   `json:"starts_at"`
	SeatLabels     []string `json:"seats"`
	TotalCents     uint64   `json:"total_cents"`
	PaymentOrderID string   `json:"payment_order_id"`
	OccurredAt     string   `json:"occurred_at"`
}

// CancellationEvent is published when a booking is cancelled, either by
// the customer or as part of a showtime cancellation cascade.
type CancellationEvent struct {
	BookingID     uint64 `json:"booking_id"`
	UserID        uint64 `json:"user_id"`
	ShowtimeID    uint64 `json:"showtime_id"`
	MovieTitle    string `json:"movie_title"`
	RefundPending bool   `json:"refund_pending"`
	Reason        string `json:"reason"`
	OccurredAt    string `json:"occurred_at"`
}

// ShowtimeEvent is published once per cancelled showtime, summarizing
// how many bookings were swept up in the cascade.
type ShowtimeEvent struct {
	ShowtimeID        uint64 `json:"showtime_id"`
	MovieTitle        string `json:"movie_title"`
	StartsAt          string `json:"starts_at"`
	BookingsCancelled int    `json:"bookings_cancelled"`
	OccurredAt        string `json:"occurred_at"`
}
