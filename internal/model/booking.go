package model

import "time"

// Booking status values.  PENDING, ACTIVE and ACCEPTED are the
// "holding" states: a booking in any of them keeps its seats out of
// circulation.  The two cancelled states release the seats.
const (
	BookingPending       = "PENDING"
	BookingActive        = "ACTIVE"
	BookingAccepted      = "ACCEPTED"
	BookingCancelled     = "CANCELLED"
	BookingUserCancelled = "USER_CANCELLED"
)

// Payment status values carried on a booking.
const (
	PaymentPending       = "PENDING"
	PaymentPaid          = "PAID"
	PaymentFailed        = "FAILED"
	PaymentRefundPending = "REFUND_PENDING"
	PaymentCancelled     = "CANCELLED"
)

// Booking is one user's claim on a set of seats for one showtime.
// Money fields are snapshots: SubtotalCents is the sum of the per-seat
// prices at creation time, and later seat price changes never touch
// them.  DiscountCents stays zero until a promo code is applied.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – booking owner.
//  ShowtimeID     – showtime the seats are claimed for.
//  Status         – PENDING, ACTIVE, ACCEPTED, CANCELLED, USER_CANCELLED.
//  PaymentStatus  – PENDING, PAID, FAILED, REFUND_PENDING, CANCELLED.
//  SubtotalCents  – sum of booked seat prices.
//  DiscountCents  – promo discount, zero when none applied.
//  TotalCents     – SubtotalCents - DiscountCents.
//  PromoCode      – applied promo code, if any.
//  PaymentOrderID – gateway order reference issued at creation.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Booking struct {
	ID             uint64    // bookings.id
	UserID         uint64    // bookings.user_id
	ShowtimeID     uint64    // bookings.showtime_id
	Status         string    // bookings.status
	PaymentStatus  string    // bookings.payment_status
	SubtotalCents  uint32    // bookings.subtotal_cents
	DiscountCents  uint32    // bookings.discount_cents
	TotalCents     uint32    // bookings.total_cents
	PromoCode      *string   // bookings.promo_code (nullable)
	PaymentOrderID string    // bookings.payment_order_id
	CreatedAt      time.Time // bookings.created_at
	UpdatedAt      time.Time // bookings.updated_at
}

// BookingSeat links a booking to one seat with the price captured at
// booking time.  Active mirrors the booking's holding state: the column
// is 1 while the booking holds the seat and NULL once released, so the
// unique (showtime_id, seat_id, active) index rejects a second holding
// claim on the same seat atomically without blocking rebooking of
// released seats.
type BookingSeat struct {
	ID         uint64    // booking_seats.id
	BookingID  uint64    // booking_seats.booking_id
	ShowtimeID uint64    // booking_seats.showtime_id
	SeatID     uint64    // booking_seats.seat_id
	SeatLabel  string    // booking_seats.seat_label
	PriceCents uint32    // booking_seats.price_cents
	Active     bool      // booking_seats.active
	CreatedAt  time.Time // booking_seats.created_at
}
