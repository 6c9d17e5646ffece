package model

import (
	"strconv"
	"time"
)

// Theater is a physical venue containing one or more screens.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – venue name shown to customers.
//  City      – city the venue is located in.
//  Address   – street address.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Theater struct {
	ID        uint64    // theaters.id
	Name      string    // theaters.name
	City      string    // theaters.city
	Address   string    // theaters.address
	CreatedAt time.Time // theaters.created_at
	UpdatedAt time.Time // theaters.updated_at
}

// Screen is an auditorium inside a theater.  Showtimes are scheduled
// per screen, and the screen's seat layout defines which seats a
// booking may claim.
type Screen struct {
	ID        uint64    // screens.id
	TheaterID uint64    // screens.theater_id
	Name      string    // screens.name
	CreatedAt time.Time // screens.created_at
	UpdatedAt time.Time // screens.updated_at
}

// Seat belongs to exactly one screen.  The price recorded here is the
// list price; bookings snapshot it at creation time and never read it
// again.  Replacing a screen's seat layout is only permitted while no
// holding booking references the old seats.
//
// Fields:
//  ID         – primary key identifier.
//  ScreenID   – screen the seat belongs to.
//  RowLabel   – alphabetical row label (A, B, ... AA).
//  SeatNumber – position within the row, starting at 1.
//  SeatType   – REGULAR, PREMIUM or RECLINER.
//  PriceCents – current list price in cents.
//  IsActive   – false for seats removed from sale (broken, blocked).
type Seat struct {
	ID         uint64    // seats.id
	ScreenID   uint64    // seats.screen_id
	RowLabel   string    // seats.row_label
	SeatNumber uint32    // seats.seat_number
	SeatType   string    // seats.seat_type
	PriceCents uint32    // seats.price_cents
	IsActive   bool      // seats.is_active
	CreatedAt  time.Time // seats.created_at
}

// Label renders the customer-facing seat label, e.g. "B7".
func (s Seat) Label() string {
	return s.RowLabel + strconv.FormatUint(uint64(s.SeatNumber), 10)
}
