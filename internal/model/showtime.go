package model

import "time"

// Showtime status values.  A showtime is SCHEDULED from creation until
// the sweeper marks it COMPLETED after its occupied interval has fully
// elapsed, or an admin cancels it (which cascades to its bookings).
const (
	ShowtimeScheduled = "SCHEDULED"
	ShowtimeCompleted = "COMPLETED"
	ShowtimeCancelled = "CANCELLED"
)

// Showtime is one scheduled screening of a movie on a screen.
// TheaterID duplicates the screen's theater for query efficiency and
// for the staff theater-match check during ticket verification.
// StartsAt is stored in UTC; business-hour bucketing happens in the
// canonical timezone inside the schedule package.
//
// Fields:
//  ID        – primary key identifier.
//  MovieID   – movie being screened.
//  ScreenID  – screen the screening occupies.
//  TheaterID – theater owning the screen (denormalized).
//  StartsAt  – screening start instant, UTC.
//  Language  – audio language of this screening.
//  Status    – SCHEDULED, COMPLETED or CANCELLED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Showtime struct {
	ID        uint64    // showtimes.id
	MovieID   uint64    // showtimes.movie_id
	ScreenID  uint64    // showtimes.screen_id
	TheaterID uint64    // showtimes.theater_id
	StartsAt  time.Time // showtimes.starts_at
	Language  string    // showtimes.language
	Status    string    // showtimes.status
	CreatedAt time.Time // showtimes.created_at
	UpdatedAt time.Time // showtimes.updated_at
}
