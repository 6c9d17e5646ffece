package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/model"
)

// BookingRepo provides persistence for bookings and their seats. It is
// one of the two writers of booking rows (the other being the showtime
// cancellation cascade) and owns the transactional seat-claim path.
//
// Seat claims are protected twice: HeldSeatIDsTx locks the holding
// booking_seats rows of the showtime with FOR UPDATE so concurrent
// claims serialize on the availability read, and the unique
// (showtime_id, seat_id, active) index backstops the window between an
// empty read and the insert, where there are no rows to lock.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying sql.DB so handlers can begin transactions
// spanning multiple repositories.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// HeldSeatIDsTx returns the seat IDs currently held for a showtime,
// read within the caller's transaction and locked against concurrent
// claimers. The holding set is the single policy from the booking
// package; no call site may use a different status list.
func (r *BookingRepo) HeldSeatIDsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) (map[uint64]struct{}, error) {
	holding, holdArgs := bk.HoldingPlaceholders()
	q := `SELECT bs.seat_id
          FROM booking_seats bs
          JOIN bookings b ON b.id = bs.booking_id
          WHERE bs.showtime_id = ? AND b.status IN (` + holding + `)
          FOR UPDATE`
	return r.heldSet(ctx, tx, q, append([]interface{}{showtimeID}, holdArgs...)...)
}

// HeldSeatIDs is the lock-free variant used for point-in-time
// availability snapshots (seat layout display). The result is not a
// reservation; only the transactional path may treat seats as claimed.
func (r *BookingRepo) HeldSeatIDs(ctx context.Context, showtimeID uint64) (map[uint64]struct{}, error) {
	holding, holdArgs := bk.HoldingPlaceholders()
	q := `SELECT bs.seat_id
          FROM booking_seats bs
          JOIN bookings b ON b.id = bs.booking_id
          WHERE bs.showtime_id = ? AND b.status IN (` + holding + `)`
	return r.heldSet(ctx, r.db, q, append([]interface{}{showtimeID}, holdArgs...)...)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func (r *BookingRepo) heldSet(ctx context.Context, q querier, query string, args ...interface{}) (map[uint64]struct{}, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	held := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		held[id] = struct{}{}
	}
	return held, rows.Err()
}

// CreateTx inserts a booking and its seat rows within the caller's
// transaction. Seat rows are inserted with active = 1; if another
// transaction slipped a holding claim for one of the seats past the
// locked read, the unique index rejects the insert and ErrSeatTaken is
// returned so the caller can roll back and report the conflict.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking, seats []model.BookingSeat) error {
	const q = `INSERT INTO bookings
               (user_id, showtime_id, status, payment_status, subtotal_cents, discount_cents, total_cents, payment_order_id)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.ShowtimeID, b.Status, b.PaymentStatus, b.SubtotalCents, b.DiscountCents, b.TotalCents, b.PaymentOrderID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	ins := `INSERT INTO booking_seats (booking_id, showtime_id, seat_id, seat_label, price_cents, active) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			ins += ","
		}
		ins += "(?, ?, ?, ?, ?, 1)"
		args = append(args, b.ID, s.ShowtimeID, s.SeatID, s.SeatLabel, s.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, ins, args...); err != nil {
		// MySQL duplicate entry on the (showtime_id, seat_id, active)
		// unique index: a concurrent claim won the race.
		if strings.Contains(err.Error(), "1062") {
			return ErrSeatTaken
		}
		return err
	}
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// GetByID returns a booking or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	return r.get(ctx, r.db.QueryRowContext, id, "")
}

// GetByIDForUpdateTx loads a booking within the caller's transaction
// with a row lock, so lifecycle transitions cannot interleave.
func (r *BookingRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	return r.get(ctx, tx.QueryRowContext, id, " FOR UPDATE")
}

type rowQuerier func(ctx context.Context, query string, args ...interface{}) *sql.Row

func (r *BookingRepo) get(ctx context.Context, q rowQuerier, id uint64, suffix string) (*model.Booking, error) {
	query := `SELECT id, user_id, showtime_id, status, payment_status, subtotal_cents, discount_cents, total_cents,
                     promo_code, payment_order_id, created_at, updated_at
              FROM bookings WHERE id = ?` + suffix
	var b model.Booking
	var promo sql.NullString
	err := q(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.ShowtimeID, &b.Status, &b.PaymentStatus,
		&b.SubtotalCents, &b.DiscountCents, &b.TotalCents,
		&promo, &b.PaymentOrderID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if promo.Valid {
		p := promo.String
		b.PromoCode = &p
	}
	return &b, nil
}

// TransitionTx updates a booking's status and payment status within
// the caller's transaction. When the new status is non-holding, the
// booking's seat rows are released (active set to NULL) in the same
// transaction so the seats return to circulation atomically with the
// status change.
func (r *BookingRepo) TransitionTx(ctx context.Context, tx *sql.Tx, id uint64, status, paymentStatus string) error {
	const q = `UPDATE bookings SET status = ?, payment_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := tx.ExecContext(ctx, q, status, paymentStatus, id); err != nil {
		return err
	}
	if !bk.IsHolding(status) {
		if _, err := tx.ExecContext(ctx, `UPDATE booking_seats SET active = NULL WHERE booking_id = ?`, id); err != nil {
			return err
		}
	}
	return nil
}

// ApplyDiscountTx records a promo application on a booking that is
// still PENDING. Later states have locked totals (an active booking
// has already been paid for) so the update is guarded by status.
func (r *BookingRepo) ApplyDiscountTx(ctx context.Context, tx *sql.Tx, id uint64, promoCode string, discountCents, totalCents uint32) error {
	const q = `UPDATE bookings SET promo_code = ?, discount_cents = ?, total_cents = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, promoCode, discountCents, totalCents, id, model.BookingPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

// HasPriorBooking reports whether the user has any booking that ever
// reached a paid state. It feeds the first-booking gate of the offer
// engine.
func (r *BookingRepo) HasPriorBooking(ctx context.Context, userID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM bookings WHERE user_id = ? AND payment_status <> ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, userID, model.PaymentPending).Scan(&exists)
	return exists, err
}

// BookedSeat is the per-seat snapshot carried in booking details.
type BookedSeat struct {
	SeatID     uint64 `json:"seat_id"`
	SeatLabel  string `json:"seat_label"`
	PriceCents uint32 `json:"price_cents"`
}

// BookingDetail aggregates a booking with its showtime, movie and
// venue context plus the seat snapshot, as listed to customers.
type BookingDetail struct {
	ID             uint64       `json:"id"`
	ShowtimeID     uint64       `json:"showtime_id"`
	UserID         uint64       `json:"user_id"`
	Status         string       `json:"status"`
	PaymentStatus  string       `json:"payment_status"`
	SubtotalCents  uint32       `json:"subtotal_cents"`
	DiscountCents  uint32       `json:"discount_cents"`
	TotalCents     uint32       `json:"total_cents"`
	PromoCode      *string      `json:"promo_code,omitempty"`
	PaymentOrderID string       `json:"payment_order_id"`
	MovieTitle     string       `json:"movie_title"`
	TheaterName    string       `json:"theater_name"`
	ScreenName     string       `json:"screen_name"`
	StartsAt       time.Time    `json:"starts_at"`
	CreatedAt      time.Time    `json:"created_at"`
	Seats          []BookedSeat `json:"seats"`
}

// ListByUser returns all bookings of a user, newest first, with their
// seats populated in a single follow-up query.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]BookingDetail, error) {
	const q = `SELECT b.id, b.showtime_id, b.user_id, b.status, b.payment_status,
                      b.subtotal_cents, b.discount_cents, b.total_cents, b.promo_code, b.payment_order_id,
                      m.title, t.name, sc.name, st.starts_at, b.created_at
               FROM bookings b
               JOIN showtimes st ON st.id = b.showtime_id
               JOIN movies m ON m.id = st.movie_id
               JOIN theaters t ON t.id = st.theater_id
               JOIN screens sc ON sc.id = st.screen_id
               WHERE b.user_id = ?
               ORDER BY b.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]BookingDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d BookingDetail
		var promo sql.NullString
		if err := rows.Scan(
			&d.ID, &d.ShowtimeID, &d.UserID, &d.Status, &d.PaymentStatus,
			&d.SubtotalCents, &d.DiscountCents, &d.TotalCents, &promo, &d.PaymentOrderID,
			&d.MovieTitle, &d.TheaterName, &d.ScreenName, &d.StartsAt, &d.CreatedAt,
		); err != nil {
			return nil, err
		}
		if promo.Valid {
			p := promo.String
			d.PromoCode = &p
		}
		d.Seats = []BookedSeat{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQ := `SELECT booking_id, seat_id, seat_label, price_cents
              FROM booking_seats
              WHERE booking_id IN (` + strings.Join(placeholders, ",") + `)
              ORDER BY booking_id, seat_label`
	srows, err := r.db.QueryContext(ctx, seatQ, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var s BookedSeat
		if err := srows.Scan(&bid, &s.SeatID, &s.SeatLabel, &s.PriceCents); err != nil {
			return nil, err
		}
		if idx, ok := index[bid]; ok {
			details[idx].Seats = append(details[idx].Seats, s)
		}
	}
	return details, srows.Err()
}

// SeatsByBooking returns the seat snapshot of one booking.
func (r *BookingRepo) SeatsByBooking(ctx context.Context, bookingID uint64) ([]BookedSeat, error) {
	const q = `SELECT seat_id, seat_label, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_label`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]BookedSeat, 0)
	for rows.Next() {
		var s BookedSeat
		if err := rows.Scan(&s.SeatID, &s.SeatLabel, &s.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// CountSeats returns the number of seats on a booking, used by the
// offer engine input.
func (r *BookingRepo) CountSeats(ctx context.Context, bookingID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM booking_seats WHERE booking_id = ?`, bookingID).Scan(&n)
	return n, err
}
