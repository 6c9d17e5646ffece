package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/model"
)

// SeatRepo manages the seat catalog of a screen. Seats are effectively
// append-only once bookings reference them: layout replacement is an
// administrative operation that is refused while any holding booking
// still points at the screen's seats.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// ListByScreen returns all active seats of a screen ordered by row and
// position, suitable for rendering a layout grid.
func (r *SeatRepo) ListByScreen(ctx context.Context, screenID uint64) ([]model.Seat, error) {
	const q = `SELECT id, screen_id, row_label, seat_number, seat_type, price_cents, is_active, created_at
               FROM seats
               WHERE screen_id = ? AND is_active = 1
               ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, screenID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Seat, 0)
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ScreenID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.PriceCents, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetByIDsForScreenTx loads the requested seats within a transaction
// and verifies every one of them belongs to the given screen and is
// active. When any requested ID is missing or foreign, ErrNotFound is
// returned; the booking handler reports it as an invalid seat
// selection.
func (r *SeatRepo) GetByIDsForScreenTx(ctx context.Context, tx *sql.Tx, screenID uint64, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, ErrNotFound
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(seatIDs)), ",")
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, screenID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	q := `SELECT id, screen_id, row_label, seat_number, seat_type, price_cents, is_active, created_at
          FROM seats
          WHERE screen_id = ? AND is_active = 1 AND id IN (` + placeholders + `)`
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ScreenID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.PriceCents, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		return nil, ErrNotFound
	}
	return seats, nil
}

// UpdatePrice changes a seat's list price. Existing bookings keep the
// snapshot taken at booking time; only future bookings see the new
// price.
func (r *SeatRepo) UpdatePrice(ctx context.Context, seatID uint64, priceCents uint32) error {
	res, err := r.db.ExecContext(ctx, `UPDATE seats SET price_cents = ? WHERE id = ?`, priceCents, seatID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM seats WHERE id = ?`, seatID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// ReplaceLayout swaps a screen's seat layout for a new one inside a
// single transaction. The replace is refused with ErrConflict while
// any holding booking references a seat of the screen, otherwise a
// paid booking could end up pointing at a seat that no longer exists.
// Old seats are deactivated rather than deleted so historical bookings
// keep resolvable seat references.
func (r *SeatRepo) ReplaceLayout(ctx context.Context, screenID uint64, seats []model.Seat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	holding, holdArgs := bk.HoldingPlaceholders()
	chk := `SELECT COUNT(*)
            FROM booking_seats bs
            JOIN bookings b ON b.id = bs.booking_id
            JOIN seats s ON s.id = bs.seat_id
            WHERE s.screen_id = ? AND b.status IN (` + holding + `)`
	args := append([]interface{}{screenID}, holdArgs...)
	var n int
	if err := tx.QueryRowContext(ctx, chk, args...).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx, `UPDATE seats SET is_active = 0 WHERE screen_id = ?`, screenID); err != nil {
		return err
	}
	if len(seats) > 0 {
		q := `INSERT INTO seats (screen_id, row_label, seat_number, seat_type, price_cents, is_active) VALUES `
		insArgs := make([]interface{}, 0, len(seats)*5)
		for i, s := range seats {
			if i > 0 {
				q += ","
			}
			q += "(?, ?, ?, ?, ?, 1)"
			insArgs = append(insArgs, screenID, s.RowLabel, s.SeatNumber, s.SeatType, s.PriceCents)
		}
		if _, err := tx.ExecContext(ctx, q, insArgs...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
