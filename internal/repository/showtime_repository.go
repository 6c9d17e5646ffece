package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/model"
)

// ShowtimeRepo manages persistence for showtimes. Only the scheduling
// conflict checker (admin showtime handlers) writes new SCHEDULED
// rows; the sweeper and the cancellation cascade are the only other
// writers.
type ShowtimeRepo struct {
	db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need to begin
// transactions spanning multiple repositories.
func (r *ShowtimeRepo) DB() *sql.DB { return r.db }

// CreateTx inserts a showtime within the caller's transaction and
// populates generated fields. The caller is responsible for having run
// the overlap check inside the same transaction.
func (r *ShowtimeRepo) CreateTx(ctx context.Context, tx *sql.Tx, st *model.Showtime) error {
	const q = `INSERT INTO showtimes (movie_id, screen_id, theater_id, starts_at, language) VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, st.MovieID, st.ScreenID, st.TheaterID, st.StartsAt.UTC(), st.Language)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	const sel = `SELECT id, movie_id, screen_id, theater_id, starts_at, language, status, created_at, updated_at
                 FROM showtimes WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, st.ID).Scan(
		&st.ID, &st.MovieID, &st.ScreenID, &st.TheaterID, &st.StartsAt, &st.Language, &st.Status, &st.CreatedAt, &st.UpdatedAt,
	)
}

// GetByID retrieves a showtime by its ID or returns ErrNotFound.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
	const q = `SELECT id, movie_id, screen_id, theater_id, starts_at, language, status, created_at, updated_at
               FROM showtimes WHERE id = ?`
	var st model.Showtime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&st.ID, &st.MovieID, &st.ScreenID, &st.TheaterID, &st.StartsAt, &st.Language, &st.Status, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &st, nil
}

// ScheduledNeighbor is a scheduled showtime on a screen together with
// its movie's runtime and title, as needed by the conflict checker to
// compute the neighbor's occupied interval and name collisions.
type ScheduledNeighbor struct {
	ID          uint64
	MovieTitle  string
	DurationMin uint32
	StartsAt    time.Time
}

// ScheduledBeforeTx returns, within the caller's transaction, all
// SCHEDULED showtimes on a screen starting before the given instant.
// It is the conflict checker's prefilter: a showtime starting at or
// after the candidate's occupied-interval end can never overlap it, so
// only earlier-starting rows need their intervals computed. The read
// is locked (FOR UPDATE) so two admins cannot concurrently insert
// showtimes that overlap each other.
func (r *ShowtimeRepo) ScheduledBeforeTx(ctx context.Context, tx *sql.Tx, screenID uint64, before time.Time) ([]ScheduledNeighbor, error) {
	const q = `SELECT st.id, m.title, m.duration_min, st.starts_at
               FROM showtimes st
               JOIN movies m ON m.id = st.movie_id
               WHERE st.screen_id = ? AND st.status = 'SCHEDULED' AND st.starts_at < ?
               FOR UPDATE`
	rows, err := tx.QueryContext(ctx, q, screenID, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduledNeighbor
	for rows.Next() {
		var n ScheduledNeighbor
		if err := rows.Scan(&n.ID, &n.MovieTitle, &n.DurationMin, &n.StartsAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// ShowtimeListing is a showtime joined with its movie and venue names
// for public browse responses.
type ShowtimeListing struct {
	ID          uint64    `json:"id"`
	MovieID     uint64    `json:"movie_id"`
	MovieTitle  string    `json:"movie_title"`
	DurationMin uint32    `json:"duration_min"`
	TheaterID   uint64    `json:"theater_id"`
	TheaterName string    `json:"theater_name"`
	ScreenID    uint64    `json:"screen_id"`
	ScreenName  string    `json:"screen_name"`
	StartsAt    time.Time `json:"starts_at"`
	Language    string    `json:"language"`
	Status      string    `json:"status"`
}

// ListByMovie returns upcoming scheduled showtimes for a movie ordered
// by start time.
func (r *ShowtimeRepo) ListByMovie(ctx context.Context, movieID uint64, after time.Time) ([]ShowtimeListing, error) {
	const q = listingSelect + ` WHERE st.movie_id = ? AND st.status = 'SCHEDULED' AND st.starts_at > ? ORDER BY st.starts_at ASC`
	return r.queryListings(ctx, q, movieID, after.UTC())
}

// ListByTheater returns upcoming scheduled showtimes in a theater
// ordered by start time.
func (r *ShowtimeRepo) ListByTheater(ctx context.Context, theaterID uint64, after time.Time) ([]ShowtimeListing, error) {
	const q = listingSelect + ` WHERE st.theater_id = ? AND st.status = 'SCHEDULED' AND st.starts_at > ? ORDER BY st.starts_at ASC`
	return r.queryListings(ctx, q, theaterID, after.UTC())
}

const listingSelect = `SELECT st.id, st.movie_id, m.title, m.duration_min, st.theater_id, t.name, st.screen_id, sc.name, st.starts_at, st.language, st.status
                       FROM showtimes st
                       JOIN movies m ON m.id = st.movie_id
                       JOIN theaters t ON t.id = st.theater_id
                       JOIN screens sc ON sc.id = st.screen_id`

func (r *ShowtimeRepo) queryListings(ctx context.Context, q string, args ...interface{}) ([]ShowtimeListing, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]ShowtimeListing, 0)
	for rows.Next() {
		var l ShowtimeListing
		if err := rows.Scan(&l.ID, &l.MovieID, &l.MovieTitle, &l.DurationMin, &l.TheaterID, &l.TheaterName,
			&l.ScreenID, &l.ScreenName, &l.StartsAt, &l.Language, &l.Status); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// UpdateTx changes a showtime's start time and language within the
// caller's transaction. The caller must re-run the overlap check
// (excluding this showtime) in the same transaction before committing.
func (r *ShowtimeRepo) UpdateTx(ctx context.Context, tx *sql.Tx, st *model.Showtime) error {
	const q = `UPDATE showtimes SET starts_at = ?, language = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'SCHEDULED'`
	res, err := tx.ExecContext(ctx, q, st.StartsAt.UTC(), st.Language, st.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var status string
		if err := tx.QueryRowContext(ctx, `SELECT status FROM showtimes WHERE id = ?`, st.ID).Scan(&status); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if status != model.ShowtimeScheduled {
			return ErrConflict
		}
	}
	return nil
}

// CancelCascadeTx transitions a showtime to CANCELLED and bulk-moves
// its ACTIVE and PENDING bookings to CANCELLED in the same
// transaction, releasing their seats. It returns the IDs of the
// bookings that were cancelled so the caller can dispatch follow-up
// side effects (refunds, notifications) after commit.
func (r *ShowtimeRepo) CancelCascadeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) ([]uint64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE showtimes SET status = 'CANCELLED', updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = 'SCHEDULED'`,
		showtimeID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM showtimes WHERE id = ?`, showtimeID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return nil, ErrConflict // exists but not SCHEDULED
	}

	// Collect the bookings that will be cancelled before mutating them.
	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM bookings WHERE showtime_id = ? AND status IN (?, ?) FOR UPDATE`,
		showtimeID, model.BookingActive, model.BookingPending)
	if err != nil {
		return nil, err
	}
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = ?, payment_status = CASE WHEN payment_status = ? THEN ? ELSE ? END, updated_at = CURRENT_TIMESTAMP
         WHERE showtime_id = ? AND status IN (?, ?)`,
		model.BookingCancelled, model.PaymentPaid, model.PaymentRefundPending, model.PaymentCancelled,
		showtimeID, model.BookingActive, model.BookingPending); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE booking_seats SET active = NULL WHERE showtime_id = ?`, showtimeID); err != nil {
		return nil, err
	}
	return ids, nil
}

// Delete removes a showtime and its dependent rows. Deletion is an
// administrative cleanup and is refused with ErrConflict while any
// holding booking exists for the showtime.
func (r *ShowtimeRepo) Delete(ctx context.Context, id uint64) error {
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
	chk := `SELECT COUNT(*) FROM bookings WHERE showtime_id = ? AND status IN (` + holding + `)`
	var n int
	if err := tx.QueryRowContext(ctx, chk, append([]interface{}{id}, holdArgs...)...).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM showtimes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SweepCompleted marks SCHEDULED showtimes whose occupied interval has
// fully elapsed as COMPLETED. It returns the number of rows moved.
func (r *ShowtimeRepo) SweepCompleted(ctx context.Context, now time.Time, bufferMin int) (int64, error) {
	const q = `UPDATE showtimes st
               JOIN movies m ON m.id = st.movie_id
               SET st.status = 'COMPLETED', st.updated_at = CURRENT_TIMESTAMP
               WHERE st.status = 'SCHEDULED'
                 AND DATE_ADD(st.starts_at, INTERVAL m.duration_min + ? MINUTE) <= ?`
	res, err := r.db.ExecContext(ctx, q, bufferMin, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
