package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/movie-booking-api/internal/model"
)

// MovieRepo manages persistence for the movie catalog. Movies are
// reference data: the booking core only reads them (duration drives
// the scheduling conflict math), while admins maintain them.
type MovieRepo struct {
	db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *MovieRepo) DB() *sql.DB { return r.db }

// Create inserts a new movie and populates the generated ID and the
// DB-default timestamps on the given struct.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie) error {
	const q = `INSERT INTO movies (title, duration_min, language, genre) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.DurationMin, m.Language, m.Genre)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	const sel = `SELECT id, title, duration_min, language, genre, created_at, updated_at FROM movies WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, m.ID).Scan(
		&m.ID, &m.Title, &m.DurationMin, &m.Language, &m.Genre, &m.CreatedAt, &m.UpdatedAt,
	)
}

// GetByID retrieves a movie by its ID. It returns ErrNotFound when no
// matching row exists.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
	const q = `SELECT id, title, duration_min, language, genre, created_at, updated_at FROM movies WHERE id = ?`
	var m model.Movie
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&m.ID, &m.Title, &m.DurationMin, &m.Language, &m.Genre, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns the whole movie catalog ordered by title.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
	const q = `SELECT id, title, duration_min, language, genre, created_at, updated_at FROM movies ORDER BY title ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Movie, 0)
	for rows.Next() {
		var m model.Movie
		if err := rows.Scan(&m.ID, &m.Title, &m.DurationMin, &m.Language, &m.Genre, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Update modifies a movie's attributes. Returns ErrNotFound when the
// movie does not exist.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie) error {
	const q = `UPDATE movies SET title = ?, duration_min = ?, language = ?, genre = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, m.Title, m.DurationMin, m.Language, m.Genre, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish missing row from identical values.
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM movies WHERE id = ?`, m.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// Delete removes a movie. Deletion is refused with ErrConflict while
// any scheduled showtime still references the movie.
func (r *MovieRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	const chk = `SELECT COUNT(*) FROM showtimes WHERE movie_id = ? AND status = 'SCHEDULED'`
	if err := r.db.QueryRowContext(ctx, chk, id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}
