package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinetick/movie-booking-api/internal/model"
)

// TheaterRepo manages persistence for theaters and their screens.
type TheaterRepo struct {
	db *sql.DB
}

// NewTheaterRepo constructs a TheaterRepo with the given DB handle.
func NewTheaterRepo(db *sql.DB) *TheaterRepo { return &TheaterRepo{db: db} }

// CreateTheater inserts a theater and populates its generated fields.
func (r *TheaterRepo) CreateTheater(ctx context.Context, t *model.Theater) error {
	const q = `INSERT INTO theaters (name, city, address) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.City, t.Address)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	const sel = `SELECT id, name, city, address, created_at, updated_at FROM theaters WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(&t.ID, &t.Name, &t.City, &t.Address, &t.CreatedAt, &t.UpdatedAt)
}

// GetTheater returns a theater by ID or ErrNotFound.
func (r *TheaterRepo) GetTheater(ctx context.Context, id uint64) (*model.Theater, error) {
	const q = `SELECT id, name, city, address, created_at, updated_at FROM theaters WHERE id = ?`
	var t model.Theater
	err := r.db.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.Name, &t.City, &t.Address, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// ListTheaters returns all theaters ordered by city then name.
func (r *TheaterRepo) ListTheaters(ctx context.Context) ([]model.Theater, error) {
	const q = `SELECT id, name, city, address, created_at, updated_at FROM theaters ORDER BY city, name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Theater, 0)
	for rows.Next() {
		var t model.Theater
		if err := rows.Scan(&t.ID, &t.Name, &t.City, &t.Address, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpdateTheater modifies a theater's attributes.
func (r *TheaterRepo) UpdateTheater(ctx context.Context, t *model.Theater) error {
	const q = `UPDATE theaters SET name = ?, city = ?, address = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.City, t.Address, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM theaters WHERE id = ?`, t.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// CreateScreen inserts a screen under a theater. Returns ErrNotFound
// when the theater does not exist.
func (r *TheaterRepo) CreateScreen(ctx context.Context, s *model.Screen) error {
	var one int
	if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM theaters WHERE id = ?`, s.TheaterID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	const q = `INSERT INTO screens (theater_id, name) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TheaterID, s.Name)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, theater_id, name, created_at, updated_at FROM screens WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(&s.ID, &s.TheaterID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
}

// GetScreen returns a screen by ID or ErrNotFound.
func (r *TheaterRepo) GetScreen(ctx context.Context, id uint64) (*model.Screen, error) {
	const q = `SELECT id, theater_id, name, created_at, updated_at FROM screens WHERE id = ?`
	var s model.Screen
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.TheaterID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListScreens returns all screens of a theater ordered by name.
func (r *TheaterRepo) ListScreens(ctx context.Context, theaterID uint64) ([]model.Screen, error) {
	const q = `SELECT id, theater_id, name, created_at, updated_at FROM screens WHERE theater_id = ? ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q, theaterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := make([]model.Screen, 0)
	for rows.Next() {
		var s model.Screen
		if err := rows.Scan(&s.ID, &s.TheaterID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}
