package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/cinetick/movie-booking-api/internal/utils"
)

// User mirrors the 'users' table. TheaterID is set only for STAFF
// accounts and scopes which theater's tickets they may verify.
type User struct {
	ID           uint64
	Email        string
	Name         string
	PasswordHash string
	Role         string
	TheaterID    *uint64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// Create inserts a user and returns its ID. Self-service registration
// always produces CUSTOMER accounts; STAFF and ADMIN rows are seeded
// by operations.
func (r *UserRepo) Create(ctx context.Context, email, name, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, role) VALUES (?,?,?,?)",
		email, name, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(ctx, "SELECT id,email,name,password_hash,role,theater_id,is_active,created_at,updated_at FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return r.scanOne(ctx, "SELECT id,email,name,password_hash,role,theater_id,is_active,created_at,updated_at FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) scanOne(ctx context.Context, q string, arg interface{}) (User, error) {
	var u User
	var theaterID sql.NullInt64
	err := r.DB.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &theaterID, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return u, err
	}
	if theaterID.Valid {
		tid := uint64(theaterID.Int64)
		u.TheaterID = &tid
	}
	return u, nil
}
