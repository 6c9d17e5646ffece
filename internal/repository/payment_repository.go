package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/cinetick/movie-booking-api/internal/model"
)

// PaymentRepo persists gateway payment confirmations and the ticket
// verification audit trail. Payment rows are immutable once created;
// there is no update method on purpose.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the given DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment row within the caller's transaction. The
// unique index on booking_id guarantees at most one payment per
// booking; a duplicate insert is surfaced as ErrConflict so a replayed
// gateway callback cannot double-record.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, order_id, payment_id, amount_cents) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.BookingID, p.OrderID, p.PaymentID, p.AmountCents)
	if err != nil {
		if strings.Contains(err.Error(), "1062") {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM payments WHERE id = ?`, p.ID).Scan(&p.CreatedAt)
}

// GetByBooking returns the payment recorded for a booking, or
// ErrNotFound when none exists.
func (r *PaymentRepo) GetByBooking(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	const q = `SELECT id, booking_id, order_id, payment_id, amount_cents, created_at FROM payments WHERE booking_id = ?`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(&p.ID, &p.BookingID, &p.OrderID, &p.PaymentID, &p.AmountCents, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// AppendVerificationTx records one ticket verification attempt within
// the caller's transaction. Rejected attempts are logged too, so the
// audit trail shows every scan of the ticket.
func (r *PaymentRepo) AppendVerificationTx(ctx context.Context, tx *sql.Tx, v *model.VerificationLog) error {
	const q = `INSERT INTO verification_logs (booking_id, verifier_id, outcome) VALUES (?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, v.BookingID, v.VerifierID, v.Outcome)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)
	return tx.QueryRowContext(ctx, `SELECT created_at FROM verification_logs WHERE id = ?`, v.ID).Scan(&v.CreatedAt)
}

// ListVerifications returns the audit trail of a booking, oldest
// first.
func (r *PaymentRepo) ListVerifications(ctx context.Context, bookingID uint64) ([]model.VerificationLog, error) {
	const q = `SELECT id, booking_id, verifier_id, outcome, created_at FROM verification_logs WHERE booking_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.VerificationLog, 0)
	for rows.Next() {
		var v model.VerificationLog
		if err := rows.Scan(&v.ID, &v.BookingID, &v.VerifierID, &v.Outcome, &v.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
