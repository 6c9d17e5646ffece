package model

import "time"

// Payment records one successful gateway confirmation.  Exactly one
// payment may exist per booking and the row is never updated after
// insertion.
type Payment struct {
	ID          uint64    // payments.id
	BookingID   uint64    // payments.booking_id (unique)
	OrderID     string    // payments.order_id
	PaymentID   string    // payments.payment_id
	AmountCents uint32    // payments.amount_cents
	CreatedAt   time.Time // payments.created_at
}

// VerificationLog is one audit entry for a ticket verification
// attempt at the theater.  Every attempt is appended, including
// rejected ones, so re-verification attempts remain visible.
type VerificationLog struct {
	ID         uint64    // verification_logs.id
	BookingID  uint64    // verification_logs.booking_id
	VerifierID uint64    // verification_logs.verifier_id
	Outcome    string    // verification_logs.outcome (ACCEPTED, REJECTED)
	CreatedAt  time.Time // verification_logs.created_at
}
