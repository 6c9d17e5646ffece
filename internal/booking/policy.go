// Package booking holds the seat-holding policy and the booking
// lifecycle rules.  Every component that needs to decide whether a
// booking keeps its seats out of circulation must go through
// HoldingStatuses / IsHolding rather than re-deriving the status set,
// so availability checks, layout rendering and conflict filtering can
// never drift apart.
package booking

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cinetick/movie-booking-api/internal/model"
)

// HoldingStatuses is the single holding-set policy: a booking in any
// of these states reserves its seats against double-allocation.
var HoldingStatuses = []string{
	model.BookingPending,
	model.BookingActive,
	model.BookingAccepted,
}

// IsHolding reports whether a booking status reserves its seats.
func IsHolding(status string) bool {
	switch status {
	case model.BookingPending, model.BookingActive, model.BookingAccepted:
		return true
	}
	return false
}

// HoldingPlaceholders returns "?,?,?" sized to HoldingStatuses, for
// embedding in IN clauses, together with the statuses as query args.
func HoldingPlaceholders() (string, []interface{}) {
	args := make([]interface{}, len(HoldingStatuses))
	for i, s := range HoldingStatuses {
		args[i] = s
	}
	return strings.TrimSuffix(strings.Repeat("?,", len(HoldingStatuses)), ","), args
}

// Validation and state errors surfaced by the lifecycle rules.  The
// handler layer maps these onto HTTP status codes.
var (
	ErrNoSeats         = errors.New("seat selection is empty")
	ErrDuplicateSeat   = errors.New("duplicate seat in selection")
	ErrInvalidSeat     = errors.New("seat does not belong to the showtime's screen")
	ErrCutoffPassed    = errors.New("cancellation window has closed")
	ErrNotCancellable  = errors.New("booking cannot be cancelled in its current state")
	ErrNotPayable      = errors.New("booking is not awaiting payment")
	ErrNotVerifiable   = errors.New("booking cannot be verified in its current state")
	ErrAlreadyVerified = errors.New("ticket already verified")
	ErrTheaterMismatch = errors.New("verifier does not belong to the showtime's theater")
	ErrShowtimeNotOpen = errors.New("showtime is not open for booking")
)

// SeatsUnavailableError reports a lost seat race.  Labels names
// exactly the requested seats already held by another booking.
type SeatsUnavailableError struct {
	Labels []string
}

func (e *SeatsUnavailableError) Error() string {
	return fmt.Sprintf("seats unavailable: %s", strings.Join(e.Labels, ", "))
}

// ValidateSeatSelection checks a requested seat ID list before any
// database work: it must be non-empty, contain no zero IDs and no
// duplicates.  Duplicates are rejected rather than collapsed so a
// client bug cannot silently buy fewer seats than it displayed.
func ValidateSeatSelection(seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return ErrNoSeats
	}
	seen := make(map[uint64]struct{}, len(seatIDs))
	for _, id := range seatIDs {
		if id == 0 {
			return ErrInvalidSeat
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateSeat
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Conflicting returns the subset of requested seat IDs present in the
// held set, sorted ascending for deterministic error payloads.
func Conflicting(requested []uint64, held map[uint64]struct{}) []uint64 {
	var out []uint64
	for _, id := range requested {
		if _, ok := held[id]; ok {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bookable reports whether a showtime can accept new bookings: it must
// still be SCHEDULED and its start must lie in the future.
func Bookable(st *model.Showtime, now time.Time) error {
	if st.Status != model.ShowtimeScheduled || !st.StartsAt.After(now) {
		return ErrShowtimeNotOpen
	}
	return nil
}

// CanConfirmPayment gates the payment-confirmation transition.  Only a
// PENDING booking may move to ACTIVE/PAID.
func CanConfirmPayment(b *model.Booking) error {
	if b.Status != model.BookingPending {
		return ErrNotPayable
	}
	return nil
}

// CanCancelByUser gates user-initiated cancellation.  A booking may be
// cancelled while PENDING or ACTIVE, and only when more than cutoff
// remains before the showtime starts.
func CanCancelByUser(b *model.Booking, startsAt, now time.Time, cutoff time.Duration) error {
	if b.Status != model.BookingPending && b.Status != model.BookingActive {
		return ErrNotCancellable
	}
	if startsAt.Sub(now) <= cutoff {
		return ErrCutoffPassed
	}
	return nil
}

// PaymentStatusOnCancel returns the payment status a cancelled booking
// ends in: a paid booking awaits a refund, anything else is closed out.
func PaymentStatusOnCancel(paymentStatus string) string {
	if paymentStatus == model.PaymentPaid {
		return model.PaymentRefundPending
	}
	return model.PaymentCancelled
}

// CanVerify gates ticket verification at the theater.  The booking
// must be ACTIVE and PAID, and the verifying staff member must belong
// to the showtime's theater.  Re-verifying an ACCEPTED booking is an
// explicit, distinguishable rejection so the caller can log the
// attempt without mutating state.
func CanVerify(b *model.Booking, showtimeTheaterID, staffTheaterID uint64) error {
	if staffTheaterID != showtimeTheaterID {
		return ErrTheaterMismatch
	}
	if b.Status == model.BookingAccepted {
		return ErrAlreadyVerified
	}
	if b.Status != model.BookingActive || b.PaymentStatus != model.PaymentPaid {
		return ErrNotVerifiable
	}
	return nil
}
