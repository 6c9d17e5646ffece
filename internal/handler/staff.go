package handler

import (
	"database/sql"
	"net/http"

	"github.com/labstack/echo/v4"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/repository"
)

// StaffHandler serves theater staff operations, currently ticket
// verification at the door. Every verification attempt, accepted or
// rejected, lands in the audit trail.
type StaffHandler struct {
	Users     *repository.UserRepo
	Bookings  *repository.BookingRepo
	Payments  *repository.PaymentRepo
	Showtimes *repository.ShowtimeRepo
}

func NewStaffHandler(u *repository.UserRepo, b *repository.BookingRepo, p *repository.PaymentRepo, st *repository.ShowtimeRepo) *StaffHandler {
	if u == nil || b == nil || p == nil || st == nil {
		panic("nil dependency passed to NewStaffHandler")
	}
	return &StaffHandler{Users: u, Bookings: b, Payments: p, Showtimes: st}
}

type verifyTicketReq struct {
	BookingID uint64 `json:"booking_id"`
}

// VerifyTicket handles POST /v1/staff/verify. The booking must be
// ACTIVE and PAID and belong to a showtime in the staff member's
// theater; on success it transitions to ACCEPTED so a second scan of
// the same ticket is rejected. Rejected attempts are logged too.
func (h *StaffHandler) VerifyTicket(c echo.Context) error {
	staffID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req verifyTicketReq
	if err := c.Bind(&req); err != nil || req.BookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id is required"})
	}
	ctx := c.Request().Context()

	staff, err := h.Users.GetByID(ctx, staffID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load staff account"})
	}
	if staff.TheaterID == nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "staff account has no theater assignment"})
	}

	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetByIDForUpdateTx(ctx, tx, req.BookingID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	st, err := h.Showtimes.GetByID(ctx, b.ShowtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}

	if err := bk.CanVerify(b, st.TheaterID, *staff.TheaterID); err != nil {
		switch err {
		case bk.ErrTheaterMismatch:
			// A foreign theater's scanner never touches the audit trail.
			return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
		case bk.ErrAlreadyVerified, bk.ErrNotVerifiable:
			rejection := &model.VerificationLog{BookingID: b.ID, VerifierID: staffID, Outcome: "REJECTED"}
			if logErr := h.Payments.AppendVerificationTx(ctx, tx, rejection); logErr != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record verification"})
			}
			if commitErr := tx.Commit(); commitErr != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
			}
			committed = true
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "verification failed"})
		}
	}

	entry := &model.VerificationLog{BookingID: b.ID, VerifierID: staffID, Outcome: "ACCEPTED"}
	if err := h.Payments.AppendVerificationTx(ctx, tx, entry); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record verification"})
	}
	if err := h.Bookings.TransitionTx(ctx, tx, b.ID, model.BookingAccepted, b.PaymentStatus); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to accept booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	seats, _ := h.Bookings.SeatsByBooking(ctx, b.ID)
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.SeatLabel)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id": b.ID,
		"status":     model.BookingAccepted,
		"outcome":    "ACCEPTED",
		"seats":      labels,
	})
}

// VerificationHistory handles GET /v1/staff/bookings/:id/verifications
// and returns the full audit trail of a booking, oldest first.
func (h *StaffHandler) VerificationHistory(c echo.Context) error {
	staffID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()

	staff, err := h.Users.GetByID(ctx, staffID)
	if err != nil || staff.TheaterID == nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "staff account has no theater assignment"})
	}
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	st, err := h.Showtimes.GetByID(ctx, b.ShowtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}
	if st.TheaterID != *staff.TheaterID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": bk.ErrTheaterMismatch.Error()})
	}

	logs, err := h.Payments.ListVerifications(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load verifications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": logs})
}
