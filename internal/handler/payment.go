package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/config"
	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/payment"
	"github.com/cinetick/movie-booking-api/internal/queue"
	"github.com/cinetick/movie-booking-api/internal/repository"
	"github.com/cinetick/movie-booking-api/internal/service"
)

// PaymentHandler confirms gateway payments against PENDING bookings.
type PaymentHandler struct {
	Cfg       config.Config
	Bookings  *repository.BookingRepo
	Payments  *repository.PaymentRepo
	Showtimes *repository.ShowtimeRepo
	Movies    *repository.MovieRepo
	Theaters  *repository.TheaterRepo
}

func NewPaymentHandler(cfg config.Config, b *repository.BookingRepo, p *repository.PaymentRepo, st *repository.ShowtimeRepo, m *repository.MovieRepo, t *repository.TheaterRepo) *PaymentHandler {
	if b == nil || p == nil || st == nil || m == nil || t == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Cfg: cfg, Bookings: b, Payments: p, Showtimes: st, Movies: m, Theaters: t}
}

type confirmPaymentReq struct {
	BookingID uint64 `json:"booking_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// Confirm handles POST /v1/payments/confirm. The gateway callback
// carries the order ID issued at booking time, the gateway's payment
// ID and an HMAC signature over both. On a valid signature the
// booking moves PENDING -> ACTIVE / PAID and an immutable payment row
// is recorded; a replayed callback is rejected by the unique payment
// per booking.
func (h *PaymentHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req confirmPaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.BookingID == 0 || req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_id, order_id, payment_id and signature are required"})
	}
	if !payment.VerifySignature(h.Cfg.PaymentSecret, req.OrderID, req.PaymentID, req.Signature) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment signature"})
	}

	ctx := c.Request().Context()
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
	if b.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if b.PaymentOrderID != req.OrderID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "order_id does not match booking"})
	}
	if err := bk.CanConfirmPayment(b); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}

	p := &model.Payment{
		BookingID:   b.ID,
		OrderID:     req.OrderID,
		PaymentID:   req.PaymentID,
		AmountCents: b.TotalCents,
	}
	if err := h.Payments.CreateTx(ctx, tx, p); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "payment already recorded"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to record payment"})
	}
	if err := h.Bookings.TransitionTx(ctx, tx, b.ID, model.BookingActive, model.PaymentPaid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to activate booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	go h.publishConfirmed(b)

	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":     b.ID,
		"status":         model.BookingActive,
		"payment_status": model.PaymentPaid,
		"payment_id":     p.PaymentID,
		"amount_cents":   p.AmountCents,
	})
}

func (h *PaymentHandler) publishConfirmed(b *model.Booking) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := &queue.BookingEvent{
		BookingID:      b.ID,
		UserID:         b.UserID,
		ShowtimeID:     b.ShowtimeID,
		TotalCents:     uint64(b.TotalCents),
		PaymentOrderID: b.PaymentOrderID,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	if st, err := h.Showtimes.GetByID(ctx, b.ShowtimeID); err == nil {
		ev.StartsAt = st.StartsAt.Format(time.RFC3339)
		if m, merr := h.Movies.GetByID(ctx, st.MovieID); merr == nil {
			ev.MovieTitle = m.Title
		}
		if t, terr := h.Theaters.GetTheater(ctx, st.TheaterID); terr == nil {
			ev.TheaterName = t.Name
		}
		if sc, serr := h.Theaters.GetScreen(ctx, st.ScreenID); serr == nil {
			ev.ScreenName = sc.Name
		}
	}
	if seats, err := h.Bookings.SeatsByBooking(ctx, b.ID); err == nil {
		for _, s := range seats {
			ev.SeatLabels = append(ev.SeatLabels, s.SeatLabel)
		}
	}
	_ = service.PublishEvent(ctx, queue.Envelope{Kind: queue.KindBookingConfirmed, BookingConfirmed: ev})
}
