package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	bk "github.com/cinetick/movie-booking-api/internal/booking"
	"github.com/cinetick/movie-booking-api/internal/config"
	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/offer"
	"github.com/cinetick/movie-booking-api/internal/queue"
	"github.com/cinetick/movie-booking-api/internal/repository"
	"github.com/cinetick/movie-booking-api/internal/service"
)

// BookingHandler owns the customer booking lifecycle: seat claims,
// listing, cancellation and promo application. Seat claims run inside
// a transaction that locks the showtime's held seat rows, so two
// customers racing for the same seat serialize here; the unique index
// on booking_seats backstops the empty-read window.
type BookingHandler struct {
	Cfg       config.Config
	Bookings  *repository.BookingRepo
	Seats     *repository.SeatRepo
	Showtimes *repository.ShowtimeRepo
	Movies    *repository.MovieRepo
	Theaters  *repository.TheaterRepo
	Offers    *offer.Engine
}

func NewBookingHandler(cfg config.Config, b *repository.BookingRepo, s *repository.SeatRepo, st *repository.ShowtimeRepo, m *repository.MovieRepo, t *repository.TheaterRepo, off *offer.Engine) *BookingHandler {
	if b == nil || s == nil || st == nil || m == nil || t == nil || off == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Cfg: cfg, Bookings: b, Seats: s, Showtimes: st, Movies: m, Theaters: t, Offers: off}
}

type createBookingReq struct {
	ShowtimeID uint64   `json:"showtime_id"`
	SeatIDs    []uint64 `json:"seat_ids"`
}

// Create handles POST /v1/bookings. It claims the requested seats for
// the showtime and creates a PENDING booking awaiting payment, priced
// at the seats' list prices with no discount; promo codes are applied
// afterwards through ApplyOffer. On a lost seat race it responds 409
// naming the exact seats that are gone.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ShowtimeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showtime_id is required"})
	}
	if err := bk.ValidateSeatSelection(req.SeatIDs); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	st, err := h.Showtimes.GetByID(ctx, req.ShowtimeID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}
	if err := bk.Bookable(st, now); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
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

	// Seat rows are loaded before the availability read so a conflict
	// response can name seats by label. A request naming an off-screen
	// seat therefore fails validation here even when other requested
	// seats are held; neither path mutates any state.
	seats, err := h.Seats.GetByIDsForScreenTx(ctx, tx, st.ScreenID, req.SeatIDs)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": bk.ErrInvalidSeat.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	seatByID := make(map[uint64]model.Seat, len(seats))
	for _, s := range seats {
		seatByID[s.ID] = s
	}

	held, err := h.Bookings.HeldSeatIDsTx(ctx, tx, st.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check availability"})
	}
	if conflicts := bk.Conflicting(req.SeatIDs, held); len(conflicts) > 0 {
		return c.JSON(http.StatusConflict, seatsUnavailablePayload(conflicts, seatByID))
	}

	var subtotal uint32
	bookingSeats := make([]model.BookingSeat, 0, len(seats))
	for _, id := range req.SeatIDs {
		s := seatByID[id]
		subtotal += s.PriceCents
		bookingSeats = append(bookingSeats, model.BookingSeat{
			ShowtimeID: st.ID,
			SeatID:     s.ID,
			SeatLabel:  s.Label(),
			PriceCents: s.PriceCents,
		})
	}

	b := &model.Booking{
		UserID:         userID,
		ShowtimeID:     st.ID,
		Status:         model.BookingPending,
		PaymentStatus:  model.PaymentPending,
		SubtotalCents:  subtotal,
		DiscountCents:  0,
		TotalCents:     subtotal,
		PaymentOrderID: uuid.NewString(),
	}
	if err := h.Bookings.CreateTx(ctx, tx, b, bookingSeats); err != nil {
		if err == repository.ErrSeatTaken {
			// Lost the insert race. Release our locks, then re-read to
			// name the seats that are actually gone.
			_ = tx.Rollback()
			fresh, ferr := h.Bookings.HeldSeatIDs(ctx, st.ID)
			if ferr != nil {
				return c.JSON(http.StatusConflict, echo.Map{"error": "seats unavailable"})
			}
			return c.JSON(http.StatusConflict, seatsUnavailablePayload(bk.Conflicting(req.SeatIDs, fresh), seatByID))
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	labels := make([]string, 0, len(bookingSeats))
	for _, s := range bookingSeats {
		labels = append(labels, s.SeatLabel)
	}
	h.publishBookingEvent(queue.KindBookingCreated, b, st, labels)

	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":       b.ID,
		"status":           b.Status,
		"payment_status":   b.PaymentStatus,
		"subtotal_cents":   b.SubtotalCents,
		"discount_cents":   b.DiscountCents,
		"total_cents":      b.TotalCents,
		"payment_order_id": b.PaymentOrderID,
		"seats":            labels,
	})
}

// seatsUnavailablePayload builds the 409 body for a lost seat race,
// naming seats by label where known.
func seatsUnavailablePayload(conflicts []uint64, seatByID map[uint64]model.Seat) echo.Map {
	labels := make([]string, 0, len(conflicts))
	for _, id := range conflicts {
		if s, ok := seatByID[id]; ok {
			labels = append(labels, s.Label())
		}
	}
	err := &bk.SeatsUnavailableError{Labels: labels}
	return echo.Map{
		"error":       err.Error(),
		"unavailable": labels,
	}
}

// ListMine handles GET /v1/bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	details, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// Get handles GET /v1/bookings/:id. Customers may only see their own
// bookings; a foreign booking reads as not found to avoid leaking IDs.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	seats, err := h.Bookings.SeatsByBooking(ctx, b.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": b, "seats": seats})
}

// Cancel handles POST /v1/bookings/:id/cancel. A booking may be
// cancelled while PENDING or ACTIVE and only before the cancellation
// cutoff; a paid booking moves to REFUND_PENDING.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	now := time.Now().UTC()

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

	b, err := h.Bookings.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	st, err := h.Showtimes.GetByID(ctx, b.ShowtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}
	if err := bk.CanCancelByUser(b, st.StartsAt, now, h.Cfg.CutoffDuration()); err != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	}

	newPayment := bk.PaymentStatusOnCancel(b.PaymentStatus)
	if err := h.Bookings.TransitionTx(ctx, tx, b.ID, model.BookingUserCancelled, newPayment); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel booking"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	movieTitle := ""
	if m, merr := h.Movies.GetByID(ctx, st.MovieID); merr == nil {
		movieTitle = m.Title
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = service.PublishEvent(pctx, queue.Envelope{
			Kind: queue.KindBookingCancelled,
			BookingCancelled: &queue.CancellationEvent{
				BookingID:     b.ID,
				UserID:        b.UserID,
				ShowtimeID:    b.ShowtimeID,
				MovieTitle:    movieTitle,
				RefundPending: newPayment == model.PaymentRefundPending,
				Reason:        "cancelled by customer",
				OccurredAt:    now.Format(time.RFC3339),
			},
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":     b.ID,
		"status":         model.BookingUserCancelled,
		"payment_status": newPayment,
	})
}

type applyOfferReq struct {
	PromoCode string `json:"promo_code"`
}

// ApplyOffer handles POST /v1/bookings/:id/offer. It evaluates a promo
// code against a PENDING booking and records the discount. An unknown
// or ineligible code is a 400; totals are locked once payment starts.
func (h *BookingHandler) ApplyOffer(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req applyOfferReq
	if err := c.Bind(&req); err != nil || req.PromoCode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "promo_code is required"})
	}
	ctx := c.Request().Context()

	numSeats, err := h.Bookings.CountSeats(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	prior, err := h.Bookings.HasPriorBooking(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check booking history"})
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

	b, err := h.Bookings.GetByIDForUpdateTx(ctx, tx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
	}
	if b.UserID != userID {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}

	st, err := h.Showtimes.GetByID(ctx, b.ShowtimeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}
	res := h.Offers.Evaluate(offer.Input{
		NumTickets:     numSeats,
		SubtotalCents:  b.SubtotalCents,
		MovieID:        st.MovieID,
		IsFirstBooking: !prior,
	}, req.PromoCode)
	if res.Applied == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "promo code is not applicable"})
	}

	if err := h.Bookings.ApplyDiscountTx(ctx, tx, b.ID, res.Applied.Code, res.DiscountCents, res.FinalTotalCents); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking totals are locked"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to apply promo"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":     b.ID,
		"promo_code":     res.Applied.Code,
		"description":    res.Applied.Description,
		"discount_cents": res.DiscountCents,
		"total_cents":    res.FinalTotalCents,
	})
}

// publishBookingEvent fires a booking notification after commit. Venue
// names are read best-effort; the broker publish runs in a goroutine
// and its failure never surfaces to the request.
func (h *BookingHandler) publishBookingEvent(kind string, b *model.Booking, st *model.Showtime, seatLabels []string) {
	theaterName, screenName, movieTitle := "", "", ""
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if t, err := h.Theaters.GetTheater(ctx, st.TheaterID); err == nil {
		theaterName = t.Name
	}
	if sc, err := h.Theaters.GetScreen(ctx, st.ScreenID); err == nil {
		screenName = sc.Name
	}
	if m, err := h.Movies.GetByID(ctx, st.MovieID); err == nil {
		movieTitle = m.Title
	}
	ev := &queue.BookingEvent{
		BookingID:      b.ID,
		UserID:         b.UserID,
		ShowtimeID:     st.ID,
		TheaterName:    theaterName,
		ScreenName:     screenName,
		MovieTitle:     movieTitle,
		StartsAt:       st.StartsAt.Format(time.RFC3339),
		SeatLabels:     seatLabels,
		TotalCents:     uint64(b.TotalCents),
		PaymentOrderID: b.PaymentOrderID,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	env := queue.Envelope{Kind: kind}
	if kind == queue.KindBookingConfirmed {
		env.BookingConfirmed = ev
	} else {
		env.BookingCreated = ev
	}
	go func() {
		pctx, pcancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pcancel()
		_ = service.PublishEvent(pctx, env)
	}()
}
