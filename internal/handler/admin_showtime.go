package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking-api/internal/config"
	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/queue"
	"github.com/cinetick/movie-booking-api/internal/repository"
	"github.com/cinetick/movie-booking-api/internal/schedule"
	"github.com/cinetick/movie-booking-api/internal/service"
)

// AdminShowtimeHandler schedules showtimes. Every write runs the
// overlap check inside the same transaction that inserts or updates,
// with the screen's scheduled rows locked, so two admins cannot
// concurrently commit colliding slots.
type AdminShowtimeHandler struct {
	Cfg       config.Config
	Movies    *repository.MovieRepo
	Theaters  *repository.TheaterRepo
	Showtimes *repository.ShowtimeRepo
}

func NewAdminShowtimeHandler(cfg config.Config, m *repository.MovieRepo, t *repository.TheaterRepo, st *repository.ShowtimeRepo) *AdminShowtimeHandler {
	if m == nil || t == nil || st == nil {
		panic("nil repository passed to NewAdminShowtimeHandler")
	}
	return &AdminShowtimeHandler{Cfg: cfg, Movies: m, Theaters: t, Showtimes: st}
}

// checkConflicts verifies the candidate occupied interval against all
// SCHEDULED showtimes on the screen, within the caller's transaction.
// excludeID skips the showtime being rescheduled. Returns a
// *schedule.ConflictError on collision.
func (h *AdminShowtimeHandler) checkConflicts(ctx context.Context, tx *sql.Tx, screenID uint64, candidate schedule.Interval, excludeID uint64) error {
	neighbors, err := h.Showtimes.ScheduledBeforeTx(ctx, tx, screenID, candidate.End)
	if err != nil {
		return err
	}
	buffer := h.Cfg.BufferDuration()
	for _, n := range neighbors {
		if n.ID == excludeID {
			continue
		}
		window := schedule.Occupied(n.StartsAt, n.DurationMin, buffer)
		if candidate.Overlaps(window) {
			return &schedule.ConflictError{MovieTitle: n.MovieTitle, Window: window}
		}
	}
	return nil
}

type createShowtimeReq struct {
	MovieID  uint64 `json:"movie_id"`
	ScreenID uint64 `json:"screen_id"`
	StartsAt string `json:"starts_at"` // RFC3339
	Language string `json:"language"`
}

// Create handles POST /v1/admin/showtimes.
func (h *AdminShowtimeHandler) Create(c echo.Context) error {
	var req createShowtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MovieID == 0 || req.ScreenID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id and screen_id are required"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	startsAt = startsAt.UTC()
	now := time.Now().UTC()
	if !startsAt.After(now) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx := c.Request().Context()
	m, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}
	screen, err := h.Theaters.GetScreen(ctx, req.ScreenID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screen"})
	}
	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = m.Language
	}

	tx, err := h.Showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	candidate := schedule.Occupied(startsAt, m.DurationMin, h.Cfg.BufferDuration())
	if err := h.checkConflicts(ctx, tx, screen.ID, candidate, 0); err != nil {
		var conflict *schedule.ConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check schedule"})
	}

	st := &model.Showtime{
		MovieID:   m.ID,
		ScreenID:  screen.ID,
		TheaterID: screen.TheaterID,
		StartsAt:  startsAt,
		Language:  language,
	}
	if err := h.Showtimes.CreateTx(ctx, tx, st); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create showtime"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"item": st})
}

type batchShowtimeReq struct {
	MovieID  uint64   `json:"movie_id"`
	ScreenID uint64   `json:"screen_id"`
	Language string   `json:"language"`
	FromDate string   `json:"from_date"` // 2006-01-02
	ToDate   string   `json:"to_date"`   // 2006-01-02
	Slots    []string `json:"slots"`     // HH:MM, canonical timezone
}

// CreateBatch handles POST /v1/admin/showtimes/batch. It expands a
// date range and daily time slots into concrete showtimes and creates
// them atomically: one conflict, whether against existing showtimes or
// between two expanded candidates, rolls back the whole batch.
func (h *AdminShowtimeHandler) CreateBatch(c echo.Context) error {
	var req batchShowtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.MovieID == 0 || req.ScreenID == 0 || len(req.Slots) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, screen_id and slots are required"})
	}
	from, err := time.Parse("2006-01-02", req.FromDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "from_date must be YYYY-MM-DD"})
	}
	to, err := time.Parse("2006-01-02", req.ToDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to_date must be YYYY-MM-DD"})
	}
	slots := make([]schedule.Slot, 0, len(req.Slots))
	for _, s := range req.Slots {
		sl, err := schedule.ParseSlot(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot " + s + ": " + err.Error()})
		}
		slots = append(slots, sl)
	}

	ctx := c.Request().Context()
	now := time.Now().UTC()

	m, err := h.Movies.GetByID(ctx, req.MovieID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}
	screen, err := h.Theaters.GetScreen(ctx, req.ScreenID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screen"})
	}

	starts, err := schedule.Expand(from, to, slots, h.Cfg.Timezone, now)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	if len(starts) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no future showtimes in the requested range"})
	}

	// Candidates share one runtime, so adjacent expanded starts are
	// the only possible intra-batch collisions.
	buffer := h.Cfg.BufferDuration()
	for i := 1; i < len(starts); i++ {
		prev := schedule.Occupied(starts[i-1], m.DurationMin, buffer)
		cur := schedule.Occupied(starts[i], m.DurationMin, buffer)
		if cur.Overlaps(prev) {
			return c.JSON(http.StatusConflict, echo.Map{
				"error": "slots " + starts[i-1].Format(time.RFC3339) + " and " + starts[i].Format(time.RFC3339) + " overlap for this movie's runtime",
			})
		}
	}

	language := strings.TrimSpace(req.Language)
	if language == "" {
		language = m.Language
	}

	tx, err := h.Showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	created := make([]*model.Showtime, 0, len(starts))
	for _, startsAt := range starts {
		candidate := schedule.Occupied(startsAt, m.DurationMin, buffer)
		if err := h.checkConflicts(ctx, tx, screen.ID, candidate, 0); err != nil {
			var conflict *schedule.ConflictError
			if errors.As(err, &conflict) {
				return c.JSON(http.StatusConflict, echo.Map{
					"error":    "slot " + startsAt.Format(time.RFC3339) + " " + conflict.Error(),
					"imported": 0,
				})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check schedule"})
		}
		st := &model.Showtime{
			MovieID:   m.ID,
			ScreenID:  screen.ID,
			TheaterID: screen.TheaterID,
			StartsAt:  startsAt,
			Language:  language,
		}
		if err := h.Showtimes.CreateTx(ctx, tx, st); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create showtime"})
		}
		created = append(created, st)
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{"items": created, "count": len(created)})
}

type updateShowtimeReq struct {
	StartsAt string `json:"starts_at"` // RFC3339
	Language string `json:"language"`
}

// Update handles PUT /v1/admin/showtimes/:id. Rescheduling re-runs
// the overlap check with the showtime itself excluded.
func (h *AdminShowtimeHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	var req updateShowtimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	startsAt = startsAt.UTC()
	if !startsAt.After(time.Now().UTC()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be in the future"})
	}

	ctx := c.Request().Context()
	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}
	if st.Status != model.ShowtimeScheduled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showtime is not scheduled"})
	}
	m, err := h.Movies.GetByID(ctx, st.MovieID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}

	tx, err := h.Showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	candidate := schedule.Occupied(startsAt, m.DurationMin, h.Cfg.BufferDuration())
	if err := h.checkConflicts(ctx, tx, st.ScreenID, candidate, st.ID); err != nil {
		var conflict *schedule.ConflictError
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check schedule"})
	}

	st.StartsAt = startsAt
	if lang := strings.TrimSpace(req.Language); lang != "" {
		st.Language = lang
	}
	if err := h.Showtimes.UpdateTx(ctx, tx, st); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime is not scheduled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update showtime"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{"item": st})
}

// Cancel handles POST /v1/admin/showtimes/:id/cancel. The showtime
// moves to CANCELLED and every ACTIVE or PENDING booking on it is
// cancelled in the same transaction, with paid bookings flagged for
// refund.
func (h *AdminShowtimeHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	ctx := c.Request().Context()

	st, err := h.Showtimes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtime"})
	}

	tx, err := h.Showtimes.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cancelled, err := h.Showtimes.CancelCascadeTx(ctx, tx, id)
	if err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime is not scheduled"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to cancel showtime"})
		}
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
			Kind: queue.KindShowtimeCancelled,
			ShowtimeCancelled: &queue.ShowtimeEvent{
				ShowtimeID:        st.ID,
				MovieTitle:        movieTitle,
				StartsAt:          st.StartsAt.Format(time.RFC3339),
				BookingsCancelled: len(cancelled),
				OccurredAt:        time.Now().UTC().Format(time.RFC3339),
			},
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id":        st.ID,
		"status":             model.ShowtimeCancelled,
		"bookings_cancelled": len(cancelled),
	})
}

// Delete handles DELETE /v1/admin/showtimes/:id. Refused while any
// holding booking exists; cancel instead to release customers cleanly.
func (h *AdminShowtimeHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showtime id"})
	}
	if err := h.Showtimes.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "showtime has holding bookings"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete showtime"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
