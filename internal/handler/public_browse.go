package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking-api/internal/repository"
)

// PublicHandler serves the unauthenticated catalog: movies, theaters,
// showtime listings and per-showtime seat maps.
type PublicHandler struct {
	Movies    *repository.MovieRepo
	Theaters  *repository.TheaterRepo
	Seats     *repository.SeatRepo
	Showtimes *repository.ShowtimeRepo
	Bookings  *repository.BookingRepo
}

func NewPublicHandler(m *repository.MovieRepo, t *repository.TheaterRepo, s *repository.SeatRepo, st *repository.ShowtimeRepo, b *repository.BookingRepo) *PublicHandler {
	if m == nil || t == nil || s == nil || st == nil || b == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Movies: m, Theaters: t, Seats: s, Showtimes: st, Bookings: b}
}

// ListMovies handles GET /v1/movies.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": movies})
}

// GetMovie handles GET /v1/movies/:id.
func (h *PublicHandler) GetMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	m, err := h.Movies.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": m})
}

// ListTheaters handles GET /v1/theaters.
func (h *PublicHandler) ListTheaters(c echo.Context) error {
	theaters, err := h.Theaters.ListTheaters(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load theaters"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": theaters})
}

// ListShowtimesByMovie handles GET /v1/movies/:id/showtimes. Only
// upcoming SCHEDULED showtimes are listed.
func (h *PublicHandler) ListShowtimesByMovie(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	listings, err := h.Showtimes.ListByMovie(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtimes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}

// ListShowtimesByTheater handles GET /v1/theaters/:id/showtimes.
func (h *PublicHandler) ListShowtimesByTheater(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	listings, err := h.Showtimes.ListByTheater(c.Request().Context(), id, time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load showtimes"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": listings})
}

// seatView is one seat in the availability map.
type seatView struct {
	ID         uint64 `json:"id"`
	Label      string `json:"label"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	PriceCents uint32 `json:"price_cents"`
	Available  bool   `json:"available"`
}

// SeatMap handles GET /v1/showtimes/:id/seats. It renders the
// showtime's seat layout with per-seat availability. The snapshot is
// advisory: availability is only authoritative inside the booking
// transaction, so a seat shown free here can still be lost at booking
// time.
func (h *PublicHandler) SeatMap(c echo.Context) error {
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

	seats, err := h.Seats.ListByScreen(ctx, st.ScreenID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seats"})
	}
	held, err := h.Bookings.HeldSeatIDs(ctx, st.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load availability"})
	}

	views := make([]seatView, 0, len(seats))
	available := 0
	for _, s := range seats {
		_, taken := held[s.ID]
		if !taken {
			available++
		}
		views = append(views, seatView{
			ID:         s.ID,
			Label:      s.Label(),
			RowLabel:   s.RowLabel,
			SeatNumber: s.SeatNumber,
			SeatType:   s.SeatType,
			PriceCents: s.PriceCents,
			Available:  !taken,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id":     st.ID,
		"screen_id":       st.ScreenID,
		"status":          st.Status,
		"starts_at":       st.StartsAt,
		"seats":           views,
		"available_count": available,
	})
}
