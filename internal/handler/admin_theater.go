package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/repository"
)

// AdminTheaterHandler manages theaters, their screens and seat
// layouts.
type AdminTheaterHandler struct {
	Theaters *repository.TheaterRepo
	Seats    *repository.SeatRepo
}

func NewAdminTheaterHandler(t *repository.TheaterRepo, s *repository.SeatRepo) *AdminTheaterHandler {
	if t == nil || s == nil {
		panic("nil repository passed to NewAdminTheaterHandler")
	}
	return &AdminTheaterHandler{Theaters: t, Seats: s}
}

type theaterReq struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// CreateTheater handles POST /v1/admin/theaters.
func (h *AdminTheaterHandler) CreateTheater(c echo.Context) error {
	var req theaterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	t := &model.Theater{Name: req.Name, City: req.City, Address: req.Address}
	if err := h.Theaters.CreateTheater(c.Request().Context(), t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create theater"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": t})
}

// UpdateTheater handles PUT /v1/admin/theaters/:id.
func (h *AdminTheaterHandler) UpdateTheater(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	var req theaterReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	t := &model.Theater{ID: id, Name: req.Name, City: req.City, Address: req.Address}
	if err := h.Theaters.UpdateTheater(c.Request().Context(), t); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update theater"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": t})
}

type screenReq struct {
	Name string `json:"name"`
}

// CreateScreen handles POST /v1/admin/theaters/:id/screens.
func (h *AdminTheaterHandler) CreateScreen(c echo.Context) error {
	theaterID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	var req screenReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	s := &model.Screen{TheaterID: theaterID, Name: req.Name}
	if err := h.Theaters.CreateScreen(c.Request().Context(), s); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create screen"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": s})
}

// ListScreens handles GET /v1/admin/theaters/:id/screens.
func (h *AdminTheaterHandler) ListScreens(c echo.Context) error {
	theaterID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
	}
	screens, err := h.Theaters.ListScreens(c.Request().Context(), theaterID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screens"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": screens})
}

type layoutSeatReq struct {
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	SeatType   string `json:"seat_type"`
	PriceCents uint32 `json:"price_cents"`
}

type replaceLayoutReq struct {
	Seats []layoutSeatReq `json:"seats"`
}

var validSeatTypes = map[string]bool{"REGULAR": true, "PREMIUM": true, "RECLINER": true}

// ReplaceLayout handles PUT /v1/admin/screens/:id/seats. The whole
// layout is swapped atomically; the replace is refused while any
// holding booking still references the screen's seats.
func (h *AdminTheaterHandler) ReplaceLayout(c echo.Context) error {
	screenID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid screen id"})
	}
	var req replaceLayoutReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(req.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Theaters.GetScreen(ctx, screenID); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screen"})
	}

	seen := make(map[string]struct{}, len(req.Seats))
	seats := make([]model.Seat, 0, len(req.Seats))
	for _, sr := range req.Seats {
		row := strings.ToUpper(strings.TrimSpace(sr.RowLabel))
		if row == "" || sr.SeatNumber == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "row_label and seat_number are required for every seat"})
		}
		typ := strings.ToUpper(strings.TrimSpace(sr.SeatType))
		if typ == "" {
			typ = "REGULAR"
		}
		if !validSeatTypes[typ] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_type must be REGULAR, PREMIUM or RECLINER"})
		}
		s := model.Seat{ScreenID: screenID, RowLabel: row, SeatNumber: sr.SeatNumber, SeatType: typ, PriceCents: sr.PriceCents}
		if _, dup := seen[s.Label()]; dup {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "duplicate seat " + s.Label() + " in layout"})
		}
		seen[s.Label()] = struct{}{}
		seats = append(seats, s)
	}

	if err := h.Seats.ReplaceLayout(ctx, screenID, seats); err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "screen has seats held by bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace layout"})
	}
	return c.JSON(http.StatusOK, echo.Map{"screen_id": screenID, "seat_count": len(seats)})
}

type seatPriceReq struct {
	PriceCents uint32 `json:"price_cents"`
}

// UpdateSeatPrice handles PATCH /v1/admin/seats/:id/price. Existing
// bookings keep their price snapshots.
func (h *AdminTheaterHandler) UpdateSeatPrice(c echo.Context) error {
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var req seatPriceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := h.Seats.UpdatePrice(c.Request().Context(), seatID, req.PriceCents); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update price"})
	}
	return c.JSON(http.StatusOK, echo.Map{"seat_id": seatID, "price_cents": req.PriceCents})
}
