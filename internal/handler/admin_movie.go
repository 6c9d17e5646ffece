package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/repository"
)

// AdminMovieHandler manages the movie catalog.
type AdminMovieHandler struct {
	Movies *repository.MovieRepo
}

func NewAdminMovieHandler(m *repository.MovieRepo) *AdminMovieHandler {
	if m == nil {
		panic("nil repository passed to NewAdminMovieHandler")
	}
	return &AdminMovieHandler{Movies: m}
}

type movieReq struct {
	Title       string `json:"title"`
	DurationMin uint32 `json:"duration_min"`
	Language    string `json:"language"`
	Genre       string `json:"genre"`
}

func (r *movieReq) validate() string {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return "title is required"
	}
	if r.DurationMin == 0 {
		return "duration_min must be positive"
	}
	return ""
}

// Create handles POST /v1/admin/movies.
func (h *AdminMovieHandler) Create(c echo.Context) error {
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	m := &model.Movie{Title: req.Title, DurationMin: req.DurationMin, Language: req.Language, Genre: req.Genre}
	if err := h.Movies.Create(c.Request().Context(), m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create movie"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": m})
}

// Update handles PUT /v1/admin/movies/:id. Changing duration_min only
// affects conflict checks for showtimes scheduled after the change.
func (h *AdminMovieHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	var req movieReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	m := &model.Movie{ID: id, Title: req.Title, DurationMin: req.DurationMin, Language: req.Language, Genre: req.Genre}
	if err := h.Movies.Update(c.Request().Context(), m); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update movie"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": m})
}

// Delete handles DELETE /v1/admin/movies/:id. Refused while scheduled
// showtimes still reference the movie.
func (h *AdminMovieHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	if err := h.Movies.Delete(c.Request().Context(), id); err != nil {
		switch err {
		case repository.ErrNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "movie has scheduled showtimes"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete movie"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}
