package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking-api/internal/config"
	"github.com/cinetick/movie-booking-api/internal/handler"
	"github.com/cinetick/movie-booking-api/internal/offer"
	"github.com/cinetick/movie-booking-api/internal/repository"
)

func newBookingHarness(t *testing.T) (*handler.BookingHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	h := handler.NewBookingHandler(
		config.Config{},
		repository.NewBookingRepo(db),
		repository.NewSeatRepo(db),
		repository.NewShowtimeRepo(db),
		repository.NewMovieRepo(db),
		repository.NewTheaterRepo(db),
		offer.NewEngine(offer.DefaultRules()),
	)
	return h, mock
}

func newJSONContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	c.Set("role", "CUSTOMER")
	return c, rec
}

func scheduledShowtimeRows(startsAt time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "movie_id", "screen_id", "theater_id", "starts_at", "language", "status", "created_at", "updated_at"}).
		AddRow(11, 3, 5, 2, startsAt, "EN", "SCHEDULED", now, now)
}

func screenSeatRows(ids ...uint64) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "screen_id", "row_label", "seat_number", "seat_type", "price_cents", "is_active", "created_at"})
	for i, id := range ids {
		rows.AddRow(id, 5, "A", i+1, "REGULAR", 25000, true, time.Now().UTC())
	}
	return rows
}

// A seat already held by another booking must fail the claim with a
// 409 naming exactly the lost seats, before any insert is attempted.
func TestBookingCreateRejectsHeldSeats(t *testing.T) {
	h, mock := newBookingHarness(t)

	startsAt := time.Now().UTC().Add(48 * time.Hour)
	mock.ExpectQuery(`FROM showtimes WHERE id = \?`).
		WillReturnRows(scheduledShowtimeRows(startsAt))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM seats`).
		WillReturnRows(screenSeatRows(21, 22))
	mock.ExpectQuery(`FROM booking_seats bs`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(22))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/bookings", `{"showtime_id":11,"seat_ids":[21,22]}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "seats unavailable: A2")
	assert.NotContains(t, rec.Body.String(), `"A1"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

// When a concurrent claim slips past the locked availability read, the
// unique seat index rejects the insert; the handler rolls back, re-reads
// availability and names the seats that were lost.
func TestBookingCreateSeatInsertRace(t *testing.T) {
	h, mock := newBookingHarness(t)

	startsAt := time.Now().UTC().Add(48 * time.Hour)
	mock.ExpectQuery(`FROM showtimes WHERE id = \?`).
		WillReturnRows(scheduledShowtimeRows(startsAt))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM seats`).
		WillReturnRows(screenSeatRows(21, 22))
	mock.ExpectQuery(`FROM booking_seats bs`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}))
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(99, 1))
	mock.ExpectExec(`INSERT INTO booking_seats`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '11-22-1' for key 'uq_showtime_seat_active'"})
	mock.ExpectRollback()
	mock.ExpectQuery(`FROM booking_seats bs`).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(22))

	c, rec := newJSONContext(t, http.MethodPost, "/v1/bookings", `{"showtime_id":11,"seat_ids":[21,22]}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "seats unavailable: A2")
	require.NoError(t, mock.ExpectationsWereMet())
}

// A request naming a seat from another screen fails as an invalid
// selection before the availability read, even when other requested
// seats would have been held.
func TestBookingCreateOffScreenSeat(t *testing.T) {
	h, mock := newBookingHarness(t)

	startsAt := time.Now().UTC().Add(48 * time.Hour)
	mock.ExpectQuery(`FROM showtimes WHERE id = \?`).
		WillReturnRows(scheduledShowtimeRows(startsAt))
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM seats`).
		WillReturnRows(screenSeatRows(21))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/bookings", `{"showtime_id":11,"seat_ids":[21,99]}`)
	require.NoError(t, h.Create(c))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "seat does not belong to the showtime's screen")
	require.NoError(t, mock.ExpectationsWereMet())
}
