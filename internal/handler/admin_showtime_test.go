package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking-api/internal/config"
	"github.com/cinetick/movie-booking-api/internal/handler"
	"github.com/cinetick/movie-booking-api/internal/repository"
)

func newAdminShowtimeHarness(t *testing.T) (*handler.AdminShowtimeHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	cfg := config.Config{Timezone: time.UTC, ShowtimeBufferMin: 30}
	h := handler.NewAdminShowtimeHandler(
		cfg,
		repository.NewMovieRepo(db),
		repository.NewTheaterRepo(db),
		repository.NewShowtimeRepo(db),
	)
	return h, mock
}

func movieRow(id uint64, title string, durationMin uint32) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "title", "duration_min", "language", "genre", "created_at", "updated_at"}).
		AddRow(id, title, durationMin, "EN", "CRIME", now, now)
}

func screenRow(id, theaterID uint64) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "theater_id", "name", "created_at", "updated_at"}).
		AddRow(id, theaterID, "Screen 1", now, now)
}

func neighborColumns() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "duration_min", "starts_at"})
}

func createdShowtimeRow(id uint64, startsAt time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "movie_id", "screen_id", "theater_id", "starts_at", "language", "status", "created_at", "updated_at"}).
		AddRow(id, 3, 5, 2, startsAt, "EN", "SCHEDULED", now, now)
}

const batchBody = `{"movie_id":3,"screen_id":5,"from_date":"2026-10-01","to_date":"2026-10-01","slots":["10:00","20:00"]}`

// A conflict on any expanded slot rolls back every showtime of the
// batch, including ones already inserted in the same transaction.
func TestCreateBatchRollsBackOnConflict(t *testing.T) {
	h, mock := newAdminShowtimeHarness(t)

	mock.ExpectQuery(`FROM movies WHERE id = \?`).
		WillReturnRows(movieRow(3, "Heat", 120))
	mock.ExpectQuery(`FROM screens WHERE id = \?`).
		WillReturnRows(screenRow(5, 2))
	mock.ExpectBegin()

	// First slot is free and inserts cleanly.
	mock.ExpectQuery(`FROM showtimes st`).
		WillReturnRows(neighborColumns())
	mock.ExpectExec(`INSERT INTO showtimes`).
		WillReturnResult(sqlmock.NewResult(61, 1))
	mock.ExpectQuery(`FROM showtimes WHERE id = \?`).
		WillReturnRows(createdShowtimeRow(61, time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)))

	// Second slot collides with a showtime already on the screen.
	mock.ExpectQuery(`FROM showtimes st`).
		WillReturnRows(neighborColumns().
			AddRow(50, "Oppenheimer", 120, time.Date(2026, 10, 1, 19, 0, 0, 0, time.UTC)))
	mock.ExpectRollback()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/showtimes/batch", batchBody)
	require.NoError(t, h.CreateBatch(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Oppenheimer")
	assert.Contains(t, rec.Body.String(), `"imported":0`)
	require.NoError(t, mock.ExpectationsWereMet())
}

// With a clear screen the whole batch commits as one transaction.
func TestCreateBatchCommitsAllSlots(t *testing.T) {
	h, mock := newAdminShowtimeHarness(t)

	mock.ExpectQuery(`FROM movies WHERE id = \?`).
		WillReturnRows(movieRow(3, "Heat", 120))
	mock.ExpectQuery(`FROM screens WHERE id = \?`).
		WillReturnRows(screenRow(5, 2))
	mock.ExpectBegin()

	mock.ExpectQuery(`FROM showtimes st`).
		WillReturnRows(neighborColumns())
	mock.ExpectExec(`INSERT INTO showtimes`).
		WillReturnResult(sqlmock.NewResult(61, 1))
	mock.ExpectQuery(`FROM showtimes WHERE id = \?`).
		WillReturnRows(createdShowtimeRow(61, time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)))

	mock.ExpectQuery(`FROM showtimes st`).
		WillReturnRows(neighborColumns())
	mock.ExpectExec(`INSERT INTO showtimes`).
		WillReturnResult(sqlmock.NewResult(62, 1))
	mock.ExpectQuery(`FROM showtimes WHERE id = \?`).
		WillReturnRows(createdShowtimeRow(62, time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)))

	mock.ExpectCommit()

	c, rec := newJSONContext(t, http.MethodPost, "/v1/admin/showtimes/batch", batchBody)
	require.NoError(t, h.CreateBatch(c))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	require.NoError(t, mock.ExpectationsWereMet())
}
