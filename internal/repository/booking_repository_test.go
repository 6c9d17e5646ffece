package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinetick/movie-booking-api/internal/model"
	"github.com/cinetick/movie-booking-api/internal/repository"
)

func newRepoHarness(t *testing.T) (*repository.BookingRepo, *repository.SeatRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewBookingRepo(db), repository.NewSeatRepo(db), mock
}

func pendingBooking() *model.Booking {
	return &model.Booking{
		UserID:         7,
		ShowtimeID:     11,
		Status:         model.BookingPending,
		PaymentStatus:  model.PaymentPending,
		SubtotalCents:  25000,
		TotalCents:     25000,
		PaymentOrderID: "ord-1",
	}
}

// The price a booking pays is captured into booking_seats at claim
// time; repricing the seat afterwards touches only the catalog row and
// leaves the booked snapshot untouched.
func TestBookedSeatPriceSurvivesRepricing(t *testing.T) {
	bookings, seats, mock := newRepoHarness(t)
	ctx := context.Background()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec(`INSERT INTO booking_seats`).
		WithArgs(7, 11, 21, "A1", 25000).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT created_at, updated_at FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	mock.ExpectCommit()

	tx, err := bookings.DB().BeginTx(ctx, nil)
	require.NoError(t, err)
	b := pendingBooking()
	err = bookings.CreateTx(ctx, tx, b, []model.BookingSeat{
		{ShowtimeID: 11, SeatID: 21, SeatLabel: "A1", PriceCents: 25000},
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.Equal(t, uint64(7), b.ID)

	// Admin reprices the seat; the statement targets seats only.
	mock.ExpectExec(`UPDATE seats SET price_cents = \? WHERE id = \?`).
		WithArgs(30000, 21).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, seats.UpdatePrice(ctx, 21, 30000))

	mock.ExpectQuery(`FROM booking_seats WHERE booking_id = \?`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"seat_id", "seat_label", "price_cents"}).
			AddRow(21, "A1", 25000))
	booked, err := bookings.SeatsByBooking(ctx, 7)
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, uint32(25000), booked[0].PriceCents)

	require.NoError(t, mock.ExpectationsWereMet())
}

// A duplicate-key rejection from the unique seat index surfaces as
// ErrSeatTaken so the caller can roll back and report the race.
func TestCreateTxDuplicateSeatIsSeatTaken(t *testing.T) {
	bookings, _, mock := newRepoHarness(t)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec(`INSERT INTO booking_seats`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '11-21-1' for key 'uq_showtime_seat_active'"})
	mock.ExpectRollback()

	tx, err := bookings.DB().BeginTx(ctx, nil)
	require.NoError(t, err)
	err = bookings.CreateTx(ctx, tx, pendingBooking(), []model.BookingSeat{
		{ShowtimeID: 11, SeatID: 21, SeatLabel: "A1", PriceCents: 25000},
	})
	require.ErrorIs(t, err, repository.ErrSeatTaken)
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
