package repository

import (
	"context"
	"regexp"
	"testing"

	"bookingcrm/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsRepository_CountByStatusPostgresBinds(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewStatsRepository(sqlx.NewDb(mockDB, "postgres"))

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT status, COUNT(*) AS n FROM bookings WHERE deleted_at IS NULL AND user_id = $1 GROUP BY status`,
	)).WithArgs("owner-a").WillReturnRows(
		sqlmock.NewRows([]string{"status", "n"}).
			AddRow("Pending", 4).
			AddRow("Completed", 2),
	)

	got, err := repo.CountByStatus(context.Background(), "owner-a")
	require.NoError(t, err)
	assert.Equal(t, map[domain.BookingStatus]int64{
		domain.BookingPending:    4,
		domain.BookingInProgress: 0,
		domain.BookingCompleted:  2,
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatsRepository_CountByStatusSQLite(t *testing.T) {
	db := setupDB(t)
	bookings := NewBookingRepository(db)
	seeded := seedBookings(t, bookings)
	require.NoError(t, bookings.Trash(context.Background(), seeded[1].ID, "admin"))

	repo, err := StatsFromGorm(db)
	require.NoError(t, err)

	all, err := repo.CountByStatus(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), all[domain.BookingPending])
	assert.Equal(t, int64(1), all[domain.BookingInProgress])
	assert.Equal(t, int64(0), all[domain.BookingCompleted])

	owned, err := repo.CountByStatus(context.Background(), "owner-b")
	require.NoError(t, err)
	assert.Equal(t, int64(0), owned[domain.BookingPending])
	assert.Equal(t, int64(1), owned[domain.BookingInProgress])
}
