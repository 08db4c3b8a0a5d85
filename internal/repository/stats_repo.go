package repository

import (
	"context"
	"fmt"

	"bookingcrm/internal/domain"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"
)

// StatsRepository runs reporting queries in plain SQL. Placeholders are
// written as ? and rebound for the driver in use.
type StatsRepository struct {
	db *sqlx.DB
}

func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// StatsFromGorm shares the connection pool of an open gorm handle.
func StatsFromGorm(db *gorm.DB) (*StatsRepository, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("stats: underlying db: %w", err)
	}
	return NewStatsRepository(sqlx.NewDb(sqlDB, db.Dialector.Name())), nil
}

type statusCountRow struct {
	Status string `db:"status"`
	N      int64  `db:"n"`
}

// CountByStatus counts active bookings per status. Every known status is
// present in the result, zero when nothing matches.
func (r *StatsRepository) CountByStatus(ctx context.Context, ownerID string) (map[domain.BookingStatus]int64, error) {
	query := `SELECT status, COUNT(*) AS n FROM bookings WHERE deleted_at IS NULL`
	var args []any
	if ownerID != "" {
		query += ` AND user_id = ?`
		args = append(args, ownerID)
	}
	query += ` GROUP BY status`

	var rows []statusCountRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	out := map[domain.BookingStatus]int64{
		domain.BookingPending:    0,
		domain.BookingInProgress: 0,
		domain.BookingCompleted:  0,
	}
	for _, row := range rows {
		out[domain.BookingStatus(row.Status)] += row.N
	}
	return out, nil
}
