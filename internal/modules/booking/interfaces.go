package booking

import (
	"context"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/repository"
)

// BookingRepository is the storage the service needs.
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) error
	Filter(ctx context.Context, f repository.BookingFilter) ([]domain.Booking, int64, error)
	GetByID(ctx context.Context, id, ownerID string) (*domain.Booking, error)
	SearchByCompany(ctx context.Context, pattern, ownerID string, limit int) ([]domain.Booking, error)
	ListAll(ctx context.Context, ownerID string) ([]domain.Booking, error)
	ListTrash(ctx context.Context, ownerID string) ([]domain.Booking, error)
	Save(ctx context.Context, b *domain.Booking) error
	Trash(ctx context.Context, id, by string) error
	Restore(ctx context.Context, id string) error
	Purge(ctx context.Context, id string) error
	Count(ctx context.Context, ownerID string) (int64, error)
	ListBookedBetween(ctx context.Context, ownerID string, from, to time.Time) ([]domain.Booking, error)
	Recent(ctx context.Context, ownerID string, n int) ([]domain.Booking, error)
}

// DatasetCache holds full datasets keyed by owner scope. Get returns the
// key that a following Set must write to.
type DatasetCache interface {
	Get(ctx context.Context, scope string) ([]domain.Booking, string, bool)
	Set(ctx context.Context, key string, bookings []domain.Booking)
	Invalidate(ctx context.Context)
}

// StatusCounter reports booking counts per status.
type StatusCounter interface {
	CountByStatus(ctx context.Context, ownerID string) (map[domain.BookingStatus]int64, error)
}
