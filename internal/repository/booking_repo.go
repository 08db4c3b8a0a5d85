package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"bookingcrm/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrDuplicate  = errors.New("duplicate record")
	ErrNotTrashed = errors.New("booking is not in trash")
)

type BookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

type bookingModel struct {
	ID                string                                  `gorm:"column:id;primaryKey;size:24"`
	UserID            string                                  `gorm:"column:user_id;size:24;index"`
	CompanyName       string                                  `gorm:"column:company_name;index"`
	ContactPerson     string                                  `gorm:"column:contact_person"`
	ContactNo         string                                  `gorm:"column:contact_no"`
	Email             string                                  `gorm:"column:email"`
	Services          datatypes.JSONSlice[string]             `gorm:"column:services"`
	State             string                                  `gorm:"column:state"`
	TotalAmount       float64                                 `gorm:"column:total_amount"`
	Term1             *float64                                `gorm:"column:term_1"`
	Term2             *float64                                `gorm:"column:term_2"`
	Term3             *float64                                `gorm:"column:term_3"`
	Date              *time.Time                              `gorm:"column:date;index"`
	PaymentDate       *time.Time                              `gorm:"column:payment_date;index"`
	Status            string                                  `gorm:"column:status;index"`
	BDM               string                                  `gorm:"column:bdm"`
	ClosedBy          string                                  `gorm:"column:closed_by"`
	AfterDisbursement string                                  `gorm:"column:after_disbursement"`
	Remark            string                                  `gorm:"column:remark"`
	GST               string                                  `gorm:"column:gst"`
	PAN               string                                  `gorm:"column:pan"`
	Bank              string                                  `gorm:"column:bank"`
	Updates           datatypes.JSONSlice[domain.UpdateEntry] `gorm:"column:updated_history"`
	CreatedAt         time.Time                               `gorm:"column:created_at;index"`
	UpdatedAt         time.Time                               `gorm:"column:updated_at"`
	DeletedAt         gorm.DeletedAt                          `gorm:"column:deleted_at;index"`
	DeletedBy         string                                  `gorm:"column:deleted_by"`
}

func (bookingModel) TableName() string { return "bookings" }

func toDomainBooking(m bookingModel) domain.Booking {
	b := domain.Booking{
		ID:                m.ID,
		UserID:            m.UserID,
		CompanyName:       m.CompanyName,
		ContactPerson:     m.ContactPerson,
		ContactNo:         m.ContactNo,
		Email:             m.Email,
		Services:          domain.Services(m.Services),
		State:             m.State,
		TotalAmount:       m.TotalAmount,
		Term1:             m.Term1,
		Term2:             m.Term2,
		Term3:             m.Term3,
		Date:              m.Date,
		PaymentDate:       m.PaymentDate,
		CreatedAt:         m.CreatedAt,
		Status:            domain.BookingStatus(m.Status),
		BDM:               m.BDM,
		ClosedBy:          m.ClosedBy,
		AfterDisbursement: m.AfterDisbursement,
		Remark:            m.Remark,
		GST:               m.GST,
		PAN:               m.PAN,
		Bank:              m.Bank,
		Updates:           []domain.UpdateEntry(m.Updates),
		DeletedBy:         m.DeletedBy,
	}
	if m.DeletedAt.Valid {
		t := m.DeletedAt.Time
		b.DeletedAt = &t
	}
	return b
}

func toBookingModel(b *domain.Booking) bookingModel {
	m := bookingModel{
		ID:                b.ID,
		UserID:            b.UserID,
		CompanyName:       strings.TrimSpace(b.CompanyName),
		ContactPerson:     b.ContactPerson,
		ContactNo:         b.ContactNo,
		Email:             strings.TrimSpace(strings.ToLower(b.Email)),
		Services:          datatypes.JSONSlice[string](b.Services),
		State:             b.State,
		TotalAmount:       b.TotalAmount,
		Term1:             b.Term1,
		Term2:             b.Term2,
		Term3:             b.Term3,
		Date:              b.Date,
		PaymentDate:       b.PaymentDate,
		Status:            string(b.Status),
		BDM:               b.BDM,
		ClosedBy:          b.ClosedBy,
		AfterDisbursement: b.AfterDisbursement,
		Remark:            b.Remark,
		GST:               b.GST,
		PAN:               b.PAN,
		Bank:              b.Bank,
		Updates:           datatypes.JSONSlice[domain.UpdateEntry](b.Updates),
		CreatedAt:         b.CreatedAt,
		DeletedBy:         b.DeletedBy,
	}
	if b.DeletedAt != nil {
		m.DeletedAt = gorm.DeletedAt{Time: *b.DeletedAt, Valid: true}
	}
	return m
}

func toDomainBookings(ms []bookingModel) []domain.Booking {
	out := make([]domain.Booking, 0, len(ms))
	for _, m := range ms {
		out = append(out, toDomainBooking(m))
	}
	return out
}

// BookingFilter narrows a booking listing. An empty OwnerID means every
// owner. Date bounds are whole days: End includes the day it names.
type BookingFilter struct {
	OwnerID      string
	Status       string
	Service      string
	BDMName      string
	Bank         string
	StartDate    *time.Time
	EndDate      *time.Time
	PaymentStart *time.Time
	PaymentEnd   *time.Time
	Offset       int
	Limit        int
}

func (r *BookingRepository) scoped(ctx context.Context, ownerID string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&bookingModel{})
	if ownerID != "" {
		q = q.Where("user_id = ?", ownerID)
	}
	return q
}

func (r *BookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if b.ID == "" {
		b.ID = domain.NewBookingID()
	}
	m := toBookingModel(b)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	*b = toDomainBooking(m)
	return nil
}

// Filter returns one page of active bookings plus the total match count.
func (r *BookingRepository) Filter(ctx context.Context, f BookingFilter) ([]domain.Booking, int64, error) {
	q := r.scoped(ctx, f.OwnerID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Service != "" {
		clause, arg := serviceMatch(r.db.Dialector.Name(), f.Service)
		q = q.Where(clause, arg)
	}
	if f.BDMName != "" {
		q = q.Where("LOWER(bdm) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(f.BDMName))+"%")
	}
	if f.Bank != "" {
		q = q.Where("bank = ?", f.Bank)
	}
	q = dayRange(q, "date", f.StartDate, f.EndDate)
	q = dayRange(q, "payment_date", f.PaymentStart, f.PaymentEnd)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []bookingModel
	if err := q.Order("created_at DESC").Offset(f.Offset).Limit(f.Limit).Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return toDomainBookings(ms), total, nil
}

// GetByID returns an active booking. A non-empty ownerID hides bookings of
// other owners.
func (r *BookingRepository) GetByID(ctx context.Context, id, ownerID string) (*domain.Booking, error) {
	var m bookingModel
	err := r.scoped(ctx, ownerID).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b := toDomainBooking(m)
	return &b, nil
}

// SearchByCompany matches company names case-insensitively.
func (r *BookingRepository) SearchByCompany(ctx context.Context, pattern, ownerID string, limit int) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.scoped(ctx, ownerID).
		Where("LOWER(company_name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(pattern))+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListAll(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.scoped(ctx, ownerID).Order("created_at DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) ListTrash(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.scoped(ctx, ownerID).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

// Save writes every field of an existing active booking.
func (r *BookingRepository) Save(ctx context.Context, b *domain.Booking) error {
	m := toBookingModel(b)
	tx := r.db.WithContext(ctx).Model(&bookingModel{}).Where("id = ?", b.ID).
		Select("*").Omit("id", "created_at", "deleted_at", "deleted_by").
		Updates(&m)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Trash soft-deletes an active booking.
func (r *BookingRepository) Trash(ctx context.Context, id, by string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&bookingModel{}).Where("id = ?", id).Update("deleted_by", by)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("id = ?", id).Delete(&bookingModel{}).Error
	})
}

// Restore brings a trashed booking back.
func (r *BookingRepository) Restore(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().Model(&bookingModel{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]any{"deleted_at": nil, "deleted_by": ""})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missingOrActive(ctx, id)
	}
	return nil
}

// Purge permanently removes a trashed booking.
func (r *BookingRepository) Purge(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Delete(&bookingModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.missingOrActive(ctx, id)
	}
	return nil
}

// PurgeTrashedBefore removes bookings trashed before cutoff.
func (r *BookingRepository) PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Delete(&bookingModel{})
	return res.RowsAffected, res.Error
}

func (r *BookingRepository) Count(ctx context.Context, ownerID string) (int64, error) {
	var n int64
	err := r.scoped(ctx, ownerID).Count(&n).Error
	return n, err
}

// ListBookedBetween returns active bookings whose booking date is in [from, to).
func (r *BookingRepository) ListBookedBetween(ctx context.Context, ownerID string, from, to time.Time) ([]domain.Booking, error) {
	var ms []bookingModel
	err := r.scoped(ctx, ownerID).
		Where("date >= ? AND date < ?", from, to).
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) Recent(ctx context.Context, ownerID string, n int) ([]domain.Booking, error) {
	var ms []bookingModel
	if err := r.scoped(ctx, ownerID).Order("created_at DESC").Limit(n).Find(&ms).Error; err != nil {
		return nil, err
	}
	return toDomainBookings(ms), nil
}

func (r *BookingRepository) missingOrActive(ctx context.Context, id string) error {
	var n int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&bookingModel{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrNotTrashed
}

func dayRange(q *gorm.DB, column string, from, to *time.Time) *gorm.DB {
	if from != nil {
		q = q.Where(column+" >= ?", startOfDay(*from))
	}
	if to != nil {
		q = q.Where(column+" < ?", startOfDay(*to).AddDate(0, 0, 1))
	}
	return q
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// serviceMatch selects bookings whose services list holds name as a whole
// entry. Postgres compares jsonb values; elsewhere the stored JSON text is
// searched for the encoded entry, which json.Marshal escapes the same way
// JSONSlice does.
func serviceMatch(dialect, name string) (string, any) {
	if dialect == "postgres" {
		needle, _ := json.Marshal([]string{name})
		return "services @> ?::jsonb", string(needle)
	}
	needle, _ := json.Marshal(name)
	return "CAST(services AS TEXT) LIKE ? ESCAPE '\\'", "%" + escapeLike(string(needle)) + "%"
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || errors.Is(err, gorm.ErrDuplicatedKey)
}
