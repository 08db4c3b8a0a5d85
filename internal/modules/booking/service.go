package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"bookingcrm/internal/domain"
	"bookingcrm/internal/export"
	"bookingcrm/internal/pkg/validator"
	"bookingcrm/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	MaxPageSize   = 500
	recentCount   = 7
	dayLayout     = "2006-01-02"
	patternLimit  = MaxPageSize
	minPatternLen = 1
)

type Service struct {
	bookings BookingRepository
	cache    DatasetCache
	stats    StatusCounter
	pageSize int
	now      func() time.Time
}

func NewService(bookings BookingRepository, cache DatasetCache, pageSize int) *Service {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = 100
	}
	return &Service{
		bookings: bookings,
		cache:    cache,
		pageSize: pageSize,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithStats adds per-status counts to the dashboard.
func (s *Service) WithStats(stats StatusCounter) *Service {
	s.stats = stats
	return s
}

// scope is the owner filter for a caller: empty for privileged roles.
func scope(s domain.Session) string {
	if s.IsPrivileged() {
		return ""
	}
	return s.UserID
}

func (s *Service) Filter(ctx context.Context, session domain.Session, in FilterInput) (*FilterResult, error) {
	f := repository.BookingFilter{
		OwnerID: scope(session),
		Service: strings.TrimSpace(in.Service),
		BDMName: strings.TrimSpace(in.BDMName),
		Bank:    strings.TrimSpace(in.PaymentMode),
	}

	if v := strings.TrimSpace(in.Status); v != "" {
		status, err := domain.ParseBookingStatus(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		f.Status = string(status)
	}

	var err error
	if f.StartDate, err = parseDay("startDate", in.StartDate); err != nil {
		return nil, err
	}
	if f.EndDate, err = parseDay("endDate", in.EndDate); err != nil {
		return nil, err
	}
	if f.PaymentStart, err = parseDay("paymentStartDate", in.PaymentStartDate); err != nil {
		return nil, err
	}
	if f.PaymentEnd, err = parseDay("paymentEndDate", in.PaymentEndDate); err != nil {
		return nil, err
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	limit := in.Limit
	if limit < 1 {
		limit = s.pageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	f.Offset = (page - 1) * limit
	f.Limit = limit

	list, total, err := s.bookings.Filter(ctx, f)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	return &FilterResult{
		Bookings:      nonNil(list),
		TotalPages:    totalPages,
		CurrentPage:   page,
		TotalBookings: total,
	}, nil
}

// GetByID returns one active booking the caller may see.
func (s *Service) GetByID(ctx context.Context, session domain.Session, id string) (*domain.Booking, error) {
	if !domain.IsBookingID(id) {
		return nil, fmt.Errorf("%w: malformed booking id", ErrValidation)
	}
	b, err := s.bookings.GetByID(ctx, id, scope(session))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return b, nil
}

// SearchByPattern matches company names containing pattern.
func (s *Service) SearchByPattern(ctx context.Context, session domain.Session, pattern string) ([]domain.Booking, error) {
	pattern = strings.TrimSpace(pattern)
	if len(pattern) < minPatternLen {
		return nil, fmt.Errorf("%w: pattern is required", ErrValidation)
	}
	list, err := s.bookings.SearchByCompany(ctx, pattern, scope(session), patternLimit)
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// All returns every active booking. Only privileged roles may call it.
func (s *Service) All(ctx context.Context, session domain.Session) ([]domain.Booking, error) {
	if !session.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.dataset(ctx, "")
}

// ForUser returns the bookings owned by userID. Callers may read their own
// bookings; privileged roles may read anyone's.
func (s *Service) ForUser(ctx context.Context, session domain.Session, userID string) ([]domain.Booking, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if userID != session.UserID && !session.IsPrivileged() {
		return nil, ErrForbidden
	}
	return s.dataset(ctx, userID)
}

func (s *Service) dataset(ctx context.Context, ownerID string) ([]domain.Booking, error) {
	var key string
	if s.cache != nil {
		list, k, ok := s.cache.Get(ctx, ownerID)
		if ok {
			return list, nil
		}
		key = k
	}
	list, err := s.bookings.ListAll(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	list = nonNil(list)
	if s.cache != nil && key != "" {
		s.cache.Set(ctx, key, list)
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, session domain.Session, req CreateBookingRequest) (*domain.Booking, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	date, err := parseDay("date", req.Date)
	if err != nil {
		return nil, err
	}
	paymentDate, err := parseDay("payment_date", req.PaymentDate)
	if err != nil {
		return nil, err
	}

	status := domain.BookingPending
	if strings.TrimSpace(req.Status) != "" {
		if status, err = domain.ParseBookingStatus(req.Status); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	bdm := strings.TrimSpace(req.BDM)
	if bdm == "" {
		bdm = session.Name
	}

	b := &domain.Booking{
		UserID:            session.UserID,
		CompanyName:       strings.TrimSpace(req.CompanyName),
		ContactPerson:     strings.TrimSpace(req.ContactPerson),
		ContactNo:         strings.TrimSpace(req.ContactNo),
		Email:             strings.TrimSpace(req.Email),
		Services:          cleanServices(req.Services),
		State:             strings.TrimSpace(req.State),
		TotalAmount:       req.TotalAmount,
		Term1:             req.Term1,
		Term2:             req.Term2,
		Term3:             req.Term3,
		Date:              date,
		PaymentDate:       paymentDate,
		CreatedAt:         s.now(),
		Status:            status,
		BDM:               bdm,
		ClosedBy:          strings.TrimSpace(req.ClosedBy),
		AfterDisbursement: strings.TrimSpace(req.AfterDisbursement),
		Remark:            strings.TrimSpace(req.Remark),
		GST:               strings.TrimSpace(req.GST),
		PAN:               strings.ToUpper(strings.TrimSpace(req.PAN)),
		Bank:              strings.TrimSpace(req.Bank),
	}

	if b.Received().GreaterThan(decimal.NewFromFloat(b.TotalAmount)) {
		return nil, ErrAmountExceedsTotal
	}

	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(ctx)

	log.Printf("booking_created id=%s user_id=%s company=%q", b.ID, b.UserID, b.CompanyName)
	return b, nil
}

// Edit applies the non-nil fields of req and appends an audit entry listing
// every field that actually changed.
func (s *Service) Edit(ctx context.Context, session domain.Session, id string, req EditBookingRequest) (*domain.Booking, error) {
	if !domain.IsBookingID(id) {
		return nil, fmt.Errorf("%w: malformed booking id", ErrValidation)
	}
	if errs := validator.Validate(req); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}

	b, err := s.bookings.GetByID(ctx, id, scope(session))
	if err != nil {
		return nil, mapRepoErr(err)
	}

	changes := map[string]domain.FieldChange{}
	setString := func(field string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if nv != *dst {
			changes[field] = domain.FieldChange{Old: *dst, New: nv}
			*dst = nv
		}
	}
	setAmount := func(field string, dst **float64, v *float64) {
		if v == nil || (*dst != nil && **dst == *v) {
			return
		}
		changes[field] = domain.FieldChange{Old: derefAny(*dst), New: *v}
		nv := *v
		*dst = &nv
	}
	setDay := func(field string, dst **time.Time, v *string) error {
		if v == nil {
			return nil
		}
		nv, err := parseDay(field, *v)
		if err != nil {
			return err
		}
		if sameDay(*dst, nv) {
			return nil
		}
		changes[field] = domain.FieldChange{Old: formatDay(*dst), New: formatDay(nv)}
		*dst = nv
		return nil
	}

	setString("company_name", &b.CompanyName, req.CompanyName)
	setString("contact_person", &b.ContactPerson, req.ContactPerson)
	setString("contact_no", &b.ContactNo, req.ContactNo)
	setString("email", &b.Email, req.Email)
	setString("state", &b.State, req.State)
	setString("bdm", &b.BDM, req.BDM)
	setString("closed_by", &b.ClosedBy, req.ClosedBy)
	setString("after_disbursement", &b.AfterDisbursement, req.AfterDisbursement)
	setString("remark", &b.Remark, req.Remark)
	setString("gst", &b.GST, req.GST)
	setString("pan", &b.PAN, req.PAN)
	setString("bank", &b.Bank, req.Bank)

	if req.TotalAmount != nil && *req.TotalAmount != b.TotalAmount {
		changes["total_amount"] = domain.FieldChange{Old: b.TotalAmount, New: *req.TotalAmount}
		b.TotalAmount = *req.TotalAmount
	}
	setAmount("term_1", &b.Term1, req.Term1)
	setAmount("term_2", &b.Term2, req.Term2)
	setAmount("term_3", &b.Term3, req.Term3)

	if err := setDay("date", &b.Date, req.Date); err != nil {
		return nil, err
	}
	if err := setDay("payment_date", &b.PaymentDate, req.PaymentDate); err != nil {
		return nil, err
	}

	if req.Services != nil {
		nv := cleanServices(*req.Services)
		if !reflect.DeepEqual([]string(nv), []string(b.Services)) {
			changes["services"] = domain.FieldChange{Old: []string(b.Services), New: []string(nv)}
			b.Services = nv
		}
	}
	if req.Status != nil {
		st, err := domain.ParseBookingStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if st != b.Status {
			changes["status"] = domain.FieldChange{Old: string(b.Status), New: string(st)}
			b.Status = st
		}
	}

	if len(changes) == 0 {
		return b, nil
	}

	by := session.Name
	if by == "" {
		by = session.UserID
	}
	b.Updates = append(b.Updates, domain.UpdateEntry{
		UpdatedBy: by,
		UpdatedAt: s.now(),
		Note:      strings.TrimSpace(req.Note),
		Changes:   changes,
	})

	if err := s.bookings.Save(ctx, b); err != nil {
		return nil, mapRepoErr(err)
	}
	s.invalidate(ctx)

	log.Printf("booking_edited id=%s by=%s fields=%d", b.ID, session.UserID, len(changes))
	return b, nil
}

func (s *Service) Trash(ctx context.Context, session domain.Session, id string) error {
	if err := s.requirePrivileged(session, id); err != nil {
		return err
	}
	if err := s.bookings.Trash(ctx, id, session.UserID); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate(ctx)
	log.Printf("booking_trashed id=%s by=%s", id, session.UserID)
	return nil
}

func (s *Service) Restore(ctx context.Context, session domain.Session, id string) error {
	if err := s.requirePrivileged(session, id); err != nil {
		return err
	}
	if err := s.bookings.Restore(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate(ctx)
	log.Printf("booking_restored id=%s by=%s", id, session.UserID)
	return nil
}

// Purge deletes a trashed booking for good.
func (s *Service) Purge(ctx context.Context, session domain.Session, id string) error {
	if err := s.requirePrivileged(session, id); err != nil {
		return err
	}
	if err := s.bookings.Purge(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.invalidate(ctx)
	log.Printf("booking_purged id=%s by=%s", id, session.UserID)
	return nil
}

func (s *Service) ListTrash(ctx context.Context, session domain.Session) ([]domain.Booking, error) {
	if !session.IsPrivileged() {
		return nil, ErrForbidden
	}
	list, err := s.bookings.ListTrash(ctx, "")
	if err != nil {
		return nil, err
	}
	return nonNil(list), nil
}

// Dashboard summarises the caller's visible bookings for the current year.
func (s *Service) Dashboard(ctx context.Context, session domain.Session) (*Dashboard, error) {
	owner := scope(session)
	now := s.now()

	total, err := s.bookings.Count(ctx, owner)
	if err != nil {
		return nil, err
	}

	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearList, err := s.bookings.ListBookedBetween(ctx, owner, from, from.AddDate(1, 0, 0))
	if err != nil {
		return nil, err
	}

	monthly := make([]MonthRevenue, 12)
	for i := range monthly {
		monthly[i] = MonthRevenue{Month: time.Month(i + 1).String()[:3], Revenue: decimal.Zero}
	}
	revenue, received := decimal.Zero, decimal.Zero
	for i := range yearList {
		b := &yearList[i]
		amount := decimal.NewFromFloat(b.TotalAmount)
		revenue = revenue.Add(amount)
		received = received.Add(b.Received())
		if b.Date != nil {
			m := b.Date.UTC().Month() - 1
			monthly[m].Revenue = monthly[m].Revenue.Add(amount)
		}
	}

	recent, err := s.bookings.Recent(ctx, owner, recentCount)
	if err != nil {
		return nil, err
	}

	var byStatus map[domain.BookingStatus]int64
	if s.stats != nil {
		if byStatus, err = s.stats.CountByStatus(ctx, owner); err != nil {
			return nil, err
		}
	}

	return &Dashboard{
		TotalBookings:  total,
		ByStatus:       byStatus,
		Year:           now.Year(),
		YearRevenue:    revenue,
		YearReceived:   received,
		MonthlyRevenue: monthly,
		RecentBookings: nonNil(recent),
	}, nil
}

// ExportCSV renders the full dataset for the export role.
func (s *Service) ExportCSV(ctx context.Context, session domain.Session, sel export.Selection) ([]byte, error) {
	if !session.CanExport() {
		return nil, ErrForbidden
	}
	if unknown := sel.Unknown(); len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown fields %s", ErrValidation, strings.Join(unknown, ","))
	}

	list, err := s.dataset(ctx, "")
	if err != nil {
		return nil, err
	}
	csv := export.Project(list, sel)
	if csv == "" {
		return nil, ErrNoData
	}

	log.Printf("booking_export by=%s rows=%d", session.UserID, len(list))
	return []byte(csv), nil
}

func (s *Service) requirePrivileged(session domain.Session, id string) error {
	if !session.IsPrivileged() {
		return ErrForbidden
	}
	if !domain.IsBookingID(id) {
		return fmt.Errorf("%w: malformed booking id", ErrValidation)
	}
	return nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return ErrValidation.Error() }

func (e *ValidationError) Unwrap() error { return ErrValidation }

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrNotTrashed):
		return ErrNotTrashed
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicate
	}
	return err
}

// parseDay accepts YYYY-MM-DD or RFC 3339 and returns midnight UTC of that day.
func parseDay(field, v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(dayLayout, v)
	if err != nil {
		t, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, field)
		}
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return formatDay(a) == formatDay(b)
}

func formatDay(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(dayLayout)
}

func derefAny(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func cleanServices(in []string) domain.Services {
	out := make(domain.Services, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(list []domain.Booking) []domain.Booking {
	if list == nil {
		return []domain.Booking{}
	}
	return list
}
