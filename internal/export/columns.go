package export

import (
	"sort"
	"strings"
	"time"

	"bookingcrm/internal/domain"

	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// Column keys accepted in a Selection.
const (
	ColCompanyName       = "companyName"
	ColContactPerson     = "contactPersonName"
	ColBDMName           = "bdmName"
	ColContactNo         = "contactNo"
	ColEmail             = "email"
	ColBookingDate       = "bookingDate"
	ColPaymentDate       = "paymentDate"
	ColTotalPayment      = "totalPayment"
	ColReceivedPayment   = "receivedPayment"
	ColAfterDisbursement = "afterDisbursement"
	ColRemark            = "remark"
	ColServices          = "services"
	ColGST               = "gst"
	ColState             = "state"
	ColPAN               = "pan"
	ColTermType          = "termType"
)

type column struct {
	key     string
	header  string
	extract func(p Projector, b *domain.Booking) string
}

// columns is the canonical export order. Output always follows this table,
// whatever order the selection was built in.
var columns = []column{
	{ColCompanyName, "Company Name", func(_ Projector, b *domain.Booking) string { return orNA(b.CompanyName) }},
	{ColContactPerson, "Contact Person Name", func(_ Projector, b *domain.Booking) string { return orNA(b.ContactPerson) }},
	{ColBDMName, "BDM Name", func(_ Projector, b *domain.Booking) string { return orNA(b.BDM) }},
	{ColContactNo, "Contact No.", func(_ Projector, b *domain.Booking) string { return orNA(b.ContactNo) }},
	{ColEmail, "Email", func(_ Projector, b *domain.Booking) string { return orNA(b.Email) }},
	{ColBookingDate, "Booking Date", func(p Projector, b *domain.Booking) string { return p.date(b.Date) }},
	{ColPaymentDate, "Payment Date", func(p Projector, b *domain.Booking) string { return p.date(b.PaymentDate) }},
	{ColTotalPayment, "Total Payment", func(_ Projector, b *domain.Booking) string {
		return decimal.NewFromFloat(b.TotalAmount).String()
	}},
	{ColReceivedPayment, "Received Payment", func(_ Projector, b *domain.Booking) string { return b.Received().String() }},
	{ColAfterDisbursement, "After Disbursement:1%", func(_ Projector, b *domain.Booking) string { return orNA(b.AfterDisbursement) }},
	{ColRemark, "Remark", func(_ Projector, b *domain.Booking) string { return orNA(b.Remark) }},
	{ColServices, "Services", func(_ Projector, b *domain.Booking) string { return orNA(strings.Join(b.Services, ", ")) }},
	{ColGST, "GST", func(_ Projector, b *domain.Booking) string { return orNA(b.GST) }},
	{ColState, "State", func(_ Projector, b *domain.Booking) string { return orNA(b.State) }},
	{ColPAN, "PAN", func(_ Projector, b *domain.Booking) string { return orNA(b.PAN) }},
	{ColTermType, "Term Type", func(_ Projector, b *domain.Booking) string { return b.TermType() }},
}

// Selection maps a column key to whether it is exported.
// Missing keys are excluded; unknown keys are ignored.
type Selection map[string]bool

// AllFields returns a selection with every column enabled.
func AllFields() Selection {
	sel := make(Selection, len(columns))
	for _, c := range columns {
		sel[c.key] = true
	}
	return sel
}

// SelectionOf enables exactly the given keys.
func SelectionOf(keys ...string) Selection {
	sel := make(Selection, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k != "" {
			sel[k] = true
		}
	}
	return sel
}

// Toggle flips one column and returns the selection for chaining.
func (s Selection) Toggle(key string) Selection {
	s[key] = !s[key]
	return s
}

// Keys lists every known column key in canonical order.
func Keys() []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		out = append(out, c.key)
	}
	return out
}

// Unknown returns the selected keys that name no column, sorted.
func (s Selection) Unknown() []string {
	known := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		known[c.key] = struct{}{}
	}
	var out []string
	for k := range s {
		if _, ok := known[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func (s Selection) included() []column {
	out := make([]column, 0, len(columns))
	for _, c := range columns {
		if s[c.key] {
			out = append(out, c)
		}
	}
	return out
}

func orNA(v string) string {
	if strings.TrimSpace(v) == "" {
		return notAvailable
	}
	return v
}

func (p Projector) date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notAvailable
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02/01/2006")
}
