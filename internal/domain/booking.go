package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingInProgress BookingStatus = "In Progress"
	BookingCompleted  BookingStatus = "Completed"
)

// Valid reports whether s is one of the known workflow states.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingInProgress, BookingCompleted:
		return true
	}
	return false
}

// ParseBookingStatus matches v against the known states ignoring case and
// returns the canonical spelling.
func ParseBookingStatus(v string) (BookingStatus, error) {
	v = strings.TrimSpace(v)
	for _, s := range []BookingStatus{BookingPending, BookingInProgress, BookingCompleted} {
		if strings.EqualFold(v, string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown booking status %q", v)
}

// Services is the ordered list of service names on a booking. Older records
// carry a single comma separated string, so decoding accepts both forms.
type Services []string

func (s *Services) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*s = nil
		return nil
	}
	if strings.HasPrefix(trimmed, "\"") {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			*s = nil
			return nil
		}
		*s = Services{raw}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = list
	return nil
}

// FieldChange is one old/new pair inside an audit entry.
type FieldChange struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// UpdateEntry records a single edit made to a booking.
type UpdateEntry struct {
	UpdatedBy string                 `json:"updatedBy"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Note      string                 `json:"note,omitempty"`
	Changes   map[string]FieldChange `json:"changes"`
}

type Booking struct {
	ID     string `json:"_id"`
	UserID string `json:"user_id,omitempty"`

	CompanyName   string `json:"company_name"`
	ContactPerson string `json:"contact_person"`
	ContactNo     string `json:"contact_no"`
	Email         string `json:"email"`

	Services Services `json:"services"`
	State    string   `json:"state"`

	TotalAmount float64  `json:"total_amount"`
	Term1       *float64 `json:"term_1,omitempty"`
	Term2       *float64 `json:"term_2,omitempty"`
	Term3       *float64 `json:"term_3,omitempty"`

	Date        *time.Time `json:"date,omitempty"`
	PaymentDate *time.Time `json:"payment_date,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`

	Status            BookingStatus `json:"status"`
	BDM               string        `json:"bdm"`
	ClosedBy          string        `json:"closed_by"`
	AfterDisbursement string        `json:"after_disbursement"`
	Remark            string        `json:"remark"`
	GST               string        `json:"gst"`
	PAN               string        `json:"pan"`
	Bank              string        `json:"bank"`

	Updates []UpdateEntry `json:"updatedhistory,omitempty"`

	DeletedAt *time.Time `json:"deletedAt,omitempty"`
	DeletedBy string     `json:"deletedBy,omitempty"`
}

// NewBookingID returns a fresh 24 character hex identifier.
func NewBookingID() string {
	return primitive.NewObjectID().Hex()
}

// IsBookingID reports whether v has the shape of a booking identifier.
func IsBookingID(v string) bool {
	return primitive.IsValidObjectID(v)
}

// Terms returns the three installments in order; absent ones are nil.
func (b *Booking) Terms() [3]*float64 {
	return [3]*float64{b.Term1, b.Term2, b.Term3}
}

// Received is the sum of the present terms.
func (b *Booking) Received() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range b.Terms() {
		if t != nil {
			sum = sum.Add(decimal.NewFromFloat(*t))
		}
	}
	return sum
}

// Pending is total minus received. It can be negative for records that were
// created before the input check existed.
func (b *Booking) Pending() decimal.Decimal {
	return decimal.NewFromFloat(b.TotalAmount).Sub(b.Received())
}

// TermType describes which installment is filled. A zero term counts as absent.
func (b *Booking) TermType() string {
	filled := make([]string, 0, 3)
	for i, t := range b.Terms() {
		if t != nil && *t != 0 {
			filled = append(filled, fmt.Sprintf("Term %d", i+1))
		}
	}
	switch len(filled) {
	case 0:
		return "N/A"
	case 1:
		return filled[0]
	default:
		return "Multiple Terms"
	}
}

func (b *Booking) IsTrashed() bool {
	return b.DeletedAt != nil
}
