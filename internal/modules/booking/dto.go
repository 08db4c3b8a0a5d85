package booking

import (
	"bookingcrm/internal/domain"

	"github.com/shopspring/decimal"
)

// FilterInput holds the raw query parameters of a filtered listing.
type FilterInput struct {
	StartDate        string `form:"startDate"`
	EndDate          string `form:"endDate"`
	PaymentStartDate string `form:"paymentStartDate"`
	PaymentEndDate   string `form:"paymentEndDate"`
	Status           string `form:"status"`
	Service          string `form:"service"`
	BDMName          string `form:"bdmName"`
	PaymentMode      string `form:"paymentmode"`
	Page             int    `form:"-"`
	Limit            int    `form:"-"`
}

type FilterResult struct {
	Bookings      []domain.Booking `json:"bookings"`
	TotalPages    int              `json:"totalPages"`
	CurrentPage   int              `json:"currentPage"`
	TotalBookings int64            `json:"totalBookings"`
}

type AllBookingsResponse struct {
	AllBookings []domain.Booking `json:"Allbookings"`
}

type CreateBookingRequest struct {
	CompanyName       string   `json:"company_name" validate:"required,max=200"`
	ContactPerson     string   `json:"contact_person" validate:"required,max=200"`
	ContactNo         string   `json:"contact_no" validate:"required,max=20"`
	Email             string   `json:"email" validate:"required,email"`
	Services          []string `json:"services" validate:"required,min=1,dive,required"`
	State             string   `json:"state" validate:"required"`
	TotalAmount       float64  `json:"total_amount" validate:"gt=0"`
	Term1             *float64 `json:"term_1" validate:"omitempty,gte=0"`
	Term2             *float64 `json:"term_2" validate:"omitempty,gte=0"`
	Term3             *float64 `json:"term_3" validate:"omitempty,gte=0"`
	Date              string   `json:"date" validate:"required"`
	PaymentDate       string   `json:"payment_date"`
	Status            string   `json:"status"`
	BDM               string   `json:"bdm"`
	ClosedBy          string   `json:"closed_by"`
	AfterDisbursement string   `json:"after_disbursement"`
	Remark            string   `json:"remark"`
	GST               string   `json:"gst"`
	PAN               string   `json:"pan"`
	Bank              string   `json:"bank"`
}

// EditBookingRequest carries only the fields being changed.
type EditBookingRequest struct {
	CompanyName       *string   `json:"company_name"`
	ContactPerson     *string   `json:"contact_person"`
	ContactNo         *string   `json:"contact_no"`
	Email             *string   `json:"email" validate:"omitempty,email"`
	Services          *[]string `json:"services"`
	State             *string   `json:"state"`
	TotalAmount       *float64  `json:"total_amount" validate:"omitempty,gt=0"`
	Term1             *float64  `json:"term_1" validate:"omitempty,gte=0"`
	Term2             *float64  `json:"term_2" validate:"omitempty,gte=0"`
	Term3             *float64  `json:"term_3" validate:"omitempty,gte=0"`
	Date              *string   `json:"date"`
	PaymentDate       *string   `json:"payment_date"`
	Status            *string   `json:"status"`
	BDM               *string   `json:"bdm"`
	ClosedBy          *string   `json:"closed_by"`
	AfterDisbursement *string   `json:"after_disbursement"`
	Remark            *string   `json:"remark"`
	GST               *string   `json:"gst"`
	PAN               *string   `json:"pan"`
	Bank              *string   `json:"bank"`
	Note              string    `json:"note"`
}

type MonthRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	TotalBookings  int64                          `json:"totalBookings"`
	ByStatus       map[domain.BookingStatus]int64 `json:"byStatus,omitempty"`
	Year           int                            `json:"year"`
	YearRevenue    decimal.Decimal                `json:"yearRevenue"`
	YearReceived   decimal.Decimal                `json:"yearReceived"`
	MonthlyRevenue []MonthRevenue                 `json:"monthlyRevenue"`
	RecentBookings []domain.Booking               `json:"recentBookings"`
}
