package client

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"bookingcrm/internal/domain"
)

var ErrInvalidCriteria = errors.New("invalid filter criteria")

const dateLayout = "2006-01-02"

type DateType string

const (
	DateTypeBooking DateType = "booking"
	DateTypePayment DateType = "payment"
)

// Mode tells the fetch layer which endpoint a query targets.
type Mode int

const (
	ModeFilteredList Mode = iota
	ModeIDLookup
	ModePatternLookup
)

func (m Mode) String() string {
	switch m {
	case ModeIDLookup:
		return "id-lookup"
	case ModePatternLookup:
		return "pattern-lookup"
	default:
		return "filtered-list"
	}
}

// Criteria are the raw filter fields as the user typed them.
type Criteria struct {
	Search      string
	BDMName     string
	Status      string
	Service     string
	PaymentMode string
	StartDate   string
	EndDate     string
	DateType    DateType
}

// IsZero reports whether no field is set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

// Query is an immutable descriptor produced by BuildQuery.
type Query struct {
	mode   Mode
	target string
	params url.Values
}

func (q Query) Mode() Mode { return q.mode }

// Target is the record id for ModeIDLookup and the pattern for
// ModePatternLookup. It is empty for filtered lists.
func (q Query) Target() string { return q.target }

// Params returns a copy of the filter parameters.
func (q Query) Params() url.Values {
	out := make(url.Values, len(q.params))
	for k, v := range q.params {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func (q Query) String() string {
	switch q.mode {
	case ModeIDLookup, ModePatternLookup:
		return fmt.Sprintf("%s(%s)", q.mode, q.target)
	default:
		return fmt.Sprintf("%s(%s)", q.mode, q.params.Encode())
	}
}

// BuildQuery turns criteria into a query. A non-empty search wins over every
// structured filter: a 24-hex search is an id lookup, anything else a company
// name pattern.
func BuildQuery(c Criteria) (Query, error) {
	if search := strings.TrimSpace(c.Search); search != "" {
		if domain.IsBookingID(search) {
			return Query{mode: ModeIDLookup, target: search}, nil
		}
		return Query{mode: ModePatternLookup, target: search}, nil
	}

	params := url.Values{}

	if s := strings.TrimSpace(c.Status); s != "" {
		status, err := domain.ParseBookingStatus(s)
		if err != nil {
			return Query{}, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
		}
		params.Set("status", string(status))
	}
	setIf(params, "service", c.Service)
	setIf(params, "bdmName", c.BDMName)
	setIf(params, "paymentmode", c.PaymentMode)

	startKey, endKey := "startDate", "endDate"
	switch c.DateType {
	case "", DateTypeBooking:
	case DateTypePayment:
		startKey, endKey = "paymentStartDate", "paymentEndDate"
	default:
		return Query{}, fmt.Errorf("%w: unknown date type %q", ErrInvalidCriteria, c.DateType)
	}

	start, err := parseDate(c.StartDate)
	if err != nil {
		return Query{}, err
	}
	end, err := parseDate(c.EndDate)
	if err != nil {
		return Query{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return Query{}, fmt.Errorf("%w: end date %s before start date %s", ErrInvalidCriteria, c.EndDate, c.StartDate)
	}
	if !start.IsZero() {
		params.Set(startKey, start.Format(dateLayout))
	}
	if !end.IsZero() {
		params.Set(endKey, end.Format(dateLayout))
	}

	return Query{mode: ModeFilteredList, params: params}, nil
}

func setIf(v url.Values, key, value string) {
	if value = strings.TrimSpace(value); value != "" {
		v.Set(key, value)
	}
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidCriteria, s)
	}
	return t, nil
}
