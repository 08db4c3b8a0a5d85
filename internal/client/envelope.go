package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"bookingcrm/internal/domain"
)

var ErrUnexpectedShape = errors.New("unexpected response shape")

type envelopeKind int

const (
	kindEmpty envelopeKind = iota
	kindPaginated
	kindList
	kindAllBookings
	kindSingle
)

func (k envelopeKind) String() string {
	switch k {
	case kindPaginated:
		return "paginated"
	case kindList:
		return "list"
	case kindAllBookings:
		return "allbookings"
	case kindSingle:
		return "single"
	default:
		return "empty"
	}
}

// envelope is the decoded form of any booking response. kind says which
// wire shape it came from.
type envelope struct {
	kind        envelopeKind
	records     []domain.Booking
	totalPages  int
	currentPage int
	total       int
}

type paginatedBody struct {
	Bookings      []domain.Booking `json:"bookings"`
	TotalPages    int              `json:"totalPages"`
	CurrentPage   int              `json:"currentPage"`
	TotalBookings int              `json:"totalBookings"`
}

type allBookingsBody struct {
	AllBookings []domain.Booking `json:"Allbookings"`
}

// decodeEnvelope classifies body by its top-level keys and decodes it.
// Shapes it does not recognise are reported as ErrUnexpectedShape.
func decodeEnvelope(body []byte) (envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return envelope{kind: kindEmpty}, nil
	}

	switch trimmed[0] {
	case '[':
		var list []domain.Booking
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return envelope{}, fmt.Errorf("%w: list: %v", ErrUnexpectedShape, err)
		}
		return envelope{kind: kindList, records: list}, nil
	case '{':
	default:
		return envelope{}, fmt.Errorf("%w: body starts with %q", ErrUnexpectedShape, trimmed[0])
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &keys); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}

	switch {
	case len(keys) == 0:
		return envelope{kind: kindEmpty}, nil
	case has(keys, "bookings"):
		var p paginatedBody
		if err := json.Unmarshal(trimmed, &p); err != nil {
			return envelope{}, fmt.Errorf("%w: paginated: %v", ErrUnexpectedShape, err)
		}
		return envelope{
			kind:        kindPaginated,
			records:     p.Bookings,
			totalPages:  p.TotalPages,
			currentPage: p.CurrentPage,
			total:       p.TotalBookings,
		}, nil
	case has(keys, "Allbookings"):
		var a allBookingsBody
		if err := json.Unmarshal(trimmed, &a); err != nil {
			return envelope{}, fmt.Errorf("%w: allbookings: %v", ErrUnexpectedShape, err)
		}
		return envelope{kind: kindAllBookings, records: a.AllBookings}, nil
	case has(keys, "_id"):
		var b domain.Booking
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return envelope{}, fmt.Errorf("%w: single: %v", ErrUnexpectedShape, err)
		}
		return envelope{kind: kindSingle, records: []domain.Booking{b}}, nil
	}

	return envelope{}, fmt.Errorf("%w: keys %v", ErrUnexpectedShape, sortedKeys(keys))
}

// normalize sorts records newest first and fills in page metadata.
func (e envelope) normalize() envelope {
	if e.records == nil {
		e.records = []domain.Booking{}
	}
	sort.SliceStable(e.records, func(i, j int) bool {
		return e.records[i].CreatedAt.After(e.records[j].CreatedAt)
	})
	if e.totalPages < 1 {
		e.totalPages = 1
	}
	if e.currentPage < 1 {
		e.currentPage = 1
	}
	if e.total < len(e.records) {
		e.total = len(e.records)
	}
	return e
}

func has(m map[string]json.RawMessage, key string) bool {
	_, ok := m[key]
	return ok
}

func sortedKeys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
