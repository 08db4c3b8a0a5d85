package export

import (
	"strings"
	"time"

	"bookingcrm/internal/domain"
)

// Projector renders bookings as CSV text. Location decides how booking and
// payment dates are printed; nil means UTC.
type Projector struct {
	Location *time.Location
}

// Project renders records with the default projector.
func Project(records []domain.Booking, sel Selection) string {
	return Projector{}.Project(records, sel)
}

// Project returns the header row followed by one row per record, joined by
// "\n" with no trailing newline. It returns "" when there are no records or no
// selected columns.
func (p Projector) Project(records []domain.Booking, sel Selection) string {
	cols := sel.included()
	if len(records) == 0 || len(cols) == 0 {
		return ""
	}

	lines := make([]string, 0, len(records)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = escapeValue(c.header)
	}
	lines = append(lines, strings.Join(header, ","))

	row := make([]string, len(cols))
	for i := range records {
		for j, c := range cols {
			row[j] = escapeValue(c.extract(p, &records[i]))
		}
		lines = append(lines, strings.Join(row, ","))
	}
	return strings.Join(lines, "\n")
}

// escapeValue quotes values containing a comma, a double quote or a newline
// and doubles the quotes inside. Everything else passes through untouched.
func escapeValue(v string) string {
	if !strings.ContainsAny(v, ",\"\n") {
		return v
	}
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
