package ledger

import (
	"strings"
	"time"
)

var dateLayouts = []string{DateLayout, time.RFC3339, "2006/01/02"}

// ParseDate reads an invoice or bound date. Empty and unparsable text
// reports false.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateRange is an inclusive date filter. Either bound may be open.
type DateRange struct {
	From, To *time.Time

	// given records whether the caller supplied any bound text at all, even
	// text that did not parse.
	given bool
}

// NewDateRange builds a range from bound text. Unparsable bounds are open.
func NewDateRange(from, to string) DateRange {
	r := DateRange{given: strings.TrimSpace(from) != "" || strings.TrimSpace(to) != ""}
	if t, ok := ParseDate(from); ok {
		r.From = &t
	}
	if t, ok := ParseDate(to); ok {
		r.To = &t
	}
	return r
}

// IsSet reports whether any bound was requested.
func (r DateRange) IsSet() bool { return r.given || r.From != nil || r.To != nil }

// Contains reports whether an invoice date falls inside the range. With any
// bound requested, dates that do not parse are outside.
func (r DateRange) Contains(date string) bool {
	if !r.IsSet() {
		return true
	}
	d, ok := ParseDate(date)
	if !ok {
		return false
	}
	if r.From != nil && d.Before(*r.From) {
		return false
	}
	if r.To != nil && d.After(*r.To) {
		return false
	}
	return true
}

// FilterInvoices keeps the invoices inside the range. When nothing matches it
// returns the full list and reports the fallback.
func FilterInvoices(invoices []Invoice, r DateRange) (selected []Invoice, fellBack bool) {
	if !r.IsSet() {
		return invoices, false
	}
	for _, inv := range invoices {
		if r.Contains(inv.Date) {
			selected = append(selected, inv)
		}
	}
	if len(selected) == 0 {
		return invoices, true
	}
	return selected, false
}
