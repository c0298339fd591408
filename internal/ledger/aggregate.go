package ledger

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPrefix matches the longest numeric prefix of a cleaned amount string.
var amountPrefix = regexp.MustCompile(`^-?(\d+\.?\d*|\.\d+)`)

// NormalizeDigits maps Arabic-Indic (U+0660..U+0669) and Extended
// Arabic-Indic (U+06F0..U+06F9) digits to their ASCII equivalents.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩':
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹':
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// cleanAmount drops every character that cannot be part of a number.
func cleanAmount(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, NormalizeDigits(s))
}

// parseDecimal converts display text into an exact decimal. Text without a
// numeric prefix yields zero.
func parseDecimal(s string) decimal.Decimal {
	m := amountPrefix.FindString(cleanAmount(s))
	if m == "" {
		return decimal.Zero
	}

	m = strings.TrimSuffix(m, ".")
	switch {
	case strings.HasPrefix(m, "-."):
		m = "-0" + m[1:]
	case strings.HasPrefix(m, "."):
		m = "0" + m
	}

	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseAmount reads a number out of free-form amount text such as "1,250$",
// "١٥٠" or "  -3.5 IQD". Empty or unparsable input yields 0.
func ParseAmount(s string) float64 {
	return parseDecimal(s).InexactFloat64()
}

func sumDecimal(t Table) decimal.Decimal {
	total := decimal.Zero
	for _, a := range t.Amounts() {
		total = total.Add(parseDecimal(a.Raw))
	}
	return total
}

// Sum adds up the amount column of a table.
func Sum(t Table) float64 {
	return sumDecimal(t).InexactFloat64()
}

// Balance is the operations total minus the receipts total.
func Balance(operations, receipts Table) float64 {
	return sumDecimal(operations).Sub(sumDecimal(receipts)).InexactFloat64()
}

// FormatAmount renders a number with the currency symbol appended. Values
// within 1e-9 of an integer print without decimals, all others with two.
func FormatAmount(n float64, symbol string) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		n = 0
	}

	rounded := math.Round(n)
	if math.Abs(n-rounded) < 1e-9 {
		if rounded == 0 {
			rounded = 0 // drop the sign of -0
		}
		return strconv.FormatFloat(rounded, 'f', 0, 64) + symbol
	}
	return strconv.FormatFloat(n, 'f', 2, 64) + symbol
}

// Totals is the reconciliation of one invoice.
type Totals struct {
	Operations float64 `json:"operations"`
	Receipts   float64 `json:"receipts"`
	Balance    float64 `json:"balance"`
}

// InvoiceTotals computes the reconciliation of an invoice.
func InvoiceTotals(inv Invoice) Totals {
	return Totals{
		Operations: Sum(inv.Operations),
		Receipts:   Sum(inv.Receipts),
		Balance:    Balance(inv.Operations, inv.Receipts),
	}
}
