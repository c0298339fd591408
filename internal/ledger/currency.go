package ledger

import "strings"

// DefaultCurrencySymbol is used for unknown currency codes.
const DefaultCurrencySymbol = "$"

// DefaultCurrencies maps the recognized currency codes to display symbols.
var DefaultCurrencies = map[string]string{
	"IQD": "IQD",
	"USD": "USD",
}

// Currencies resolves currency codes to display symbols.
type Currencies struct {
	Symbols  map[string]string
	Fallback string
}

// NewCurrencies builds a resolver. Nil or empty arguments take the package
// defaults.
func NewCurrencies(symbols map[string]string, fallback string) Currencies {
	if len(symbols) == 0 {
		symbols = DefaultCurrencies
	}
	if fallback == "" {
		fallback = DefaultCurrencySymbol
	}

	normalized := make(map[string]string, len(symbols))
	for code, sym := range symbols {
		normalized[strings.ToUpper(strings.TrimSpace(code))] = sym
	}
	return Currencies{Symbols: normalized, Fallback: fallback}
}

// Symbol returns the display symbol for a code. Codes are matched
// case-insensitively; unrecognized codes yield the fallback symbol.
func (c Currencies) Symbol(code string) string {
	if sym, ok := c.Symbols[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return sym
	}
	if c.Fallback == "" {
		return DefaultCurrencySymbol
	}
	return c.Fallback
}
