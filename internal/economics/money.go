package economics

import (
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is assumed when a tenant does not name one
const DefaultCurrency = "EUR"

var minorUnits = map[string]int32{
	"EUR": 2,
	"GBP": 2,
	"USD": 2,
	"JPY": 0,
	"ISK": 0,
}

// MinorUnits returns the number of decimal places of a currency's minor unit
func MinorUnits(currency string) int32 {
	if n, ok := minorUnits[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return n
	}
	return 2
}

// RoundMoney rounds an amount to the currency's minor unit
func RoundMoney(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(MinorUnits(currency))
}

// CurrencySymbol returns a display prefix for the currency
func CurrencySymbol(currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "EUR":
		return "€"
	case "GBP":
		return "£"
	case "USD":
		return "$"
	default:
		return strings.ToUpper(currency) + " "
	}
}

// FormatMoney renders an amount with thousands separators, e.g. €12,345.60
func FormatMoney(amount decimal.Decimal, currency string) string {
	places := MinorUnits(currency)
	s := RoundMoney(amount, currency).StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + CurrencySymbol(currency) + b.String() + frac
}
