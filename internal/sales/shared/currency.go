package shared

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders monetary amounts for display. Computation stays in
// decimal form elsewhere; this is presentation only.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter builds a formatter for an ISO 4217 currency code and a BCP 47
// locale. Unknown inputs fall back to INR and English.
func NewFormatter(code, locale string) Formatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.INR
	}
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return Formatter{unit: unit, printer: message.NewPrinter(tag)}
}

// Amount renders a value with its currency symbol, e.g. "₹ 1,121.00".
func (f Formatter) Amount(v float64) string {
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(v)))
}

// Code returns the ISO currency code.
func (f Formatter) Code() string {
	return f.unit.String()
}
