package doclayout

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// shared printer; message.Printer is safe for concurrent use
var dePrinter = message.NewPrinter(language.German)

// Money formats a value with exactly two fractional digits, German decimal
// comma, fixed notation. Rounds, never truncates: 37.499999 -> "37,50".
func Money(v float64) string {
	return dePrinter.Sprintf("%.2f", v)
}

// ZeroMoney is what packaging sub-rows show for price and total
var ZeroMoney = Money(0)

// Amount formats quantities the same way as monetary values
func Amount(v float64) string {
	return Money(v)
}
