package doclayout

import "math"

// DefaultTaxRatePercent applies when the order carries no VAT rate of its own
const DefaultTaxRatePercent = 7.0

// Totals - the final-page totals block. Computed once per document from the
// grand total of all resolved rows.
type Totals struct {
	Net         float64
	RatePercent float64
	Tax         float64
	Gross       float64
}

func NewTotals(net float64, ratePercent float64) Totals {
	tax := round2(net * ratePercent / 100)
	return Totals{
		Net:         net,
		RatePercent: ratePercent,
		Tax:         tax,
		Gross:       net + tax,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
