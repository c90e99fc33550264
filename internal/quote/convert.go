package quote

import (
	"github.com/shopspring/decimal"
)

// Trend classifies a percent-change value into one of three display states.
type Trend string

const (
	TrendGain Trend = "gain"
	TrendLoss Trend = "loss"
	TrendSame Trend = "same"
)

// Classify maps a percent change onto a Trend by strict sign comparison.
// Zero is "same", never "gain".
func Classify(change float64) Trend {
	switch {
	case change < 0:
		return TrendLoss
	case change > 0:
		return TrendGain
	default:
		return TrendSame
	}
}

// Converted is the display-ready result of a currency conversion:
// the converted price, the currency prefix and the number of decimals
// the value should be rendered with.
type Converted struct {
	Value    float64 `json:"value"`
	Prefix   string  `json:"prefix"`
	Decimals int     `json:"decimals"`
}

// Convert converts a USD price into the given quote currency.
//
// When the quote is the USD base itself the price passes through and the
// decimal count scales with magnitude so small-cap coins stay readable.
// For any other quote the price is divided by the quote's own USD price
// and rounded to exactly 8 decimals via Round8, so repeated conversions
// of the same inputs always produce the identical value.
func Convert(priceUSD float64, quoteSymbol string, quoteUSDPrice float64, quotePrefix string) Converted {
	if quoteSymbol == "USD" {
		return Converted{
			Value:    priceUSD,
			Prefix:   quotePrefix,
			Decimals: usdDecimals(priceUSD),
		}
	}

	value := 0.0
	if quoteUSDPrice > 0 {
		value = Round8(priceUSD / quoteUSDPrice)
	}
	return Converted{Value: value, Prefix: quotePrefix, Decimals: 8}
}

// usdDecimals picks display decimals by magnitude: >=1 gets 2,
// [0.01, 1) gets 3, anything smaller gets 4.
func usdDecimals(price float64) int {
	switch {
	case price >= 1:
		return 2
	case price >= 0.01:
		return 3
	default:
		return 4
	}
}

// Round8 rounds to 8 decimals using integer-scaled decimal arithmetic.
// Float-rounding the quotient directly drifts over thousands of
// re-conversions, which shows up as flicker in the live ticker.
func Round8(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(8).Float64()
	return f
}

// Change compares an opening price against the current price the way the
// streaming pairs view presents it: absolute change, percent of the open
// and the resulting trend. A missing or zero open yields a zero percent.
func Change(open, current float64) (change, percent float64, trend Trend) {
	change = current - open
	if open > 0 {
		percent = change / open * 100.0
	}
	return change, percent, Classify(change)
}
