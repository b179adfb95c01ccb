package synth

import "github.com/shopspring/decimal"

// round2 rounds a generated price to cents.
func round2(v float64) float64 {
    f, _ := decimal.NewFromFloat(v).Round(2).Float64()
    return f
}
