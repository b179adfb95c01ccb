package features

import (
    "StockPredict/internal/domain/models"
)

// ClosingPrices maps records to their resolved closes, preserving order and length.
func ClosingPrices(records []models.HistoricalRecord) []float64 {
    out := make([]float64, len(records))
    for i, r := range records {
        out[i] = r.ClosingPrice()
    }
    return out
}

// ComputeReturns computes simple returns r = (C_t - C_{t-1}) / C_{t-1}.
// Pairs whose earlier close is not strictly positive are skipped, so the
// result may be shorter than len(prices)-1.
func ComputeReturns(prices []float64) []float64 {
    if len(prices) < 2 {
        return []float64{}
    }
    out := make([]float64, 0, len(prices)-1)
    for i := 1; i < len(prices); i++ {
        prev := prices[i-1]
        if prev <= 0 {
            continue
        }
        out = append(out, (prices[i]-prev)/prev)
    }
    return out
}

// BuildSeries returns the price series and return series for records.
func BuildSeries(records []models.HistoricalRecord) ([]float64, []float64) {
    prices := ClosingPrices(records)
    return prices, ComputeReturns(prices)
}

// HasUsablePrice reports whether any close is strictly positive.
func HasUsablePrice(prices []float64) bool {
    for _, p := range prices {
        if p > 0 {
            return true
        }
    }
    return false
}
