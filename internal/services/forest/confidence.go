package forest

import "math"

// Confidence maps the magnitude of the scaled drift to a percentage clamped
// to [floor, ceiling] and rounded to one decimal.
func Confidence(scaled, floor, ceiling float64) float64 {
    c := math.Abs(scaled) * 100
    if math.IsNaN(c) || c < floor {
        c = floor
    }
    if c > ceiling {
        c = ceiling
    }
    return Round(c, 1)
}
