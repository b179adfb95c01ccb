package forest

import "math"

// EffectiveDays floors the horizon at one day.
func EffectiveDays(daysAhead int) int {
    if daysAhead < 1 {
        return 1
    }
    return daysAhead
}

// ScaleDrift scales a per-step drift to the horizon: drift * sqrt(days) / divisor.
func ScaleDrift(drift float64, daysAhead int, divisor float64) float64 {
    return drift * math.Sqrt(float64(EffectiveDays(daysAhead))) / divisor
}

// Project applies the scaled drift to lastClose and rounds to cents.
// ok is false when the projection is not a finite number.
func Project(lastClose, scaled float64) (float64, bool) {
    v := lastClose * (1 + scaled)
    if math.IsNaN(v) || math.IsInf(v, 0) {
        return 0, false
    }
    return Round(v, 2), true
}
