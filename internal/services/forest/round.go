package forest

import (
    "math"
    "strconv"
)

// Round rounds x to places decimals using the correctly rounded decimal
// expansion of its binary value, so 2.675 becomes 2.67. Negative zero is
// returned as 0.
func Round(x float64, places int) float64 {
    if math.IsNaN(x) || math.IsInf(x, 0) {
        return x
    }
    v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
    if err != nil {
        return x
    }
    if v == 0 {
        return 0
    }
    return v
}
