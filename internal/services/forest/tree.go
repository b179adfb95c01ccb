package forest

// EstimateTree averages a uniform sample, drawn without replacement, of the
// most recent window returns. The sample holds max(1, w/2) values where
// w = min(window, len(returns)). Empty input yields 0.
func EstimateTree(rng Source, returns []float64, window int) float64 {
    if len(returns) == 0 {
        return 0
    }
    if window < 1 {
        window = 1
    }
    w := window
    if w > len(returns) {
        w = len(returns)
    }
    recent := make([]float64, w)
    copy(recent, returns[len(returns)-w:])

    k := w / 2
    if k < 1 {
        k = 1
    }
    // partial Fisher-Yates: the first k slots end up a uniform k-subset
    var sum float64
    for i := 0; i < k; i++ {
        j := i + rng.IntN(w-i)
        recent[i], recent[j] = recent[j], recent[i]
        sum += recent[i]
    }
    return sum / float64(k)
}
