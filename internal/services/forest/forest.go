package forest

// Estimates runs p.Trees trees, each over a window drawn uniformly from
// [p.MinWindow, p.MaxWindow], and returns the per-tree estimates.
func Estimates(rng Source, returns []float64, p Params) []float64 {
    if p.Trees <= 0 {
        return nil
    }
    lo, hi := p.MinWindow, p.MaxWindow
    if hi < lo {
        hi = lo
    }
    out := make([]float64, p.Trees)
    for i := range out {
        window := lo + rng.IntN(hi-lo+1)
        out[i] = EstimateTree(rng, returns, window)
    }
    return out
}

// Aggregate is the arithmetic mean of the tree estimates, 0 with no trees.
func Aggregate(rng Source, returns []float64, p Params) float64 {
    est := Estimates(rng, returns, p)
    if len(est) == 0 {
        return 0
    }
    var sum float64
    for _, e := range est {
        sum += e
    }
    return sum / float64(len(est))
}
