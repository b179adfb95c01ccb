package forest

import "math/rand/v2"

// Source is the random capability the forest needs: a uniform integer in [0, n).
type Source interface {
    IntN(n int) int
}

// SourceFactory hands out a source per prediction so concurrent predictions
// never share generator state.
type SourceFactory func() Source

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// NewSourceFactory returns a deterministic PCG-backed factory for a non-zero
// seed (every call restarts the same stream) and the process-wide generator otherwise.
func NewSourceFactory(seed uint64) SourceFactory {
    if seed == 0 {
        return func() Source { return globalSource{} }
    }
    return func() Source {
        return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
    }
}
