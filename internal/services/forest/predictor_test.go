package forest

import (
    "encoding/json"
    "math/rand/v2"
    "sync"
    "testing"

    "StockPredict/internal/domain/models"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func closes(vals ...float64) []models.HistoricalRecord {
    out := make([]models.HistoricalRecord, len(vals))
    for i, v := range vals {
        out[i] = models.HistoricalRecord{ClosePrice: models.Float(v)}
    }
    return out
}

func constant(n int, v float64) []models.HistoricalRecord {
    vals := make([]float64, n)
    for i := range vals {
        vals[i] = v
    }
    return closes(vals...)
}

func encode(t *testing.T, res models.PredictionResult) string {
    t.Helper()
    b, err := json.Marshal(res.Response())
    require.NoError(t, err)
    return string(b)
}

func TestPredictEmptyHistory(t *testing.T) {
    p := New(DefaultParams())
    for _, d := range []int{-5, 0, 1, 30} {
        res := p.Predict(nil, d)
        assert.False(t, res.Available())
        assert.Equal(t, 0.0, res.Confidence)
        assert.Equal(t, `{"predictedPrice":null,"confidence":0.0}`, encode(t, res))
    }
}

func TestPredictAllUnusable(t *testing.T) {
    recs := []models.HistoricalRecord{{}, {Close: models.Float(0)}, {ClosePrice: models.Float(-3)}}
    res := New(DefaultParams()).Predict(recs, 1)
    assert.False(t, res.Available())
    assert.Equal(t, 0.0, res.Confidence)
}

func TestPredictConstantPrice(t *testing.T) {
    res := New(DefaultParams()).Predict(constant(20, 100), 1)
    require.True(t, res.Available())
    assert.Equal(t, 19, res.Returns)
    assert.Equal(t, 0.0, res.EnsembleDrift)
    assert.Equal(t, 0.0, res.ScaledDrift)
    assert.Equal(t, 100.0, *res.PredictedPrice)
    assert.Equal(t, 10.0, res.Confidence)
    assert.Equal(t, `{"predictedPrice":100.00,"confidence":10.0}`, encode(t, res))
}

func TestPredictSingleRecord(t *testing.T) {
    recs := []models.HistoricalRecord{{Close: models.Float(50)}}
    res := New(DefaultParams()).Predict(recs, 5)
    require.True(t, res.Available())
    assert.Equal(t, 0, res.Returns)
    assert.Equal(t, 50.0, *res.PredictedPrice)
    assert.Equal(t, 10.0, res.Confidence)
    assert.Equal(t, 5, res.EffectiveDays)
    assert.Equal(t, `{"predictedPrice":50.00,"confidence":10.0}`, encode(t, res))
}

func TestPredictZeroDriftIgnoresHorizon(t *testing.T) {
    p := New(DefaultParams())
    for _, d := range []int{-10, 0, 1, 7, 365} {
        res := p.Predict(constant(12, 42.129), d)
        require.True(t, res.Available())
        assert.Equal(t, 42.13, *res.PredictedPrice)
        assert.Equal(t, 10.0, res.Confidence)
    }
}

func TestPredictNonPositiveHorizonMatchesOneDay(t *testing.T) {
    recs := closes(100, 102, 101, 105, 107, 104, 110, 111, 109, 115, 118, 117)
    base := New(Params{Trees: 25, MinWindow: 5, MaxWindow: 15, HorizonDivisor: 2, ConfidenceFloor: 10, ConfidenceCeiling: 99, Seed: 3})
    one := base.Predict(recs, 1)
    for _, d := range []int{0, -1, -100} {
        got := base.Predict(recs, d)
        assert.Equal(t, *one.PredictedPrice, *got.PredictedPrice)
        assert.Equal(t, one.Confidence, got.Confidence)
        assert.Equal(t, 1, got.EffectiveDays)
    }
}

func TestPredictUptrendProjectsUp(t *testing.T) {
    recs := closes(100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114, 115)
    res := New(DefaultParams()).Predict(recs, 1)
    require.True(t, res.Available())
    assert.Greater(t, res.EnsembleDrift, 0.0)
    assert.Greater(t, *res.PredictedPrice, 115.0)
}

func TestPredictLastCloseIsLastRecord(t *testing.T) {
    // trailing unusable close is still the projection base
    recs := closes(100, 110)
    recs = append(recs, models.HistoricalRecord{})
    res := New(DefaultParams()).Predict(recs, 1)
    require.True(t, res.Available())
    assert.Equal(t, 0.0, res.LastClose)
    assert.Equal(t, 0.0, *res.PredictedPrice)
}

func TestPredictSeededIsDeterministic(t *testing.T) {
    recs := closes(10, 10.5, 10.2, 10.9, 11.4, 11.1, 11.8, 12.0, 11.7, 12.4, 12.9, 12.5, 13.1)
    params := DefaultParams()
    params.Seed = 2024
    a := New(params).Predict(recs, 3)
    b := New(params).Predict(recs, 3)
    assert.Equal(t, *a.PredictedPrice, *b.PredictedPrice)
    assert.Equal(t, a.EnsembleDrift, b.EnsembleDrift)

    // the factory restarts the stream on every call
    p := New(params)
    assert.Equal(t, p.Predict(recs, 3).EnsembleDrift, p.Predict(recs, 3).EnsembleDrift)
}

func TestPredictConfidenceBounds(t *testing.T) {
    rng := rand.New(rand.NewPCG(1, 2))
    p := New(DefaultParams())
    for i := 0; i < 200; i++ {
        n := rng.IntN(40)
        vals := make([]float64, n)
        price := 1 + rng.Float64()*500
        for j := range vals {
            price *= 1 + (rng.Float64()-0.5)*0.8
            vals[j] = price
            if rng.IntN(10) == 0 {
                vals[j] = 0
            }
        }
        res := p.Predict(closes(vals...), rng.IntN(60)-10)
        if !res.Available() {
            assert.Equal(t, 0.0, res.Confidence)
            continue
        }
        assert.GreaterOrEqual(t, res.Confidence, 10.0)
        assert.LessOrEqual(t, res.Confidence, 99.0)
        assert.Equal(t, Round(res.Confidence, 1), res.Confidence)
        assert.Equal(t, Round(*res.PredictedPrice, 2), *res.PredictedPrice)
    }
}

func TestPredictLargeDriftHitsCeiling(t *testing.T) {
    recs := closes(1, 3, 9, 27, 81, 243, 729)
    res := New(DefaultParams()).Predict(recs, 100)
    require.True(t, res.Available())
    assert.Equal(t, 99.0, res.Confidence)
}

func TestPredictConcurrent(t *testing.T) {
    recs := closes(100, 101, 99, 102, 104, 103, 105, 107, 106, 108)
    p := New(DefaultParams())
    var wg sync.WaitGroup
    for i := 0; i < 16; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for j := 0; j < 50; j++ {
                res := p.Predict(recs, j%10)
                assert.True(t, res.Available())
            }
        }()
    }
    wg.Wait()
}

func TestWithSourceFactory(t *testing.T) {
    recs := closes(1, 2, 4, 8, 16, 32, 64, 128, 256, 512)
    p := New(DefaultParams(), WithSourceFactory(func() Source { return maxSource{} }))
    a := p.Predict(recs, 1)
    b := p.Predict(recs, 1)
    assert.Equal(t, a.EnsembleDrift, b.EnsembleDrift)
    assert.InDelta(t, 1.0, a.EnsembleDrift, 1e-12)
}
