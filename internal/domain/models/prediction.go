package models

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// AlgorithmRandomForest tags prediction rows produced by the forest predictor.
const AlgorithmRandomForest = "random_forest"

// ErrInvalidPayload marks a request payload that could not be parsed.
var ErrInvalidPayload = errors.New("invalid payload")

// PredictionResult is the output of a single forecast.
// PredictedPrice is nil when no usable price history existed.
type PredictionResult struct {
	PredictedPrice *float64
	Confidence     float64

	LastClose     float64
	EnsembleDrift float64
	ScaledDrift   float64
	EffectiveDays int
	Returns       int
}

// NoPrediction is the result for empty or unusable history.
func NoPrediction() PredictionResult {
	return PredictionResult{}
}

// Available reports whether a price was projected.
func (r PredictionResult) Available() bool { return r.PredictedPrice != nil }

// Response converts the result to its wire form.
func (r PredictionResult) Response() PredictResponse {
	resp := PredictResponse{Confidence: Percent(r.Confidence)}
	if r.PredictedPrice != nil {
		p := Price(*r.PredictedPrice)
		resp.PredictedPrice = &p
	}
	return resp
}

// Price is encoded with exactly two fractional digits.
type Price float64

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 2, 64)), nil
}

// Percent is encoded with exactly one fractional digit.
type Percent float64

func (p Percent) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(p), 'f', 1, 64)), nil
}

// PredictResponse is the bare response payload.
type PredictResponse struct {
	PredictedPrice *Price  `json:"predictedPrice"`
	Confidence     Percent `json:"confidence"`
}

// StoredPrediction is a persisted prediction row.
type StoredPrediction struct {
	ID             string    `json:"id"`
	StockID        int64     `json:"stockId"`
	Symbol         string    `json:"symbol"`
	PredictionDate time.Time `json:"predictionDate"`
	DaysAhead      int       `json:"daysAhead"`
	PredictedPrice Price     `json:"predictedPrice"`
	Confidence     Percent   `json:"confidence"`
	Algorithm      string    `json:"algorithm"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PredictionEvent is published after a symbol prediction completes.
type PredictionEvent struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	DaysAhead      int       `json:"daysAhead"`
	PredictedPrice *Price    `json:"predictedPrice"`
	Confidence     Percent   `json:"confidence"`
	LastClose      float64   `json:"lastClose"`
	Drift          float64   `json:"drift"`
	Returns        int       `json:"returns"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPredictionEvent builds an event for res with a fresh identifier.
func NewPredictionEvent(symbol string, daysAhead int, res PredictionResult) PredictionEvent {
	resp := res.Response()
	return PredictionEvent{
		ID:             uuid.NewString(),
		Symbol:         symbol,
		DaysAhead:      daysAhead,
		PredictedPrice: resp.PredictedPrice,
		Confidence:     resp.Confidence,
		LastClose:      res.LastClose,
		Drift:          res.ScaledDrift,
		Returns:        res.Returns,
		Timestamp:      time.Now().UTC(),
	}
}

// SymbolPrediction pairs a symbol with its prediction for batch runs.
type SymbolPrediction struct {
	Symbol string          `json:"symbol"`
	Result PredictResponse `json:"result"`
	Error  string          `json:"error,omitempty"`
}
