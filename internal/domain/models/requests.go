package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultDaysAhead applies when a request omits daysAhead.
const DefaultDaysAhead = 1

// PredictRequest is the inline prediction payload.
type PredictRequest struct {
	HistoricalData []HistoricalRecord `json:"historicalData"`
	DaysAhead      int                `json:"daysAhead"`
}

// UnmarshalJSON tolerates a missing historicalData and a missing, null,
// fractional or string daysAhead. Anything else malformed is ErrInvalidPayload.
func (r *PredictRequest) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	*r = PredictRequest{DaysAhead: DefaultDaysAhead}
	if hd, ok := raw["historicalData"]; ok && !isNull(hd) {
		if err := json.Unmarshal(hd, &r.HistoricalData); err != nil {
			return fmt.Errorf("%w: historicalData: %v", ErrInvalidPayload, err)
		}
	}
	if da, ok := raw["daysAhead"]; ok && !isNull(da) {
		n, err := parseDays(da)
		if err != nil {
			return fmt.Errorf("%w: daysAhead: %v", ErrInvalidPayload, err)
		}
		r.DaysAhead = n
	}
	if r.HistoricalData == nil {
		r.HistoricalData = []HistoricalRecord{}
	}
	return nil
}

// ParsePredictRequest decodes a raw payload.
func ParsePredictRequest(b []byte) (*PredictRequest, error) {
	var req PredictRequest
	if err := json.Unmarshal(b, &req); err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &req, nil
}

func parseDays(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		return strconv.Atoi(strings.TrimSpace(s))
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("out of range: %v", f)
	}
	return int(f), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// SymbolPredictionRequest predicts from stored history.
type SymbolPredictionRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required,max=16"`
	DaysAhead int    `query:"daysAhead" json:"daysAhead" default:"1" validate:"gte=-3650,lte=3650"`
	Lookback  int    `query:"lookback" json:"lookback" default:"365" validate:"gte=1,lte=5000"`
}

// PredictionsListRequest lists stored predictions.
type PredictionsListRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required,max=16"`
	Limit  int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=500"`
}

// PredictionJob is the Kafka request message.
type PredictionJob struct {
	Symbol    string `json:"symbol" validate:"required"`
	DaysAhead int    `json:"daysAhead" default:"1"`
	Lookback  int    `json:"lookback" default:"365" validate:"gte=1,lte=5000"`
}
