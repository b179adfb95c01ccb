package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	xutil "StockPredict/pkg/util"
)

// Stock is a tracked instrument.
type Stock struct {
	ID          int64  `json:"id"`
	Symbol      string `json:"symbol"`
	CompanyName string `json:"companyName"`
}

// HistoricalRecord is one observed trading period. Every price is optional:
// absent, null, non-numeric and non-finite values decode to nil.
type HistoricalRecord struct {
	Date       time.Time `json:"date"`
	Open       *float64  `json:"open_price,omitempty"`
	High       *float64  `json:"high_price,omitempty"`
	Low        *float64  `json:"low_price,omitempty"`
	ClosePrice *float64  `json:"close_price,omitempty"`
	Close      *float64  `json:"close,omitempty"`
	AdjClose   *float64  `json:"adj_close,omitempty"`
	Volume     *float64  `json:"volume,omitempty"`
}

// ClosingPrice resolves the close from close_price, falling back to close.
// A zero close_price counts as missing. Unusable records resolve to 0.
func (r HistoricalRecord) ClosingPrice() float64 {
	if r.ClosePrice != nil && *r.ClosePrice != 0 {
		return *r.ClosePrice
	}
	if r.Close != nil {
		return *r.Close
	}
	return 0
}

// UnmarshalJSON accepts numbers or numeric strings for every price field and
// either the long (open_price) or short (open) field names.
func (r *HistoricalRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("historical record: %w", err)
	}
	*r = HistoricalRecord{
		Open:       optionalFloat(raw["open_price"], raw["open"]),
		High:       optionalFloat(raw["high_price"], raw["high"]),
		Low:        optionalFloat(raw["low_price"], raw["low"]),
		ClosePrice: optionalFloat(raw["close_price"]),
		Close:      optionalFloat(raw["close"]),
		AdjClose:   optionalFloat(raw["adj_close"]),
		Volume:     optionalFloat(raw["volume"]),
	}
	if d, ok := raw["date"]; ok {
		var s string
		if err := json.Unmarshal(d, &s); err == nil {
			if t, ok := xutil.ParseTime(s); ok {
				r.Date = t
			}
		}
	}
	return nil
}

// Float returns a pointer to v; handy for building records in code.
func Float(v float64) *float64 { return &v }

func optionalFloat(candidates ...json.RawMessage) *float64 {
	for _, c := range candidates {
		if v, ok := parseLooseFloat(c); ok {
			return &v
		}
	}
	return nil
}

func parseLooseFloat(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
	} else {
		s = string(raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
