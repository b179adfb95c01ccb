package forest

import "fmt"

// Params are the heuristic constants of the forest. Zero values are not
// meaningful; start from DefaultParams.
type Params struct {
    Trees             int     `yaml:"trees" default:"25"`
    MinWindow         int     `yaml:"min_window" default:"5"`
    MaxWindow         int     `yaml:"max_window" default:"15"`
    HorizonDivisor    float64 `yaml:"horizon_divisor" default:"2"`
    ConfidenceFloor   float64 `yaml:"confidence_floor" default:"10"`
    ConfidenceCeiling float64 `yaml:"confidence_ceiling" default:"99"`
    Seed              uint64  `yaml:"seed"`
}

func DefaultParams() Params {
    return Params{
        Trees:             25,
        MinWindow:         5,
        MaxWindow:         15,
        HorizonDivisor:    2.0,
        ConfidenceFloor:   10,
        ConfidenceCeiling: 99,
    }
}

// Validate checks the parameter ranges.
func (p Params) Validate() error {
    if p.Trees < 0 {
        return fmt.Errorf("forest: trees must be >= 0, got %d", p.Trees)
    }
    if p.MinWindow < 1 {
        return fmt.Errorf("forest: min_window must be >= 1, got %d", p.MinWindow)
    }
    if p.MaxWindow < p.MinWindow {
        return fmt.Errorf("forest: max_window (%d) < min_window (%d)", p.MaxWindow, p.MinWindow)
    }
    if p.HorizonDivisor <= 0 {
        return fmt.Errorf("forest: horizon_divisor must be > 0, got %v", p.HorizonDivisor)
    }
    if p.ConfidenceFloor < 0 || p.ConfidenceCeiling < p.ConfidenceFloor {
        return fmt.Errorf("forest: invalid confidence bounds [%v, %v]", p.ConfidenceFloor, p.ConfidenceCeiling)
    }
    return nil
}
