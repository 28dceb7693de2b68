package domain

import (
	"fmt"
	"strings"
)

// SeverityLevel is a 0-4 damage score derived from classifier confidence
type SeverityLevel int

const (
	SeverityNone SeverityLevel = 0
	SeverityMax  SeverityLevel = 4
)

// DamageArea is the coarse part of the property a label refers to
type DamageArea string

const (
	AreaRoof    DamageArea = "roof"
	AreaSiding  DamageArea = "siding"
	AreaGarage  DamageArea = "garage"
	AreaUnknown DamageArea = "unknown"
)

// ParseDamageArea accepts the known area names, case-insensitively
func ParseDamageArea(s string) (DamageArea, error) {
	switch a := DamageArea(strings.ToLower(strings.TrimSpace(s))); a {
	case AreaRoof, AreaSiding, AreaGarage, AreaUnknown:
		return a, nil
	default:
		return "", fmt.Errorf("unknown damage area %q", s)
	}
}

// Breakpoints holds the confidence thresholds for severities 4, 3, 2 and 1,
// in that order.
type Breakpoints [4]float64

// DefaultBreakpoints returns the standard >=90/75/60/45 mapping
func DefaultBreakpoints() Breakpoints {
	return Breakpoints{90, 75, 60, 45}
}

// NewBreakpoints validates a descending list of four confidences in [0,100]
func NewBreakpoints(values []float64) (Breakpoints, error) {
	var b Breakpoints
	if len(values) != len(b) {
		return b, fmt.Errorf("severity breakpoints: want %d values, got %d", len(b), len(values))
	}
	for i, v := range values {
		if v < 0 || v > 100 {
			return b, fmt.Errorf("severity breakpoints: %v out of range [0,100]", v)
		}
		if i > 0 && v >= values[i-1] {
			return b, fmt.Errorf("severity breakpoints: must be strictly descending, got %v", values)
		}
		b[i] = v
	}
	return b, nil
}

// Severity maps a 0-100 confidence onto a severity level
func (b Breakpoints) Severity(confidence float64) SeverityLevel {
	for i, threshold := range b {
		if confidence >= threshold {
			return SeverityMax - SeverityLevel(i)
		}
	}
	return SeverityNone
}

// LabelAreaMap maps recognised classifier label names to damage areas
type LabelAreaMap map[string]DamageArea

// DefaultLabelAreaMap is the lookup table used when none is configured
func DefaultLabelAreaMap() LabelAreaMap {
	return LabelAreaMap{
		"Roof Damage":    AreaRoof,
		"Shingle Damage": AreaRoof,
		"Wind Damage":    AreaSiding,
		"Siding Damage":  AreaSiding,
		"Garage Damage":  AreaGarage,
		"Door Damage":    AreaGarage,
	}
}

// Lookup returns the area for an exact label name
func (m LabelAreaMap) Lookup(name string) (DamageArea, bool) {
	area, ok := m[name]
	return area, ok
}
