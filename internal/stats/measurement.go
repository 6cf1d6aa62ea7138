package stats

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArea is returned when an area is not a positive finite number.
	ErrInvalidArea = errors.New("stats: area must be positive and finite")
	// ErrInvalidPrice is returned when a price is NaN or infinite.
	ErrInvalidPrice = errors.New("stats: price must be finite")
)

// NewMeasurement derives the price per square meter of one observation.
func NewMeasurement(o Observation) (Measurement, error) {
	if !(o.M2 > 0) || math.IsInf(o.M2, 0) {
		return Measurement{}, fmt.Errorf("%w: got %v", ErrInvalidArea, o.M2)
	}
	if math.IsNaN(o.Price) || math.IsInf(o.Price, 0) {
		return Measurement{}, fmt.Errorf("%w: got %v", ErrInvalidPrice, o.Price)
	}
	return Measurement{Observation: o, PriceM2: o.Price / o.M2}, nil
}

// Derive computes a Measurement for every observation, preserving order.
func Derive(observations []Observation) ([]Measurement, error) {
	out := make([]Measurement, 0, len(observations))
	for i, o := range observations {
		m, err := NewMeasurement(o)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}
