package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	tests := []struct {
		text     string
		expected float64
	}{
		{"2,100,000  €", 2100000},
		{"15,000  €", 15000},
		{"999  €", 999},
		{"0  €", 0},
		{"15,000  €/mon.", 0},
		{"190  €/day.", 0},
		{" - ", 0},
		{"buy", 0},
		{"Renting", 0},
		{"", 0},
		{"price on request", 0},
		{"Infinity", 0},
		{"1e400 €", 0},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.ParsePrice(tt.text))
		})
	}
}

func TestParseArea(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	tests := []struct {
		text     string
		expected float64
	}{
		{"1828.00 m²", 1828},
		{"350", 350},
		{"0.30 ha.", 3000},
		{"5 ha.", 50000},
		{" - ", 0},
		{"", 0},
		{"  72.5 m²", 72.5},
		{"1,200 m²", 1200},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.ParseArea(tt.text))
		})
	}
}

func TestParseAreaIgnoresPriceBlacklist(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	// "mon" only rejects prices
	assert.Equal(t, float64(40), n.ParseArea("40 mon"))
	assert.Equal(t, float64(0), n.ParsePrice("40 mon"))
}

func TestNormalizerCustomConfig(t *testing.T) {
	n := NewNormalizer(NormalizerConfig{
		CellBlacklist:  []string{"n/a", ""},
		PriceBlacklist: []string{"rent"},
		HectareMarker:  "hectare",
	})

	assert.Equal(t, float64(0), n.ParsePrice("n/a"))
	assert.Equal(t, float64(0), n.ParsePrice("500 rent"))
	assert.Equal(t, float64(500), n.ParsePrice("500 €"))
	assert.Equal(t, float64(20000), n.ParseArea("2 hectare"))
	// "ha" is not the marker here
	assert.Equal(t, float64(2), n.ParseArea("2 ha."))
}

func TestParseObservation(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	obs := n.ParseObservation("64,000  €", "58 m²")
	assert.Equal(t, Observation{Price: 64000, M2: 58}, obs)
	assert.True(t, obs.Valid())

	rental := n.ParseObservation("350  €/mon.", "58 m²")
	assert.False(t, rental.Valid())
}

func TestParseLeadingFloat(t *testing.T) {
	assert.Equal(t, 12.5, parseLeadingFloat("  12.5abc"))
	assert.Equal(t, 0.5, parseLeadingFloat(".5"))
	assert.Equal(t, -3.0, parseLeadingFloat("-3 m"))
	assert.Equal(t, 1500.0, parseLeadingFloat("1.5e3x"))
	assert.Equal(t, 7.0, parseLeadingFloat("7."))
	assert.True(t, math.IsNaN(parseLeadingFloat("abc")))
}
