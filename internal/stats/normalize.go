package stats

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// HectareFactor converts hectares to square meters.
const HectareFactor = 10000

// Defaults observed on the classifieds site.
var (
	DefaultCellBlacklist  = []string{"-"}
	DefaultPriceBlacklist = []string{"mon", "buy", "day", "enting"}
	DefaultHectareMarker  = "ha"
)

var leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// NormalizerConfig holds the literal markers used to reject cell text.
type NormalizerConfig struct {
	// CellBlacklist applies to every cell.
	CellBlacklist []string
	// PriceBlacklist applies to price cells on top of CellBlacklist.
	PriceBlacklist []string
	// HectareMarker marks an area given in hectares.
	HectareMarker string
}

// DefaultNormalizerConfig returns the markers used by the site.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		CellBlacklist:  append([]string(nil), DefaultCellBlacklist...),
		PriceBlacklist: append([]string(nil), DefaultPriceBlacklist...),
		HectareMarker:  DefaultHectareMarker,
	}
}

// Normalizer turns scraped cell text into numbers. It is safe for
// concurrent use.
type Normalizer struct {
	cellBlacklist  []string
	priceBlacklist []string
	hectareMarker  string
}

// NewNormalizer creates a normalizer. Empty markers are ignored since they
// would match every cell.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	cell := nonEmpty(cfg.CellBlacklist)
	price := append(append([]string(nil), cell...), nonEmpty(cfg.PriceBlacklist)...)
	return &Normalizer{
		cellBlacklist:  cell,
		priceBlacklist: price,
		hectareMarker:  cfg.HectareMarker,
	}
}

// ParsePrice parses a sale price cell. Rental prices, placeholders and
// unparseable text all yield 0.
func (n *Normalizer) ParsePrice(text string) float64 {
	if text == "" || containsAny(text, n.priceBlacklist) {
		return 0
	}
	return finiteOrZero(parseLeadingFloat(stripSeparators(text)))
}

// ParseArea parses an area cell in square meters, converting hectares.
func (n *Normalizer) ParseArea(text string) float64 {
	if text == "" || containsAny(text, n.cellBlacklist) {
		return 0
	}
	m2 := parseLeadingFloat(stripSeparators(text))
	if n.hectareMarker != "" && strings.Contains(text, n.hectareMarker) {
		m2 *= HectareFactor
	}
	return finiteOrZero(m2)
}

// ParseObservation parses a price and area cell pair.
func (n *Normalizer) ParseObservation(priceText, areaText string) Observation {
	return Observation{Price: n.ParsePrice(priceText), M2: n.ParseArea(areaText)}
}

// parseLeadingFloat parses the longest numeric prefix after leading
// whitespace and ignores whatever follows it. NaN when there is none.
func parseLeadingFloat(text string) float64 {
	text = strings.TrimLeftFunc(text, unicode.IsSpace)
	match := leadingFloat.FindString(text)
	if match == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func stripSeparators(text string) string {
	return strings.ReplaceAll(text, ",", "")
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
