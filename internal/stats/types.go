package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Observation is a single scraped listing after text normalization.
// A zero field means the cell was missing, blacklisted or unparseable.
type Observation struct {
	Price float64 `json:"price" bson:"price" db:"price"`
	M2    float64 `json:"m2" bson:"m2" db:"m2"`
}

// Valid reports whether both fields carry a usable value.
func (o Observation) Valid() bool {
	return o.Price != 0 && o.M2 != 0
}

// Measurement is an Observation with its price per square meter.
type Measurement struct {
	Observation
	PriceM2 float64 `json:"priceM2" bson:"priceM2" db:"price_m2"`
}

// ParseResult is the flattened output of scraping one sub-location.
type ParseResult struct {
	Name         string
	Observations []Observation
}

// Metric selects one of the three aggregated values of a Measurement.
type Metric int

const (
	MetricPrice Metric = iota
	MetricM2
	MetricPriceM2
)

// Metrics lists every metric in the order they are aggregated.
var Metrics = []Metric{MetricPrice, MetricM2, MetricPriceM2}

// String returns the persisted field suffix base of the metric.
func (m Metric) String() string {
	switch m {
	case MetricPrice:
		return "price"
	case MetricM2:
		return "m2"
	case MetricPriceM2:
		return "priceM2"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Of returns the value of the metric for a single measurement.
func (m Metric) Of(x Measurement) float64 {
	switch m {
	case MetricPrice:
		return x.Price
	case MetricM2:
		return x.M2
	case MetricPriceM2:
		return x.PriceM2
	default:
		panic(fmt.Sprintf("stats: unknown metric %d", int(m)))
	}
}

// Summary holds the four statistics computed for one metric.
type Summary struct {
	Median float64
	Mean   float64
	Min    float64
	Max    float64
}

// Stats is the aggregate of one group of measurements.
type Stats struct {
	Items int `json:"items" bson:"items" db:"items"`

	MedianPrice float64 `json:"medianPrice" bson:"medianPrice" db:"median_price"`
	MeanPrice   float64 `json:"meanPrice" bson:"meanPrice" db:"mean_price"`
	MinPrice    float64 `json:"minPrice" bson:"minPrice" db:"min_price"`
	MaxPrice    float64 `json:"maxPrice" bson:"maxPrice" db:"max_price"`

	MedianM2 float64 `json:"medianM2" bson:"medianM2" db:"median_m2"`
	MeanM2   float64 `json:"meanM2" bson:"meanM2" db:"mean_m2"`
	MinM2    float64 `json:"minM2" bson:"minM2" db:"min_m2"`
	MaxM2    float64 `json:"maxM2" bson:"maxM2" db:"max_m2"`

	MedianPriceM2 float64 `json:"medianPriceM2" bson:"medianPriceM2" db:"median_price_m2"`
	MeanPriceM2   float64 `json:"meanPriceM2" bson:"meanPriceM2" db:"mean_price_m2"`
	MinPriceM2    float64 `json:"minPriceM2" bson:"minPriceM2" db:"min_price_m2"`
	MaxPriceM2    float64 `json:"maxPriceM2" bson:"maxPriceM2" db:"max_price_m2"`
}

// Entry is the persisted record for one (type, location, sub-location) group.
// CreatedAt is assigned by the store, never by the aggregation.
type Entry struct {
	Stats       `bson:",inline"`
	Type        string    `json:"type" bson:"type" db:"type"`
	Location    string    `json:"location" bson:"location" db:"location"`
	SubLocation string    `json:"subLocation" bson:"subLocation" db:"sub_location"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt,omitempty" db:"created_at"`
}

// finite encodes NaN and infinities as JSON null.
type finite float64

func (f finite) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v)
}

type entryJSON struct {
	Items       int        `json:"items"`
	Type        string     `json:"type"`
	Location    string     `json:"location"`
	SubLocation string     `json:"subLocation"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`

	MedianPrice finite `json:"medianPrice"`
	MeanPrice   finite `json:"meanPrice"`
	MinPrice    finite `json:"minPrice"`
	MaxPrice    finite `json:"maxPrice"`

	MedianM2 finite `json:"medianM2"`
	MeanM2   finite `json:"meanM2"`
	MinM2    finite `json:"minM2"`
	MaxM2    finite `json:"maxM2"`

	MedianPriceM2 finite `json:"medianPriceM2"`
	MeanPriceM2   finite `json:"meanPriceM2"`
	MinPriceM2    finite `json:"minPriceM2"`
	MaxPriceM2    finite `json:"maxPriceM2"`
}

// MarshalJSON writes undefined statistics (empty groups) as null.
func (e Entry) MarshalJSON() ([]byte, error) {
	out := entryJSON{
		Items:         e.Items,
		Type:          e.Type,
		Location:      e.Location,
		SubLocation:   e.SubLocation,
		MedianPrice:   finite(e.MedianPrice),
		MeanPrice:     finite(e.MeanPrice),
		MinPrice:      finite(e.MinPrice),
		MaxPrice:      finite(e.MaxPrice),
		MedianM2:      finite(e.MedianM2),
		MeanM2:        finite(e.MeanM2),
		MinM2:         finite(e.MinM2),
		MaxM2:         finite(e.MaxM2),
		MedianPriceM2: finite(e.MedianPriceM2),
		MeanPriceM2:   finite(e.MeanPriceM2),
		MinPriceM2:    finite(e.MinPriceM2),
		MaxPriceM2:    finite(e.MaxPriceM2),
	}
	if !e.CreatedAt.IsZero() {
		createdAt := e.CreatedAt
		out.CreatedAt = &createdAt
	}
	return json.Marshal(out)
}
