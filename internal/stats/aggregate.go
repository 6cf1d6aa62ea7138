package stats

import "fmt"

// BuildStats aggregates a group of measurements.
func BuildStats(data []Measurement) Stats {
	price := Summarize(data, MetricPrice)
	m2 := Summarize(data, MetricM2)
	priceM2 := Summarize(data, MetricPriceM2)

	return Stats{
		Items: len(data),

		MedianPrice: price.Median,
		MeanPrice:   price.Mean,
		MinPrice:    price.Min,
		MaxPrice:    price.Max,

		MedianM2: m2.Median,
		MeanM2:   m2.Mean,
		MinM2:    m2.Min,
		MaxM2:    m2.Max,

		MedianPriceM2: priceM2.Median,
		MeanPriceM2:   priceM2.Mean,
		MinPriceM2:    priceM2.Min,
		MaxPriceM2:    priceM2.Max,
	}
}

// BuildEntry derives and aggregates the observations of one sub-location
// and labels the result with its property type and region.
func BuildEntry(result ParseResult, typeName, locationName string) (Entry, error) {
	measurements, err := Derive(result.Observations)
	if err != nil {
		return Entry{}, fmt.Errorf("build entry %s/%s/%s: %w", typeName, locationName, result.Name, err)
	}
	return Entry{
		Stats:       BuildStats(measurements),
		Type:        typeName,
		Location:    locationName,
		SubLocation: result.Name,
	}, nil
}
