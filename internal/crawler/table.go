package crawler

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/stats"
)

const (
	priceColumn = "price"
	areaColumn  = "m2"
)

// SubRegionLinks returns the category links of a region page, skipping
// the "all" and "other" pseudo-categories.
func SubRegionLinks(doc *goquery.Document, sel Selectors) []Link {
	var links []Link
	doc.Find(sel.Category).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" {
			return
		}
		for _, excluded := range sel.ExcludedPaths {
			if strings.Contains(href, excluded) {
				return
			}
		}
		links = append(links, Link{URL: href, Name: strings.TrimSpace(s.Text())})
	})
	return links
}

// ListHeaders returns the column keys of the listing table. The first column
// is always "title"; the rest are camelCased header texts.
func ListHeaders(doc *goquery.Document, sel Selectors) []string {
	var headers []string
	doc.Find(sel.Table + " tr:first-child td").Each(func(i int, s *goquery.Selection) {
		if i == 0 {
			headers = append(headers, "title")
			return
		}
		headers = append(headers, helpers.CamelCase(s.Text()))
	})
	return headers
}

// ScrapePage parses the data rows of one listing page. Rows carry extra
// leading cells (checkbox, thumbnail), so cells are aligned to headers from
// the right. Only rows with both a price and an area are returned.
func ScrapePage(doc *goquery.Document, sel Selectors, headers []string, n *stats.Normalizer) (observations []stats.Observation, dropped int) {
	if len(headers) == 0 {
		return nil, 0
	}
	doc.Find(sel.Table + " tr:not(:first-child):not(:last-child)").Each(func(_ int, row *goquery.Selection) {
		cells := row.Children()
		var priceText, areaText string

		cells.Each(func(i int, cell *goquery.Selection) {
			index := len(headers) - cells.Length() + i
			if index < 0 {
				index = 0
			}
			switch headers[index] {
			case priceColumn:
				priceText = cell.Text()
			case areaColumn:
				areaText = cell.Text()
			}
		})

		obs := n.ParseObservation(priceText, areaText)
		if !obs.Valid() {
			dropped++
			return
		}
		observations = append(observations, obs)
	})
	return observations, dropped
}

// NextPageURL returns the absolute URL of the next results page, or "" on
// the last page.
func NextPageURL(doc *goquery.Document, siteURL string, sel Selectors) string {
	href, _ := doc.Find(sel.NextPage).First().Attr("href")
	if href == "" || !strings.Contains(href, sel.PageSuffix) {
		return ""
	}
	return absoluteURL(siteURL, href)
}

// SellURL returns the filtered "for sale" listing URL of a category path
func SellURL(siteURL, path string) string {
	return absoluteURL(siteURL, path) + "sell/filter/"
}

func absoluteURL(siteURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return siteURL + path
}
