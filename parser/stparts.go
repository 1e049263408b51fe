// Package parser converts stparts.ru search-result pages into offers.
package parser

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricelens/stparts-scraper/models"
)

// Optional sign, digits, optional decimal part with '.' or ','
// (e.g. "42", "-7", "3.14", "38,07").
var numberRe = regexp.MustCompile(`[-+]?\d+(?:[.,]\d+)?`)

var whitespaceRe = regexp.MustCompile(`\s+`)

// RequestedArticle extracts the article code from a stparts.ru search
// URL. Two shapes are recognized:
//
//	/search?pcode=<CODE>
//	/search/<brand>/<CODE>?disableFiltering
func RequestedArticle(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	hasSearch := false
	for _, part := range parts {
		if part == "search" {
			hasSearch = true
			break
		}
	}
	if hasSearch {
		if len(parts) > 2 && parts[0] == "search" {
			return parts[2], nil
		}
		if code := parsed.Query().Get("pcode"); code != "" {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not extract article from URL %q", rawURL)
}

// ParseOffers converts one result page into zero or more offers. The
// article code comes from sourceURL, not the page body. A page without
// the results table, or with an unrecognized URL shape, yields an
// empty result rather than an error; malformed rows never abort the
// remaining rows.
func ParseOffers(html, sourceURL string, includeAnalogs bool) []models.Offer {
	article, err := RequestedArticle(sourceURL)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	table := doc.Find("table#searchResultsTable").First()
	if table.Length() == 0 {
		return nil
	}

	var offers []models.Offer
	table.Find("tbody > tr.resultTr2").Each(func(_ int, row *goquery.Selection) {
		isAnalog := row.AttrOr("data-is-analog", "") == "1"
		if isAnalog && !includeAnalogs {
			return
		}

		offers = append(offers, models.Offer{
			Brand:        parseBrand(row),
			Article:      article,
			Name:         cellText(row, "td.resultDescription"),
			Price:        ParsePrice(row.AttrOr("data-output-price", "")),
			Quantity:     ParseQuantity(row.AttrOr("data-availability", "")),
			DeliveryDays: parseDeliveryDays(row),
			Provider:     cellText(row, "td.resultWarehouse"),
			IsAnalog:     isAnalog,
		})
	})
	return offers
}

// ParsePrice normalizes a price attribute, tolerating comma decimal
// separators and embedded whitespace ("38,07", "38 070.00"). An
// unparseable value yields nil.
func ParsePrice(raw string) *float64 {
	if raw == "" {
		return nil
	}
	cleaned := strings.ReplaceAll(whitespaceRe.ReplaceAllString(raw, ""), ",", ".")
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &value
}

// ParseQuantity extracts the first numeric run from a free-text
// availability string ("50+", " 100 "). An unparseable value yields
// nil.
func ParseQuantity(raw string) *int {
	return parseLeadingNumber(raw)
}

// parseDeliveryDays reads the two hour-based deadline attributes,
// takes the larger of whichever are present, and converts hours to a
// ceiling day count.
func parseDeliveryDays(row *goquery.Selection) *int {
	hours := parseLeadingNumber(row.AttrOr("data-deadline", ""))
	hoursMax := parseLeadingNumber(row.AttrOr("data-deadline-max", ""))

	effective := hours
	if hoursMax != nil && (effective == nil || *hoursMax > *effective) {
		effective = hoursMax
	}
	if effective == nil {
		return nil
	}
	days := int(math.Ceil(float64(*effective) / 24))
	return &days
}

// parseBrand prefers the data-brand attribute and falls back to the
// text of the brand cell link.
func parseBrand(row *goquery.Selection) string {
	if brand := strings.TrimSpace(row.AttrOr("data-brand", "")); brand != "" {
		return brand
	}
	return strings.TrimSpace(row.Find("td.resultBrand a").First().Text())
}

func cellText(row *goquery.Selection, selector string) string {
	return strings.TrimSpace(row.Find(selector).First().Text())
}

func parseLeadingNumber(raw string) *int {
	match := numberRe.FindString(strings.TrimSpace(raw))
	if match == "" {
		return nil
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return nil
	}
	n := int(value)
	return &n
}
