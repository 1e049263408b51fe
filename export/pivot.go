// Package export pivots ranked offers into wide per-article rows and
// writes the formatted xlsx report.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/pricelens/stparts-scraper/models"
)

// offersPerRow is how many offer column groups a report row carries.
const offersPerRow = 10

// ReportColumns returns the fixed header of the wide report: brand,
// article, then ten numbered groups of price/supplier/quantity/rating/
// name columns. The order is stable even for an empty report.
func ReportColumns() []string {
	columns := []string{"brand", "article"}
	for i := 1; i <= offersPerRow; i++ {
		columns = append(columns,
			fmt.Sprintf("price %d", i),
			fmt.Sprintf("supplier %d", i),
			fmt.Sprintf("quantity %d", i),
			fmt.Sprintf("rating %d", i),
			fmt.Sprintf("name %d", i),
		)
	}
	return columns
}

// PivotOffers folds the long-format offer list into one row per
// brand+article pair, in first-seen order. Offers within a pair are
// re-sorted by price ascending then quantity descending before the cap
// is applied, so a caller that merged several fetches still gets the
// cheapest ten. Missing cells stay nil and render empty.
func PivotOffers(offers []models.Offer) [][]any {
	type groupKey struct {
		brand   string
		article string
	}
	var order []groupKey
	groups := make(map[groupKey][]models.Offer)
	for _, offer := range offers {
		key := groupKey{brand: offer.Brand, article: offer.Article}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], offer)
	}

	rows := make([][]any, 0, len(order))
	for _, key := range order {
		group := groups[key]
		sort.SliceStable(group, func(i, j int) bool {
			pi, pj := priceOrInf(group[i]), priceOrInf(group[j])
			if pi != pj {
				return pi < pj
			}
			return quantityOrZero(group[i]) > quantityOrZero(group[j])
		})
		if len(group) > offersPerRow {
			group = group[:offersPerRow]
		}

		row := make([]any, 2+offersPerRow*5)
		row[0] = key.brand
		row[1] = key.article
		for i, offer := range group {
			base := 2 + i*5
			if offer.Price != nil {
				row[base] = *offer.Price
			}
			row[base+1] = offer.Provider
			if offer.Quantity != nil {
				row[base+2] = *offer.Quantity
			}
			if offer.Rating != nil {
				row[base+3] = *offer.Rating
			}
			row[base+4] = offer.Name
		}
		rows = append(rows, row)
	}
	return rows
}

func priceOrInf(offer models.Offer) float64 {
	if offer.Price == nil {
		return math.Inf(1)
	}
	return *offer.Price
}

func quantityOrZero(offer models.Offer) int {
	if offer.Quantity == nil {
		return 0
	}
	return *offer.Quantity
}
