package pipeline

import (
	"sort"

	"github.com/pricelens/stparts-scraper/models"
)

// missingDeliverySentinel makes offers without a parsed delivery rank
// last when delivery breaks a tie.
const missingDeliverySentinel = 999

// rankOffers drops offers without a parsed price, orders the rest by
// (article, price asc, quantity desc, delivery asc), and caps each
// article group to perArticle entries. The result is a pure function
// of the input set, independent of fetch completion order.
func rankOffers(offers []models.Offer, perArticle int) []models.Offer {
	priced := make([]models.Offer, 0, len(offers))
	for _, offer := range offers {
		if offer.HasPrice() {
			priced = append(priced, offer)
		}
	}

	sort.SliceStable(priced, func(i, j int) bool {
		a, b := priced[i], priced[j]
		if a.Article != b.Article {
			return a.Article < b.Article
		}
		if *a.Price != *b.Price {
			return *a.Price < *b.Price
		}
		if qa, qb := quantityOrZero(a), quantityOrZero(b); qa != qb {
			return qa > qb
		}
		return deliveryOrWorst(a) < deliveryOrWorst(b)
	})

	ranked := make([]models.Offer, 0, len(priced))
	groupStart := 0
	for i := range priced {
		if i > 0 && priced[i].Article != priced[i-1].Article {
			groupStart = i
		}
		if i-groupStart < perArticle {
			ranked = append(ranked, priced[i])
		}
	}
	return ranked
}

func quantityOrZero(o models.Offer) int {
	if o.Quantity != nil {
		return *o.Quantity
	}
	return 0
}

func deliveryOrWorst(o models.Offer) int {
	if o.DeliveryDays != nil {
		return *o.DeliveryDays
	}
	return missingDeliverySentinel
}
