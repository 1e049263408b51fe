// Package models defines data structures for the offer scraper.
package models

// Offer represents a single marketplace listing for one article, as
// parsed from one result-table row. Article is always populated (it is
// derived from the request URL); every other field may be absent when
// the source markup is missing or garbled.
type Offer struct {
	Brand        string   `json:"brand,omitempty"`
	Article      string   `json:"article"`
	Name         string   `json:"name,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	Quantity     *int     `json:"quantity,omitempty"`
	DeliveryDays *int     `json:"delivery_days,omitempty"`
	Provider     string   `json:"provider,omitempty"`
	Rating       *float64 `json:"rating,omitempty"`
	IsAnalog     bool     `json:"is_analog"`
}

// HasPrice reports whether the offer carries a parsed price and is
// therefore eligible for price-based ranking.
func (o Offer) HasPrice() bool {
	return o.Price != nil
}
