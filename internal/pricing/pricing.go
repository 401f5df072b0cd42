// Package pricing resolves the localized unit price of a catalog record.
// It is a pure helper: the cart engine snapshots its result into the line's
// price and never calls back into it.
package pricing

import "strings"

// Record is the subset of a catalog service or package the helper needs.
type Record struct {
	// Price is the base unit price.
	Price float64
	// PricePer1000 is the per-1000 rate for username-based services, zero
	// when not applicable.
	PricePer1000 float64
	// CountryPrices holds per-country overrides of the base price, keyed by
	// upper-case ISO 3166-1 alpha-2 code.
	CountryPrices map[string]float64
}

// UnitPrice returns the unit price of the record for the given country.
// An unknown or empty country falls back to the base price.
func UnitPrice(rec Record, country string) float64 {
	if len(rec.CountryPrices) == 0 {
		return rec.Price
	}
	if p, ok := rec.CountryPrices[strings.ToUpper(country)]; ok && p > 0 {
		return p
	}
	return rec.Price
}

// RatePer1000 returns the per-1000 rate for the given country. Overrides
// scale the rate by the same factor as the unit price so dynamic lines stay
// consistent with their catalog entry.
func RatePer1000(rec Record, country string) float64 {
	if rec.PricePer1000 <= 0 || rec.Price <= 0 {
		return rec.PricePer1000
	}
	unit := UnitPrice(rec, country)
	if unit == rec.Price {
		return rec.PricePer1000
	}
	return rec.PricePer1000 * unit / rec.Price
}
