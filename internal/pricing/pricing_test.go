package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnitPrice_BasePrice(t *testing.T) {
	rec := Record{Price: 10}

	assert.Equal(t, 10.0, UnitPrice(rec, "US"))
	assert.Equal(t, 10.0, UnitPrice(rec, ""))
}

func TestUnitPrice_CountryOverride(t *testing.T) {
	rec := Record{
		Price:         10,
		CountryPrices: map[string]float64{"DE": 12, "EG": 8},
	}

	assert.Equal(t, 12.0, UnitPrice(rec, "DE"))
	assert.Equal(t, 12.0, UnitPrice(rec, "de"))
	assert.Equal(t, 8.0, UnitPrice(rec, "EG"))
	// Unknown country falls back to the base price.
	assert.Equal(t, 10.0, UnitPrice(rec, "FR"))
}

func TestUnitPrice_ZeroOverrideIgnored(t *testing.T) {
	rec := Record{
		Price:         10,
		CountryPrices: map[string]float64{"DE": 0},
	}

	assert.Equal(t, 10.0, UnitPrice(rec, "DE"))
}

func TestRatePer1000_NoOverride(t *testing.T) {
	rec := Record{Price: 10, PricePer1000: 4}

	assert.Equal(t, 4.0, RatePer1000(rec, "US"))
}

func TestRatePer1000_ScalesWithOverride(t *testing.T) {
	rec := Record{
		Price:         10,
		PricePer1000:  4,
		CountryPrices: map[string]float64{"DE": 20},
	}

	// Unit price doubles, so the rate doubles with it.
	assert.Equal(t, 8.0, RatePer1000(rec, "DE"))
}

func TestRatePer1000_ZeroRatePassesThrough(t *testing.T) {
	rec := Record{Price: 10, PricePer1000: 0}

	assert.Equal(t, 0.0, RatePer1000(rec, "US"))
}

func TestRatePer1000_ZeroBasePriceKeepsRate(t *testing.T) {
	rec := Record{Price: 0, PricePer1000: 4}

	assert.Equal(t, 4.0, RatePer1000(rec, "US"))
}
