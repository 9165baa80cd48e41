package tradingutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRoundPriceRoundsToGivenDecimals(t *testing.T) {
	price := decimal.NewFromFloat(499.999999999997)
	rounded := RoundPrice(price, 2)
	assert.True(t, decimal.NewFromFloat(500.00).Equal(rounded), "got %s", rounded)
}

func TestRoundQuantityRoundsToGivenDecimals(t *testing.T) {
	qty := decimal.NewFromFloat(0.0019999)
	rounded := RoundQuantity(qty, 6)
	assert.True(t, decimal.NewFromFloat(0.002).Equal(rounded), "got %s", rounded)
}
