package siteconfig

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var priceLocale = language.MustParse("en-UG")

var stockLabels = map[string]string{
	StockInStock:    "In Stock",
	StockOutOfStock: "Out of Stock",
	StockPreOrder:   "Pre-Order",
	StockLimited:    "Limited Stock",
}

// FormatPrice groups digits the way the storefront shows prices: 4,500,000.
func FormatPrice(p Price) string {
	return message.NewPrinter(priceLocale).Sprintf("%d", p.Amount())
}

// StockLabel is the display text for a stock code; unknown codes read as in stock.
func StockLabel(stock string) string {
	if label, ok := stockLabels[stock]; ok {
		return label
	}
	return stockLabels[StockInStock]
}

// Discount returns the rounded percentage saved against the original price, and
// false when there is no meaningful original price.
func Discount(price, original Price) (int, bool) {
	o := original.Amount()
	if original == "" || o <= 0 {
		return 0, false
	}
	pct := int(math.Round((1 - float64(price.Amount())/float64(o)) * 100))
	if pct <= 0 {
		return 0, false
	}
	return pct, true
}
