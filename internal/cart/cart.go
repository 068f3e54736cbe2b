package cart

import "math"

// Line is a single purchasable voucher in the cart. Price is in IDR, which has
// no decimal subunits, so all money values are plain integers.
type Line struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Discount int    `json:"discount"`
	Quantity int    `json:"quantity"`
	Duration string `json:"duration"`
}

// EffectiveUnitPrice applies the percent discount and rounds to the nearest
// whole currency unit. A zero discount returns the base price untouched.
func EffectiveUnitPrice(l Line) int64 {
	if l.Discount > 0 {
		return int64(math.Round(float64(l.Price) * (1 - float64(l.Discount)/100)))
	}
	return l.Price
}

// Total sums the effective subtotal of every line. An empty slice totals zero.
func Total(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += EffectiveUnitPrice(l) * int64(l.Quantity)
	}
	return sum
}
