package availability

import (
	"math"
	"time"
)

// NightPrice is the resolved per-slot price of one night.
type NightPrice struct {
	Date  time.Time
	Price int64
}

// NightLine is one night of a price breakdown.
type NightLine struct {
	Date      time.Time `json:"date"`
	BasePrice int64     `json:"base_price"`
	Quantity  int       `json:"quantity"`
	Subtotal  int64     `json:"subtotal"`
	Tax       int64     `json:"tax"`
	Total     int64     `json:"total"`
}

// Breakdown is the full price of a stay.
type Breakdown struct {
	Nights   []NightLine `json:"nights"`
	Subtotal int64       `json:"subtotal"`
	Tax      int64       `json:"tax"`
	Total    int64       `json:"total"`
}

// TaxPerSlot rounds price*taxRate half away from zero.
func TaxPerSlot(price int64, taxRate float64) int64 {
	return int64(math.Round(float64(price) * taxRate))
}

// PriceBreakdown multiplies each night's price by quantity and adds the
// per-slot tax, rounded before it is multiplied.
func PriceBreakdown(prices []NightPrice, quantity int, taxRate float64) Breakdown {
	var b Breakdown
	q := int64(quantity)
	for _, p := range prices {
		line := NightLine{
			Date:      p.Date,
			BasePrice: p.Price,
			Quantity:  quantity,
			Subtotal:  p.Price * q,
			Tax:       TaxPerSlot(p.Price, taxRate) * q,
		}
		line.Total = line.Subtotal + line.Tax
		b.Nights = append(b.Nights, line)
		b.Subtotal += line.Subtotal
		b.Tax += line.Tax
		b.Total += line.Total
	}
	return b
}
