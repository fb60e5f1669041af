package availability

import "lodging-availability-backend/internal/model"

// Layer is one override source for a date. Nil fields defer to the next
// layer in the stack.
type Layer struct {
	Quantity *int
	IsOpen   *bool
	Price    *int64
}

// Stack is an ordered list of layers, highest priority first.
type Stack []Layer

// Quantity returns the first explicit quantity, or fallback.
func (s Stack) Quantity(fallback int) (int, bool) {
	for _, l := range s {
		if l.Quantity != nil {
			return *l.Quantity, true
		}
	}
	return fallback, false
}

// IsOpen returns the first explicit open flag, or fallback.
func (s Stack) IsOpen(fallback bool) bool {
	for _, l := range s {
		if l.IsOpen != nil {
			return *l.IsOpen
		}
	}
	return fallback
}

// Price returns the first explicit price, or fallback.
func (s Stack) Price(fallback int64) int64 {
	for _, l := range s {
		if l.Price != nil {
			return *l.Price
		}
	}
	return fallback
}

// RateLayer turns a rate row into a layer. Only the price is taken: a rate
// row never overrides quantity or the open flag.
func RateLayer(row *model.CalendarRow) Layer {
	if row == nil {
		return Layer{}
	}
	return Layer{Price: row.Price}
}

// BaseLayer turns a base row into a layer.
func BaseLayer(row *model.CalendarRow) Layer {
	if row == nil {
		return Layer{}
	}
	return Layer{Quantity: row.Quantity, IsOpen: row.IsOpen}
}

// Resolution is the effective view of one (unit, date, rate).
type Resolution struct {
	IsOpen   bool   `json:"is_open"`
	Quantity int    `json:"quantity"`
	Price    *int64 `json:"price"`
	// Explicit is true when Quantity came from a calendar row rather than
	// the unit capacity.
	Explicit bool `json:"explicit_quantity"`
}

// Resolve merges the rate row and base row of a date over the unit and rate
// defaults. rate, base and rateRow may be nil. The quantity is clamped to
// [0, unit.Qty].
func Resolve(unit model.Unit, rate *model.Rate, base, rateRow *model.CalendarRow) Resolution {
	stack := Stack{RateLayer(rateRow), BaseLayer(base)}

	qty, explicit := stack.Quantity(unit.Qty)
	res := Resolution{
		IsOpen:   stack.IsOpen(true),
		Quantity: clamp(qty, 0, unit.Qty),
		Explicit: explicit,
	}
	if rate != nil {
		p := stack.Price(rate.Price)
		res.Price = &p
	}
	return res
}

// DisplayQuantity is the remaining quantity shown for a date: the resolved
// quantity when a calendar row set it, otherwise the unit capacity minus the
// quantity already consumed by confirmed stays on that date.
func DisplayQuantity(unit model.Unit, res Resolution, consumed int) int {
	if res.Explicit {
		return res.Quantity
	}
	return clamp(unit.Qty-consumed, 0, unit.Qty)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
