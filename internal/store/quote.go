package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// stayView is the per-night state of a prospective stay.
type stayView struct {
	nights      []CalendarDay
	minQuantity int
	open        bool
}

// viewStay resolves the nights of [checkIn, checkOut) for the given rates.
func viewStay(tx *gorm.DB, unit *model.Unit, rates []model.Rate, checkIn, checkOut time.Time) (*stayView, error) {
	days, err := buildDays(tx, unit, rates, checkIn, availability.Day(checkOut).AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	v := &stayView{nights: days, minQuantity: unit.Qty, open: true}
	for _, d := range days {
		if d.Quantity < v.minQuantity {
			v.minQuantity = d.Quantity
		}
		if !d.IsOpen {
			v.open = false
		}
	}
	return v, nil
}

// breakdown prices the stay on one rate.
func (v *stayView) breakdown(rateID int64, quantity int, taxRate float64) availability.Breakdown {
	prices := make([]availability.NightPrice, 0, len(v.nights))
	for _, d := range v.nights {
		prices = append(prices, availability.NightPrice{Date: d.Date, Price: d.Rates[rateID].Price})
	}
	return availability.PriceBreakdown(prices, quantity, taxRate)
}

func (s *gormStore) validateStay(checkIn, checkOut time.Time, quantity int) error {
	if err := availability.ValidateStay(checkIn, checkOut, s.opts.Bounds); err != nil {
		return err
	}
	if quantity < 1 {
		return availability.NewValidationError("quantity must be at least 1")
	}
	return nil
}

// Quote prices a stay on one rate without reserving anything.
func (s *gormStore) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	if err := s.validateStay(req.CheckIn, req.CheckOut, req.Quantity); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	unit, err := findUnit(db, req.UnitID)
	if err != nil {
		return nil, err
	}
	rate, err := findRate(db, unit.ID, req.RateID)
	if err != nil {
		return nil, err
	}
	view, err := viewStay(db, unit, []model.Rate{*rate}, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	q := s.newQuote(unit, rate, view, req.CheckIn, req.CheckOut, req.Quantity)
	return &q, nil
}

// QuoteAllRates prices a stay on every rate of the unit.
func (s *gormStore) QuoteAllRates(ctx context.Context, unitID int64, checkIn, checkOut time.Time, quantity int) (*RatesQuote, error) {
	if err := s.validateStay(checkIn, checkOut, quantity); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	unit, err := findUnit(db, unitID)
	if err != nil {
		return nil, err
	}
	view, err := viewStay(db, unit, unit.Rates, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	out := &RatesQuote{
		UnitID:      unit.ID,
		CheckIn:     availability.Day(checkIn),
		CheckOut:    availability.Day(checkOut),
		Quantity:    quantity,
		MinQuantity: view.minQuantity,
		Available:   view.open && view.minQuantity >= quantity,
		Quotes:      make([]Quote, 0, len(unit.Rates)),
	}
	for i := range unit.Rates {
		out.Quotes = append(out.Quotes, s.newQuote(unit, &unit.Rates[i], view, checkIn, checkOut, quantity))
	}
	return out, nil
}

func (s *gormStore) newQuote(unit *model.Unit, rate *model.Rate, view *stayView, checkIn, checkOut time.Time, quantity int) Quote {
	return Quote{
		UnitID:      unit.ID,
		RateID:      rate.ID,
		RateName:    rate.Name,
		CheckIn:     availability.Day(checkIn),
		CheckOut:    availability.Day(checkOut),
		Quantity:    quantity,
		TaxRate:     s.opts.TaxRate,
		Currency:    unit.Currency,
		MinQuantity: view.minQuantity,
		Available:   view.open && view.minQuantity >= quantity,
		Breakdown:   view.breakdown(rate.ID, quantity, s.opts.TaxRate),
	}
}
