package store

import (
	"time"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// SlotOccupant describes the reservation holding one slot on one night.
type SlotOccupant struct {
	ReservationID int64                   `json:"reservation_id"`
	Code          string                  `json:"code"`
	GuestName     string                  `json:"guest_name"`
	CheckIn       time.Time               `json:"check_in"`
	CheckOut      time.Time               `json:"check_out"`
	Status        model.ReservationStatus `json:"status"`
	IsFirstNight  bool                    `json:"is_first_night"`
	IsLastNight   bool                    `json:"is_last_night"`
}

// RatePrice is the effective price of a rate on a date.
type RatePrice struct {
	Price    int64 `json:"price"`
	Override bool  `json:"override"`
}

// CalendarDay is the merged view of one date of a unit.
type CalendarDay struct {
	Date              time.Time           `json:"date"`
	IsOpen            bool                `json:"is_open"`
	Quantity          int                 `json:"quantity"`
	ExplicitQuantity  bool                `json:"explicit_quantity"`
	ReservationsCount int                 `json:"reservations_count"`
	Rates             map[int64]RatePrice `json:"rates"`
	// Slots[i] is the reservation occupying slot i+1, or nil when free.
	Slots []*SlotOccupant `json:"slots"`
}

// Bookable reports whether quantity slots can be sold on this day.
func (d CalendarDay) Bookable(quantity int) bool {
	return d.IsOpen && d.Quantity >= quantity
}

// CalendarWrite is an operator edit of one date. RateID nil edits the base
// row; otherwise only Price is applied to the rate row.
type CalendarWrite struct {
	UnitID   int64
	Date     time.Time
	RateID   *int64
	Quantity *int
	IsOpen   *bool
	Price    *int64
}

// QuoteRequest asks for the price of a stay on one rate.
type QuoteRequest struct {
	UnitID   int64
	RateID   int64
	CheckIn  time.Time
	CheckOut time.Time
	Quantity int
}

// Quote is the price and availability of a stay on one rate.
type Quote struct {
	UnitID      int64                  `json:"unit_id"`
	RateID      int64                  `json:"rate_id"`
	RateName    string                 `json:"rate_name"`
	CheckIn     time.Time              `json:"check_in"`
	CheckOut    time.Time              `json:"check_out"`
	Quantity    int                    `json:"quantity"`
	TaxRate     float64                `json:"tax_rate"`
	Currency    string                 `json:"currency"`
	MinQuantity int                    `json:"min_quantity"`
	Available   bool                   `json:"available"`
	Breakdown   availability.Breakdown `json:"breakdown"`
}

// RatesQuote prices a stay on every rate of a unit.
type RatesQuote struct {
	UnitID      int64     `json:"unit_id"`
	CheckIn     time.Time `json:"check_in"`
	CheckOut    time.Time `json:"check_out"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"min_quantity"`
	Available   bool      `json:"available"`
	Quotes      []Quote   `json:"quotes"`
}

// BookRequest carries everything needed to create a reservation.
type BookRequest struct {
	UnitID        int64
	RateID        int64
	CheckIn       time.Time
	CheckOut      time.Time
	Quantity      int
	Guests        int
	Status        model.ReservationStatus
	PaymentStatus model.PaymentStatus
	Source        model.Source
	Currency      string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Notes         string
}

// TransitionResult reports a status change and what it did to inventory.
type TransitionResult struct {
	Reservation *model.Reservation
	From        model.ReservationStatus
	To          model.ReservationStatus
	Effect      availability.Effect
}
