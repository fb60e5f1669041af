package api

import (
	"time"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
	"lodging-availability-backend/internal/store"
)

type slotResponse struct {
	ReservationID int64                   `json:"reservation_id"`
	Code          string                  `json:"code"`
	GuestName     string                  `json:"guest_name"`
	CheckIn       string                  `json:"check_in"`
	CheckOut      string                  `json:"check_out"`
	Status        model.ReservationStatus `json:"status"`
	IsFirstNight  bool                    `json:"is_first_night"`
	IsLastNight   bool                    `json:"is_last_night"`
}

type calendarDayResponse struct {
	Date              string                    `json:"date"`
	IsOpen            bool                      `json:"is_open"`
	Quantity          int                       `json:"quantity"`
	ExplicitQuantity  bool                      `json:"explicit_quantity"`
	ReservationsCount int                       `json:"reservations_count"`
	Rates             map[int64]store.RatePrice `json:"rates"`
	Slots             []*slotResponse           `json:"slots"`
}

func newCalendarDayResponse(d store.CalendarDay) calendarDayResponse {
	out := calendarDayResponse{
		Date:              availability.DateKey(d.Date),
		IsOpen:            d.IsOpen,
		Quantity:          d.Quantity,
		ExplicitQuantity:  d.ExplicitQuantity,
		ReservationsCount: d.ReservationsCount,
		Rates:             d.Rates,
		Slots:             make([]*slotResponse, len(d.Slots)),
	}
	for i, s := range d.Slots {
		if s == nil {
			continue
		}
		out.Slots[i] = &slotResponse{
			ReservationID: s.ReservationID,
			Code:          s.Code,
			GuestName:     s.GuestName,
			CheckIn:       availability.DateKey(s.CheckIn),
			CheckOut:      availability.DateKey(s.CheckOut),
			Status:        s.Status,
			IsFirstNight:  s.IsFirstNight,
			IsLastNight:   s.IsLastNight,
		}
	}
	return out
}

type nightResponse struct {
	Date      string `json:"date"`
	BasePrice int64  `json:"base_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  int64  `json:"subtotal"`
	Tax       int64  `json:"tax"`
	Total     int64  `json:"total"`
}

type quoteResponse struct {
	UnitID      int64           `json:"unit_id"`
	RateID      int64           `json:"rate_id"`
	RateName    string          `json:"rate_name"`
	CheckIn     string          `json:"check_in"`
	CheckOut    string          `json:"check_out"`
	Nights      int             `json:"nights"`
	Quantity    int             `json:"quantity"`
	TaxRate     float64         `json:"tax_rate"`
	Currency    string          `json:"currency"`
	MinQuantity int             `json:"min_quantity"`
	Available   bool            `json:"available"`
	PerNight    []nightResponse `json:"per_night"`
	Subtotal    int64           `json:"subtotal"`
	Tax         int64           `json:"tax"`
	Total       int64           `json:"total"`
}

func newQuoteResponse(q store.Quote) quoteResponse {
	out := quoteResponse{
		UnitID:      q.UnitID,
		RateID:      q.RateID,
		RateName:    q.RateName,
		CheckIn:     availability.DateKey(q.CheckIn),
		CheckOut:    availability.DateKey(q.CheckOut),
		Nights:      len(q.Breakdown.Nights),
		Quantity:    q.Quantity,
		TaxRate:     q.TaxRate,
		Currency:    q.Currency,
		MinQuantity: q.MinQuantity,
		Available:   q.Available,
		PerNight:    make([]nightResponse, 0, len(q.Breakdown.Nights)),
		Subtotal:    q.Breakdown.Subtotal,
		Tax:         q.Breakdown.Tax,
		Total:       q.Breakdown.Total,
	}
	for _, n := range q.Breakdown.Nights {
		out.PerNight = append(out.PerNight, nightResponse{
			Date:      availability.DateKey(n.Date),
			BasePrice: n.BasePrice,
			Quantity:  n.Quantity,
			Subtotal:  n.Subtotal,
			Tax:       n.Tax,
			Total:     n.Total,
		})
	}
	return out
}

type ratesQuoteResponse struct {
	UnitID      int64           `json:"unit_id"`
	CheckIn     string          `json:"check_in"`
	CheckOut    string          `json:"check_out"`
	Quantity    int             `json:"quantity"`
	MinQuantity int             `json:"min_quantity"`
	Available   bool            `json:"available"`
	Quotes      []quoteResponse `json:"quotes"`
}

func newRatesQuoteResponse(q store.RatesQuote) ratesQuoteResponse {
	out := ratesQuoteResponse{
		UnitID:      q.UnitID,
		CheckIn:     availability.DateKey(q.CheckIn),
		CheckOut:    availability.DateKey(q.CheckOut),
		Quantity:    q.Quantity,
		MinQuantity: q.MinQuantity,
		Available:   q.Available,
		Quotes:      make([]quoteResponse, 0, len(q.Quotes)),
	}
	for _, rq := range q.Quotes {
		out.Quotes = append(out.Quotes, newQuoteResponse(rq))
	}
	return out
}

type detailResponse struct {
	Date        string `json:"date"`
	RateID      int64  `json:"rate_id"`
	Quantity    int    `json:"quantity"`
	BasePrice   int64  `json:"base_price"`
	Subtotal    int64  `json:"subtotal"`
	TaxAmount   int64  `json:"tax_amount"`
	ServiceFee  int64  `json:"service_fee"`
	ExtraCharge int64  `json:"extra_charge"`
	TotalPrice  int64  `json:"total_price"`
	Currency    string `json:"currency"`
}

type reservationResponse struct {
	ID            int64                   `json:"id"`
	Code          string                  `json:"code"`
	UnitID        int64                   `json:"unit_id"`
	RateID        int64                   `json:"rate_id"`
	FirstName     string                  `json:"first_name"`
	LastName      string                  `json:"last_name"`
	Email         string                  `json:"email"`
	Phone         string                  `json:"phone"`
	CheckIn       string                  `json:"check_in"`
	CheckOut      string                  `json:"check_out"`
	Nights        int                     `json:"nights"`
	Guests        int                     `json:"guests"`
	Quantity      int                     `json:"quantity"`
	Subtotal      int64                   `json:"subtotal"`
	TaxTotal      int64                   `json:"tax_total"`
	ServiceTotal  int64                   `json:"service_total"`
	ExtraTotal    int64                   `json:"extra_total"`
	TotalPrice    int64                   `json:"total_price"`
	Currency      string                  `json:"currency"`
	Status        model.ReservationStatus `json:"status"`
	PaymentStatus model.PaymentStatus     `json:"payment_status"`
	Source        model.Source            `json:"source"`
	Notes         string                  `json:"notes"`
	BookedOn      time.Time               `json:"booked_on"`
	Slots         []int                   `json:"slots"`
	Details       []detailResponse        `json:"details"`
}

func newReservationResponse(r *model.Reservation) reservationResponse {
	out := reservationResponse{
		ID:            r.ID,
		Code:          r.Code,
		UnitID:        r.UnitID,
		RateID:        r.RateID,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		CheckIn:       availability.DateKey(r.CheckIn),
		CheckOut:      availability.DateKey(r.CheckOut),
		Nights:        r.Nights(),
		Guests:        r.Guests,
		Quantity:      r.Quantity,
		Subtotal:      r.Subtotal,
		TaxTotal:      r.TaxTotal,
		ServiceTotal:  r.ServiceTotal,
		ExtraTotal:    r.ExtraTotal,
		TotalPrice:    r.TotalPrice,
		Currency:      r.Currency,
		Status:        r.Status,
		PaymentStatus: r.PaymentStatus,
		Source:        r.Source,
		Notes:         r.Notes,
		BookedOn:      r.BookedOn,
		Slots:         r.SlotIndices(),
		Details:       make([]detailResponse, 0, len(r.Details)),
	}
	for _, d := range r.Details {
		out.Details = append(out.Details, detailResponse{
			Date:        availability.DateKey(d.Date),
			RateID:      d.RateID,
			Quantity:    d.Quantity,
			BasePrice:   d.BasePrice,
			Subtotal:    d.Subtotal,
			TaxAmount:   d.TaxAmount,
			ServiceFee:  d.ServiceFee,
			ExtraCharge: d.ExtraCharge,
			TotalPrice:  d.TotalPrice,
			Currency:    d.Currency,
		})
	}
	return out
}

func dateStrings(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = availability.DateKey(d)
	}
	return out
}
