package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// buildDays merges calendar rows and reservations into one CalendarDay per
// date of [from, until].
func buildDays(tx *gorm.DB, unit *model.Unit, rates []model.Rate, from, until time.Time) ([]CalendarDay, error) {
	from, until = availability.Day(from), availability.Day(until)
	base, rateRows, err := loadRows(tx, unit.ID, from, until)
	if err != nil {
		return nil, err
	}
	holdings, reservations, err := loadHoldings(tx, unit.ID, from, until.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	// slot index -> reservations holding it, for the occupant map.
	bySlot := make(map[int][]*model.Reservation)
	for i := range reservations {
		r := &reservations[i]
		for _, idx := range r.SlotIndices() {
			bySlot[idx] = append(bySlot[idx], r)
		}
	}

	var days []CalendarDay
	for d := from; !d.After(until); d = d.AddDate(0, 0, 1) {
		key := availability.DateKey(d)
		res := availability.Resolve(*unit, nil, base[key], nil)
		consumed := availability.Consumed(holdings, d)

		day := CalendarDay{
			Date:              d,
			IsOpen:            res.IsOpen,
			Quantity:          availability.DisplayQuantity(*unit, res, consumed),
			ExplicitQuantity:  res.Explicit,
			ReservationsCount: consumed,
			Rates:             make(map[int64]RatePrice, len(rates)),
			Slots:             make([]*SlotOccupant, unit.Qty),
		}
		for i := range rates {
			rate := &rates[i]
			rr := rateRows[key][rate.ID]
			priced := availability.Resolve(*unit, rate, base[key], rr)
			day.Rates[rate.ID] = RatePrice{
				Price:    *priced.Price,
				Override: rr != nil && rr.Price != nil,
			}
		}
		for idx := 1; idx <= unit.Qty; idx++ {
			for _, r := range bySlot[idx] {
				h := availability.Holding{CheckIn: availability.Day(r.CheckIn), CheckOut: availability.Day(r.CheckOut)}
				if !h.CoversNight(d) {
					continue
				}
				day.Slots[idx-1] = &SlotOccupant{
					ReservationID: r.ID,
					Code:          r.Code,
					GuestName:     r.GuestName(),
					CheckIn:       h.CheckIn,
					CheckOut:      h.CheckOut,
					Status:        r.Status,
					IsFirstNight:  d.Equal(h.CheckIn),
					IsLastNight:   d.AddDate(0, 0, 1).Equal(h.CheckOut),
				}
				break
			}
		}
		days = append(days, day)
	}
	return days, nil
}

// checkWindow rejects an inverted [from, until] window or one covering more
// than CalendarMaxDays dates.
func (s *gormStore) checkWindow(from, until time.Time) error {
	from, until = availability.Day(from), availability.Day(until)
	if until.Before(from) {
		return availability.NewInvalidDateRangeError("until must not be before from")
	}
	if n := int(until.Sub(from).Hours()/24) + 1; n > s.opts.CalendarMaxDays {
		return availability.NewInvalidDateRangeError(fmt.Sprintf("window of %d days exceeds %d", n, s.opts.CalendarMaxDays))
	}
	return nil
}

// Calendar returns the merged view of every date in [from, until].
func (s *gormStore) Calendar(ctx context.Context, unitID int64, from, until time.Time) ([]CalendarDay, error) {
	if err := s.checkWindow(from, until); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	unit, err := findUnit(db, unitID)
	if err != nil {
		return nil, err
	}
	return buildDays(db, unit, unit.Rates, from, until)
}

// Resolve returns the merged view of a single date. With a rate id the
// rate must belong to the unit and Rates holds only that rate.
func (s *gormStore) Resolve(ctx context.Context, unitID int64, date time.Time, rateID *int64) (*CalendarDay, error) {
	db := s.db.WithContext(ctx)
	unit, err := findUnit(db, unitID)
	if err != nil {
		return nil, err
	}
	rates := unit.Rates
	if rateID != nil {
		rate, err := findRate(db, unitID, *rateID)
		if err != nil {
			return nil, err
		}
		rates = []model.Rate{*rate}
	}
	days, err := buildDays(db, unit, rates, date, date)
	if err != nil {
		return nil, err
	}
	return &days[0], nil
}

// baseRow fetches the base row of a date under a row lock, or returns a new
// unsaved row with a null quantity that is open.
func baseRow(tx *gorm.DB, unitID int64, date time.Time) (*model.CalendarRow, error) {
	var row model.CalendarRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("unit_id = ? AND date = ? AND rate_id IS NULL", unitID, date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		open := true
		return &model.CalendarRow{UnitID: unitID, Date: date, IsOpen: &open}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load base row of unit %d on %s: %w", unitID, availability.DateKey(date), err)
	}
	return &row, nil
}

// WriteCalendar applies an operator edit to one date.
func (s *gormStore) WriteCalendar(ctx context.Context, w CalendarWrite) (*CalendarDay, error) {
	date := availability.Day(w.Date)
	if !s.opts.Bounds.MinDate.IsZero() && date.Before(s.opts.Bounds.MinDate) {
		return nil, availability.NewInvalidDateRangeError(fmt.Sprintf("date %s is before %s", availability.DateKey(date), availability.DateKey(s.opts.Bounds.MinDate)))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit, err := lockUnit(tx, w.UnitID)
		if err != nil {
			return err
		}
		base, err := baseRow(tx, unit.ID, date)
		if err != nil {
			return err
		}

		if w.RateID == nil {
			if w.Quantity != nil {
				holdings, _, err := loadHoldings(tx, unit.ID, date, date.AddDate(0, 0, 1))
				if err != nil {
					return err
				}
				limit := unit.Qty - availability.Consumed(holdings, date)
				if *w.Quantity < 0 || *w.Quantity > limit {
					return availability.NewValidationError(fmt.Sprintf("quantity must be between 0 and %d", max(limit, 0)))
				}
				q := *w.Quantity
				base.Quantity = &q
			}
			if w.IsOpen != nil {
				open := *w.IsOpen
				base.IsOpen = &open
			}
			if err := tx.Save(base).Error; err != nil {
				return fmt.Errorf("failed to save base row: %w", err)
			}
			return nil
		}

		if _, err := findRate(tx, unit.ID, *w.RateID); err != nil {
			return err
		}
		if w.Price != nil && *w.Price < 0 {
			return availability.NewValidationError("price must not be negative")
		}
		if base.ID == 0 {
			if err := tx.Create(base).Error; err != nil {
				return fmt.Errorf("failed to create base row: %w", err)
			}
		}

		var row model.CalendarRow
		err = tx.Where("unit_id = ? AND date = ? AND rate_id = ?", unit.ID, date, *w.RateID).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			rateID := *w.RateID
			row = model.CalendarRow{UnitID: unit.ID, Date: date, RateID: &rateID}
		} else if err != nil {
			return fmt.Errorf("failed to load rate row: %w", err)
		}
		if w.Price != nil {
			p := *w.Price
			row.Price = &p
		}
		row.Quantity = nil
		row.IsOpen = nil
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("failed to save rate row: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return s.Resolve(ctx, w.UnitID, date, w.RateID)
}

// DisabledDates lists the dates a guest cannot pick. With a prospective
// stay it returns the closed or sold-out dates of [checkIn, checkOut] plus
// the continuity breaks of the stay. Without one it returns every explicit
// closed or zero-quantity base date.
func (s *gormStore) DisabledDates(ctx context.Context, unitID int64, checkIn, checkOut *time.Time) ([]time.Time, error) {
	db := s.db.WithContext(ctx)
	unit, err := findUnit(db, unitID)
	if err != nil {
		return nil, err
	}

	if checkIn == nil && checkOut == nil {
		var rows []model.CalendarRow
		err := db.Where("unit_id = ? AND rate_id IS NULL AND (is_open = ? OR quantity <= ?)", unitID, false, 0).
			Where("date >= ?", s.opts.Bounds.MinDate).
			Order("date").
			Find(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load closed dates of unit %d: %w", unitID, err)
		}
		out := make([]time.Time, 0, len(rows))
		for _, r := range rows {
			out = append(out, availability.Day(r.Date))
		}
		return out, nil
	}
	if checkIn == nil || checkOut == nil {
		return nil, availability.NewInvalidDateRangeError("check_in and check_out must be given together")
	}

	start, end := availability.Day(*checkIn), availability.Day(*checkOut)
	if !end.After(start) {
		return nil, availability.NewInvalidDateRangeError("check_out must be after check_in")
	}
	if err := s.checkWindow(start, end.AddDate(0, 0, -1)); err != nil {
		return nil, err
	}

	days, err := buildDays(db, unit, nil, start, end)
	if err != nil {
		return nil, err
	}
	holdings, _, err := loadHoldings(db, unit.ID, start, end)
	if err != nil {
		return nil, err
	}

	set := make(map[string]time.Time)
	for _, d := range days {
		if !d.IsOpen || d.Quantity <= 0 {
			set[availability.DateKey(d.Date)] = d.Date
		}
	}
	for _, d := range availability.DisabledCheckoutDates(unit.Qty, holdings, start, end) {
		set[availability.DateKey(d)] = d
	}

	out := make([]time.Time, 0, len(set))
	for _, d := range set {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}
