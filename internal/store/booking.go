package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 10
	codeAttempts = 20
)

// Book validates the request, then checks capacity, allocates slots, prices
// every night and persists the reservation with its slots and details in one
// transaction. A concurrency conflict is retried once.
func (s *gormStore) Book(ctx context.Context, req BookRequest) (*model.Reservation, error) {
	if err := s.normalizeBooking(&req); err != nil {
		return nil, err
	}

	reservation, err := s.book(ctx, req)
	if availability.IsRetriable(err) {
		s.log.Warn("booking hit a concurrency conflict, retrying",
			zap.Int64("unit_id", req.UnitID), zap.Error(err))
		reservation, err = s.book(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return reservation, nil
}

func (s *gormStore) normalizeBooking(req *BookRequest) error {
	req.CheckIn, req.CheckOut = availability.Day(req.CheckIn), availability.Day(req.CheckOut)
	if err := s.validateStay(req.CheckIn, req.CheckOut, req.Quantity); err != nil {
		return err
	}
	req.FirstName = strings.TrimSpace(req.FirstName)
	if req.FirstName == "" {
		return availability.NewValidationError("first_name is required")
	}
	if req.Guests == 0 {
		req.Guests = 1
	}
	if req.Guests < 1 {
		return availability.NewValidationError("guests must be at least 1")
	}
	if req.Status == "" {
		req.Status = model.StatusPending
	}
	if req.Status != model.StatusPending && req.Status != model.StatusConfirmed {
		return availability.NewValidationError(fmt.Sprintf("a reservation cannot be created as %q", req.Status))
	}
	if req.PaymentStatus == "" {
		req.PaymentStatus = model.PaymentUnpaid
	}
	if !req.PaymentStatus.Valid() {
		return availability.NewValidationError(fmt.Sprintf("unknown payment_status %q", req.PaymentStatus))
	}
	if req.Source == "" {
		req.Source = model.SourceDirect
	}
	if !req.Source.Valid() {
		return availability.NewValidationError(fmt.Sprintf("unknown source %q", req.Source))
	}
	return nil
}

func (s *gormStore) book(ctx context.Context, req BookRequest) (*model.Reservation, error) {
	var reservation model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		unit, err := lockUnit(tx, req.UnitID)
		if err != nil {
			return err
		}
		rate, err := findRate(tx, unit.ID, req.RateID)
		if err != nil {
			return err
		}

		view, err := viewStay(tx, unit, []model.Rate{*rate}, req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		for _, night := range view.nights {
			if !night.Bookable(req.Quantity) {
				available := night.Quantity
				if !night.IsOpen {
					available = 0
				}
				return fmt.Errorf("%w on %s", availability.NewInsufficientCapacityError(req.Quantity, available), availability.DateKey(night.Date))
			}
		}

		holdings, _, err := loadHoldings(tx, unit.ID, req.CheckIn, req.CheckOut)
		if err != nil {
			return err
		}
		slots, err := availability.Allocate(unit.Qty, holdings, req.CheckIn, req.CheckOut, req.Quantity)
		if err != nil {
			return err
		}

		code, err := uniqueCode(tx)
		if err != nil {
			return err
		}

		currency := req.Currency
		if currency == "" {
			currency = unit.Currency
		}
		breakdown := view.breakdown(rate.ID, req.Quantity, s.opts.TaxRate)

		reservation = model.Reservation{
			Code:          code,
			UnitID:        unit.ID,
			RateID:        rate.ID,
			FirstName:     req.FirstName,
			LastName:      strings.TrimSpace(req.LastName),
			Email:         strings.TrimSpace(req.Email),
			Phone:         strings.TrimSpace(req.Phone),
			CheckIn:       req.CheckIn,
			CheckOut:      req.CheckOut,
			Guests:        req.Guests,
			Quantity:      req.Quantity,
			Subtotal:      breakdown.Subtotal,
			TaxTotal:      breakdown.Tax,
			TotalPrice:    breakdown.Total,
			Currency:      currency,
			Status:        req.Status,
			PaymentStatus: req.PaymentStatus,
			Source:        req.Source,
			Notes:         req.Notes,
			BookedOn:      s.opts.Now().UTC(),
		}
		for _, idx := range slots {
			reservation.Slots = append(reservation.Slots, model.ReservationSlot{SortOrder: idx})
		}
		for _, n := range breakdown.Nights {
			reservation.Details = append(reservation.Details, model.ReservationDetail{
				Date:        n.Date,
				RateID:      rate.ID,
				Quantity:    n.Quantity,
				BasePrice:   n.BasePrice,
				Subtotal:    n.Subtotal,
				TaxAmount:   n.Tax,
				ServiceFee:  0,
				ExtraCharge: 0,
				TotalPrice:  n.Total,
				Currency:    currency,
			})
		}

		if err := tx.Create(&reservation).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}

		if availability.CreationEffect(reservation.Status).Reduce {
			if err := adjustStock(tx, unit, reservation.CheckIn, reservation.CheckOut, availability.ModeReduce, reservation.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &reservation, nil
}

// adjustStock applies a reduce or restore to the base row of every night of
// [checkIn, checkOut). A new row or one without a quantity is materialized at
// the unit capacity and opened.
func adjustStock(tx *gorm.DB, unit *model.Unit, checkIn, checkOut time.Time, mode availability.Mode, amount int) error {
	for _, night := range availability.Nights(checkIn, checkOut) {
		row, err := baseRow(tx, unit.ID, night)
		if err != nil {
			return err
		}
		if row.ID == 0 || row.Quantity == nil {
			open := true
			row.IsOpen = &open
		}
		q := availability.Adjust(row.Quantity, unit.Qty, mode, amount)
		row.Quantity = &q
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to %s stock of unit %d on %s: %w", mode, unit.ID, availability.DateKey(night), err)
		}
	}
	return nil
}

// uniqueCode draws reservation codes until one is unused.
func uniqueCode(tx *gorm.DB) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&model.Reservation{}).Where("code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check reservation code: %w", err)
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", errors.New("failed to generate a unique reservation code")
}

func newCode() (string, error) {
	var b strings.Builder
	b.Grow(codeLength)
	limit := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate reservation code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func (s *gormStore) GetReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	return findReservation(s.db.WithContext(ctx), reservationID)
}

func findReservation(tx *gorm.DB, reservationID int64) (*model.Reservation, error) {
	var r model.Reservation
	err := tx.Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Preload("Details", func(db *gorm.DB) *gorm.DB { return db.Order("date") }).
		First(&r, reservationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, availability.NewNotFoundError("reservation", reservationID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation %d: %w", reservationID, err)
	}
	return &r, nil
}
