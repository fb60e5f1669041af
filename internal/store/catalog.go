package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

func (s *gormStore) CreateUnit(ctx context.Context, unit *model.Unit) error {
	unit.Name = strings.TrimSpace(unit.Name)
	if unit.Name == "" {
		return availability.NewValidationError("unit name is required")
	}
	if unit.Qty < 0 {
		return availability.NewValidationError("unit qty must not be negative")
	}
	if unit.Currency == "" {
		unit.Currency = s.opts.Currency
	}
	for i := range unit.Rates {
		if unit.Rates[i].Price < 0 {
			return availability.NewValidationError("rate price must not be negative")
		}
	}
	if err := s.db.WithContext(ctx).Create(unit).Error; err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (s *gormStore) GetUnit(ctx context.Context, unitID int64) (*model.Unit, error) {
	return findUnit(s.db.WithContext(ctx), unitID)
}

// DeleteUnit removes a unit with its rates and calendar rows. Units that
// still have reservations are kept.
func (s *gormStore) DeleteUnit(ctx context.Context, unitID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockUnit(tx, unitID); err != nil {
			return err
		}

		var reservations int64
		if err := tx.Model(&model.Reservation{}).Where("unit_id = ?", unitID).Count(&reservations).Error; err != nil {
			return fmt.Errorf("failed to count reservations of unit %d: %w", unitID, err)
		}
		if reservations > 0 {
			return availability.NewValidationError(fmt.Sprintf("unit %d still has %d reservation(s)", unitID, reservations))
		}

		if err := tx.Where("unit_id = ?", unitID).Delete(&model.CalendarRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete calendar rows of unit %d: %w", unitID, err)
		}
		if err := tx.Where("unit_id = ?", unitID).Delete(&model.Rate{}).Error; err != nil {
			return fmt.Errorf("failed to delete rates of unit %d: %w", unitID, err)
		}
		if err := tx.Exec("DELETE FROM subscription_unit_mapping WHERE unit_id = ?", unitID).Error; err != nil {
			return fmt.Errorf("failed to delete subscriptions of unit %d: %w", unitID, err)
		}
		if err := tx.Delete(&model.Unit{}, unitID).Error; err != nil {
			return fmt.Errorf("failed to delete unit %d: %w", unitID, err)
		}
		return nil
	})
}

func (s *gormStore) CreateRate(ctx context.Context, rate *model.Rate) error {
	rate.Name = strings.TrimSpace(rate.Name)
	if rate.Name == "" {
		return availability.NewValidationError("rate name is required")
	}
	if rate.Price < 0 {
		return availability.NewValidationError("rate price must not be negative")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := findUnit(tx, rate.UnitID); err != nil {
			return err
		}
		if err := tx.Create(rate).Error; err != nil {
			return fmt.Errorf("failed to create rate: %w", err)
		}
		return nil
	})
}

func (s *gormStore) UpdateRate(ctx context.Context, rateID int64, name *string, price *int64) (*model.Rate, error) {
	var rate model.Rate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rate, rateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return availability.NewNotFoundError("rate", rateID)
			}
			return fmt.Errorf("failed to load rate %d: %w", rateID, err)
		}

		if name != nil {
			trimmed := strings.TrimSpace(*name)
			if trimmed == "" {
				return availability.NewValidationError("rate name is required")
			}
			rate.Name = trimmed
		}
		if price != nil {
			if *price < 0 {
				return availability.NewValidationError("rate price must not be negative")
			}
			rate.Price = *price
		}
		if err := tx.Save(&rate).Error; err != nil {
			return fmt.Errorf("failed to update rate %d: %w", rateID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// DeleteRate removes a rate and its calendar rows. Rates that reservations
// still refer to are kept.
func (s *gormStore) DeleteRate(ctx context.Context, rateID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rate model.Rate
		if err := tx.First(&rate, rateID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return availability.NewNotFoundError("rate", rateID)
			}
			return fmt.Errorf("failed to load rate %d: %w", rateID, err)
		}
		if _, err := lockUnit(tx, rate.UnitID); err != nil {
			return err
		}

		var reservations int64
		if err := tx.Model(&model.Reservation{}).Where("rate_id = ?", rateID).Count(&reservations).Error; err != nil {
			return fmt.Errorf("failed to count reservations of rate %d: %w", rateID, err)
		}
		if reservations > 0 {
			return availability.NewValidationError(fmt.Sprintf("rate %d still has %d reservation(s)", rateID, reservations))
		}

		if err := tx.Where("rate_id = ?", rateID).Delete(&model.CalendarRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete calendar rows of rate %d: %w", rateID, err)
		}
		if err := tx.Delete(&rate).Error; err != nil {
			return fmt.Errorf("failed to delete rate %d: %w", rateID, err)
		}
		return nil
	})
}
