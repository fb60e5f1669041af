package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// Transition moves a reservation to a new status and applies the stock and
// slot effects of the move in the same transaction.
func (s *gormStore) Transition(ctx context.Context, reservationID int64, to model.ReservationStatus, payment *model.PaymentStatus) (*TransitionResult, error) {
	return s.transition(ctx, reservationID, nil, to, payment)
}

// ExpirePending expires a reservation only while it is still pending. A
// reservation confirmed or cancelled since it was listed fails with
// ErrInvalidTransition and is left untouched.
func (s *gormStore) ExpirePending(ctx context.Context, reservationID int64) (*TransitionResult, error) {
	from := model.StatusPending
	payment := model.PaymentExpired
	return s.transition(ctx, reservationID, &from, model.StatusExpired, &payment)
}

// transition applies a status change. When expected is set the reservation
// must currently be in that status.
func (s *gormStore) transition(ctx context.Context, reservationID int64, expected *model.ReservationStatus, to model.ReservationStatus, payment *model.PaymentStatus) (*TransitionResult, error) {
	if !to.Valid() {
		return nil, availability.NewValidationError(fmt.Sprintf("unknown status %q", to))
	}
	if payment != nil && !payment.Valid() {
		return nil, availability.NewValidationError(fmt.Sprintf("unknown payment_status %q", *payment))
	}

	var result TransitionResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, unit, err := lockReservation(tx, reservationID)
		if err != nil {
			return err
		}

		from := r.Status
		if expected != nil && from != *expected {
			return availability.NewInvalidTransitionError(string(from), string(to))
		}
		if !availability.CanTransition(from, to) {
			return availability.NewInvalidTransitionError(string(from), string(to))
		}
		effect := availability.TransitionEffect(from, to)

		if effect.Reduce {
			if err := adjustStock(tx, unit, r.CheckIn, r.CheckOut, availability.ModeReduce, r.Quantity); err != nil {
				return err
			}
		}
		if effect.Restore {
			if err := adjustStock(tx, unit, r.CheckIn, r.CheckOut, availability.ModeRestore, r.Quantity); err != nil {
				return err
			}
		}
		if effect.ReleaseSlots {
			if err := tx.Where("reservation_id = ?", r.ID).Delete(&model.ReservationSlot{}).Error; err != nil {
				return fmt.Errorf("failed to release slots of reservation %d: %w", r.ID, err)
			}
		}

		updates := map[string]any{"status": to}
		if payment != nil {
			updates["payment_status"] = *payment
		}
		if err := tx.Model(&model.Reservation{}).Where("id = ?", r.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update reservation %d: %w", r.ID, err)
		}

		updated, err := findReservation(tx, r.ID)
		if err != nil {
			return err
		}
		result = TransitionResult{Reservation: updated, From: from, To: to, Effect: effect}
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return &result, nil
}

// DeleteReservation destroys a reservation. Stock still consumed by it is
// restored and its slots and details are removed.
func (s *gormStore) DeleteReservation(ctx context.Context, reservationID int64) (*model.Reservation, error) {
	var deleted *model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, unit, err := lockReservation(tx, reservationID)
		if err != nil {
			return err
		}

		effect := availability.DestroyEffect(r.Status)
		if effect.Restore {
			if err := adjustStock(tx, unit, r.CheckIn, r.CheckOut, availability.ModeRestore, r.Quantity); err != nil {
				return err
			}
		}
		if err := tx.Where("reservation_id = ?", r.ID).Delete(&model.ReservationSlot{}).Error; err != nil {
			return fmt.Errorf("failed to delete slots of reservation %d: %w", r.ID, err)
		}
		if err := tx.Where("reservation_id = ?", r.ID).Delete(&model.ReservationDetail{}).Error; err != nil {
			return fmt.Errorf("failed to delete details of reservation %d: %w", r.ID, err)
		}
		if err := tx.Delete(&model.Reservation{}, r.ID).Error; err != nil {
			return fmt.Errorf("failed to delete reservation %d: %w", r.ID, err)
		}
		deleted = r
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return deleted, nil
}

// lockReservation locks the reservation's unit, then reads the reservation
// again so its status cannot change underneath the caller.
func lockReservation(tx *gorm.DB, reservationID int64) (*model.Reservation, *model.Unit, error) {
	var owner struct{ UnitID int64 }
	err := tx.Model(&model.Reservation{}).Select("unit_id").Where("id = ?", reservationID).Take(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, availability.NewNotFoundError("reservation", reservationID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reservation %d: %w", reservationID, err)
	}

	unit, err := lockUnit(tx, owner.UnitID)
	if err != nil {
		return nil, nil, err
	}
	r, err := findReservation(tx, reservationID)
	if err != nil {
		return nil, nil, err
	}
	return r, unit, nil
}

// StalePending returns pending reservations booked before the cutoff,
// oldest first.
func (s *gormStore) StalePending(ctx context.Context, bookedBefore time.Time, limit int) ([]int64, error) {
	var ids []int64
	q := s.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("status = ? AND booked_on < ?", model.StatusPending, bookedBefore.UTC()).
		Order("booked_on, id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list stale pending reservations: %w", err)
	}
	return ids, nil
}
