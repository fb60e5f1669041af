package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// Store defines the interface for all engine operations.
type Store interface {
	CreateUnit(ctx context.Context, unit *model.Unit) error
	GetUnit(ctx context.Context, unitID int64) (*model.Unit, error)
	DeleteUnit(ctx context.Context, unitID int64) error
	CreateRate(ctx context.Context, rate *model.Rate) error
	UpdateRate(ctx context.Context, rateID int64, name *string, price *int64) (*model.Rate, error)
	DeleteRate(ctx context.Context, rateID int64) error

	Resolve(ctx context.Context, unitID int64, date time.Time, rateID *int64) (*CalendarDay, error)
	Calendar(ctx context.Context, unitID int64, from, until time.Time) ([]CalendarDay, error)
	WriteCalendar(ctx context.Context, w CalendarWrite) (*CalendarDay, error)
	DisabledDates(ctx context.Context, unitID int64, checkIn, checkOut *time.Time) ([]time.Time, error)

	Quote(ctx context.Context, req QuoteRequest) (*Quote, error)
	QuoteAllRates(ctx context.Context, unitID int64, checkIn, checkOut time.Time, quantity int) (*RatesQuote, error)

	Book(ctx context.Context, req BookRequest) (*model.Reservation, error)
	GetReservation(ctx context.Context, reservationID int64) (*model.Reservation, error)
	Transition(ctx context.Context, reservationID int64, to model.ReservationStatus, payment *model.PaymentStatus) (*TransitionResult, error)
	ExpirePending(ctx context.Context, reservationID int64) (*TransitionResult, error)
	DeleteReservation(ctx context.Context, reservationID int64) (*model.Reservation, error)
	StalePending(ctx context.Context, bookedBefore time.Time, limit int) ([]int64, error)

	PutSubscription(ctx context.Context, sub model.PushSubscription, unitIDs []int64) error
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscribedUnits(ctx context.Context, endpoint string) ([]int64, error)
	SubscriptionsForUnit(ctx context.Context, unitID int64) ([]model.PushSubscription, error)
}

// Options tunes pricing and validation.
type Options struct {
	TaxRate  float64
	Currency string
	Bounds   availability.StayBounds
	// CalendarMaxDays caps the number of dates a calendar or disabled-dates
	// read may cover.
	CalendarMaxDays int
	Logger          *zap.Logger
	Now             func() time.Time
}

// DefaultOptions returns a 10% tax rate in IDR with stays from 2025-01-01
// of at most 366 nights and calendar reads of at most 366 dates.
func DefaultOptions() Options {
	return Options{
		TaxRate:  0.10,
		Currency: "IDR",
		Bounds: availability.StayBounds{
			MinDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			MaxNights: 366,
		},
		CalendarMaxDays: 366,
	}
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
	log  *zap.Logger
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = "IDR"
	}
	if opts.CalendarMaxDays <= 0 {
		opts.CalendarMaxDays = 366
	}
	return &gormStore{db: db, opts: opts, log: opts.Logger}
}

// lockUnit loads the unit row with a row lock. Every operation that changes
// slots or stock of a unit takes this lock first, so they serialize per unit
// while different units proceed in parallel.
func lockUnit(tx *gorm.DB, unitID int64) (*model.Unit, error) {
	var unit model.Unit
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&unit, unitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, availability.NewNotFoundError("unit", unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock unit %d: %w", unitID, err)
	}
	return &unit, nil
}

func findUnit(tx *gorm.DB, unitID int64) (*model.Unit, error) {
	var unit model.Unit
	err := tx.Preload("Rates", func(db *gorm.DB) *gorm.DB { return db.Order("rates.id") }).First(&unit, unitID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, availability.NewNotFoundError("unit", unitID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load unit %d: %w", unitID, err)
	}
	return &unit, nil
}

// findRate loads a rate and checks it belongs to the unit.
func findRate(tx *gorm.DB, unitID, rateID int64) (*model.Rate, error) {
	var rate model.Rate
	err := tx.First(&rate, rateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, availability.NewNotFoundError("rate", rateID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load rate %d: %w", rateID, err)
	}
	if rate.UnitID != unitID {
		return nil, availability.NewValidationError(fmt.Sprintf("rate %d does not belong to unit %d", rateID, unitID))
	}
	return &rate, nil
}

// loadHoldings returns the slot-holding reservations of a unit overlapping
// [from, to), with their slots.
func loadHoldings(tx *gorm.DB, unitID int64, from, to time.Time) ([]availability.Holding, []model.Reservation, error) {
	var reservations []model.Reservation
	err := tx.Preload("Slots", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order") }).
		Where("unit_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			unitID, model.SlotHoldingStatuses(), availability.Day(to), availability.Day(from)).
		Order("check_in, id").
		Find(&reservations).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load reservations for unit %d: %w", unitID, err)
	}
	return availability.HoldingsFrom(reservations), reservations, nil
}

// loadRows returns the calendar rows of a unit in [from, until], keyed by
// date. Base rows land in base; rate rows in rates[date][rateID].
func loadRows(tx *gorm.DB, unitID int64, from, until time.Time) (map[string]*model.CalendarRow, map[string]map[int64]*model.CalendarRow, error) {
	var rows []model.CalendarRow
	err := tx.Where("unit_id = ? AND date >= ? AND date <= ?", unitID, availability.Day(from), availability.Day(until)).
		Find(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load calendar rows for unit %d: %w", unitID, err)
	}

	base := make(map[string]*model.CalendarRow)
	rates := make(map[string]map[int64]*model.CalendarRow)
	for i := range rows {
		row := &rows[i]
		key := availability.DateKey(row.Date)
		if row.IsBase() {
			base[key] = row
			continue
		}
		if rates[key] == nil {
			rates[key] = make(map[int64]*model.CalendarRow)
		}
		rates[key][*row.RateID] = row
	}
	return base, rates, nil
}

// classify maps driver level serialization failures to
// ErrConcurrencyConflict.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %v", availability.ErrConcurrencyConflict, err)
		}
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", availability.ErrConcurrencyConflict, err)
		}
	}
	return err
}
