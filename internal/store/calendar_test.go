package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

func TestCalendar_MergedView(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit, rate := seedUnit(t, s, 2, 100000)

	a := book(t, s, unit.ID, rate.ID, "2025-02-01", "2025-02-03", 1, model.StatusConfirmed)
	b := book(t, s, unit.ID, rate.ID, "2025-02-02", "2025-02-04", 1, model.StatusPending)

	override := int64(150000)
	_, err := s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-03"), RateID: &rate.ID, Price: &override})
	require.NoError(t, err)

	days, err := s.Calendar(ctx, unit.ID, day("2025-02-01"), day("2025-02-04"))
	require.NoError(t, err)
	require.Len(t, days, 4)

	first := days[0]
	assert.Equal(t, 1, first.Quantity)
	assert.True(t, first.ExplicitQuantity)
	assert.Equal(t, 1, first.ReservationsCount)
	require.NotNil(t, first.Slots[0])
	assert.Equal(t, a.ID, first.Slots[0].ReservationID)
	assert.Equal(t, "Ayu Lestari", first.Slots[0].GuestName)
	assert.True(t, first.Slots[0].IsFirstNight)
	assert.False(t, first.Slots[0].IsLastNight)
	assert.Nil(t, first.Slots[1])
	assert.Equal(t, RatePrice{Price: 100000}, first.Rates[rate.ID])

	second := days[1]
	require.NotNil(t, second.Slots[0])
	require.NotNil(t, second.Slots[1])
	assert.True(t, second.Slots[0].IsLastNight)
	assert.Equal(t, b.ID, second.Slots[1].ReservationID)
	assert.Equal(t, model.StatusPending, second.Slots[1].Status)
	assert.True(t, second.Slots[1].IsFirstNight)

	third := days[2]
	assert.Equal(t, 2, third.Quantity)
	assert.False(t, third.ExplicitQuantity)
	assert.Zero(t, third.ReservationsCount)
	assert.Nil(t, third.Slots[0])
	assert.True(t, third.Slots[1].IsLastNight)
	assert.Equal(t, RatePrice{Price: 150000, Override: true}, third.Rates[rate.ID])

	last := days[3]
	assert.True(t, last.IsOpen)
	assert.Equal(t, []*SlotOccupant{nil, nil}, last.Slots)

	_, err = s.Calendar(ctx, unit.ID, day("2025-02-04"), day("2025-02-01"))
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)
	_, err = s.Calendar(ctx, 999, day("2025-02-01"), day("2025-02-04"))
	assert.ErrorIs(t, err, availability.ErrNotFound)
}

func TestResolve_NeverExceedsCapacity(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)
	unit, _ := seedUnit(t, s, 2, 100000)

	// A row written behind the store's back still cannot report more than qty.
	q := 7
	require.NoError(t, db.Create(&model.CalendarRow{UnitID: unit.ID, Date: day("2025-02-01"), Quantity: &q}).Error)

	res, err := s.Resolve(ctx, unit.ID, day("2025-02-01"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Quantity)
}

func TestWriteCalendar_Base(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit, rate := seedUnit(t, s, 3, 100000)
	book(t, s, unit.ID, rate.ID, "2025-02-01", "2025-02-02", 1, model.StatusConfirmed)

	intPtr := func(v int) *int { return &v }
	testCases := []struct {
		name        string
		write       CalendarWrite
		expectedErr error
		expectedQty int
	}{
		{"within remaining stock", CalendarWrite{Date: day("2025-02-01"), Quantity: intPtr(1)}, nil, 1},
		{"above remaining stock", CalendarWrite{Date: day("2025-02-01"), Quantity: intPtr(3)}, availability.ErrValidation, 0},
		{"negative", CalendarWrite{Date: day("2025-02-05"), Quantity: intPtr(-1)}, availability.ErrValidation, 0},
		{"explicit zero", CalendarWrite{Date: day("2025-02-05"), Quantity: intPtr(0)}, nil, 0},
		{"before minimum date", CalendarWrite{Date: day("2024-12-31"), Quantity: intPtr(1)}, availability.ErrInvalidDateRange, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.write.UnitID = unit.ID
			got, err := s.WriteCalendar(ctx, tc.write)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expectedQty, got.Quantity)
			assert.True(t, got.ExplicitQuantity)
		})
	}

	closed := false
	got, err := s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-01"), IsOpen: &closed})
	require.NoError(t, err)
	assert.False(t, got.IsOpen)
	assert.Equal(t, 1, got.Quantity)
}

func TestWriteCalendar_RateRowCarriesPriceOnly(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)
	unit, rate := seedUnit(t, s, 2, 100000)
	_, other := seedUnit(t, s, 1, 5000)

	price := int64(120000)
	qty := 1
	got, err := s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-10"), RateID: &rate.ID, Price: &price, Quantity: &qty})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Quantity)
	assert.Equal(t, RatePrice{Price: 120000, Override: true}, got.Rates[rate.ID])

	var rows []model.CalendarRow
	require.NoError(t, db.Where("unit_id = ?", unit.ID).Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].IsBase())
	assert.Nil(t, rows[1].Quantity)
	assert.Nil(t, rows[1].IsOpen)
	assert.Equal(t, price, *rows[1].Price)

	_, err = s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-10"), RateID: &other.ID, Price: &price})
	assert.ErrorIs(t, err, availability.ErrValidation)

	negative := int64(-1)
	_, err = s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-10"), RateID: &rate.ID, Price: &negative})
	assert.ErrorIs(t, err, availability.ErrValidation)

	// The booked breakdown keeps the price in force at booking time.
	r := book(t, s, unit.ID, rate.ID, "2025-02-10", "2025-02-11", 1, model.StatusPending)
	higher := int64(200000)
	_, err = s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-10"), RateID: &rate.ID, Price: &higher})
	require.NoError(t, err)
	stored, err := s.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120000), stored.Details[0].BasePrice)
	assert.Equal(t, int64(12000), stored.Details[0].TaxAmount)
}

func TestDisabledDates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit, rate := seedUnit(t, s, 1, 100000)
	book(t, s, unit.ID, rate.ID, "2025-02-03", "2025-02-05", 1, model.StatusConfirmed)

	closed := false
	_, err := s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-02-10"), IsOpen: &closed})
	require.NoError(t, err)

	all, err := s.DisabledDates(ctx, unit.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-03", "2025-02-04", "2025-02-10"}, keys(all))

	stay, err := s.DisabledDates(ctx, unit.ID, dayPtr("2025-02-01"), dayPtr("2025-02-06"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-02-03", "2025-02-04", "2025-02-05", "2025-02-06"}, keys(stay))

	free, err := s.DisabledDates(ctx, unit.ID, dayPtr("2025-02-05"), dayPtr("2025-02-08"))
	require.NoError(t, err)
	assert.Empty(t, free)

	_, err = s.DisabledDates(ctx, unit.ID, dayPtr("2025-02-05"), nil)
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)
	_, err = s.DisabledDates(ctx, unit.ID, dayPtr("2025-02-05"), dayPtr("2025-02-05"))
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)
	_, err = s.DisabledDates(ctx, 999, nil, nil)
	assert.ErrorIs(t, err, availability.ErrNotFound)
}

func TestDisabledDates_PendingBreaksContinuity(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit, rate := seedUnit(t, s, 1, 100000)
	book(t, s, unit.ID, rate.ID, "2025-03-02", "2025-03-03", 1, model.StatusPending)

	got, err := s.DisabledDates(ctx, unit.ID, dayPtr("2025-03-01"), dayPtr("2025-03-04"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-03", "2025-03-04"}, keys(got))
}

func TestCalendar_WindowBound(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit, _ := seedUnit(t, s, 2, 100000)

	days, err := s.Calendar(ctx, unit.ID, day("2025-01-01"), day("2026-01-01"))
	require.NoError(t, err)
	assert.Len(t, days, 366)

	_, err = s.Calendar(ctx, unit.ID, day("2025-01-01"), day("2026-01-02"))
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)

	_, err = s.Calendar(ctx, unit.ID, day("2025-01-01"), day("2225-01-01"))
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)

	_, err = s.Calendar(ctx, unit.ID, day("2025-02-02"), day("2025-02-01"))
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)

	_, err = s.DisabledDates(ctx, unit.ID, dayPtr("2025-01-01"), dayPtr("2026-01-02"))
	require.NoError(t, err)

	_, err = s.DisabledDates(ctx, unit.ID, dayPtr("2025-01-01"), dayPtr("2225-01-01"))
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)
}
