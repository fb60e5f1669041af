package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

func TestCatalog_UnitsAndRates(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)

	err := s.CreateUnit(ctx, &model.Unit{Name: " ", Qty: 1})
	assert.ErrorIs(t, err, availability.ErrValidation)
	err = s.CreateUnit(ctx, &model.Unit{Name: "Loft", Qty: -1})
	assert.ErrorIs(t, err, availability.ErrValidation)

	unit := &model.Unit{Name: "Loft", Qty: 2, Rates: []model.Rate{{Name: "Breakfast", Price: 90000}, {Name: "Room Only", Price: 75000}}}
	require.NoError(t, s.CreateUnit(ctx, unit))
	assert.Equal(t, "IDR", unit.Currency)

	got, err := s.GetUnit(ctx, unit.ID)
	require.NoError(t, err)
	require.Len(t, got.Rates, 2)
	assert.Equal(t, "Breakfast", got.Rates[0].Name)

	err = s.CreateRate(ctx, &model.Rate{UnitID: 999, Name: "Orphan", Price: 1})
	assert.ErrorIs(t, err, availability.ErrNotFound)

	name, price := "Bed & Breakfast", int64(95000)
	updated, err := s.UpdateRate(ctx, got.Rates[0].ID, &name, &price)
	require.NoError(t, err)
	assert.Equal(t, "Bed & Breakfast", updated.Name)
	assert.Equal(t, int64(95000), updated.Price)

	negative := int64(-5)
	_, err = s.UpdateRate(ctx, got.Rates[0].ID, nil, &negative)
	assert.ErrorIs(t, err, availability.ErrValidation)
	_, err = s.UpdateRate(ctx, 999, &name, nil)
	assert.ErrorIs(t, err, availability.ErrNotFound)

	// Deleting a rate drops its overrides but keeps the base row.
	rateID := got.Rates[1].ID
	override := int64(60000)
	_, err = s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-05-01"), RateID: &rateID, Price: &override})
	require.NoError(t, err)
	require.NoError(t, s.DeleteRate(ctx, rateID))

	var rows []model.CalendarRow
	require.NoError(t, db.Where("unit_id = ?", unit.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsBase())
	assert.ErrorIs(t, s.DeleteRate(ctx, rateID), availability.ErrNotFound)
}

func TestDeleteUnit(t *testing.T) {
	ctx := context.Background()
	s, db := newTestStore(t)
	busy, rate := seedUnit(t, s, 1, 100000)
	book(t, s, busy.ID, rate.ID, "2025-02-01", "2025-02-02", 1, model.StatusPending)

	assert.ErrorIs(t, s.DeleteUnit(ctx, busy.ID), availability.ErrValidation)

	idle, idleRate := seedUnit(t, s, 2, 100000)
	closed := false
	_, err := s.WriteCalendar(ctx, CalendarWrite{UnitID: idle.ID, Date: day("2025-02-01"), IsOpen: &closed})
	require.NoError(t, err)
	require.NoError(t, s.PutSubscription(ctx, model.PushSubscription{Endpoint: "https://push.example/a", P256DH: "k", Auth: "a"}, []int64{idle.ID}))

	require.NoError(t, s.DeleteUnit(ctx, idle.ID))
	_, err = s.GetUnit(ctx, idle.ID)
	assert.ErrorIs(t, err, availability.ErrNotFound)

	var left int64
	require.NoError(t, db.Model(&model.Rate{}).Where("id = ?", idleRate.ID).Count(&left).Error)
	assert.Zero(t, left)
	require.NoError(t, db.Model(&model.CalendarRow{}).Where("unit_id = ?", idle.ID).Count(&left).Error)
	assert.Zero(t, left)

	units, err := s.SubscribedUnits(ctx, "https://push.example/a")
	require.NoError(t, err)
	assert.Empty(t, units)

	assert.ErrorIs(t, s.DeleteUnit(ctx, idle.ID), availability.ErrNotFound)
}

func TestDeleteRate_KeepsReferencedRate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit, rate := seedUnit(t, s, 2, 100000)
	res := book(t, s, unit.ID, rate.ID, "2025-03-01", "2025-03-03", 1, model.StatusConfirmed)

	err := s.DeleteRate(ctx, rate.ID)
	assert.ErrorIs(t, err, availability.ErrValidation)

	got, err := s.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, rate.ID, got.RateID)
	_, err = s.GetUnit(ctx, unit.ID)
	require.NoError(t, err)

	// Once the reservation is gone the rate can be removed.
	_, err = s.DeleteReservation(ctx, res.ID)
	require.NoError(t, err)
	require.NoError(t, s.DeleteRate(ctx, rate.ID))
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	a, _ := seedUnit(t, s, 1, 1000)
	b, _ := seedUnit(t, s, 1, 1000)

	endpoint := "https://push.example/sub"
	require.NoError(t, s.PutSubscription(ctx, model.PushSubscription{Endpoint: endpoint, P256DH: "key1", Auth: "auth1"}, []int64{a.ID, b.ID}))

	units, err := s.SubscribedUnits(ctx, endpoint)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID}, units)

	// Re-subscribing replaces both the keys and the unit set.
	require.NoError(t, s.PutSubscription(ctx, model.PushSubscription{Endpoint: endpoint, P256DH: "key2", Auth: "auth2"}, []int64{b.ID}))
	units, err = s.SubscribedUnits(ctx, endpoint)
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, units)

	subs, err := s.SubscriptionsForUnit(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "key2", subs[0].P256DH)

	subs, err = s.SubscriptionsForUnit(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, subs)

	require.NoError(t, s.DeleteSubscription(ctx, endpoint))
	_, err = s.SubscribedUnits(ctx, endpoint)
	assert.ErrorIs(t, err, availability.ErrNotFound)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	unit := &model.Unit{Name: "Suite", Qty: 2, Rates: []model.Rate{{Name: "Flexible", Price: 100000}, {Name: "Saver", Price: 80001}}}
	require.NoError(t, s.CreateUnit(ctx, unit))
	flexible, saver := unit.Rates[0], unit.Rates[1]

	weekend := int64(130000)
	_, err := s.WriteCalendar(ctx, CalendarWrite{UnitID: unit.ID, Date: day("2025-06-07"), RateID: &flexible.ID, Price: &weekend})
	require.NoError(t, err)
	book(t, s, unit.ID, flexible.ID, "2025-06-07", "2025-06-08", 1, model.StatusConfirmed)

	q, err := s.Quote(ctx, QuoteRequest{UnitID: unit.ID, RateID: flexible.ID, CheckIn: day("2025-06-06"), CheckOut: day("2025-06-08"), Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, "Flexible", q.RateName)
	assert.Equal(t, 1, q.MinQuantity)
	assert.False(t, q.Available)
	require.Len(t, q.Breakdown.Nights, 2)
	assert.Equal(t, int64(100000), q.Breakdown.Nights[0].BasePrice)
	assert.Equal(t, int64(130000), q.Breakdown.Nights[1].BasePrice)
	assert.Equal(t, int64(460000), q.Breakdown.Subtotal)
	assert.Equal(t, int64(46000), q.Breakdown.Tax)

	all, err := s.QuoteAllRates(ctx, unit.ID, day("2025-06-06"), day("2025-06-08"), 1)
	require.NoError(t, err)
	assert.True(t, all.Available)
	require.Len(t, all.Quotes, 2)
	assert.Equal(t, saver.ID, all.Quotes[1].RateID)
	// 80001 * 0.10 rounds to 8000 per night.
	assert.Equal(t, int64(16000), all.Quotes[1].Breakdown.Tax)
	assert.Equal(t, int64(176002), all.Quotes[1].Breakdown.Total)

	_, err = s.Quote(ctx, QuoteRequest{UnitID: unit.ID, RateID: flexible.ID, CheckIn: day("2025-06-08"), CheckOut: day("2025-06-06"), Quantity: 1})
	assert.ErrorIs(t, err, availability.ErrInvalidDateRange)
	_, err = s.QuoteAllRates(ctx, 999, day("2025-06-06"), day("2025-06-08"), 1)
	assert.ErrorIs(t, err, availability.ErrNotFound)
}
