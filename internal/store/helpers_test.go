package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appdb "lodging-availability-backend/internal/db"
	"lodging-availability-backend/internal/model"
)

var testNow = time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC)

// newTestStore opens a migrated SQLite database in a temp dir.
func newTestStore(t *testing.T) (Store, *gorm.DB) {
	t.Helper()
	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "store.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, appdb.Migrate(gormDB))

	opts := DefaultOptions()
	opts.Now = func() time.Time { return testNow }
	return NewGormStore(gormDB, opts), gormDB
}

// seedUnit creates a unit with a single rate.
func seedUnit(t *testing.T, s Store, qty int, price int64) (*model.Unit, *model.Rate) {
	t.Helper()
	unit := &model.Unit{Name: "Garden Villa", Qty: qty}
	require.NoError(t, s.CreateUnit(context.Background(), unit))
	rate := &model.Rate{UnitID: unit.ID, Name: "Room Only", Price: price}
	require.NoError(t, s.CreateRate(context.Background(), rate))
	return unit, rate
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func book(t *testing.T, s Store, unitID, rateID int64, in, out string, qty int, status model.ReservationStatus) *model.Reservation {
	t.Helper()
	r, err := s.Book(context.Background(), BookRequest{
		UnitID:    unitID,
		RateID:    rateID,
		CheckIn:   day(in),
		CheckOut:  day(out),
		Quantity:  qty,
		Status:    status,
		FirstName: "Ayu",
		LastName:  "Lestari",
	})
	require.NoError(t, err)
	return r
}

func keys(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format("2006-01-02")
	}
	return out
}
