package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"lodging-availability-backend/internal/model"
)

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCalendarRange(t *testing.T) {
	window := CalendarWindow{
		Today:       time.Date(2025, 3, 10, 15, 4, 5, 0, time.UTC),
		MinDate:     date("2025-01-01"),
		DefaultDays: 30,
	}

	testCases := []struct {
		name          string
		from          string
		until         string
		expectedFrom  time.Time
		expectedUntil time.Time
		expectErr     bool
	}{
		{
			name:          "Defaults to today",
			expectedFrom:  date("2025-03-10"),
			expectedUntil: date("2025-04-09"),
		},
		{
			name:          "Explicit window",
			from:          "2025-02-01",
			until:         "2025-02-14",
			expectedFrom:  date("2025-02-01"),
			expectedUntil: date("2025-02-14"),
		},
		{
			name:          "Floored at the minimum date",
			from:          "2024-11-20",
			expectedFrom:  date("2025-01-01"),
			expectedUntil: date("2025-01-31"),
		},
		{
			name:          "Until before from",
			from:          "2025-05-10",
			until:         "2025-05-01",
			expectedFrom:  date("2025-05-10"),
			expectedUntil: date("2025-05-11"),
		},
		{
			name:      "Malformed from",
			from:      "10/05/2025",
			expectErr: true,
		},
		{
			name:      "Malformed until",
			until:     "tomorrow",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			from, until, err := CalendarRange(tc.from, tc.until, window)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expectedFrom, from)
			assert.Equal(t, tc.expectedUntil, until)
		})
	}
}

func TestStatus(t *testing.T) {
	testCases := []struct {
		raw       string
		expected  model.ReservationStatus
		expectErr bool
	}{
		{raw: "confirmed", expected: model.StatusConfirmed},
		{raw: " Checked-In ", expected: model.StatusCheckedIn},
		{raw: "CHECKED_OUT", expected: model.StatusCheckedOut},
		{raw: "archived", expectErr: true},
		{raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			s, err := Status(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, s)
		})
	}
}

func TestIDsAndQuantities(t *testing.T) {
	id, err := ID("42")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := ID(bad)
		assert.Error(t, err, bad)
	}

	opt, err := OptionalID("")
	assert.NoError(t, err)
	assert.Nil(t, opt)

	q, err := Quantity("", 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, q)
	q, err = Quantity("3", 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, q)
	_, err = Quantity("0", 1)
	assert.Error(t, err)

	d, err := OptionalDate("2025-02-01")
	assert.NoError(t, err)
	assert.Equal(t, date("2025-02-01"), *d)
	d, err = OptionalDate(" ")
	assert.NoError(t, err)
	assert.Nil(t, d)
}
