package availability

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey formats t as YYYY-MM-DD for use as a map key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", s, DateLayout)
	}
	return t, nil
}

// Nights lists the nights of the half-open range [from, to).
func Nights(from, to time.Time) []time.Time {
	from, to = Day(from), Day(to)
	var out []time.Time
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// StayBounds limits the stays accepted by ValidateStay.
type StayBounds struct {
	MinDate   time.Time
	MaxNights int
}

// ValidateStay rejects empty or inverted ranges, dates before the minimum
// date and stays longer than the maximum.
func ValidateStay(checkIn, checkOut time.Time, b StayBounds) error {
	checkIn, checkOut = Day(checkIn), Day(checkOut)
	if !checkOut.After(checkIn) {
		return NewInvalidDateRangeError(fmt.Sprintf("check_out %s must be after check_in %s", DateKey(checkOut), DateKey(checkIn)))
	}
	if !b.MinDate.IsZero() && checkIn.Before(Day(b.MinDate)) {
		return NewInvalidDateRangeError(fmt.Sprintf("check_in %s is before %s", DateKey(checkIn), DateKey(b.MinDate)))
	}
	if b.MaxNights > 0 {
		if n := len(Nights(checkIn, checkOut)); n > b.MaxNights {
			return NewInvalidDateRangeError(fmt.Sprintf("stay of %d nights exceeds %d", n, b.MaxNights))
		}
	}
	return nil
}
