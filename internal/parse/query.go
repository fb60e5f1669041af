package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

// ID parses a positive numeric identifier from a path or query value.
func ID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// OptionalID parses an id, returning nil for an empty value.
func OptionalID(raw string) (*int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := ID(raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Date parses a YYYY-MM-DD value.
func Date(raw string) (time.Time, error) {
	return availability.ParseDate(strings.TrimSpace(raw))
}

// OptionalDate parses a date, returning nil for an empty value.
func OptionalDate(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	d, err := Date(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Quantity parses a slot count, using fallback for an empty value.
func Quantity(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	q, err := strconv.Atoi(raw)
	if err != nil || q < 1 {
		return 0, fmt.Errorf("invalid quantity %q", raw)
	}
	return q, nil
}

// Status parses a reservation status name, accepting any case and
// "checked-in" style spellings.
func Status(raw string) (model.ReservationStatus, error) {
	s := model.ReservationStatus(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_"))
	if !s.Valid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

// CalendarWindow holds the defaults applied to a calendar read.
type CalendarWindow struct {
	Today       time.Time
	MinDate     time.Time
	DefaultDays int
}

// CalendarRange resolves the [from, until] window of a calendar read.
// from defaults to today and never precedes MinDate; until defaults to
// from plus DefaultDays, and an until before from collapses to from+1.
func CalendarRange(fromRaw, untilRaw string, w CalendarWindow) (time.Time, time.Time, error) {
	from := availability.Day(w.Today)
	if strings.TrimSpace(fromRaw) != "" {
		d, err := Date(fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = d
	}
	if !w.MinDate.IsZero() && from.Before(availability.Day(w.MinDate)) {
		from = availability.Day(w.MinDate)
	}

	until := from.AddDate(0, 0, w.DefaultDays)
	if strings.TrimSpace(untilRaw) != "" {
		d, err := Date(untilRaw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		until = d
	}
	if until.Before(from) {
		until = from.AddDate(0, 0, 1)
	}
	return from, until, nil
}
