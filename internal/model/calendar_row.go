package model

import "time"

// CalendarRow holds the per-date overrides of a unit. A row with a nil
// RateID is the base row and carries Quantity and IsOpen; a row with a
// RateID carries a Price override only. Nil fields defer to the next
// source.
type CalendarRow struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UnitID    int64     `gorm:"not null;uniqueIndex:idx_calendar_rows_unit_date_rate,priority:1" json:"unit_id"`
	Date      time.Time `gorm:"type:date;not null;uniqueIndex:idx_calendar_rows_unit_date_rate,priority:2;index" json:"date"`
	RateID    *int64    `gorm:"uniqueIndex:idx_calendar_rows_unit_date_rate,priority:3" json:"rate_id"`
	Quantity  *int      `json:"quantity"`
	IsOpen    *bool     `json:"is_open"`
	Price     *int64    `json:"price"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// IsBase reports whether the row is the unit-wide row for its date.
func (r CalendarRow) IsBase() bool {
	return r.RateID == nil
}
