package model

import "time"

// Unit is a lodging unit with a fixed number of interchangeable slots,
// numbered 1..Qty.
type Unit struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Qty       int       `gorm:"not null;default:0" json:"qty"`
	Currency  string    `gorm:"size:3;not null;default:IDR" json:"currency"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Rates []Rate `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE" json:"rates,omitempty"`
}

// Rate is a named price plan of a unit. Price is in whole currency units.
type Rate struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UnitID    int64     `gorm:"index;not null" json:"unit_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Price     int64     `gorm:"not null;default:0" json:"price"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
