package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending    ReservationStatus = "pending"
	StatusConfirmed  ReservationStatus = "confirmed"
	StatusCancelled  ReservationStatus = "cancelled"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusExpired    ReservationStatus = "expired"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCheckedIn, StatusCheckedOut, StatusExpired:
		return true
	}
	return false
}

// ConsumesStock reports whether a reservation in this status is counted
// against the base row quantity.
func (s ReservationStatus) ConsumesStock() bool {
	return s == StatusConfirmed || s == StatusCheckedIn || s == StatusCheckedOut
}

// Released reports whether the status gives up its slots.
func (s ReservationStatus) Released() bool {
	return s == StatusCancelled || s == StatusExpired
}

// StockConsumingStatuses lists the statuses that hold inventory.
func StockConsumingStatuses() []ReservationStatus {
	return []ReservationStatus{StatusConfirmed, StatusCheckedIn, StatusCheckedOut}
}

// SlotHoldingStatuses lists the statuses whose slots block new allocations.
func SlotHoldingStatuses() []ReservationStatus {
	return []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn, StatusCheckedOut}
}

// PaymentStatus tracks settlement of a reservation.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentExpired  PaymentStatus = "expired"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPaid, PaymentRefunded, PaymentExpired:
		return true
	}
	return false
}

// Source is the channel a reservation came from.
type Source string

const (
	SourceDirect Source = "direct"
	SourceAgency Source = "agency"
	SourceOTA    Source = "ota"
	SourceOther  Source = "other"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceDirect, SourceAgency, SourceOTA, SourceOther:
		return true
	}
	return false
}

// Reservation is a guest booking of Quantity slots of a unit for the
// half-open stay [CheckIn, CheckOut).
type Reservation struct {
	ID            int64             `gorm:"primaryKey" json:"id"`
	Code          string            `gorm:"size:16;uniqueIndex;not null" json:"code"`
	UnitID        int64             `gorm:"not null;index:idx_reservations_unit_stay,priority:1" json:"unit_id"`
	RateID        int64             `gorm:"not null;index" json:"rate_id"`
	FirstName     string            `gorm:"size:255;not null" json:"first_name"`
	LastName      string            `gorm:"size:255" json:"last_name"`
	Email         string            `gorm:"size:255" json:"email"`
	Phone         string            `gorm:"size:64" json:"phone"`
	CheckIn       time.Time         `gorm:"type:date;not null;index:idx_reservations_unit_stay,priority:2" json:"check_in"`
	CheckOut      time.Time         `gorm:"type:date;not null;index:idx_reservations_unit_stay,priority:3" json:"check_out"`
	Guests        int               `gorm:"not null;default:1" json:"guests"`
	Quantity      int               `gorm:"not null;default:1" json:"quantity"`
	Subtotal      int64             `gorm:"not null;default:0" json:"subtotal"`
	TaxTotal      int64             `gorm:"not null;default:0" json:"tax_total"`
	ServiceTotal  int64             `gorm:"not null;default:0" json:"service_total"`
	ExtraTotal    int64             `gorm:"not null;default:0" json:"extra_total"`
	TotalPrice    int64             `gorm:"not null;default:0" json:"total_price"`
	Currency      string            `gorm:"size:3;not null" json:"currency"`
	Status        ReservationStatus `gorm:"size:16;not null;index" json:"status"`
	PaymentStatus PaymentStatus     `gorm:"size:16;not null" json:"payment_status"`
	Source        Source            `gorm:"size:16;not null" json:"source"`
	Notes         string            `gorm:"type:text" json:"notes"`
	BookedOn      time.Time         `gorm:"not null;index" json:"booked_on"`
	CreatedAt     time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null" json:"updated_at"`

	// Associations
	Slots   []ReservationSlot   `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"slots,omitempty"`
	Details []ReservationDetail `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"details,omitempty"`
}

// Nights is the number of nights covered by the stay.
func (r Reservation) Nights() int {
	return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// GuestName joins the guest's first and last name.
func (r Reservation) GuestName() string {
	if r.LastName == "" {
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// SlotIndices returns the slot numbers owned by the reservation.
func (r Reservation) SlotIndices() []int {
	out := make([]int, 0, len(r.Slots))
	for _, s := range r.Slots {
		out = append(out, s.SortOrder)
	}
	return out
}

// ReservationSlot binds a reservation to one concrete slot index of its unit.
type ReservationSlot struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	ReservationID int64     `gorm:"not null;uniqueIndex:idx_reservation_slots_res_order,priority:1" json:"reservation_id"`
	SortOrder     int       `gorm:"not null;uniqueIndex:idx_reservation_slots_res_order,priority:2" json:"sort_order"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}

// ReservationDetail is the immutable per-night price snapshot of a reservation.
type ReservationDetail struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	ReservationID int64     `gorm:"not null;uniqueIndex:idx_reservation_details_res_date_rate,priority:1" json:"reservation_id"`
	Date          time.Time `gorm:"type:date;not null;uniqueIndex:idx_reservation_details_res_date_rate,priority:2" json:"date"`
	RateID        int64     `gorm:"not null;uniqueIndex:idx_reservation_details_res_date_rate,priority:3" json:"rate_id"`
	Quantity      int       `gorm:"not null" json:"quantity"`
	BasePrice     int64     `gorm:"not null" json:"base_price"`
	Subtotal      int64     `gorm:"not null" json:"subtotal"`
	TaxAmount     int64     `gorm:"not null" json:"tax_amount"`
	ServiceFee    int64     `gorm:"not null;default:0" json:"service_fee"`
	ExtraCharge   int64     `gorm:"not null;default:0" json:"extra_charge"`
	TotalPrice    int64     `gorm:"not null" json:"total_price"`
	Currency      string    `gorm:"size:3;not null" json:"currency"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
}
