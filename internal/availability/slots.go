package availability

import (
	"sort"
	"time"

	"lodging-availability-backend/internal/model"
)

// Holding is an existing reservation that owns slots of a unit.
type Holding struct {
	ReservationID int64
	CheckIn       time.Time
	CheckOut      time.Time
	Quantity      int
	ConsumesStock bool
	Slots         []int
}

// HoldingsFrom converts reservations with preloaded slots into holdings.
func HoldingsFrom(reservations []model.Reservation) []Holding {
	out := make([]Holding, 0, len(reservations))
	for _, r := range reservations {
		out = append(out, Holding{
			ReservationID: r.ID,
			CheckIn:       Day(r.CheckIn),
			CheckOut:      Day(r.CheckOut),
			Quantity:      r.Quantity,
			ConsumesStock: r.Status.ConsumesStock(),
			Slots:         r.SlotIndices(),
		})
	}
	return out
}

// Overlaps reports whether the holding intersects [from, to).
func (h Holding) Overlaps(from, to time.Time) bool {
	return h.CheckIn.Before(to) && h.CheckOut.After(from)
}

// CoversNight reports whether the holding occupies the night starting on d.
func (h Holding) CoversNight(d time.Time) bool {
	return !h.CheckIn.After(d) && h.CheckOut.After(d)
}

// Consumed sums the quantity of stock-consuming holdings covering night d.
func Consumed(holdings []Holding, d time.Time) int {
	total := 0
	for _, h := range holdings {
		if h.ConsumesStock && h.CoversNight(d) {
			total += h.Quantity
		}
	}
	return total
}

// Occupied returns the slot indices held by any holding overlapping [from, to).
func Occupied(holdings []Holding, from, to time.Time) map[int]struct{} {
	occupied := make(map[int]struct{})
	for _, h := range holdings {
		if !h.Overlaps(from, to) {
			continue
		}
		for _, s := range h.Slots {
			occupied[s] = struct{}{}
		}
	}
	return occupied
}

// FreeSlots lists 1..capacity minus occupied, ascending.
func FreeSlots(capacity int, occupied map[int]struct{}) []int {
	free := make([]int, 0, capacity)
	for i := 1; i <= capacity; i++ {
		if _, taken := occupied[i]; !taken {
			free = append(free, i)
		}
	}
	return free
}

// Allocate picks the lowest quantity slot indices that are free for the
// whole stay [checkIn, checkOut). It does not persist anything.
func Allocate(capacity int, holdings []Holding, checkIn, checkOut time.Time, quantity int) ([]int, error) {
	if quantity < 1 {
		return nil, NewValidationError("quantity must be at least 1")
	}
	free := FreeSlots(capacity, Occupied(holdings, Day(checkIn), Day(checkOut)))
	if len(free) < quantity {
		return nil, NewInsufficientCapacityError(quantity, len(free))
	}
	picked := append([]int(nil), free[:quantity]...)
	sort.Ints(picked)
	return picked, nil
}
