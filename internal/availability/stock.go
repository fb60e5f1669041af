package availability

import "lodging-availability-backend/internal/model"

// Mode is the direction of a stock adjustment.
type Mode string

const (
	ModeReduce  Mode = "reduce"
	ModeRestore Mode = "restore"
)

// Adjust returns the new base row quantity after applying amount in the
// given mode. A nil current quantity is materialized as the unit capacity.
func Adjust(current *int, capacity int, mode Mode, amount int) int {
	q := capacity
	if current != nil {
		q = *current
	}
	switch mode {
	case ModeReduce:
		q -= amount
		if q < 0 {
			q = 0
		}
	case ModeRestore:
		q += amount
		if q > capacity {
			q = capacity
		}
	}
	return q
}

// Effect is what a status transition does to inventory.
type Effect struct {
	Reduce       bool
	Restore      bool
	ReleaseSlots bool
}

var transitions = map[model.ReservationStatus][]model.ReservationStatus{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled, model.StatusExpired},
	model.StatusConfirmed: {model.StatusCheckedIn, model.StatusCancelled, model.StatusExpired},
	model.StatusCheckedIn: {model.StatusCheckedOut, model.StatusCancelled, model.StatusExpired},
}

// CanTransition reports whether from may move to to. A same-status request
// is always allowed and has no effect. Moves outside the table, such as
// pending -> checked_in or cancelled -> confirmed, are rejected: they would
// either occupy nights without reducing stock or revive a reservation whose
// slots were already released to other guests.
func CanTransition(from, to model.ReservationStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionEffect returns the inventory effect of moving from -> to.
func TransitionEffect(from, to model.ReservationStatus) Effect {
	var e Effect
	if from == to {
		return e
	}
	if from == model.StatusPending && to == model.StatusConfirmed {
		e.Reduce = true
	}
	if to.Released() {
		e.ReleaseSlots = true
		if from == model.StatusConfirmed || from == model.StatusCheckedIn {
			e.Restore = true
		}
	}
	return e
}

// CreationEffect returns the inventory effect of booking directly into status.
func CreationEffect(status model.ReservationStatus) Effect {
	return Effect{Reduce: status.ConsumesStock()}
}

// DestroyEffect returns the cleanup performed when a reservation is deleted.
// Stock is only given back while the reservation still consumes it, so
// destroying a cancelled or expired reservation does not restore twice.
func DestroyEffect(status model.ReservationStatus) Effect {
	return Effect{Restore: status.ConsumesStock(), ReleaseSlots: true}
}
