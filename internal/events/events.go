// Package events describes reservation lifecycle events and the publishers
// that carry them out of the engine after a change has committed.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"lodging-availability-backend/internal/model"
)

// Type names what happened to a reservation.
type Type string

const (
	TypeCreated       Type = "reservation.created"
	TypeStatusChanged Type = "reservation.status_changed"
	TypeDeleted       Type = "reservation.deleted"
)

// ReservationEvent is published after a booking, transition or destroy.
type ReservationEvent struct {
	EventID       string                  `json:"event_id"`
	EventType     Type                    `json:"event_type"`
	ReservationID int64                   `json:"reservation_id"`
	Code          string                  `json:"code"`
	UnitID        int64                   `json:"unit_id"`
	GuestName     string                  `json:"guest_name"`
	From          model.ReservationStatus `json:"from,omitempty"`
	To            model.ReservationStatus `json:"to"`
	CheckIn       time.Time               `json:"check_in"`
	CheckOut      time.Time               `json:"check_out"`
	Quantity      int                     `json:"quantity"`
	Timestamp     time.Time               `json:"timestamp"`
}

func newEvent(t Type, r *model.Reservation, now time.Time) ReservationEvent {
	return ReservationEvent{
		EventID:       uuid.NewString(),
		EventType:     t,
		ReservationID: r.ID,
		Code:          r.Code,
		UnitID:        r.UnitID,
		GuestName:     r.GuestName(),
		To:            r.Status,
		CheckIn:       r.CheckIn,
		CheckOut:      r.CheckOut,
		Quantity:      r.Quantity,
		Timestamp:     now.UTC(),
	}
}

// Created describes a new reservation.
func Created(r *model.Reservation, now time.Time) ReservationEvent {
	return newEvent(TypeCreated, r, now)
}

// StatusChanged describes a committed transition from -> to.
func StatusChanged(r *model.Reservation, from, to model.ReservationStatus, now time.Time) ReservationEvent {
	e := newEvent(TypeStatusChanged, r, now)
	e.From, e.To = from, to
	return e
}

// Deleted describes a destroyed reservation.
func Deleted(r *model.Reservation, now time.Time) ReservationEvent {
	e := newEvent(TypeDeleted, r, now)
	e.From = r.Status
	return e
}

// Publisher delivers events. Implementations must not block on slow
// consumers for longer than the context allows.
type Publisher interface {
	Publish(ctx context.Context, e ReservationEvent) error
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e ReservationEvent) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
