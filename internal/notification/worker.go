package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/events"
	"lodging-availability-backend/internal/model"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionSource looks up and prunes operator subscriptions.
type SubscriptionSource interface {
	SubscriptionsForUnit(ctx context.Context, unitID int64) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Payload is the JSON body delivered to the browser.
type Payload struct {
	Title         string      `json:"title"`
	Body          string      `json:"body"`
	EventType     events.Type `json:"event_type"`
	ReservationID int64       `json:"reservation_id"`
	UnitID        int64       `json:"unit_id"`
}

// WorkerPool sends reservation events to the operators subscribed to the
// event's unit.
type WorkerPool struct {
	size    int
	jobs    chan events.ReservationEvent
	subs    SubscriptionSource
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, subs SubscriptionSource, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan events.ReservationEvent, size*16),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case e := <-wp.jobs:
			wp.notifyUnit(ctx, e)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Publish queues an event. It gives up when ctx ends before a slot in the
// queue frees up, so a stalled push service never blocks a booking.
func (wp *WorkerPool) Publish(ctx context.Context, e events.ReservationEvent) error {
	select {
	case wp.jobs <- e:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("notification queue full: %w", ctx.Err())
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan events.ReservationEvent {
	return wp.jobs
}

func (wp *WorkerPool) notifyUnit(ctx context.Context, e events.ReservationEvent) {
	subscriptions, err := wp.subs.SubscriptionsForUnit(ctx, e.UnitID)
	if err != nil {
		wp.log.Error("failed to fetch subscriptions", zap.Int64("unit_id", e.UnitID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(NewPayload(e))
	if err != nil {
		wp.log.Error("failed to encode notification", zap.Error(err))
		return
	}
	wp.log.Info("sending reservation notifications",
		zap.Int64("unit_id", e.UnitID),
		zap.Int64("reservation_id", e.ReservationID),
		zap.Int("subscriptions", len(subscriptions)))

	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// NewPayload renders an event as a short operator notification.
func NewPayload(e events.ReservationEvent) Payload {
	stay := fmt.Sprintf("%s to %s, %d slot(s)", availability.DateKey(e.CheckIn), availability.DateKey(e.CheckOut), e.Quantity)
	p := Payload{EventType: e.EventType, ReservationID: e.ReservationID, UnitID: e.UnitID}
	switch e.EventType {
	case events.TypeCreated:
		p.Title = fmt.Sprintf("New %s reservation %s", e.To, e.Code)
		p.Body = fmt.Sprintf("%s, %s", e.GuestName, stay)
	case events.TypeStatusChanged:
		p.Title = fmt.Sprintf("Reservation %s is %s", e.Code, e.To)
		p.Body = fmt.Sprintf("%s (was %s), %s", e.GuestName, e.From, stay)
	default:
		p.Title = fmt.Sprintf("Reservation %s deleted", e.Code)
		p.Body = fmt.Sprintf("%s, %s", e.GuestName, stay)
	}
	return p
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	start := time.Now()
	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions are removed.
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		wp.log.Info("subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
		return
	}
	wp.log.Debug("notification sent",
		zap.String("endpoint", sub.Endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
}
