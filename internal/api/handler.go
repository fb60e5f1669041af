package api

import (
	"context"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lodging-availability-backend/internal/events"
	"lodging-availability-backend/internal/store"
)

const publishTimeout = 2 * time.Second

// Options holds the request defaults of the HTTP layer.
type Options struct {
	MinDate             time.Time
	CalendarDefaultDays int
	Now                 func() time.Time
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	publisher events.Publisher
	webpush   *webpush.Options
	log       *zap.Logger
	opts      Options
}

// NewHandler creates a new API handler. publisher and webpushOptions may be
// nil.
func NewHandler(s store.Store, publisher events.Publisher, webpushOptions *webpush.Options, log *zap.Logger, opts Options) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CalendarDefaultDays <= 0 {
		opts.CalendarDefaultDays = 30
	}
	return &Handler{
		store:     s,
		publisher: publisher,
		webpush:   webpushOptions,
		log:       log,
		opts:      opts,
	}
}

// publish hands an event to the publisher after the change committed.
// Failures are logged only.
func (h *Handler) publish(c *gin.Context, e events.ReservationEvent) {
	if h.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), publishTimeout)
	defer cancel()
	if err := h.publisher.Publish(ctx, e); err != nil {
		h.log.Warn("failed to publish reservation event",
			zap.String("event_type", string(e.EventType)),
			zap.Int64("reservation_id", e.ReservationID),
			zap.Error(err))
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
