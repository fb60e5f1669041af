package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"lodging-availability-backend/internal/idempotency"
	"lodging-availability-backend/internal/metrics"
	"lodging-availability-backend/internal/mw"
	"lodging-availability-backend/internal/tracing"
)

// RouterConfig holds the middleware settings of the router.
type RouterConfig struct {
	RateLimit   float64
	Burst       int
	IPHeader    string
	Idempotency idempotency.Store
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(log), metrics.Middleware, tracing.Middleware())

	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.Idempotency == nil {
		cfg.Idempotency = idempotency.NewMemoryStore(idempotency.DefaultTTL)
	}
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimit), cfg.Burst, cfg.IPHeader)
	idempotent := mw.Idempotency(cfg.Idempotency, log)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.POST("/units", h.CreateUnit)
		api.GET("/units/:unit_id", h.GetUnit)
		api.DELETE("/units/:unit_id", h.DeleteUnit)
		api.POST("/units/:unit_id/rates", h.CreateRate)
		api.PUT("/rates/:rate_id", h.UpdateRate)
		api.DELETE("/rates/:rate_id", h.DeleteRate)

		api.GET("/units/:unit_id/calendar", h.GetCalendar)
		api.PUT("/units/:unit_id/calendar", h.PutCalendar)
		api.GET("/units/:unit_id/resolve", h.GetResolve)
		api.GET("/units/:unit_id/disabled-dates", h.GetDisabledDates)
		api.GET("/units/:unit_id/quote", h.GetQuote)

		api.POST("/reservations", idempotent, h.CreateReservation)
		api.GET("/reservations/:id", h.GetReservation)
		api.PATCH("/reservations/:id/status", h.PatchReservationStatus)
		api.DELETE("/reservations/:id", h.DeleteReservation)

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
