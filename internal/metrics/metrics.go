package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/model"
)

var (
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservation_transitions_total",
			Help: "Committed reservation status changes",
		},
		[]string{"from", "to"},
	)
	StockAdjustmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_adjustments_total",
			Help: "Stock adjustments applied to calendar base rows, counted per stay",
		},
		[]string{"mode"},
	)
)

// Booking outcomes.
const (
	OutcomeBooked   = "booked"
	OutcomeSoldOut  = "insufficient_capacity"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "error"
)

// ObserveEffect counts the stock adjustments an inventory effect performed.
func ObserveEffect(e availability.Effect) {
	if e.Reduce {
		StockAdjustmentsTotal.WithLabelValues(string(availability.ModeReduce)).Inc()
	}
	if e.Restore {
		StockAdjustmentsTotal.WithLabelValues(string(availability.ModeRestore)).Inc()
	}
}

// ObserveTransition counts a committed status change and its stock effect.
func ObserveTransition(from, to model.ReservationStatus, e availability.Effect) {
	if from == to {
		return
	}
	TransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	ObserveEffect(e)
}

// NormalizePath collapses a request path to its first two segments below
// /api so ids do not explode the label set.
func NormalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimPrefix(p, "api/")
	if idx := strings.Index(p, "/"); idx >= 0 {
		p = p[:idx]
	}
	if p == "" || p == "api" {
		return "root"
	}
	return p
}

func Middleware(c *gin.Context) {
	if c.Request.URL.Path == "/metrics" {
		c.Next()
		return
	}
	start := time.Now()
	c.Next()
	duration := time.Since(start).Seconds()
	path := c.FullPath()
	if path == "" {
		path = NormalizePath(c.Request.URL.Path)
	}
	status := strconv.Itoa(c.Writer.Status())
	RequestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	RequestDuration.WithLabelValues(c.Request.Method, path).Observe(duration)
}
