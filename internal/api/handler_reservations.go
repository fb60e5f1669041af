package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"lodging-availability-backend/internal/availability"
	"lodging-availability-backend/internal/events"
	"lodging-availability-backend/internal/metrics"
	"lodging-availability-backend/internal/model"
	"lodging-availability-backend/internal/parse"
	"lodging-availability-backend/internal/store"
)

type createReservationRequest struct {
	UnitID        int64  `json:"unit_id" binding:"required"`
	RateID        int64  `json:"rate_id" binding:"required"`
	CheckIn       string `json:"check_in" binding:"required"`
	CheckOut      string `json:"check_out" binding:"required"`
	Quantity      int    `json:"quantity"`
	Guests        int    `json:"guests"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	Source        string `json:"source"`
	Currency      string `json:"currency"`
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Notes         string `json:"notes"`
}

func (r createReservationRequest) toBookRequest() (store.BookRequest, error) {
	checkIn, err := parse.Date(r.CheckIn)
	if err != nil {
		return store.BookRequest{}, err
	}
	checkOut, err := parse.Date(r.CheckOut)
	if err != nil {
		return store.BookRequest{}, err
	}
	req := store.BookRequest{
		UnitID:        r.UnitID,
		RateID:        r.RateID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		Quantity:      r.Quantity,
		Guests:        r.Guests,
		PaymentStatus: model.PaymentStatus(strings.ToLower(strings.TrimSpace(r.PaymentStatus))),
		Source:        model.Source(strings.ToLower(strings.TrimSpace(r.Source))),
		Currency:      strings.ToUpper(strings.TrimSpace(r.Currency)),
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		Notes:         r.Notes,
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if strings.TrimSpace(r.Status) != "" {
		status, err := parse.Status(r.Status)
		if err != nil {
			return store.BookRequest{}, err
		}
		req.Status = status
	}
	return req, nil
}

func bookingOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeBooked
	case errors.Is(err, availability.ErrInsufficientCapacity):
		return metrics.OutcomeSoldOut
	case errors.Is(err, availability.ErrConcurrencyConflict):
		return metrics.OutcomeConflict
	case statusFor(err) < http.StatusInternalServerError:
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}

// CreateReservation books a stay.
func (h *Handler) CreateReservation(c *gin.Context) {
	var body createReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request")
		return
	}
	req, err := body.toBookRequest()
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	r, err := h.store.Book(c.Request.Context(), req)
	metrics.BookingsTotal.WithLabelValues(bookingOutcome(err)).Inc()
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	metrics.ObserveEffect(availability.CreationEffect(r.Status))

	h.log.Info("reservation created",
		zap.Int64("reservation_id", r.ID),
		zap.String("code", r.Code),
		zap.Int64("unit_id", r.UnitID),
		zap.String("status", string(r.Status)))
	h.publish(c, events.Created(r, h.opts.Now()))

	c.JSON(http.StatusCreated, newReservationResponse(r))
}

// GetReservation returns one reservation with its slots and details.
func (h *Handler) GetReservation(c *gin.Context) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.store.GetReservation(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newReservationResponse(r))
}

type patchStatusRequest struct {
	Status        string  `json:"status" binding:"required"`
	PaymentStatus *string `json:"payment_status"`
}

// PatchReservationStatus moves a reservation to a new status.
func (h *Handler) PatchReservationStatus(c *gin.Context) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req patchStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	to, err := parse.Status(req.Status)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var payment *model.PaymentStatus
	if req.PaymentStatus != nil {
		p := model.PaymentStatus(strings.ToLower(strings.TrimSpace(*req.PaymentStatus)))
		payment = &p
	}

	res, err := h.store.Transition(c.Request.Context(), id, to, payment)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	metrics.ObserveTransition(res.From, res.To, res.Effect)

	if res.From != res.To {
		h.log.Info("reservation status changed",
			zap.Int64("reservation_id", res.Reservation.ID),
			zap.String("from", string(res.From)),
			zap.String("to", string(res.To)))
		h.publish(c, events.StatusChanged(res.Reservation, res.From, res.To, h.opts.Now()))
	}
	c.JSON(http.StatusOK, newReservationResponse(res.Reservation))
}

// DeleteReservation destroys a reservation and returns its stock.
func (h *Handler) DeleteReservation(c *gin.Context) {
	id, err := parse.ID(c.Param("id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	r, err := h.store.DeleteReservation(c.Request.Context(), id)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	metrics.ObserveEffect(availability.DestroyEffect(r.Status))

	h.log.Info("reservation deleted", zap.Int64("reservation_id", r.ID), zap.String("code", r.Code))
	h.publish(c, events.Deleted(r, h.opts.Now()))

	c.Status(http.StatusNoContent)
}
