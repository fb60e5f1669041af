package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lodging-availability-backend/internal/model"
	"lodging-availability-backend/internal/parse"
)

type rateRequest struct {
	Name  string `json:"name" binding:"required"`
	Price int64  `json:"price"`
}

type createUnitRequest struct {
	Name     string        `json:"name" binding:"required"`
	Qty      int           `json:"qty"`
	Currency string        `json:"currency"`
	Rates    []rateRequest `json:"rates"`
}

// CreateUnit creates a unit with its initial rates.
func (h *Handler) CreateUnit(c *gin.Context) {
	var req createUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	unit := model.Unit{Name: req.Name, Qty: req.Qty, Currency: req.Currency}
	for _, r := range req.Rates {
		unit.Rates = append(unit.Rates, model.Rate{Name: r.Name, Price: r.Price})
	}
	if err := h.store.CreateUnit(c.Request.Context(), &unit); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// GetUnit returns a unit with its rates.
func (h *Handler) GetUnit(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	unit, err := h.store.GetUnit(c.Request.Context(), unitID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// DeleteUnit removes a unit that has no reservations.
func (h *Handler) DeleteUnit(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.DeleteUnit(c.Request.Context(), unitID); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateRate adds a rate to a unit.
func (h *Handler) CreateRate(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	rate := model.Rate{UnitID: unitID, Name: req.Name, Price: req.Price}
	if err := h.store.CreateRate(c.Request.Context(), &rate); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rate)
}

type updateRateRequest struct {
	Name  *string `json:"name"`
	Price *int64  `json:"price"`
}

// UpdateRate renames or reprices a rate.
func (h *Handler) UpdateRate(c *gin.Context) {
	rateID, err := parse.ID(c.Param("rate_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req updateRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	rate, err := h.store.UpdateRate(c.Request.Context(), rateID, req.Name, req.Price)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// DeleteRate removes a rate and its calendar rows. A rate still referenced
// by reservations is rejected with 400.
func (h *Handler) DeleteRate(c *gin.Context) {
	rateID, err := parse.ID(c.Param("rate_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.store.DeleteRate(c.Request.Context(), rateID); err != nil {
		h.abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
