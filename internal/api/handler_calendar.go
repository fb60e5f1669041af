package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lodging-availability-backend/internal/parse"
	"lodging-availability-backend/internal/store"
)

// GetCalendar returns the merged calendar of a unit.
func (h *Handler) GetCalendar(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	from, until, err := parse.CalendarRange(c.Query("from"), c.Query("until"), parse.CalendarWindow{
		Today:       h.opts.Now(),
		MinDate:     h.opts.MinDate,
		DefaultDays: h.opts.CalendarDefaultDays,
	})
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	days, err := h.store.Calendar(c.Request.Context(), unitID, from, until)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	out := make([]calendarDayResponse, 0, len(days))
	for _, d := range days {
		out = append(out, newCalendarDayResponse(d))
	}
	c.JSON(http.StatusOK, out)
}

type putCalendarRequest struct {
	Date     string `json:"date" binding:"required"`
	RateID   *int64 `json:"rate_id"`
	Quantity *int   `json:"quantity"`
	IsOpen   *bool  `json:"is_open"`
	Price    *int64 `json:"price"`
}

// PutCalendar applies an operator edit to one date of a unit.
func (h *Handler) PutCalendar(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	var req putCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	date, err := parse.Date(req.Date)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	day, err := h.store.WriteCalendar(c.Request.Context(), store.CalendarWrite{
		UnitID:   unitID,
		Date:     date,
		RateID:   req.RateID,
		Quantity: req.Quantity,
		IsOpen:   req.IsOpen,
		Price:    req.Price,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalendarDayResponse(*day))
}

// GetResolve returns the merged view of one date, optionally for one rate.
func (h *Handler) GetResolve(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := parse.Date(c.Query("date"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	rateID, err := parse.OptionalID(c.Query("rate_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	day, err := h.store.Resolve(c.Request.Context(), unitID, date, rateID)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCalendarDayResponse(*day))
}

// GetDisabledDates lists the dates a guest cannot pick.
func (h *Handler) GetDisabledDates(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := parse.OptionalDate(c.Query("check_in"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	checkOut, err := parse.OptionalDate(c.Query("check_out"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	dates, err := h.store.DisabledDates(c.Request.Context(), unitID, checkIn, checkOut)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"disabled_dates": dateStrings(dates)})
}

// GetQuote prices a stay on one rate, or on every rate of the unit when
// rate_id is omitted.
func (h *Handler) GetQuote(c *gin.Context) {
	unitID, err := parse.ID(c.Param("unit_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	checkIn, err := parse.Date(c.Query("check_in"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	checkOut, err := parse.Date(c.Query("check_out"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	qty, err := parse.Quantity(c.Query("qty"), 1)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	rateID, err := parse.OptionalID(c.Query("rate_id"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if rateID == nil {
		quotes, err := h.store.QuoteAllRates(ctx, unitID, checkIn, checkOut, qty)
		if err != nil {
			h.abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, newRatesQuoteResponse(*quotes))
		return
	}

	quote, err := h.store.Quote(ctx, store.QuoteRequest{
		UnitID:   unitID,
		RateID:   *rateID,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Quantity: qty,
	})
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newQuoteResponse(*quote))
}
