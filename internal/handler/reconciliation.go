package handler

import (
	"net/http"
	"strconv"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/model"
	"lunapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct{ svc service.ReconciliationService }

func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Summary godoc
// @Summary      Reconciliation preview
// @Description  Expected figures for the current cut window. type=shift scopes to one terminal (default: the caller's); type=day aggregates every terminal since the last day cut, viewed from the given terminal.
// @Tags         reconciliation
// @Produce      json
// @Security     BearerAuth
// @Param        type     query string true  "shift | day"
// @Param        terminal query string false "Terminal UUID (default: caller's terminal)"
// @Success      200 {object} dto.ReconciliationSummary
// @Failure      422 {object} apierror.ValidationError
// @Router       /v1/reconciliation/summary [get]
func (h *ReconciliationHandler) Summary(c *gin.Context) {
	cutType := c.DefaultQuery("type", model.CutShift)

	var terminalID *uuid.UUID
	if raw := c.Query("terminal"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
			return
		}
		terminalID = &id
	} else {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		id := actor.TerminalID
		terminalID = &id
	}

	resp, err := h.svc.ComputeSummary(c.Request.Context(), terminalID, cutType)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DayClose godoc
// @Summary      Store-wide day close
// @Description  Guarded day cut: only the main terminal may call it, and every other terminal must have closed its session first (423 lists the blockers).
// @Tags         reconciliation
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.DayCloseRequest true "Counted store-wide amounts"
// @Success      201  {object} dto.CashCutResponse
// @Failure      403  {object} apierror.APIError
// @Failure      423  {object} apierror.BlockedError
// @Router       /v1/reconciliation/day-close [post]
func (h *ReconciliationHandler) DayClose(c *gin.Context) {
	var req dto.DayCloseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	resp, err := h.svc.DayClose(c.Request.Context(), actor, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cuts godoc
// @Summary      List cash cuts
// @Tags         reconciliation
// @Produce      json
// @Security     BearerAuth
// @Param        type  query string false "shift | day"
// @Param        page  query int    false "Page (default 1)"
// @Param        limit query int    false "Rows per page (default 50)"
// @Success      200 {object} dto.CashCutListResponse
// @Router       /v1/reconciliation/cuts [get]
func (h *ReconciliationHandler) Cuts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.ListCuts(c.Request.Context(), c.Query("type"), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
