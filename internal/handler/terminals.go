package handler

import (
	"net/http"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TerminalsHandler struct{ svc service.TerminalService }

func NewTerminalsHandler(svc service.TerminalService) *TerminalsHandler {
	return &TerminalsHandler{svc: svc}
}

// Register godoc
// @Summary      Register a terminal
// @Description  Creates a new terminal identity. Always mints a fresh id, even for duplicate names. Requesting is_main demotes the previous main terminal.
// @Tags         terminals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegisterTerminalRequest true "Terminal data"
// @Success      201  {object} dto.TerminalResponse
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/terminals [post]
func (h *TerminalsHandler) Register(c *gin.Context) {
	var req dto.RegisterTerminalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	// First-run registration: the caller has no terminal identity yet.
	actor, ok := staffFromContext(c)
	if !ok {
		return
	}

	resp, err := h.svc.Register(c.Request.Context(), actor, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Validate godoc
// @Summary      Check a terminal still exists
// @Description  App-start staleness check. Transient failures report exists=true with confirmed=false (fail open); callers clear their cached identity only on a confirmed non-existence.
// @Tags         terminals
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Terminal UUID"
// @Success      200 {object} dto.ValidateTerminalResponse
// @Router       /v1/terminals/{id}/validate [get]
func (h *TerminalsHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
		return
	}
	c.JSON(http.StatusOK, h.svc.ValidateExistence(c.Request.Context(), id))
}

// Deactivate godoc
// @Summary      Deactivate a terminal
// @Description  Soft delete. Terminals with sales history are never hard-deleted.
// @Tags         terminals
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Terminal UUID"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/terminals/{id} [delete]
func (h *TerminalsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
		return
	}
	actor, ok := staffFromContext(c)
	if !ok {
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), actor, id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary      List active terminals
// @Tags         terminals
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} dto.TerminalResponse
// @Router       /v1/terminals [get]
func (h *TerminalsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
