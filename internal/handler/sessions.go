package handler

import (
	"net/http"
	"strconv"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SessionsHandler struct{ svc service.SessionService }

func NewSessionsHandler(svc service.SessionService) *SessionsHandler {
	return &SessionsHandler{svc: svc}
}

// Open godoc
// @Summary      Open a cash session
// @Description  Starts a session on the caller's terminal with an opening float. Fails with 409 if the terminal already has an open session.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenSessionRequest true "Opening fund"
// @Success      201  {object} dto.SessionResponse
// @Failure      409  {object} apierror.InvalidStateError
// @Failure      422  {object} apierror.ValidationError
// @Router       /v1/sessions [post]
func (h *SessionsHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	resp, err := h.svc.Open(c.Request.Context(), actor, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary      Close a cash session
// @Description  Blind count: takes the counted amounts, computes the expected figures, stamps closed_at and creates the shift cut atomically.
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string true "Session UUID"
// @Param        body body dto.CloseSessionRequest true "Counted amounts"
// @Success      200  {object} dto.SessionResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.InvalidStateError
// @Router       /v1/sessions/{id}/close [post]
func (h *SessionsHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	resp, err := h.svc.Close(c.Request.Context(), actor, id, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Active godoc
// @Summary      Get the active session
// @Description  Returns the open session for the given terminal (default: the caller's own), or 404 when there is none.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        terminal query string false "Terminal UUID (default: caller's terminal)"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/active [get]
func (h *SessionsHandler) Active(c *gin.Context) {
	var terminalID uuid.UUID
	if raw := c.Query("terminal"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
			return
		}
		terminalID = id
	} else {
		actor, ok := actorFromContext(c)
		if !ok {
			return
		}
		terminalID = actor.TerminalID
	}

	resp, err := h.svc.GetActive(c.Request.Context(), terminalID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Blocking godoc
// @Summary      List open sessions blocking a day close
// @Description  Read-only preview of the cross-terminal guard: every open session, optionally excluding one terminal.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        excludeTerminal query string false "Terminal UUID to exclude"
// @Success      200 {object} dto.BlockingSessionsResponse
// @Router       /v1/sessions/blocking [get]
func (h *SessionsHandler) Blocking(c *gin.Context) {
	var exclude *uuid.UUID
	if raw := c.Query("excludeTerminal"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid terminal id"))
			return
		}
		exclude = &id
	}

	resp, err := h.svc.OpenSessions(c.Request.Context(), exclude)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      List closed sessions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 50)"
// @Success      200 {object} dto.SessionListResponse
// @Router       /v1/sessions/history [get]
func (h *SessionsHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Report godoc
// @Summary      Session report
// @Description  Returns the session with its shift cut when closed.
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session UUID"
// @Success      200 {object} dto.SessionResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/sessions/{id} [get]
func (h *SessionsHandler) Report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid session id"))
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
