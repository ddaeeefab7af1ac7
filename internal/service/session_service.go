package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/model"
	"lunapos/internal/repository"
	"lunapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type SessionService interface {
	Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	// Close stamps closed_at, flips status, and creates the shift cut in one
	// transaction. The count is blind: expected figures are computed only
	// after the counted amounts arrive.
	Close(ctx context.Context, actor Actor, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	GetActive(ctx context.Context, terminalID uuid.UUID) (*dto.SessionResponse, error)
	Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error)
	History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error)
	// OpenSessions lists every open session store-wide, optionally excluding
	// one terminal. Consumed by the day-close guard and its preview endpoint.
	OpenSessions(ctx context.Context, excludeTerminal *uuid.UUID) (*dto.BlockingSessionsResponse, error)
}

type sessionService struct {
	repo         repository.SessionRepository
	terminalRepo repository.TerminalRepository
	saleRepo     repository.SaleRepository
	cutRepo      repository.CashCutRepository
	auditRepo    repository.AuditRepository
	dispatcher   *worker.Dispatcher
}

func NewSessionService(
	repo repository.SessionRepository,
	terminalRepo repository.TerminalRepository,
	saleRepo repository.SaleRepository,
	cutRepo repository.CashCutRepository,
	auditRepo repository.AuditRepository,
	dispatcher *worker.Dispatcher,
) SessionService {
	return &sessionService{
		repo:         repo,
		terminalRepo: terminalRepo,
		saleRepo:     saleRepo,
		cutRepo:      cutRepo,
		auditRepo:    auditRepo,
		dispatcher:   dispatcher,
	}
}

func (s *sessionService) Open(ctx context.Context, actor Actor, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	if req.OpeningFund.IsNegative() {
		return nil, apierror.NewValidation("opening fund must be >= 0")
	}

	terminal, err := s.terminalRepo.FindByID(ctx, actor.TerminalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NewNotFound("terminal", actor.TerminalID.String())
		}
		return nil, apierror.NewTransient("terminal lookup", err)
	}
	if !terminal.IsActive {
		return nil, apierror.NewValidation("terminal is deactivated")
	}

	existing, err := s.repo.FindActive(ctx, actor.TerminalID)
	if err != nil {
		return nil, apierror.NewTransient("active session lookup", err)
	}
	if existing != nil {
		return nil, &apierror.InvalidStateError{
			Detail:    "terminal already has an open session",
			SessionID: existing.ID.String(),
			OpenedAt:  &existing.OpenedAt,
		}
	}

	staffID := actor.UserID
	session := model.CashSession{
		TerminalID:  actor.TerminalID,
		StaffID:     &staffID,
		StaffName:   actor.Username,
		OpeningFund: req.OpeningFund,
		Status:      model.SessionOpen,
		OpenedAt:    time.Now(),
	}

	var delivery *model.AuditDelivery
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// The partial unique index on (terminal_id) WHERE status='open'
		// rejects a racing second open here.
		if err := s.repo.CreateTx(tx, &session); err != nil {
			return err
		}
		ref := session.ID
		delivery = &model.AuditDelivery{
			EventType:  model.AuditSessionOpened,
			ActorName:  actor.Username,
			TerminalID: actor.TerminalID,
			Description: fmt.Sprintf("Session opened on %s by %s with fund %s",
				terminal.Name, actor.Username, req.OpeningFund.StringFixed(2)),
			ReferenceID: &ref,
			Status:      model.DeliveryPending,
		}
		return s.auditRepo.CreateTx(tx, delivery)
	})
	if txErr != nil {
		return nil, txErr
	}

	s.enqueueAudit(ctx, delivery)

	log.Info().
		Str("session_id", session.ID.String()).
		Str("terminal", terminal.Name).
		Str("staff", actor.Username).
		Msg("cash session opened")

	session.Terminal = terminal
	resp := sessionToResponse(&session, nil)
	return &resp, nil
}

func (s *sessionService) Close(ctx context.Context, actor Actor, sessionID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if req.CountedCash.IsNegative() || req.CountedForeign.IsNegative() {
		return nil, apierror.NewValidation("counted amounts must be >= 0")
	}

	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NewNotFound("session", sessionID.String())
		}
		return nil, apierror.NewTransient("session lookup", err)
	}
	if session.Status != model.SessionOpen {
		return nil, &apierror.InvalidStateError{
			Detail:    "session is already closed",
			SessionID: session.ID.String(),
			OpenedAt:  &session.OpenedAt,
		}
	}

	sales, err := s.saleRepo.ListSince(ctx, session.OpenedAt, &session.TerminalID)
	if err != nil {
		return nil, apierror.NewTransient("sales window query", err)
	}
	totals := summarizeSales(sales, session.OpeningFund)

	now := time.Now()
	cut := model.CashCut{
		CutType:    model.CutShift,
		TerminalID: session.TerminalID,
		SessionID:  &session.ID,
		StartTime:  session.OpenedAt,
		EndTime:    now,

		SalesCount:    totals.count,
		SalesTotal:    totals.salesTotal,
		CashTotal:     totals.cashTotal,
		CardTotal:     totals.cardTotal,
		TransferTotal: totals.transferTotal,
		OpeningFund:   session.OpeningFund,

		ExpectedCash: totals.expectedCash,
		ActualCash:   req.CountedCash,
		Difference:   req.CountedCash.Sub(totals.expectedCash),

		ExpectedForeign:   totals.expectedForeign,
		ActualForeign:     req.CountedForeign,
		DifferenceForeign: req.CountedForeign.Sub(totals.expectedForeign),

		StaffName: actor.Username,
		Notes:     req.Notes,
	}

	var delivery *model.AuditDelivery
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		// The status check above ran outside the tx; the guarded flip is the
		// authority. A racing second close loses here and writes no cut.
		closed, err := s.repo.CloseTx(tx, session.ID, now)
		if err != nil {
			return err
		}
		if !closed {
			return &apierror.InvalidStateError{
				Detail:    "session is already closed",
				SessionID: session.ID.String(),
				OpenedAt:  &session.OpenedAt,
			}
		}
		if err := s.cutRepo.CreateTx(tx, &cut); err != nil {
			return err
		}
		ref := session.ID
		delivery = &model.AuditDelivery{
			EventType:  model.AuditSessionClosed,
			ActorName:  actor.Username,
			TerminalID: session.TerminalID,
			Description: fmt.Sprintf("Session closed by %s: expected %s, counted %s, difference %s",
				actor.Username, cut.ExpectedCash.StringFixed(2),
				cut.ActualCash.StringFixed(2), cut.Difference.StringFixed(2)),
			ReferenceID: &ref,
			Status:      model.DeliveryPending,
		}
		return s.auditRepo.CreateTx(tx, delivery)
	})
	if txErr != nil {
		return nil, txErr
	}
	session.Status = model.SessionClosed
	session.ClosedAt = &now

	s.enqueueAudit(ctx, delivery)

	log.Info().
		Str("session_id", session.ID.String()).
		Str("difference", cut.Difference.StringFixed(2)).
		Int("sales", cut.SalesCount).
		Msg("cash session closed")

	resp := sessionToResponse(session, &cut)
	return &resp, nil
}

func (s *sessionService) GetActive(ctx context.Context, terminalID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindActive(ctx, terminalID)
	if err != nil {
		return nil, apierror.NewTransient("active session lookup", err)
	}
	if session == nil {
		return nil, apierror.NewNotFound("active session for terminal", terminalID.String())
	}
	resp := sessionToResponse(session, nil)
	return &resp, nil
}

func (s *sessionService) Report(ctx context.Context, sessionID uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NewNotFound("session", sessionID.String())
		}
		return nil, apierror.NewTransient("session lookup", err)
	}

	var cut *model.CashCut
	if session.Status == model.SessionClosed {
		cut, err = s.cutRepo.FindBySessionID(ctx, sessionID)
		if err != nil {
			return nil, apierror.NewTransient("cut lookup", err)
		}
	}

	resp := sessionToResponse(session, cut)
	return &resp, nil
}

func (s *sessionService) History(ctx context.Context, page, limit int) (*dto.SessionListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	sessions, total, err := s.repo.ListClosed(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionToResponse(&sessions[i], nil))
	}
	return &dto.SessionListResponse{Data: out, Total: total, Page: page, Limit: limit}, nil
}

func (s *sessionService) OpenSessions(ctx context.Context, excludeTerminal *uuid.UUID) (*dto.BlockingSessionsResponse, error) {
	sessions, err := s.repo.ListOpen(ctx, excludeTerminal)
	if err != nil {
		return nil, err
	}
	resp := &dto.BlockingSessionsResponse{Blocking: make([]dto.BlockerResponse, 0, len(sessions))}
	for i := range sessions {
		name := sessions[i].TerminalID.String()
		if sessions[i].Terminal != nil {
			name = sessions[i].Terminal.Name
		}
		resp.Blocking = append(resp.Blocking, dto.BlockerResponse{
			TerminalName: name,
			StaffName:    sessions[i].StaffName,
			OpenedAt:     fmtTime(sessions[i].OpenedAt),
		})
	}
	return resp, nil
}

func (s *sessionService) enqueueAudit(ctx context.Context, delivery *model.AuditDelivery) {
	if delivery == nil {
		return
	}
	payload := map[string]interface{}{"delivery_id": delivery.ID.String()}
	if err := s.dispatcher.EnqueueAudit(ctx, payload); err != nil {
		log.Warn().Err(err).Str("delivery_id", delivery.ID.String()).Msg("audit enqueue failed")
	}
}

func sessionToResponse(s *model.CashSession, cut *model.CashCut) dto.SessionResponse {
	resp := dto.SessionResponse{
		ID:          s.ID.String(),
		TerminalID:  s.TerminalID.String(),
		StaffName:   s.StaffName,
		OpeningFund: s.OpeningFund,
		Status:      s.Status,
		OpenedAt:    fmtTime(s.OpenedAt),
		ClosedAt:    fmtTimePtr(s.ClosedAt),
	}
	if s.Terminal != nil {
		resp.TerminalName = s.Terminal.Name
	}
	if cut != nil {
		c := cutToResponse(cut)
		resp.Cut = &c
	}
	return resp
}
