package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lunapos/internal/apierror"
	"lunapos/internal/config"
	"lunapos/internal/dto"
	"lunapos/internal/model"
	"lunapos/internal/repository"
	"lunapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ReconciliationService interface {
	// ComputeSummary aggregates sales in the cut window and produces the
	// expected figures. It never reads counted amounts — those come from
	// the caller at close time. Shift summaries require a terminal; day
	// summaries span every terminal but still take the viewing terminal so
	// its own open-session float enters expected cash, matching DayClose.
	ComputeSummary(ctx context.Context, terminalID *uuid.UUID, cutType string) (*dto.ReconciliationSummary, error)
	// AssertDayCloseAllowed fails with BlockedError when any terminal other
	// than the excluded one still has an open session.
	AssertDayCloseAllowed(ctx context.Context, excludeTerminal *uuid.UUID) error
	// DayClose performs the guarded store-wide day cut. Only the main
	// terminal may call it.
	DayClose(ctx context.Context, actor Actor, req dto.DayCloseRequest) (*dto.CashCutResponse, error)
	ListCuts(ctx context.Context, cutType string, page, limit int) (*dto.CashCutListResponse, error)
}

type reconciliationService struct {
	saleRepo     repository.SaleRepository
	sessionRepo  repository.SessionRepository
	terminalRepo repository.TerminalRepository
	cutRepo      repository.CashCutRepository
	auditRepo    repository.AuditRepository
	dispatcher   *worker.Dispatcher
	cfg          *config.Config
}

func NewReconciliationService(
	saleRepo repository.SaleRepository,
	sessionRepo repository.SessionRepository,
	terminalRepo repository.TerminalRepository,
	cutRepo repository.CashCutRepository,
	auditRepo repository.AuditRepository,
	dispatcher *worker.Dispatcher,
	cfg *config.Config,
) ReconciliationService {
	return &reconciliationService{
		saleRepo:     saleRepo,
		sessionRepo:  sessionRepo,
		terminalRepo: terminalRepo,
		cutRepo:      cutRepo,
		auditRepo:    auditRepo,
		dispatcher:   dispatcher,
		cfg:          cfg,
	}
}

// saleTotals is the aggregate over one cut window.
type saleTotals struct {
	count         int
	salesTotal    decimal.Decimal
	cashTotal     decimal.Decimal
	cardTotal     decimal.Decimal
	transferTotal decimal.Decimal
	// expectedCash is openingFund + cashTotal + the store-currency net of
	// every foreign-cash sale: the sale adds total to the drawer on paper,
	// but amount_foreign x rate of it arrived in the foreign drawer, so the
	// store-currency drawer only moves by the difference (the change given).
	expectedCash    decimal.Decimal
	expectedForeign decimal.Decimal
}

func summarizeSales(sales []model.Sale, openingFund decimal.Decimal) saleTotals {
	t := saleTotals{
		count:           len(sales),
		salesTotal:      decimal.Zero,
		cashTotal:       decimal.Zero,
		cardTotal:       decimal.Zero,
		transferTotal:   decimal.Zero,
		expectedForeign: decimal.Zero,
	}
	foreignNet := decimal.Zero

	for i := range sales {
		sale := &sales[i]
		t.salesTotal = t.salesTotal.Add(sale.Total)

		switch sale.PaymentMethod {
		case model.PayCash:
			t.cashTotal = t.cashTotal.Add(sale.Total)
		case model.PayCard:
			t.cardTotal = t.cardTotal.Add(sale.Total)
		case model.PayTransfer:
			t.transferTotal = t.transferTotal.Add(sale.Total)
		case model.PayForeignCash:
			// amount_foreign and exchange_rate are mandatory at write time;
			// a nil here is a historical anomaly and the sale is skipped
			// from drawer arithmetic rather than treated as rate zero.
			if sale.AmountForeign == nil || sale.ExchangeRate == nil {
				continue
			}
			t.expectedForeign = t.expectedForeign.Add(*sale.AmountForeign)
			foreignValue := sale.AmountForeign.Mul(*sale.ExchangeRate)
			foreignNet = foreignNet.Add(sale.Total.Sub(foreignValue))
		}
	}

	t.expectedCash = openingFund.Add(t.cashTotal).Add(foreignNet)
	return t
}

func (s *reconciliationService) ComputeSummary(ctx context.Context, terminalID *uuid.UUID, cutType string) (*dto.ReconciliationSummary, error) {
	if cutType != model.CutShift && cutType != model.CutDay {
		return nil, apierror.NewValidation("cut type must be shift or day")
	}
	if cutType == model.CutShift && terminalID == nil {
		return nil, apierror.NewValidation("shift summary requires a terminal")
	}

	now := time.Now()
	start := startOfDay(now)
	openingFund := decimal.Zero
	scope := terminalID

	if cutType == model.CutShift {
		session, err := s.sessionRepo.FindActive(ctx, *terminalID)
		if err != nil {
			return nil, apierror.NewTransient("active session lookup", err)
		}
		if session != nil {
			start = session.OpenedAt
			openingFund = session.OpeningFund
		} else if lastEnd, err := s.cutRepo.LastCutEnd(ctx, model.CutShift, terminalID); err != nil {
			return nil, apierror.NewTransient("last cut lookup", err)
		} else if !lastEnd.IsZero() {
			start = lastEnd
		}
	} else {
		scope = nil // day cuts aggregate every terminal
		// The closing terminal's own open session, when there is one, keeps
		// its float in the drawer being counted. Folding it in here makes
		// the preview agree with the cut DayClose then records.
		if terminalID != nil {
			session, err := s.sessionRepo.FindActive(ctx, *terminalID)
			if err != nil {
				return nil, apierror.NewTransient("active session lookup", err)
			}
			if session != nil {
				openingFund = session.OpeningFund
			}
		}
		lastEnd, err := s.cutRepo.LastCutEnd(ctx, model.CutDay, nil)
		if err != nil {
			return nil, apierror.NewTransient("last cut lookup", err)
		}
		if !lastEnd.IsZero() {
			start = lastEnd
		}
	}

	sales, err := s.saleRepo.ListSince(ctx, start, scope)
	if err != nil {
		return nil, apierror.NewTransient("sales window query", err)
	}
	totals := summarizeSales(sales, openingFund)

	summary := &dto.ReconciliationSummary{
		CutType:         cutType,
		StartTime:       fmtTime(start),
		EndTime:         fmtTime(now),
		SalesCount:      totals.count,
		SalesTotal:      totals.salesTotal,
		CashTotal:       totals.cashTotal,
		CardTotal:       totals.cardTotal,
		TransferTotal:   totals.transferTotal,
		OpeningFund:     openingFund,
		ExpectedCash:    totals.expectedCash,
		ExpectedForeign: totals.expectedForeign,
		StoreCurrency:   s.cfg.StoreCurrency,
		ForeignCurrency: s.cfg.ForeignCurrency,
	}
	if terminalID != nil {
		summary.TerminalID = terminalID.String()
	}
	return summary, nil
}

func (s *reconciliationService) AssertDayCloseAllowed(ctx context.Context, excludeTerminal *uuid.UUID) error {
	sessions, err := s.sessionRepo.ListOpen(ctx, excludeTerminal)
	if err != nil {
		return apierror.NewTransient("open session scan", err)
	}
	if len(sessions) == 0 {
		return nil
	}

	blocked := &apierror.BlockedError{OpenSessions: make([]apierror.Blocker, 0, len(sessions))}
	for i := range sessions {
		name := sessions[i].TerminalID.String()
		if sessions[i].Terminal != nil {
			name = sessions[i].Terminal.Name
		}
		blocked.OpenSessions = append(blocked.OpenSessions, apierror.Blocker{
			TerminalName: name,
			StaffName:    sessions[i].StaffName,
		})
	}
	return blocked
}

func (s *reconciliationService) DayClose(ctx context.Context, actor Actor, req dto.DayCloseRequest) (*dto.CashCutResponse, error) {
	if req.CountedCash.IsNegative() || req.CountedForeign.IsNegative() {
		return nil, apierror.NewValidation("counted amounts must be >= 0")
	}

	// The stored flag is the authority, not the claim: a terminal demoted
	// after its token was minted must not close the day.
	terminal, err := s.terminalRepo.FindByID(ctx, actor.TerminalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NewNotFound("terminal", actor.TerminalID.String())
		}
		return nil, apierror.NewTransient("terminal lookup", err)
	}
	if !terminal.IsMain {
		return nil, &apierror.PermissionError{Detail: "day close is only allowed from the main terminal"}
	}

	excludeID := actor.TerminalID
	if err := s.AssertDayCloseAllowed(ctx, &excludeID); err != nil {
		return nil, err
	}

	now := time.Now()
	start := startOfDay(now)
	lastEnd, err := s.cutRepo.LastCutEnd(ctx, model.CutDay, nil)
	if err != nil {
		return nil, apierror.NewTransient("last cut lookup", err)
	}
	if !lastEnd.IsZero() {
		start = lastEnd
	}

	sales, err := s.saleRepo.ListSince(ctx, start, nil)
	if err != nil {
		return nil, apierror.NewTransient("sales window query", err)
	}

	// The caller's own session may still be open while closing the day; its
	// opening float is then still in the drawer being counted.
	openingFund := decimal.Zero
	ownSession, err := s.sessionRepo.FindActive(ctx, actor.TerminalID)
	if err != nil {
		return nil, apierror.NewTransient("active session lookup", err)
	}
	if ownSession != nil {
		openingFund = ownSession.OpeningFund
	}

	totals := summarizeSales(sales, openingFund)

	cut := model.CashCut{
		CutType:    model.CutDay,
		TerminalID: actor.TerminalID,
		StartTime:  start,
		EndTime:    now,

		SalesCount:    totals.count,
		SalesTotal:    totals.salesTotal,
		CashTotal:     totals.cashTotal,
		CardTotal:     totals.cardTotal,
		TransferTotal: totals.transferTotal,
		OpeningFund:   openingFund,

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
	txErr := runTx(ctx, s.sessionRepo.DB(), func(tx *gorm.DB) error {
		if err := s.cutRepo.CreateTx(tx, &cut); err != nil {
			return err
		}
		ref := cut.ID
		delivery = &model.AuditDelivery{
			EventType:  model.AuditDayClosed,
			ActorName:  actor.Username,
			TerminalID: actor.TerminalID,
			Description: fmt.Sprintf("Day closed by %s from %s: %d sales, expected %s, counted %s, difference %s",
				actor.Username, terminal.Name, cut.SalesCount,
				cut.ExpectedCash.StringFixed(2), cut.ActualCash.StringFixed(2),
				cut.Difference.StringFixed(2)),
			ReferenceID: &ref,
			Status:      model.DeliveryPending,
		}
		return s.auditRepo.CreateTx(tx, delivery)
	})
	if txErr != nil {
		return nil, txErr
	}

	if delivery != nil {
		payload := map[string]interface{}{"delivery_id": delivery.ID.String()}
		if err := s.dispatcher.EnqueueAudit(ctx, payload); err != nil {
			log.Warn().Err(err).Msg("audit enqueue failed")
		}
	}
	if err := s.dispatcher.EnqueueReport(ctx, map[string]interface{}{"cut_id": cut.ID.String()}); err != nil {
		log.Warn().Err(err).Str("cut_id", cut.ID.String()).Msg("report enqueue failed")
	}

	log.Info().
		Str("cut_id", cut.ID.String()).
		Str("staff", actor.Username).
		Int("sales", cut.SalesCount).
		Str("difference", cut.Difference.StringFixed(2)).
		Msg("day closed")

	cut.Terminal = terminal
	resp := cutToResponse(&cut)
	return &resp, nil
}

func (s *reconciliationService) ListCuts(ctx context.Context, cutType string, page, limit int) (*dto.CashCutListResponse, error) {
	if cutType != "" && cutType != model.CutShift && cutType != model.CutDay {
		return nil, apierror.NewValidation("cut type must be shift or day")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	cuts, total, err := s.cutRepo.List(ctx, cutType, page, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CashCutResponse, 0, len(cuts))
	for i := range cuts {
		out = append(out, cutToResponse(&cuts[i]))
	}
	return &dto.CashCutListResponse{Data: out, Total: total, Page: page, Limit: limit}, nil
}

func cutToResponse(c *model.CashCut) dto.CashCutResponse {
	resp := dto.CashCutResponse{
		ID:         c.ID.String(),
		CutType:    c.CutType,
		TerminalID: c.TerminalID.String(),
		StartTime:  fmtTime(c.StartTime),
		EndTime:    fmtTime(c.EndTime),

		SalesCount:    c.SalesCount,
		SalesTotal:    c.SalesTotal,
		CashTotal:     c.CashTotal,
		CardTotal:     c.CardTotal,
		TransferTotal: c.TransferTotal,
		OpeningFund:   c.OpeningFund,

		ExpectedCash: c.ExpectedCash,
		ActualCash:   c.ActualCash,
		Difference:   c.Difference,

		ExpectedForeign:   c.ExpectedForeign,
		ActualForeign:     c.ActualForeign,
		DifferenceForeign: c.DifferenceForeign,

		StaffName: c.StaffName,
		Notes:     c.Notes,
	}
	if c.Terminal != nil {
		resp.TerminalName = c.Terminal.Name
	}
	return resp
}
