package service

import (
	"context"
	"errors"
	"fmt"

	"lunapos/internal/apierror"
	"lunapos/internal/config"
	"lunapos/internal/dto"
	"lunapos/internal/model"
	"lunapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleService interface {
	RecordSale(ctx context.Context, actor Actor, req dto.RecordSaleRequest) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo        repository.SaleRepository
	sessionRepo repository.SessionRepository
	productRepo repository.ProductRepository
	cfg         *config.Config
}

func NewSaleService(
	repo repository.SaleRepository,
	sessionRepo repository.SessionRepository,
	productRepo repository.ProductRepository,
	cfg *config.Config,
) SaleService {
	return &saleService{
		repo:        repo,
		sessionRepo: sessionRepo,
		productRepo: productRepo,
		cfg:         cfg,
	}
}

// RecordSale creates the sale, its lines, the stock decrements, and the
// stock movements in one transaction:
//  1. require an open session on the caller's terminal
//  2. validate the payment shape (foreign cash needs amount + rate)
//  3. resolve products and price the lines (catalog prices, never client's)
//  4. BEGIN TX: nextval ticket, create sale+lines, guarded decrement per
//     line, movement rows
//  5. COMMIT — or roll the whole sale back on the first failed guard
func (s *saleService) RecordSale(ctx context.Context, actor Actor, req dto.RecordSaleRequest) (*dto.SaleResponse, error) {
	session, err := s.sessionRepo.FindActive(ctx, actor.TerminalID)
	if err != nil {
		return nil, apierror.NewTransient("active session lookup", err)
	}
	if session == nil {
		return nil, &apierror.InvalidStateError{Detail: "no open session on this terminal"}
	}

	currency := s.cfg.StoreCurrency
	var amountForeign, exchangeRate *decimal.Decimal
	if req.PaymentMethod == model.PayForeignCash {
		if req.AmountForeign == nil || !req.AmountForeign.IsPositive() {
			return nil, apierror.NewValidation("foreign cash sales require a positive amount_foreign")
		}
		if req.ExchangeRate == nil || !req.ExchangeRate.IsPositive() {
			return nil, apierror.NewValidation("foreign cash sales require a positive exchange_rate")
		}
		currency = s.cfg.ForeignCurrency
		amountForeign = req.AmountForeign
		exchangeRate = req.ExchangeRate
	}

	type resolvedLine struct {
		productID uuid.UUID
		name      string
		price     decimal.Decimal
		quantity  int
		lineTotal decimal.Decimal
	}

	var resolved []resolvedLine
	total := decimal.Zero
	for _, line := range req.Lines {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, apierror.NewValidation(fmt.Sprintf("invalid product id %q", line.ProductID))
		}
		if line.Quantity <= 0 {
			return nil, apierror.NewValidation("line quantity must be > 0")
		}
		p, err := s.productRepo.FindByID(ctx, pid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apierror.NewNotFound("product", line.ProductID)
			}
			return nil, apierror.NewTransient("product lookup", err)
		}
		if !p.IsActive {
			return nil, apierror.NewValidation(fmt.Sprintf("product %s is inactive", p.Name))
		}
		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		total = total.Add(lineTotal)
		resolved = append(resolved, resolvedLine{
			productID: pid,
			name:      p.Name,
			price:     p.Price,
			quantity:  line.Quantity,
			lineTotal: lineTotal,
		})
	}

	var sale model.Sale
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ticketNo, err := s.repo.NextTicketNumber(ctx, tx)
		if err != nil {
			return err
		}

		sale = model.Sale{
			TicketNo:      ticketNo,
			TerminalID:    actor.TerminalID,
			SessionID:     session.ID,
			StaffID:       actor.UserID,
			Total:         total,
			Currency:      currency,
			PaymentMethod: req.PaymentMethod,
			AmountForeign: amountForeign,
			ExchangeRate:  exchangeRate,
		}
		for _, r := range resolved {
			sale.Lines = append(sale.Lines, model.SaleLine{
				ProductID:   r.productID,
				ProductName: r.name,
				UnitPrice:   r.price,
				Quantity:    r.quantity,
				LineTotal:   r.lineTotal,
			})
		}
		if err := s.repo.CreateTx(tx, &sale); err != nil {
			return err
		}

		for _, r := range resolved {
			// The guarded UPDATE is the authority on whether the units
			// exist; failing it rolls back the whole sale, lines included.
			ok, stock, err := s.productRepo.DecrementStockTx(tx, r.productID, r.quantity)
			if err != nil {
				return err
			}
			if !ok {
				return &apierror.InsufficientStockError{
					ProductID:   r.productID.String(),
					ProductName: r.name,
					Requested:   r.quantity,
					Available:   stock,
				}
			}

			saleRef := sale.ID
			// Before/after come from the decrement's returned stock. A
			// separate read would not block on a concurrent seller's row
			// lock and could snapshot a quantity that transaction is
			// changing.
			mov := &model.StockMovement{
				ProductID: r.productID,
				Kind:      "sale",
				Quantity:  -r.quantity,
				StockPrev: stock + r.quantity,
				StockNext: stock,
				Reason:    fmt.Sprintf("Ticket #%d", ticketNo),
				SaleID:    &saleRef,
			}
			if err := s.productRepo.CreateMovementTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	log.Info().
		Int64("ticket", sale.TicketNo).
		Str("terminal_id", actor.TerminalID.String()).
		Str("method", sale.PaymentMethod).
		Str("total", sale.Total.StringFixed(2)).
		Msg("sale recorded")

	resp := saleToResponse(&sale)
	return &resp, nil
}

func (s *saleService) ListSales(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		out = append(out, saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(s *model.Sale) dto.SaleResponse {
	resp := dto.SaleResponse{
		ID:            s.ID.String(),
		TicketNo:      s.TicketNo,
		TerminalID:    s.TerminalID.String(),
		SessionID:     s.SessionID.String(),
		Total:         s.Total,
		Currency:      s.Currency,
		PaymentMethod: s.PaymentMethod,
		AmountForeign: s.AmountForeign,
		ExchangeRate:  s.ExchangeRate,
		CreatedAt:     fmtTime(s.CreatedAt),
	}
	for _, line := range s.Lines {
		resp.Lines = append(resp.Lines, dto.SaleLineResponse{
			ProductName: line.ProductName,
			UnitPrice:   line.UnitPrice,
			Quantity:    line.Quantity,
			LineTotal:   line.LineTotal,
		})
	}
	return resp
}
