package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/model"
	"lunapos/internal/repository"
	"lunapos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type TerminalService interface {
	Register(ctx context.Context, actor Actor, req dto.RegisterTerminalRequest) (*dto.TerminalResponse, error)
	// ValidateExistence never returns an error: transient failures report
	// exists=true with confirmed=false so a flaky network can not
	// de-register a working terminal.
	ValidateExistence(ctx context.Context, id uuid.UUID) dto.ValidateTerminalResponse
	Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error
	List(ctx context.Context) ([]dto.TerminalResponse, error)
}

type terminalService struct {
	repo       repository.TerminalRepository
	auditRepo  repository.AuditRepository
	dispatcher *worker.Dispatcher
}

func NewTerminalService(repo repository.TerminalRepository, auditRepo repository.AuditRepository, dispatcher *worker.Dispatcher) TerminalService {
	return &terminalService{repo: repo, auditRepo: auditRepo, dispatcher: dispatcher}
}

// Register always creates a new terminal row, even when the name repeats an
// existing one: identity is per-device, not per-name. Promoting a new main
// terminal clears is_main on the previous one inside the same transaction
// (last-writer-wins).
func (s *terminalService) Register(ctx context.Context, actor Actor, req dto.RegisterTerminalRequest) (*dto.TerminalResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, apierror.NewValidation("terminal name must not be empty")
	}

	terminal := model.Terminal{
		Name:     strings.TrimSpace(req.Name),
		Location: req.Location,
		IsMain:   req.IsMain,
		IsActive: true,
	}

	var delivery *model.AuditDelivery
	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, &terminal); err != nil {
			return err
		}
		if req.IsMain {
			if err := s.repo.ClearMainTx(tx, terminal.ID); err != nil {
				return err
			}
		}
		ref := terminal.ID
		delivery = &model.AuditDelivery{
			EventType:   model.AuditTerminalEvent,
			ActorName:   actor.Username,
			TerminalID:  terminal.ID,
			Description: fmt.Sprintf("Terminal %q registered (main=%t)", terminal.Name, terminal.IsMain),
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
		Str("terminal_id", terminal.ID.String()).
		Str("name", terminal.Name).
		Bool("is_main", terminal.IsMain).
		Msg("terminal registered")

	resp := terminalToResponse(&terminal)
	return &resp, nil
}

func (s *terminalService) ValidateExistence(ctx context.Context, id uuid.UUID) dto.ValidateTerminalResponse {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Definitive answer: the row is gone (admin reset). The caller
			// must clear its cached identity and re-register.
			return dto.ValidateTerminalResponse{Exists: false, Confirmed: true}
		}
		// Transient failure — fail open.
		log.Warn().Err(err).Str("terminal_id", id.String()).
			Msg("terminal existence check failed, reporting exists")
		return dto.ValidateTerminalResponse{Exists: true, Confirmed: false}
	}
	return dto.ValidateTerminalResponse{Exists: t.IsActive, Confirmed: true}
}

func (s *terminalService) Deactivate(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apierror.NewNotFound("terminal", id.String())
		}
		return err
	}

	ref := id
	delivery := &model.AuditDelivery{
		EventType:   model.AuditTerminalEvent,
		ActorName:   actor.Username,
		TerminalID:  id,
		Description: fmt.Sprintf("Terminal %s deactivated", id),
		ReferenceID: &ref,
		Status:      model.DeliveryPending,
	}
	if err := s.auditRepo.Create(ctx, delivery); err != nil {
		log.Error().Err(err).Msg("failed to record deactivation audit entry")
	} else {
		s.enqueueAudit(ctx, delivery)
	}

	log.Info().Str("terminal_id", id.String()).Msg("terminal deactivated")
	return nil
}

func (s *terminalService) List(ctx context.Context) ([]dto.TerminalResponse, error) {
	terminals, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.TerminalResponse, 0, len(terminals))
	for i := range terminals {
		out = append(out, terminalToResponse(&terminals[i]))
	}
	return out, nil
}

func (s *terminalService) enqueueAudit(ctx context.Context, delivery *model.AuditDelivery) {
	if delivery == nil {
		return
	}
	payload := map[string]interface{}{"delivery_id": delivery.ID.String()}
	if err := s.dispatcher.EnqueueAudit(ctx, payload); err != nil {
		// The retry cron will pick the pending row up.
		log.Warn().Err(err).Str("delivery_id", delivery.ID.String()).Msg("audit enqueue failed")
	}
}

func terminalToResponse(t *model.Terminal) dto.TerminalResponse {
	return dto.TerminalResponse{
		ID:       t.ID.String(),
		Name:     t.Name,
		Location: t.Location,
		IsMain:   t.IsMain,
		IsActive: t.IsActive,
	}
}
