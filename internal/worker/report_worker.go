package worker

// report_worker.go
// After a successful day close, renders the cash-cut PDF and emails it to
// the supervisor address. Best-effort: the day cut itself is already
// persisted; a failed report lands in the DLQ for manual resend.

import (
	"context"
	"encoding/json"
	"fmt"

	"lunapos/internal/config"
	"lunapos/internal/infra"
	"lunapos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type reportJobPayload struct {
	CutID string `json:"cut_id"`
}

type ReportWorker struct {
	cutRepo repository.CashCutRepository
	mailer  *infra.Mailer
	cfg     *config.Config
}

func NewReportWorker(cutRepo repository.CashCutRepository, mailer *infra.Mailer, cfg *config.Config) *ReportWorker {
	return &ReportWorker{cutRepo: cutRepo, mailer: mailer, cfg: cfg}
}

func (w *ReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload reportJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	id, err := uuid.Parse(payload.CutID)
	if err != nil {
		return err
	}

	cut, err := w.cutRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("report: load cut %s: %w", id, err)
	}

	pdfPath, err := infra.GenerateCutPDF(cut, w.cfg.StoreName, w.cfg.StoreCurrency, w.cfg.ForeignCurrency, w.cfg.PDFStoragePath)
	if err != nil {
		return err
	}

	if w.cfg.ReportEmail == "" {
		log.Info().Str("cut_id", id.String()).Str("pdf", pdfPath).Msg("report generated, no REPORT_EMAIL configured")
		return nil
	}

	subject := fmt.Sprintf("[%s] Day close %s", w.cfg.StoreName, cut.EndTime.Format("2006-01-02"))
	body := fmt.Sprintf("Day close completed by %s.\nExpected cash: %s %s — counted: %s %s (difference %s).",
		cut.StaffName,
		cut.ExpectedCash.StringFixed(2), w.cfg.StoreCurrency,
		cut.ActualCash.StringFixed(2), w.cfg.StoreCurrency,
		cut.Difference.StringFixed(2))

	if err := w.mailer.SendReport(w.cfg.ReportEmail, subject, body, pdfPath); err != nil {
		return fmt.Errorf("report: send email: %w", err)
	}

	log.Info().Str("cut_id", id.String()).Str("to", w.cfg.ReportEmail).Msg("day-close report sent")
	return nil
}
