package service

import (
	"context"
	"testing"
	"time"

	"lunapos/internal/apierror"
	"lunapos/internal/dto"
	"lunapos/internal/model"
	"lunapos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reconFixture struct {
	terminalRepo *fakeTerminalRepo
	sessionRepo  *fakeSessionRepo
	saleRepo     *fakeSaleRepo
	cutRepo      *fakeCutRepo
	auditRepo    *fakeAuditRepo
	svc          ReconciliationService

	main  *model.Terminal
	other *model.Terminal
}

func newReconFixture(t *testing.T) *reconFixture {
	t.Helper()
	f := &reconFixture{
		terminalRepo: newFakeTerminalRepo(),
		sessionRepo:  newFakeSessionRepo(),
		saleRepo:     newFakeSaleRepo(),
		cutRepo:      newFakeCutRepo(),
		auditRepo:    newFakeAuditRepo(),
	}
	f.svc = NewReconciliationService(f.saleRepo, f.sessionRepo, f.terminalRepo, f.cutRepo, f.auditRepo, worker.NewDispatcher(nil), testConfig())
	f.main = f.terminalRepo.add(&model.Terminal{Name: "Main", IsMain: true, IsActive: true})
	f.other = f.terminalRepo.add(&model.Terminal{Name: "T1", IsActive: true})
	return f
}

func (f *reconFixture) openSession(t *testing.T, terminal *model.Terminal, staff string, fund decimal.Decimal) *model.CashSession {
	t.Helper()
	s := &model.CashSession{
		TerminalID:  terminal.ID,
		Terminal:    terminal,
		StaffName:   staff,
		OpeningFund: fund,
		Status:      model.SessionOpen,
		OpenedAt:    time.Now().Add(-time.Hour),
	}
	require.NoError(t, f.sessionRepo.Create(context.Background(), s))
	return s
}

func (f *reconFixture) addSale(t *testing.T, terminalID uuid.UUID, method string, total decimal.Decimal, amountForeign, rate *decimal.Decimal) {
	t.Helper()
	require.NoError(t, f.saleRepo.CreateTx(nil, &model.Sale{
		TerminalID:    terminalID,
		SessionID:     uuid.New(),
		Total:         total,
		Currency:      "MXN",
		PaymentMethod: method,
		AmountForeign: amountForeign,
		ExchangeRate:  rate,
	}))
}

func (f *reconFixture) mainActor() Actor {
	return Actor{UserID: uuid.New(), Username: "super", Role: "supervisor", TerminalID: f.main.ID, TerminalName: "Main", IsMain: true}
}

// Opening fund 500, cash sales of 100 and 250: the shift summary must
// report cashTotal 350 and expectedCash 850.
func TestComputeSummaryShift(t *testing.T) {
	f := newReconFixture(t)
	f.openSession(t, f.other, "maria", decimal.NewFromInt(500))
	f.addSale(t, f.other.ID, model.PayCash, decimal.NewFromInt(100), nil, nil)
	f.addSale(t, f.other.ID, model.PayCash, decimal.NewFromInt(250), nil, nil)
	f.addSale(t, f.other.ID, model.PayCard, decimal.NewFromInt(75), nil, nil)

	summary, err := f.svc.ComputeSummary(context.Background(), &f.other.ID, model.CutShift)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.SalesCount)
	assert.True(t, summary.CashTotal.Equal(decimal.NewFromInt(350)), "cashTotal = %s", summary.CashTotal)
	assert.True(t, summary.CardTotal.Equal(decimal.NewFromInt(75)))
	assert.True(t, summary.ExpectedCash.Equal(decimal.NewFromInt(850)), "expectedCash = %s", summary.ExpectedCash)
	assert.True(t, summary.ExpectedForeign.IsZero())
	assert.Equal(t, "MXN", summary.StoreCurrency)
	assert.Equal(t, "USD", summary.ForeignCurrency)
}

// A foreign sale of 200 MXN paid with 10 USD at rate 20 nets zero in the
// store-currency drawer and 10 in the foreign drawer.
func TestComputeSummaryForeignSaleNetsOut(t *testing.T) {
	f := newReconFixture(t)
	f.openSession(t, f.other, "maria", decimal.Zero)
	af := decimal.NewFromInt(10)
	rate := decimal.NewFromInt(20)
	f.addSale(t, f.other.ID, model.PayForeignCash, decimal.NewFromInt(200), &af, &rate)

	summary, err := f.svc.ComputeSummary(context.Background(), &f.other.ID, model.CutShift)
	require.NoError(t, err)

	assert.True(t, summary.ExpectedCash.IsZero(), "expectedCash = %s", summary.ExpectedCash)
	assert.True(t, summary.ExpectedForeign.Equal(decimal.NewFromInt(10)))
	assert.True(t, summary.SalesTotal.Equal(decimal.NewFromInt(200)))
}

// expectedCash == openingFund + cashTotal + Σ(total − amount_foreign×rate),
// exactly, including change given on foreign sales.
func TestComputeSummaryArithmeticLaw(t *testing.T) {
	f := newReconFixture(t)
	fund := decimal.NewFromFloat(333.33)
	f.openSession(t, f.other, "maria", fund)

	f.addSale(t, f.other.ID, model.PayCash, decimal.NewFromFloat(17.25), nil, nil)
	f.addSale(t, f.other.ID, model.PayTransfer, decimal.NewFromFloat(88.40), nil, nil)
	// 150.00 MXN paid with 8 USD at 17.85: drawer keeps 150 − 142.80 = 7.20
	af := decimal.NewFromInt(8)
	rate := decimal.NewFromFloat(17.85)
	f.addSale(t, f.other.ID, model.PayForeignCash, decimal.NewFromFloat(150.00), &af, &rate)

	summary, err := f.svc.ComputeSummary(context.Background(), &f.other.ID, model.CutShift)
	require.NoError(t, err)

	want := fund.
		Add(decimal.NewFromFloat(17.25)).
		Add(decimal.NewFromFloat(150.00).Sub(af.Mul(rate)))
	assert.True(t, summary.ExpectedCash.Equal(want), "expectedCash = %s, want %s", summary.ExpectedCash, want)
	assert.True(t, summary.TransferTotal.Equal(decimal.NewFromFloat(88.40)))
}

func TestComputeSummaryShiftRequiresTerminal(t *testing.T) {
	f := newReconFixture(t)

	_, err := f.svc.ComputeSummary(context.Background(), nil, model.CutShift)
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = f.svc.ComputeSummary(context.Background(), nil, "weekly")
	require.ErrorAs(t, err, &verr)
}

// Day summaries start at the end of the last day cut and span every
// terminal.
func TestComputeSummaryDayWindow(t *testing.T) {
	f := newReconFixture(t)
	lastClose := time.Now().Add(-3 * time.Hour)
	require.NoError(t, f.cutRepo.Create(context.Background(), &model.CashCut{
		CutType:    model.CutDay,
		TerminalID: f.main.ID,
		StartTime:  lastClose.Add(-24 * time.Hour),
		EndTime:    lastClose,
		StaffName:  "super",
	}))

	f.addSale(t, f.main.ID, model.PayCash, decimal.NewFromInt(40), nil, nil)
	f.addSale(t, f.other.ID, model.PayCash, decimal.NewFromInt(60), nil, nil)

	summary, err := f.svc.ComputeSummary(context.Background(), nil, model.CutDay)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.SalesCount)
	assert.True(t, summary.CashTotal.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, lastClose.Format(time.RFC3339), summary.StartTime)
}

// A day preview taken from the closing terminal folds in that terminal's
// own open-session float, so the previewed expected cash equals what the
// following DayClose records.
func TestComputeSummaryDayMatchesDayClose(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()

	f.openSession(t, f.main, "super", decimal.NewFromInt(500))
	f.addSale(t, f.main.ID, model.PayCash, decimal.NewFromInt(350), nil, nil)

	preview, err := f.svc.ComputeSummary(ctx, &f.main.ID, model.CutDay)
	require.NoError(t, err)
	assert.True(t, preview.OpeningFund.Equal(decimal.NewFromInt(500)))
	assert.True(t, preview.ExpectedCash.Equal(decimal.NewFromInt(850)), "previewed expectedCash = %s", preview.ExpectedCash)

	cut, err := f.svc.DayClose(ctx, f.mainActor(), dto.DayCloseRequest{
		CountedCash:    decimal.NewFromInt(850),
		CountedForeign: decimal.Zero,
	})
	require.NoError(t, err)
	assert.True(t, cut.ExpectedCash.Equal(preview.ExpectedCash))
	assert.True(t, cut.OpeningFund.Equal(preview.OpeningFund))
}

// BlockedError if and only if a terminal other than the closer has an open
// session.
func TestAssertDayCloseAllowed(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.AssertDayCloseAllowed(ctx, &f.main.ID))

	f.openSession(t, f.other, "maria", decimal.Zero)
	err := f.svc.AssertDayCloseAllowed(ctx, &f.main.ID)
	var blocked *apierror.BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Len(t, blocked.OpenSessions, 1)
	assert.Equal(t, "maria", blocked.OpenSessions[0].StaffName)

	// the closer's own open session does not block
	f.openSession(t, f.main, "super", decimal.Zero)
	err = f.svc.AssertDayCloseAllowed(ctx, &f.main.ID)
	require.ErrorAs(t, err, &blocked)
	assert.Len(t, blocked.OpenSessions, 1)
}

// T1 has an open session; the main terminal attempts a day close and gets a
// BlockedError naming T1 and its operator.
func TestDayCloseBlockedByOpenSession(t *testing.T) {
	f := newReconFixture(t)
	f.openSession(t, f.other, "maria", decimal.NewFromInt(100))

	_, err := f.svc.DayClose(context.Background(), f.mainActor(), dto.DayCloseRequest{
		CountedCash:    decimal.Zero,
		CountedForeign: decimal.Zero,
	})

	var blocked *apierror.BlockedError
	require.ErrorAs(t, err, &blocked)
	require.Len(t, blocked.OpenSessions, 1)
	assert.Equal(t, "T1", blocked.OpenSessions[0].TerminalName)
	assert.Equal(t, "maria", blocked.OpenSessions[0].StaffName)

	// no cut was produced
	cuts, _, err := f.cutRepo.List(context.Background(), model.CutDay, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, cuts)
}

func TestDayCloseRequiresMainTerminal(t *testing.T) {
	f := newReconFixture(t)
	actor := Actor{UserID: uuid.New(), Username: "maria", Role: "supervisor", TerminalID: f.other.ID, TerminalName: "T1"}

	_, err := f.svc.DayClose(context.Background(), actor, dto.DayCloseRequest{
		CountedCash:    decimal.Zero,
		CountedForeign: decimal.Zero,
	})
	var perm *apierror.PermissionError
	require.ErrorAs(t, err, &perm)
}

// The stored flag is the authority: a demoted terminal with a stale is_main
// claim must not close the day.
func TestDayCloseStaleMainClaim(t *testing.T) {
	f := newReconFixture(t)
	f.main.IsMain = false

	_, err := f.svc.DayClose(context.Background(), f.mainActor(), dto.DayCloseRequest{
		CountedCash:    decimal.Zero,
		CountedForeign: decimal.Zero,
	})
	var perm *apierror.PermissionError
	require.ErrorAs(t, err, &perm)
}

func TestDayClose(t *testing.T) {
	f := newReconFixture(t)
	ctx := context.Background()

	// the closer's own session stays open through the day close; its float
	// is part of the counted drawer
	f.openSession(t, f.main, "super", decimal.NewFromInt(500))
	f.addSale(t, f.main.ID, model.PayCash, decimal.NewFromInt(350), nil, nil)
	f.addSale(t, f.other.ID, model.PayCard, decimal.NewFromInt(120), nil, nil)

	cut, err := f.svc.DayClose(ctx, f.mainActor(), dto.DayCloseRequest{
		CountedCash:    decimal.NewFromInt(850),
		CountedForeign: decimal.Zero,
	})
	require.NoError(t, err)

	assert.Equal(t, model.CutDay, cut.CutType)
	assert.Equal(t, 2, cut.SalesCount)
	assert.True(t, cut.ExpectedCash.Equal(decimal.NewFromInt(850)), "expectedCash = %s", cut.ExpectedCash)
	assert.True(t, cut.Difference.IsZero())
	assert.Equal(t, "Main", cut.TerminalName)

	assert.Len(t, f.auditRepo.byEvent(model.AuditDayClosed), 1)

	// the cut is persisted and visible in the listing
	cuts, total, err := f.cutRepo.List(ctx, model.CutDay, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, cuts, 1)
	assert.Nil(t, cuts[0].SessionID)
}

func TestListCutsRejectsUnknownType(t *testing.T) {
	f := newReconFixture(t)

	_, err := f.svc.ListCuts(context.Background(), "monthly", 1, 10)
	var verr *apierror.ValidationError
	require.ErrorAs(t, err, &verr)
}
