package service

import (
	"context"
	"sync"
	"time"

	"lunapos/internal/dto"
	"lunapos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. DB() returns nil so runTx executes the
// transaction body directly.

// ── TerminalRepository ───────────────────────────────────────────────────────

type fakeTerminalRepo struct {
	mu        sync.Mutex
	terminals map[uuid.UUID]*model.Terminal
	failWith  error
}

func newFakeTerminalRepo() *fakeTerminalRepo {
	return &fakeTerminalRepo{terminals: make(map[uuid.UUID]*model.Terminal)}
}

func (r *fakeTerminalRepo) add(t *model.Terminal) *model.Terminal {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.terminals[t.ID] = t
	return t
}

func (r *fakeTerminalRepo) Create(_ context.Context, t *model.Terminal) error {
	return r.CreateTx(nil, t)
}

func (r *fakeTerminalRepo) CreateTx(_ *gorm.DB, t *model.Terminal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	r.terminals[t.ID] = t
	return nil
}

func (r *fakeTerminalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Terminal, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.terminals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeTerminalRepo) ListActive(_ context.Context) ([]model.Terminal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Terminal
	for _, t := range r.terminals {
		if t.IsActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTerminalRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.terminals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.IsActive = false
	t.IsMain = false
	return nil
}

func (r *fakeTerminalRepo) ClearMainTx(_ *gorm.DB, exceptID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.terminals {
		if t.ID != exceptID {
			t.IsMain = false
		}
	}
	return nil
}

func (r *fakeTerminalRepo) DB() *gorm.DB { return nil }

// ── SessionRepository ────────────────────────────────────────────────────────

type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.CashSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*model.CashSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, s *model.CashSession) error {
	return r.CreateTx(nil, s)
}

func (r *fakeSessionRepo) CreateTx(_ *gorm.DB, s *model.CashSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.OpenedAt.IsZero() {
		s.OpenedAt = time.Now()
	}
	r.sessions[s.ID] = s
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *fakeSessionRepo) FindActive(_ context.Context, terminalID uuid.UUID) (*model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *model.CashSession
	for _, s := range r.sessions {
		if s.TerminalID == terminalID && s.Status == model.SessionOpen {
			if latest == nil || s.OpenedAt.After(latest.OpenedAt) {
				latest = s
			}
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeSessionRepo) ListOpen(_ context.Context, exclude *uuid.UUID) ([]model.CashSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashSession
	for _, s := range r.sessions {
		if s.Status != model.SessionOpen {
			continue
		}
		if exclude != nil && s.TerminalID == *exclude {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *fakeSessionRepo) ListClosed(_ context.Context, _, _ int) ([]model.CashSession, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashSession
	for _, s := range r.sessions {
		if s.Status == model.SessionClosed {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeSessionRepo) CloseTx(_ *gorm.DB, id uuid.UUID, closedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok || s.Status != model.SessionOpen {
		return false, nil
	}
	s.Status = model.SessionClosed
	at := closedAt
	s.ClosedAt = &at
	return true, nil
}

func (r *fakeSessionRepo) DB() *gorm.DB { return nil }

// ── SaleRepository ───────────────────────────────────────────────────────────

type fakeSaleRepo struct {
	mu         sync.Mutex
	sales      []model.Sale
	nextTicket int64
}

func newFakeSaleRepo() *fakeSaleRepo { return &fakeSaleRepo{} }

func (r *fakeSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	r.sales = append(r.sales, *s)
	return nil
}

func (r *fakeSaleRepo) NextTicketNumber(_ context.Context, _ *gorm.DB) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sales {
		if r.sales[i].ID == id {
			return &r.sales[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeSaleRepo) List(_ context.Context, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Sale, len(r.sales))
	copy(out, r.sales)
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) ListSince(_ context.Context, start time.Time, terminalID *uuid.UUID) ([]model.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Sale
	for _, s := range r.sales {
		if s.CreatedAt.Before(start) {
			continue
		}
		if terminalID != nil && s.TerminalID != *terminalID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *fakeSaleRepo) DB() *gorm.DB { return nil }

// ── ProductRepository ────────────────────────────────────────────────────────

type fakeProductRepo struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*model.Product
	movements []model.StockMovement
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *fakeProductRepo) add(p *model.Product) *model.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products[p.ID] = p
	return p
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *fakeProductRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Code == code && p.IsActive {
			clone := *p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	r.add(p)
	return nil
}

// DecrementStockTx serializes on the mutex the way the store serializes on
// the guarded UPDATE: under concurrency exactly one caller wins the last
// unit, and the winner gets its post-decrement stock back.
func (r *fakeProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return false, 0, gorm.ErrRecordNotFound
	}
	if p.Stock < qty {
		return false, p.Stock, nil
	}
	p.Stock -= qty
	return true, p.Stock, nil
}

func (r *fakeProductRepo) CreateMovementTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeProductRepo) ListMovements(_ context.Context, productID uuid.UUID, _ int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for _, m := range r.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeProductRepo) DB() *gorm.DB { return nil }

// ── CashCutRepository ────────────────────────────────────────────────────────

type fakeCutRepo struct {
	mu   sync.Mutex
	cuts []model.CashCut
}

func newFakeCutRepo() *fakeCutRepo { return &fakeCutRepo{} }

func (r *fakeCutRepo) Create(_ context.Context, c *model.CashCut) error {
	return r.CreateTx(nil, c)
}

func (r *fakeCutRepo) CreateTx(_ *gorm.DB, c *model.CashCut) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	r.cuts = append(r.cuts, *c)
	return nil
}

func (r *fakeCutRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashCut, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cuts {
		if r.cuts[i].ID == id {
			return &r.cuts[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCutRepo) FindBySessionID(_ context.Context, sessionID uuid.UUID) (*model.CashCut, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cuts {
		if r.cuts[i].SessionID != nil && *r.cuts[i].SessionID == sessionID {
			return &r.cuts[i], nil
		}
	}
	return nil, nil
}

func (r *fakeCutRepo) List(_ context.Context, cutType string, _, _ int) ([]model.CashCut, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashCut
	for _, c := range r.cuts {
		if cutType == "" || c.CutType == cutType {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeCutRepo) LastCutEnd(_ context.Context, cutType string, terminalID *uuid.UUID) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var last time.Time
	for _, c := range r.cuts {
		if c.CutType != cutType {
			continue
		}
		if terminalID != nil && c.TerminalID != *terminalID {
			continue
		}
		if c.EndTime.After(last) {
			last = c.EndTime
		}
	}
	return last, nil
}

// ── AuditRepository ──────────────────────────────────────────────────────────

type fakeAuditRepo struct {
	mu         sync.Mutex
	deliveries []model.AuditDelivery
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (r *fakeAuditRepo) Create(_ context.Context, a *model.AuditDelivery) error {
	return r.CreateTx(nil, a)
}

func (r *fakeAuditRepo) CreateTx(_ *gorm.DB, a *model.AuditDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	r.deliveries = append(r.deliveries, *a)
	return nil
}

func (r *fakeAuditRepo) FindByID(_ context.Context, id uuid.UUID) (*model.AuditDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.deliveries {
		if r.deliveries[i].ID == id {
			return &r.deliveries[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAuditRepo) Update(_ context.Context, a *model.AuditDelivery) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.deliveries {
		if r.deliveries[i].ID == a.ID {
			r.deliveries[i] = *a
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAuditRepo) ListPendingRetries(_ context.Context, now time.Time, limit int) ([]model.AuditDelivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditDelivery
	for _, d := range r.deliveries {
		if d.Status == model.DeliveryPending && d.NextRetryAt != nil && !d.NextRetryAt.After(now) {
			out = append(out, d)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *fakeAuditRepo) byEvent(event string) []model.AuditDelivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.AuditDelivery
	for _, d := range r.deliveries {
		if d.EventType == event {
			out = append(out, d)
		}
	}
	return out
}
