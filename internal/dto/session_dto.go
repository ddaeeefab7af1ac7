package dto

import "github.com/shopspring/decimal"

// OpenSessionRequest starts a cash session on the caller's terminal with an
// opening float. The terminal is taken from the caller's terminal context,
// never from the body.
type OpenSessionRequest struct {
	OpeningFund decimal.Decimal `json:"opening_fund" validate:"min=0"`
}

// CloseSessionRequest supplies the counted amounts for the shift cut. The
// count is blind: expected figures are computed only after the declaration
// is received.
type CloseSessionRequest struct {
	CountedCash    decimal.Decimal `json:"counted_cash" validate:"min=0"`
	CountedForeign decimal.Decimal `json:"counted_foreign" validate:"min=0"`
	Notes          *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type SessionResponse struct {
	ID           string          `json:"id"`
	TerminalID   string          `json:"terminal_id"`
	TerminalName string          `json:"terminal_name,omitempty"`
	StaffName    string          `json:"staff_name"`
	OpeningFund  decimal.Decimal `json:"opening_fund"`
	Status       string          `json:"status"`
	OpenedAt     string          `json:"opened_at"`
	ClosedAt     *string         `json:"closed_at,omitempty"`

	// Cut is present on close responses and on reports of closed sessions.
	Cut *CashCutResponse `json:"cut,omitempty"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// BlockingSessionsResponse enumerates open sessions that prevent a day close.
type BlockingSessionsResponse struct {
	Blocking []BlockerResponse `json:"blocking"`
}

type BlockerResponse struct {
	TerminalName string `json:"terminal_name"`
	StaffName    string `json:"staff_name"`
	OpenedAt     string `json:"opened_at"`
}
