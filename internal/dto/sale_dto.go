package dto

import "github.com/shopspring/decimal"

// RecordSaleRequest captures a finished sale. Prices come from the catalog at
// record time, never from the client. For payment_method = foreign_cash both
// amount_foreign and exchange_rate are required and must be positive; sales
// without a rate are rejected at write time rather than zeroed later.
type RecordSaleRequest struct {
	Lines         []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card transfer foreign_cash"`
	AmountForeign *decimal.Decimal  `json:"amount_foreign,omitempty"`
	ExchangeRate  *decimal.Decimal  `json:"exchange_rate,omitempty"`
}

type SaleLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

type SaleResponse struct {
	ID            string             `json:"id"`
	TicketNo      int64              `json:"ticket_no"`
	TerminalID    string             `json:"terminal_id"`
	SessionID     string             `json:"session_id"`
	Total         decimal.Decimal    `json:"total"`
	Currency      string             `json:"currency"`
	PaymentMethod string             `json:"payment_method"`
	AmountForeign *decimal.Decimal   `json:"amount_foreign,omitempty"`
	ExchangeRate  *decimal.Decimal   `json:"exchange_rate,omitempty"`
	Lines         []SaleLineResponse `json:"lines"`
	CreatedAt     string             `json:"created_at"`
}

type SaleLineResponse struct {
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SaleFilter is bound from query parameters on the listing endpoint.
type SaleFilter struct {
	Date          string `form:"date"`     // YYYY-MM-DD, default today
	TerminalID    string `form:"terminal"` // optional terminal scope
	PaymentMethod string `form:"payment_method"`
	Page          int    `form:"page,default=1"`
	Limit         int    `form:"limit,default=50"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
