package dto

import "github.com/shopspring/decimal"

// ReconciliationSummary carries the expected figures for a window. It never
// includes counted amounts — those are supplied by the caller at close time.
type ReconciliationSummary struct {
	CutType    string `json:"cut_type"` // shift | day
	TerminalID string `json:"terminal_id,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`

	SalesCount    int             `json:"sales_count"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	CashTotal     decimal.Decimal `json:"cash_total"`
	CardTotal     decimal.Decimal `json:"card_total"`
	TransferTotal decimal.Decimal `json:"transfer_total"`

	OpeningFund     decimal.Decimal `json:"opening_fund"`
	ExpectedCash    decimal.Decimal `json:"expected_cash"`
	ExpectedForeign decimal.Decimal `json:"expected_foreign"`

	StoreCurrency   string `json:"store_currency"`
	ForeignCurrency string `json:"foreign_currency"`
}

// DayCloseRequest supplies the counted store-wide amounts for the day cut.
type DayCloseRequest struct {
	CountedCash    decimal.Decimal `json:"counted_cash" validate:"min=0"`
	CountedForeign decimal.Decimal `json:"counted_foreign" validate:"min=0"`
	Notes          *string         `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type CashCutResponse struct {
	ID           string `json:"id"`
	CutType      string `json:"cut_type"`
	TerminalID   string `json:"terminal_id"`
	TerminalName string `json:"terminal_name,omitempty"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`

	SalesCount    int             `json:"sales_count"`
	SalesTotal    decimal.Decimal `json:"sales_total"`
	CashTotal     decimal.Decimal `json:"cash_total"`
	CardTotal     decimal.Decimal `json:"card_total"`
	TransferTotal decimal.Decimal `json:"transfer_total"`
	OpeningFund   decimal.Decimal `json:"opening_fund"`

	ExpectedCash decimal.Decimal `json:"expected_cash"`
	ActualCash   decimal.Decimal `json:"actual_cash"`
	Difference   decimal.Decimal `json:"difference"`

	ExpectedForeign   decimal.Decimal `json:"expected_foreign"`
	ActualForeign     decimal.Decimal `json:"actual_foreign"`
	DifferenceForeign decimal.Decimal `json:"difference_foreign"`

	StaffName string  `json:"staff_name"`
	Notes     *string `json:"notes,omitempty"`
}

type CashCutListResponse struct {
	Data  []CashCutResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
