package dto

import "github.com/shopspring/decimal"

// ProductLookupResponse is the cached price/stock view used by terminals.
type ProductLookupResponse struct {
	ID    string          `json:"id"`
	Code  string          `json:"code"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type StockMovementResponse struct {
	ID        string  `json:"id"`
	Kind      string  `json:"kind"`
	Quantity  int     `json:"quantity"`
	StockPrev int     `json:"stock_prev"`
	StockNext int     `json:"stock_next"`
	Reason    string  `json:"reason,omitempty"`
	SaleID    *string `json:"sale_id,omitempty"`
	CreatedAt string  `json:"created_at"`
}
