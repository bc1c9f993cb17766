package request

import "github.com/shopspring/decimal"

// CreateTransactionRequest represents the request body for recording a
// transaction. Quantity, price and amount are decimals so values arrive
// without floating-point drift; which of them are required depends on the
// transaction type (see validation.ValidateCreateTransaction).
type CreateTransactionRequest struct {
	Ticker   string           `json:"ticker"`
	Date     string           `json:"date"`
	Type     string           `json:"type"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
}
