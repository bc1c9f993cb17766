package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the supported ledger entry kinds.
type TransactionType string

// Supported transaction types. BUY/SELL affect position quantity;
// DIVIDEND/FEE are cash events and never affect quantity.
const (
	TransactionBuy      TransactionType = "BUY"
	TransactionSell     TransactionType = "SELL"
	TransactionDividend TransactionType = "DIVIDEND"
	TransactionFee      TransactionType = "FEE"
)

// ValidTransactionTypes contains the allowed transaction type values.
var ValidTransactionTypes = map[TransactionType]bool{
	TransactionBuy: true, TransactionSell: true,
	TransactionDividend: true, TransactionFee: true,
}

// Transaction represents a single ledger entry for a portfolio.
//
// Field usage is type-conditional: BUY/SELL carry Quantity (> 0) and
// Price (>= 0) with Amount unused; DIVIDEND/FEE carry Amount (>= 0) with
// Quantity/Price unused. Transactions are immutable once created except
// by deletion.
type Transaction struct {
	ID          string           `json:"id"`
	PortfolioID string           `json:"portfolioId"`
	Ticker      string           `json:"ticker"`
	Date        time.Time        `json:"date"`
	Type        TransactionType  `json:"type"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	CreatedAt   time.Time        `json:"createdAt,omitempty"`
}

// PositionAggregate is the per-ticker net of all BUY/SELL transactions:
// signed quantity (+buy, -sell) and signed cost (quantity x price with the
// same sign). Produced by the ledger aggregation, consumed by the position
// snapshot.
type PositionAggregate struct {
	Ticker   string
	Quantity decimal.Decimal
	Cost     decimal.Decimal
}
