package model

import "github.com/shopspring/decimal"

// Position is the derived current holding of one ticker. It is computed on
// demand from the transaction ledger plus the latest available price and is
// never persisted.
//
// MarketPrice is nil when no price could be resolved; in that case
// MarketValue and UnrealizedPnL are zero rather than unknown.
type Position struct {
	Ticker        string           `json:"ticker"`
	Quantity      decimal.Decimal  `json:"quantity"`
	AvgCost       decimal.Decimal  `json:"avgCost"`
	MarketPrice   *decimal.Decimal `json:"marketPrice"`
	MarketValue   decimal.Decimal  `json:"marketValue"`
	UnrealizedPnL decimal.Decimal  `json:"unrealizedPnl"`
}
