package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/request"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
)

// ValidateCreateTransaction validates a transaction creation request before
// any persistence attempt. The rules mirror the storage constraints so a bad
// payload is rejected here, never by a database error.
//
// Rules:
//   - ticker: required, non-empty after trimming
//   - date: YYYY-MM-DD, not in the future
//   - type: one of BUY, SELL, DIVIDEND, FEE (case-insensitive)
//   - BUY/SELL: quantity required and > 0, price required and >= 0, amount unused
//   - DIVIDEND/FEE: amount required and >= 0, quantity/price unused
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateCreateTransaction(req request.CreateTransactionRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Ticker) == "" {
		errors["ticker"] = "ticker is required"
	}

	txType := model.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if strings.TrimSpace(req.Type) == "" {
		errors["type"] = "type is required"
	} else if !model.ValidTransactionTypes[txType] {
		errors["type"] = fmt.Sprintf("invalid type: %s", req.Type)
	}

	if strings.TrimSpace(req.Date) == "" {
		errors["date"] = "date is required"
	} else if txDate, err := time.Parse("2006-01-02", req.Date); err != nil {
		errors["date"] = err.Error()
	} else if txDate.After(today()) {
		errors["date"] = "transaction date cannot be in the future"
	}

	switch txType {
	case model.TransactionBuy, model.TransactionSell:
		if req.Quantity == nil {
			errors["quantity"] = "quantity is required for BUY/SELL"
		} else if !req.Quantity.IsPositive() {
			errors["quantity"] = "quantity must be > 0 for BUY/SELL"
		}
		if req.Price == nil {
			errors["price"] = "price is required for BUY/SELL"
		} else if req.Price.IsNegative() {
			errors["price"] = "price must be >= 0 for BUY/SELL"
		}
	case model.TransactionDividend, model.TransactionFee:
		if req.Amount == nil {
			errors["amount"] = "amount is required for DIVIDEND/FEE"
		} else if req.Amount.IsNegative() {
			errors["amount"] = "amount must be >= 0 for DIVIDEND/FEE"
		}
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}

// today returns the current date truncated to midnight UTC, so a transaction
// dated today is accepted regardless of the time of day.
func today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
