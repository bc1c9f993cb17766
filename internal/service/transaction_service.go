package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/request"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/validation"
)

// ledgerQuant is the fixed-point precision of stored ledger decimals.
const ledgerQuant = 8

// TransactionService handles ledger operations for portfolios.
// Transactions are immutable: they can be created and deleted, never updated.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	portfolioRepo   *repository.PortfolioRepository
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	portfolioRepo *repository.PortfolioRepository,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		portfolioRepo:   portfolioRepo,
	}
}

// Create validates and records a ledger entry for a portfolio. Decimals are
// quantized to 8 digits before validation, so a quantity that rounds to zero
// is rejected as bad input rather than tripping a storage constraint.
// Validation runs before any persistence attempt; a payload violating the
// type-conditional field rules is never written. Fields a type does not use
// are discarded rather than stored.
func (s *TransactionService) Create(portfolioID string, req request.CreateTransactionRequest) (model.Transaction, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return model.Transaction{}, err
	}
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return model.Transaction{}, err
	}
	req.Quantity = quantize(req.Quantity)
	req.Price = quantize(req.Price)
	req.Amount = quantize(req.Amount)
	if err := validation.ValidateCreateTransaction(req); err != nil {
		return model.Transaction{}, err
	}

	txDate, err := repository.ParseTime(req.Date)
	if err != nil {
		return model.Transaction{}, err
	}
	txType := model.TransactionType(strings.ToUpper(strings.TrimSpace(req.Type)))

	transaction := model.Transaction{
		ID:          uuid.NewString(),
		PortfolioID: portfolioID,
		Ticker:      strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Date:        txDate,
		Type:        txType,
		CreatedAt:   time.Now().UTC(),
	}
	switch txType {
	case model.TransactionBuy, model.TransactionSell:
		transaction.Quantity = req.Quantity
		transaction.Price = req.Price
	case model.TransactionDividend, model.TransactionFee:
		transaction.Amount = req.Amount
	}

	if err := s.transactionRepo.Insert(transaction); err != nil {
		return model.Transaction{}, err
	}
	return transaction, nil
}

// List returns a portfolio's transactions matching the filter, ordered by
// date then creation order. The portfolio must exist.
func (s *TransactionService) List(portfolioID string, filter repository.TransactionFilter) ([]model.Transaction, error) {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return nil, err
	}
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return nil, err
	}
	if filter.Ticker != "" {
		filter.Ticker = strings.ToUpper(strings.TrimSpace(filter.Ticker))
	}
	return s.transactionRepo.List(portfolioID, filter)
}

// Ledger returns the full ordered transaction history of a portfolio with
// dates bounded at upTo. This is the read used by the analytics engine, so
// transactions dated after the requested window never leak into it.
func (s *TransactionService) Ledger(portfolioID string, upTo time.Time) ([]model.Transaction, error) {
	return s.transactionRepo.List(portfolioID, repository.TransactionFilter{End: &upTo})
}

// Delete removes a single transaction from a portfolio.
func (s *TransactionService) Delete(portfolioID, transactionID string) error {
	if err := validation.ValidateUUID(portfolioID); err != nil {
		return err
	}
	if err := validation.ValidateUUID(transactionID); err != nil {
		return err
	}
	if _, err := s.portfolioRepo.Get(portfolioID); err != nil {
		return err
	}
	return s.transactionRepo.Delete(portfolioID, transactionID)
}

// quantize normalizes a ledger decimal to 8 fractional digits, round half up.
func quantize(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	q := d.Round(ledgerQuant)
	return &q
}
