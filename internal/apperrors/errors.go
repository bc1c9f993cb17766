package apperrors

import "errors"

// Domain entity errors represent missing entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrPortfolioNotFound indicates that a portfolio with the given ID does not exist.
	ErrPortfolioNotFound = errors.New("portfolio not found")

	// ErrTransactionNotFound indicates that a transaction with the given ID does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrTickerNotFound indicates that a ticker has no price data, neither stored
	// nor available from the external provider.
	ErrTickerNotFound = errors.New("ticker not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrEmptyID indicates that a required ID parameter is empty or missing.
	ErrEmptyID = errors.New("ID cannot be empty")

	// ErrInvalidInput indicates a malformed request parameter, such as an
	// unparseable date or number in the query string.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicatePortfolioName indicates that a portfolio with the same name
	// already exists. Portfolio names are unique across the system.
	ErrDuplicatePortfolioName = errors.New("portfolio name already exists")
)

// Computation errors represent requests that cannot produce a result from the
// available data. Distinct from the not-found errors: the entities exist, but
// the data is insufficient for the requested calculation.
var (
	// ErrInsufficientData indicates fewer observations than a metric requires
	// (e.g. <2 closes, no price data for any active ticker, or a portfolio
	// value series that is zero throughout the requested range).
	ErrInsufficientData = errors.New("insufficient data to compute metrics")
)

// Upstream errors represent failures of external collaborators.
var (
	// ErrProviderUnavailable indicates that the external price provider failed
	// due to a network or lookup error. Never retried automatically.
	ErrProviderUnavailable = errors.New("price provider unavailable")
)
