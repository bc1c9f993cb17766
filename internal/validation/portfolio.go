package validation

import (
	"strings"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/request"
)

// ValidateCreatePortfolio validates a portfolio creation request.
//
// Required fields:
//   - name: non-empty, at most 120 characters
//
// Returns a validation Error with field-specific messages if validation fails.
func ValidateCreatePortfolio(req request.CreatePortfolioRequest) error {
	errors := make(map[string]string)

	if strings.TrimSpace(req.Name) == "" {
		errors["name"] = "name is required"
	} else if len(req.Name) > 120 {
		errors["name"] = "name must be 120 characters or less"
	}

	if len(errors) > 0 {
		return &Error{Fields: errors}
	}
	return nil
}
