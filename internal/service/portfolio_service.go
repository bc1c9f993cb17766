package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quantfolio/portfolio-analytics-backend/internal/api/request"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
	"github.com/quantfolio/portfolio-analytics-backend/internal/repository"
	"github.com/quantfolio/portfolio-analytics-backend/internal/validation"
)

// PortfolioService handles portfolio lifecycle operations.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
}

// NewPortfolioService creates a new PortfolioService.
func NewPortfolioService(portfolioRepo *repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{portfolioRepo: portfolioRepo}
}

// Create validates and stores a new portfolio. Names are unique; creating a
// portfolio with an existing name returns apperrors.ErrDuplicatePortfolioName.
func (s *PortfolioService) Create(req request.CreatePortfolioRequest) (model.Portfolio, error) {
	if err := validation.ValidateCreatePortfolio(req); err != nil {
		return model.Portfolio{}, err
	}

	portfolio := model.Portfolio{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.portfolioRepo.Insert(portfolio); err != nil {
		return model.Portfolio{}, err
	}
	return portfolio, nil
}

// List returns all portfolios ordered by creation time.
func (s *PortfolioService) List() ([]model.Portfolio, error) {
	return s.portfolioRepo.List()
}

// Get returns a single portfolio by ID.
func (s *PortfolioService) Get(id string) (model.Portfolio, error) {
	if err := validation.ValidateUUID(id); err != nil {
		return model.Portfolio{}, err
	}
	return s.portfolioRepo.Get(id)
}

// Delete removes a portfolio and, through the schema's cascade, every
// transaction it owns.
func (s *PortfolioService) Delete(id string) error {
	if err := validation.ValidateUUID(id); err != nil {
		return err
	}
	return s.portfolioRepo.Delete(id)
}
