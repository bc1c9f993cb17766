package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quantfolio/portfolio-analytics-backend/internal/apperrors"
	"github.com/quantfolio/portfolio-analytics-backend/internal/model"
)

// PortfolioRepository provides data access methods for the portfolio table.
type PortfolioRepository struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PortfolioRepository with the provided database connection.
func NewPortfolioRepository(db *sql.DB) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// Insert stores a new portfolio. Returns apperrors.ErrDuplicatePortfolioName
// when the unique name constraint is violated.
func (r *PortfolioRepository) Insert(p model.Portfolio) error {
	_, err := r.db.Exec(
		`INSERT INTO portfolio (id, name, created_at) VALUES (?, ?, ?)`,
		p.ID, p.Name, p.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicatePortfolioName, p.Name)
		}
		return fmt.Errorf("failed to insert portfolio: %w", err)
	}
	return nil
}

// List retrieves all portfolios ordered by creation time.
func (r *PortfolioRepository) List() ([]model.Portfolio, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM portfolio ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio table: %w", err)
	}
	defer rows.Close()

	portfolios := []model.Portfolio{}
	for rows.Next() {
		var p model.Portfolio
		var createdAtStr string
		if err := rows.Scan(&p.ID, &p.Name, &createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio table results: %w", err)
		}
		p.CreatedAt, err = ParseTime(createdAtStr)
		if err != nil {
			return nil, err
		}
		portfolios = append(portfolios, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolio table: %w", err)
	}
	return portfolios, nil
}

// Get retrieves a single portfolio by ID.
// Returns apperrors.ErrPortfolioNotFound when no row matches.
func (r *PortfolioRepository) Get(id string) (model.Portfolio, error) {
	var p model.Portfolio
	var createdAtStr string

	err := r.db.QueryRow(
		`SELECT id, name, created_at FROM portfolio WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &createdAtStr)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Portfolio{}, fmt.Errorf("%w: %s", apperrors.ErrPortfolioNotFound, id)
	}
	if err != nil {
		return model.Portfolio{}, fmt.Errorf("failed to query portfolio table: %w", err)
	}

	p.CreatedAt, err = ParseTime(createdAtStr)
	if err != nil {
		return model.Portfolio{}, err
	}
	return p, nil
}

// Delete removes a portfolio; its transactions cascade via the foreign key.
// Returns apperrors.ErrPortfolioNotFound when no row matches.
func (r *PortfolioRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM portfolio WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete portfolio: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrPortfolioNotFound, id)
	}
	return nil
}
