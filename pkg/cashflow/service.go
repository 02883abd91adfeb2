package cashflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"cashflow/models"

	"github.com/google/uuid"
)

// Summary holds the dashboard aggregates of one owner.
type Summary struct {
	TotalIncome  int64 `json:"totalIncome"`
	TotalExpense int64 `json:"totalExpense"`
	Balance      int64 `json:"balance"`
}

// Input carries the mutable fields of a cash flow.
type Input struct {
	Type        string
	Source      string
	Label       string
	Amount      int64
	Description string
}

// Service scopes every use case to the owner passed in by the caller.
// Field validation belongs to the presentation layer.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in Input) (*models.CashFlow, error) {
	cf := &models.CashFlow{
		UserID:      ownerID,
		Type:        in.Type,
		Source:      in.Source,
		Label:       in.Label,
		Amount:      in.Amount,
		Description: in.Description,
	}
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		return repo.Save(ctx, cf)
	})
	if err != nil {
		return nil, err
	}
	return cf, nil
}

// List returns the owner's records newest first, filtered by search when it is not blank.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, search string) ([]models.CashFlow, error) {
	if strings.TrimSpace(search) != "" {
		return s.repo.SearchByOwner(ctx, ownerID, search)
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// ListBetween returns the owner's records created in [from, to). Zero bounds are open.
func (s *Service) ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.CashFlow, error) {
	return s.repo.ListByOwnerBetween(ctx, ownerID, from, to)
}

// GetByID returns nil without an error when the owner has no such record.
func (s *Service) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.CashFlow, error) {
	return getOwned(ctx, s.repo, ownerID, id)
}

// Update replaces every mutable field. A nil record with a nil error means not found.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, in Input) (*models.CashFlow, error) {
	var updated *models.CashFlow
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		existing, err := getOwned(ctx, repo, ownerID, id)
		if err != nil || existing == nil {
			return err
		}
		existing.Type = in.Type
		existing.Source = in.Source
		existing.Label = in.Label
		existing.Amount = in.Amount
		existing.Description = in.Description
		if err := repo.Save(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete reports false when the owner has no such record.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	deleted := false
	err := s.repo.Transaction(ctx, func(repo Repository) error {
		existing, err := getOwned(ctx, repo, ownerID, id)
		if err != nil || existing == nil {
			return err
		}
		if err := repo.Delete(ctx, existing); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// TotalByType sums the owner's amounts of one type; no matching rows yields 0.
func (s *Service) TotalByType(ctx context.Context, ownerID uuid.UUID, typ string) (int64, error) {
	total, err := s.repo.SumByOwnerAndType(ctx, ownerID, typ)
	if err != nil {
		return 0, err
	}
	if !total.Valid {
		return 0, nil
	}
	return total.Int64, nil
}

func (s *Service) Summary(ctx context.Context, ownerID uuid.UUID) (Summary, error) {
	income, err := s.TotalByType(ctx, ownerID, models.TypeIncome)
	if err != nil {
		return Summary{}, err
	}
	expense, err := s.TotalByType(ctx, ownerID, models.TypeExpense)
	if err != nil {
		return Summary{}, err
	}
	return Summary{TotalIncome: income, TotalExpense: expense, Balance: income - expense}, nil
}

func getOwned(ctx context.Context, repo Repository, ownerID, id uuid.UUID) (*models.CashFlow, error) {
	cf, err := repo.GetByOwnerAndID(ctx, ownerID, id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return cf, nil
}
