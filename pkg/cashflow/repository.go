package cashflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashflow/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no record matches both the owner and the id.
var ErrNotFound = errors.New("cash flow not found")

// Repository is the persistence accessor for cash flows. Every query is
// scoped by the owning user.
type Repository interface {
	Save(ctx context.Context, cf *models.CashFlow) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.CashFlow, error)
	SearchByOwner(ctx context.Context, ownerID uuid.UUID, keyword string) ([]models.CashFlow, error)
	ListByOwnerBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.CashFlow, error)
	GetByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.CashFlow, error)
	Delete(ctx context.Context, cf *models.CashFlow) error
	SumByOwnerAndType(ctx context.Context, ownerID uuid.UUID, typ string) (sql.NullInt64, error)
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository returns the gorm backed Repository.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Save(ctx context.Context, cf *models.CashFlow) error {
	if err := r.db.WithContext(ctx).Save(cf).Error; err != nil {
		return fmt.Errorf("save cash flow: %w", err)
	}
	return nil
}

func (r *gormRepository) owned(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CashFlow{}).Where("user_id = ?", ownerID)
}

func (r *gormRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.CashFlow, error) {
	items := []models.CashFlow{}
	if err := r.owned(ctx, ownerID).Order("created_at desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list cash flows: %w", err)
	}
	return items, nil
}

func (r *gormRepository) SearchByOwner(ctx context.Context, ownerID uuid.UUID, keyword string) ([]models.CashFlow, error) {
	pattern := "%" + keyword + "%"
	items := []models.CashFlow{}
	err := r.owned(ctx, ownerID).
		Where("(lower(label) LIKE lower(?) OR lower(description) LIKE lower(?))", pattern, pattern).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("search cash flows: %w", err)
	}
	return items, nil
}

func (r *gormRepository) ListByOwnerBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]models.CashFlow, error) {
	q := r.owned(ctx, ownerID)
	if !from.IsZero() {
		q = q.Where("created_at >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("created_at < ?", to)
	}
	items := []models.CashFlow{}
	if err := q.Order("created_at desc").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list cash flows in range: %w", err)
	}
	return items, nil
}

func (r *gormRepository) GetByOwnerAndID(ctx context.Context, ownerID, id uuid.UUID) (*models.CashFlow, error) {
	var cf models.CashFlow
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, ownerID).First(&cf).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cash flow: %w", err)
	}
	return &cf, nil
}

func (r *gormRepository) Delete(ctx context.Context, cf *models.CashFlow) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", cf.UserID).Delete(&models.CashFlow{}, "id = ?", cf.ID)
	if res.Error != nil {
		return fmt.Errorf("delete cash flow: %w", res.Error)
	}
	return nil
}

func (r *gormRepository) SumByOwnerAndType(ctx context.Context, ownerID uuid.UUID, typ string) (sql.NullInt64, error) {
	var total sql.NullInt64
	err := r.owned(ctx, ownerID).
		Where("type = ?", typ).
		Select("CAST(SUM(amount) AS BIGINT)").
		Row().
		Scan(&total)
	if err != nil {
		return sql.NullInt64{}, fmt.Errorf("sum cash flows: %w", err)
	}
	return total, nil
}

func (r *gormRepository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
