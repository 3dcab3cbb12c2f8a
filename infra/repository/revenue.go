package repository

import (
	"context"
	"time"

	"github.com/obohaghogho/fxwallet/pkg/domain"
	repo "github.com/obohaghogho/fxwallet/pkg/repository"
	"gorm.io/gorm"
)

type revenueRepository struct {
	db *gorm.DB
}

// NewRevenueRepository creates a revenue repository using the provided
// *gorm.DB.
func NewRevenueRepository(db *gorm.DB) repo.RevenueRepository {
	return &revenueRepository{db: db}
}

// Create implements repository.RevenueRepository.
func (r *revenueRepository) Create(ctx context.Context, entry *domain.RevenueEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(&RevenueEntry{
		ID:                  entry.ID,
		UserID:              entry.UserID,
		Kind:                string(entry.Kind),
		Amount:              entry.Amount,
		Currency:            entry.Currency.String(),
		SourceTransactionID: entry.SourceTransactionID,
		CreatedAt:           createdAt,
	}).Error
}
