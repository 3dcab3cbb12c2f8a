package repository

import (
	"context"
	"errors"

	"github.com/obohaghogho/fxwallet/pkg/currency"
	repo "github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type feePolicyRepository struct {
	db *gorm.DB
}

// NewFeePolicyRepository creates a fee-policy repository using the
// provided *gorm.DB. Lookups go to the database on every call so live
// policy edits take effect immediately.
func NewFeePolicyRepository(db *gorm.DB) repo.FeePolicyRepository {
	return &feePolicyRepository{db: db}
}

// Get implements repository.FeePolicyRepository. A missing row yields a
// zero-fee policy: currencies without a configured commission trade free.
func (r *feePolicyRepository) Get(
	ctx context.Context,
	operationType string,
	code currency.Code,
) (*repo.FeePolicy, error) {
	var row FeePolicy
	err := r.db.WithContext(ctx).
		Where("operation_type = ? AND currency = ?", operationType, code.String()).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &repo.FeePolicy{
			OperationType: operationType,
			Currency:      code,
			Rate:          decimal.Zero,
			FlatFee:       decimal.Zero,
			MinFee:        decimal.Zero,
			MaxFee:        decimal.Zero,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &repo.FeePolicy{
		OperationType: row.OperationType,
		Currency:      currency.Code(row.Currency),
		Rate:          row.Rate,
		FlatFee:       row.FlatFee,
		MinFee:        row.MinFee,
		MaxFee:        row.MaxFee,
	}, nil
}
