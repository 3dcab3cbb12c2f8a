package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	repo "github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type walletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a wallet repository using the provided
// *gorm.DB (base connection or transaction session).
func NewWalletRepository(db *gorm.DB) repo.WalletRepository {
	return &walletRepository{db: db}
}

// Get implements repository.WalletRepository.
func (r *walletRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	var w Wallet
	err := r.db.WithContext(ctx).First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapWalletToDomain(&w), nil
}

// GetByUserAndCurrency implements repository.WalletRepository.
// A missing wallet returns (nil, nil); callers decide whether that is an
// error or a lazy-creation trigger.
func (r *walletRepository) GetByUserAndCurrency(
	ctx context.Context,
	userID uuid.UUID,
	code currency.Code,
) (*domain.Wallet, error) {
	var w Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND currency = ?", userID, code.String()).
		First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapWalletToDomain(&w), nil
}

// ListByUser implements repository.WalletRepository.
func (r *walletRepository) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.Wallet, error) {
	var rows []Wallet
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("currency asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Wallet, 0, len(rows))
	for i := range rows {
		out = append(out, mapWalletToDomain(&rows[i]))
	}
	return out, nil
}

// Create implements repository.WalletRepository.
func (r *walletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	return r.db.WithContext(ctx).Create(&Wallet{
		ID:               w.ID,
		UserID:           w.UserID,
		Currency:         w.Currency.String(),
		Balance:          w.Balance,
		AvailableBalance: w.AvailableBalance,
		Frozen:           w.Frozen,
		Address:          w.Address,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}).Error
}

// Debit implements repository.WalletRepository. The available-balance
// guard lives in the WHERE clause so the decrement re-validates the
// balance in the same statement, staying correct under concurrent swaps
// draining the same wallet.
func (r *walletRepository) Debit(
	ctx context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: debit of %s", domain.ErrInvalidAmount, amount)
	}
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("id = ? AND frozen = false AND available_balance >= ?", walletID, amount).
		Updates(map[string]any{
			"balance":           gorm.Expr("balance - ?", amount),
			"available_balance": gorm.Expr("available_balance - ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInsufficientBalance
	}
	return nil
}

// Credit implements repository.WalletRepository.
func (r *walletRepository) Credit(
	ctx context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: credit of %s", domain.ErrInvalidAmount, amount)
	}
	res := r.db.WithContext(ctx).Model(&Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance":           gorm.Expr("balance + ?", amount),
			"available_balance": gorm.Expr("available_balance + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

func mapWalletToDomain(w *Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:               w.ID,
		UserID:           w.UserID,
		Currency:         currency.Code(w.Currency),
		Balance:          w.Balance,
		AvailableBalance: w.AvailableBalance,
		Frozen:           w.Frozen,
		Address:          w.Address,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}
