package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	repo "github.com/obohaghogho/fxwallet/pkg/repository"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository using the
// provided *gorm.DB.
func NewTransactionRepository(db *gorm.DB) repo.TransactionRepository {
	return &transactionRepository{db: db}
}

// Create implements repository.TransactionRepository.
func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	row := mapTransactionToModel(tx)
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

// Get implements repository.TransactionRepository.
func (r *transactionRepository) Get(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Transaction, error) {
	var row Transaction
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return mapTransactionToDomain(&row), nil
}

// ListByWallet implements repository.TransactionRepository.
func (r *transactionRepository) ListByWallet(
	ctx context.Context,
	walletID uuid.UUID,
) ([]*domain.Transaction, error) {
	var rows []Transaction
	if err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at desc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mapTransactionToDomain(&rows[i]))
	}
	return out, nil
}

// ExistsByReference implements repository.TransactionRepository.
func (r *transactionRepository) ExistsByReference(
	ctx context.Context,
	referenceID string,
) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Transaction{}).
		Where("reference_id = ?", referenceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func mapTransactionToModel(tx *domain.Transaction) *Transaction {
	row := &Transaction{
		ID:          tx.ID,
		WalletID:    tx.WalletID,
		UserID:      tx.UserID,
		Category:    string(tx.Category),
		Direction:   string(tx.Direction),
		Amount:      tx.Amount,
		Currency:    tx.Currency.String(),
		Fee:         tx.Fee,
		Status:      string(tx.Status),
		ReferenceID: tx.ReferenceID,
		CreatedAt:   tx.CreatedAt,
	}
	if m := tx.Swap; m != nil {
		cc := m.CounterpartCurrency.String()
		row.CounterpartCurrency = &cc
		row.MarketPrice = &m.MarketPrice
		row.FinalPrice = &m.FinalPrice
		row.SpreadAmount = &m.SpreadAmount
		row.SpreadPercentage = &m.SpreadPercentage
		row.CommissionRate = &m.CommissionRate
	}
	if m := tx.Transfer; m != nil {
		row.CounterpartUserID = &m.CounterpartUserID
		row.CounterpartWalletID = &m.CounterpartWalletID
	}
	if m := tx.Withdrawal; m != nil {
		row.Destination = &m.Destination
	}
	if m := tx.Deposit; m != nil {
		row.PaymentReference = &m.PaymentReference
	}
	return row
}

func mapTransactionToDomain(row *Transaction) *domain.Transaction {
	tx := &domain.Transaction{
		ID:          row.ID,
		WalletID:    row.WalletID,
		UserID:      row.UserID,
		Category:    domain.TxCategory(row.Category),
		Direction:   domain.TxDirection(row.Direction),
		Amount:      row.Amount,
		Currency:    currency.Code(row.Currency),
		Fee:         row.Fee,
		Status:      domain.TxStatus(row.Status),
		ReferenceID: row.ReferenceID,
		CreatedAt:   row.CreatedAt,
	}
	switch tx.Category {
	case domain.TxSwap:
		if row.CounterpartCurrency != nil {
			tx.Swap = &domain.SwapMetadata{
				CounterpartCurrency: currency.Code(*row.CounterpartCurrency),
			}
			if row.MarketPrice != nil {
				tx.Swap.MarketPrice = *row.MarketPrice
			}
			if row.FinalPrice != nil {
				tx.Swap.FinalPrice = *row.FinalPrice
			}
			if row.SpreadAmount != nil {
				tx.Swap.SpreadAmount = *row.SpreadAmount
			}
			if row.SpreadPercentage != nil {
				tx.Swap.SpreadPercentage = *row.SpreadPercentage
			}
			if row.CommissionRate != nil {
				tx.Swap.CommissionRate = *row.CommissionRate
			}
		}
	case domain.TxTransfer:
		if row.CounterpartUserID != nil && row.CounterpartWalletID != nil {
			tx.Transfer = &domain.TransferMetadata{
				CounterpartUserID:   *row.CounterpartUserID,
				CounterpartWalletID: *row.CounterpartWalletID,
			}
		}
	case domain.TxWithdrawal:
		if row.Destination != nil {
			tx.Withdrawal = &domain.WithdrawalMetadata{Destination: *row.Destination}
		}
	case domain.TxDeposit:
		if row.PaymentReference != nil {
			tx.Deposit = &domain.DepositMetadata{PaymentReference: *row.PaymentReference}
		}
	}
	return tx
}
