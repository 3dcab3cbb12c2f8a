// Package wallet covers the conventional wallet surface around the swap
// core: wallet provisioning, balances, transaction history, internal
// transfers, withdrawal requests, and deposit credits. Every balance
// mutation runs through the same unit of work and guarded debit the
// settlement executor uses.
package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/notification"
	"github.com/obohaghogho/fxwallet/pkg/pricing"
	"github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/shopspring/decimal"
)

// Service implements wallet management and the non-swap money movements.
type Service struct {
	uow      repository.UnitOfWork
	pricing  *pricing.Policy
	notifier notification.Sink
	logger   *slog.Logger
}

// New creates a wallet service.
func New(
	uow repository.UnitOfWork,
	policy *pricing.Policy,
	notifier notification.Sink,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{uow: uow, pricing: policy, notifier: notifier, logger: logger}
}

// CreateWallet provisions a zero-balance wallet for the currency.
func (s *Service) CreateWallet(
	ctx context.Context,
	userID uuid.UUID,
	code currency.Code,
) (*domain.Wallet, error) {
	if !code.IsValid() {
		return nil, fmt.Errorf("%w: %q", currency.ErrInvalidCode, code)
	}

	wallets, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	existing, err := wallets.GetByUserAndCurrency(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWalletExists, code)
	}

	w := domain.NewWallet(userID, code)
	if err := wallets.Create(ctx, w); err != nil {
		return nil, fmt.Errorf("creating wallet: %w", err)
	}
	s.logger.Info("wallet created", "user_id", userID, "currency", code, "wallet_id", w.ID)
	return w, nil
}

// ListWallets returns all wallets the user holds.
func (s *Service) ListWallets(ctx context.Context, userID uuid.UUID) ([]*domain.Wallet, error) {
	wallets, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	return wallets.ListByUser(ctx, userID)
}

// GetWallet returns the user's wallet for the currency.
func (s *Service) GetWallet(
	ctx context.Context,
	userID uuid.UUID,
	code currency.Code,
) (*domain.Wallet, error) {
	wallets, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	w, err := wallets.GetByUserAndCurrency(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWalletNotFound, code)
	}
	return w, nil
}

// ListTransactions returns the transaction history of the user's wallet
// for the currency.
func (s *Service) ListTransactions(
	ctx context.Context,
	userID uuid.UUID,
	code currency.Code,
) ([]*domain.Transaction, error) {
	w, err := s.GetWallet(ctx, userID, code)
	if err != nil {
		return nil, err
	}
	txs, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	return txs.ListByWallet(ctx, w.ID)
}

// Transfer moves funds between two users' wallets of the same currency,
// atomically, writing a linked OUT/IN transaction pair under one
// idempotency key. The recipient's wallet is created lazily.
func (s *Service) Transfer(
	ctx context.Context,
	fromUserID, toUserID uuid.UUID,
	code currency.Code,
	amount decimal.Decimal,
	idempotencyKey string,
	tier domain.UserTier,
) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
	}
	if fromUserID == toUserID {
		return nil, domain.ErrTransferToSelf
	}
	if idempotencyKey == "" {
		return nil, domain.ErrMissingIdempotencyKey
	}

	commission, err := s.pricing.ComputeCommission(ctx, pricing.OpTransfer, amount, code, tier)
	if err != nil {
		return nil, err
	}

	var outTx *domain.Transaction
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		wallets, err := uow.WalletRepository()
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		revenue, err := uow.RevenueRepository()
		if err != nil {
			return err
		}

		exists, err := txs.ExistsByReference(ctx, idempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRequest
		}

		source, err := wallets.GetByUserAndCurrency(ctx, fromUserID, code)
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("%w: %s", domain.ErrWalletNotFound, code)
		}
		if source.Frozen {
			return fmt.Errorf("%w: %s", domain.ErrWalletFrozen, code)
		}

		dest, err := wallets.GetByUserAndCurrency(ctx, toUserID, code)
		if err != nil {
			return err
		}
		if dest == nil {
			dest = domain.NewWallet(toUserID, code)
			if err := wallets.Create(ctx, dest); err != nil {
				return err
			}
		}

		totalDebit := amount.Add(commission.Fee)
		if err := wallets.Debit(ctx, source.ID, totalDebit); err != nil {
			return err
		}
		if err := wallets.Credit(ctx, dest.ID, amount); err != nil {
			return err
		}

		outTx = &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    source.ID,
			UserID:      fromUserID,
			Category:    domain.TxTransfer,
			Direction:   domain.TxOut,
			Amount:      amount,
			Currency:    code,
			Fee:         commission.Fee,
			Status:      domain.TxCompleted,
			ReferenceID: idempotencyKey,
			Transfer: &domain.TransferMetadata{
				CounterpartUserID:   toUserID,
				CounterpartWalletID: dest.ID,
			},
		}
		if err := txs.Create(ctx, outTx); err != nil {
			return err
		}

		inTx := &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    dest.ID,
			UserID:      toUserID,
			Category:    domain.TxTransfer,
			Direction:   domain.TxIn,
			Amount:      amount,
			Currency:    code,
			Fee:         decimal.Zero,
			Status:      domain.TxCompleted,
			ReferenceID: idempotencyKey,
			Transfer: &domain.TransferMetadata{
				CounterpartUserID:   fromUserID,
				CounterpartWalletID: source.ID,
			},
		}
		if err := txs.Create(ctx, inTx); err != nil {
			return err
		}

		if commission.Fee.IsPositive() {
			return revenue.Create(ctx, &domain.RevenueEntry{
				ID:                  uuid.New(),
				UserID:              fromUserID,
				Kind:                domain.RevenueCommission,
				Amount:              commission.Fee,
				Currency:            code,
				SourceTransactionID: outTx.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, toUserID,
		notification.KindTransferReceived,
		"Transfer received",
		fmt.Sprintf("You received %s %s", amount.StringFixed(code.Decimals()), code),
		"/transactions/"+outTx.ID.String(),
	); err != nil {
		s.logger.Warn("transfer notification failed, suppressed", "error", err)
	}

	return outTx, nil
}

// Withdraw debits the available balance toward an external destination and
// records a PENDING transaction. The external settlement leg (on-chain or
// bank payout) is outside this service; only the ledger side is modeled.
func (s *Service) Withdraw(
	ctx context.Context,
	userID uuid.UUID,
	code currency.Code,
	amount decimal.Decimal,
	destination string,
	idempotencyKey string,
	tier domain.UserTier,
) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
	}
	if destination == "" {
		return nil, fmt.Errorf("%w: missing destination", domain.ErrInvalidAmount)
	}
	if idempotencyKey == "" {
		return nil, domain.ErrMissingIdempotencyKey
	}

	commission, err := s.pricing.ComputeCommission(ctx, pricing.OpWithdrawal, amount, code, tier)
	if err != nil {
		return nil, err
	}

	var tx *domain.Transaction
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		wallets, err := uow.WalletRepository()
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}
		revenue, err := uow.RevenueRepository()
		if err != nil {
			return err
		}

		exists, err := txs.ExistsByReference(ctx, idempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRequest
		}

		w, err := wallets.GetByUserAndCurrency(ctx, userID, code)
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("%w: %s", domain.ErrWalletNotFound, code)
		}
		if w.Frozen {
			return fmt.Errorf("%w: %s", domain.ErrWalletFrozen, code)
		}

		if err := wallets.Debit(ctx, w.ID, amount.Add(commission.Fee)); err != nil {
			return err
		}

		tx = &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    w.ID,
			UserID:      userID,
			Category:    domain.TxWithdrawal,
			Direction:   domain.TxOut,
			Amount:      amount,
			Currency:    code,
			Fee:         commission.Fee,
			Status:      domain.TxPending,
			ReferenceID: idempotencyKey,
			Withdrawal:  &domain.WithdrawalMetadata{Destination: destination},
		}
		if err := txs.Create(ctx, tx); err != nil {
			return err
		}

		if commission.Fee.IsPositive() {
			return revenue.Create(ctx, &domain.RevenueEntry{
				ID:                  uuid.New(),
				UserID:              userID,
				Kind:                domain.RevenueCommission,
				Amount:              commission.Fee,
				Currency:            code,
				SourceTransactionID: tx.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, userID,
		notification.KindWithdrawalPending,
		"Withdrawal pending",
		fmt.Sprintf("Withdrawal of %s %s to %s is pending", amount.StringFixed(code.Decimals()), code, destination),
		"/transactions/"+tx.ID.String(),
	); err != nil {
		s.logger.Warn("withdrawal notification failed, suppressed", "error", err)
	}

	return tx, nil
}

// Deposit credits a wallet from an external payment reference. Payment
// capture happens upstream; this only applies the ledger credit. The
// wallet is created lazily on first deposit.
func (s *Service) Deposit(
	ctx context.Context,
	userID uuid.UUID,
	code currency.Code,
	amount decimal.Decimal,
	paymentReference string,
	idempotencyKey string,
) (*domain.Transaction, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
	}
	if idempotencyKey == "" {
		return nil, domain.ErrMissingIdempotencyKey
	}

	var tx *domain.Transaction
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		wallets, err := uow.WalletRepository()
		if err != nil {
			return err
		}
		txs, err := uow.TransactionRepository()
		if err != nil {
			return err
		}

		exists, err := txs.ExistsByReference(ctx, idempotencyKey)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateRequest
		}

		w, err := wallets.GetByUserAndCurrency(ctx, userID, code)
		if err != nil {
			return err
		}
		if w == nil {
			w = domain.NewWallet(userID, code)
			if err := wallets.Create(ctx, w); err != nil {
				return err
			}
		}

		if err := wallets.Credit(ctx, w.ID, amount); err != nil {
			return err
		}

		tx = &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    w.ID,
			UserID:      userID,
			Category:    domain.TxDeposit,
			Direction:   domain.TxIn,
			Amount:      amount,
			Currency:    code,
			Fee:         decimal.Zero,
			Status:      domain.TxCompleted,
			ReferenceID: idempotencyKey,
			Deposit:     &domain.DepositMetadata{PaymentReference: paymentReference},
		}
		return txs.Create(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	if err := s.notifier.Notify(ctx, userID,
		notification.KindDepositCompleted,
		"Deposit completed",
		fmt.Sprintf("Deposited %s %s", amount.StringFixed(code.Decimals()), code),
		"/transactions/"+tx.ID.String(),
	); err != nil {
		s.logger.Warn("deposit notification failed, suppressed", "error", err)
	}

	return tx, nil
}
