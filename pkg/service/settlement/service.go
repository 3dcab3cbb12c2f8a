// Package settlement executes quoted swaps against the ledger. It is the
// only component permitted to mutate wallet balances for a swap.
package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/lockstore"
	"github.com/obohaghogho/fxwallet/pkg/money"
	"github.com/obohaghogho/fxwallet/pkg/notification"
	"github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/obohaghogho/fxwallet/pkg/service/quote"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// amountEpsilon tolerates floating-point drift between the amount a client
// quoted and the amount it executes. Lock parameters differing by more
// than this fail the request.
var amountEpsilon = decimal.RequireFromString("0.0001")

// Request carries everything needed to execute one swap.
type Request struct {
	UserID         uuid.UUID
	FromCurrency   currency.Code
	ToCurrency     currency.Code
	Amount         decimal.Decimal
	IdempotencyKey string
	Tier           domain.UserTier
	LockID         uuid.UUID // uuid.Nil means no lock: quote synchronously
}

// Service is the settlement executor.
type Service struct {
	uow      repository.UnitOfWork
	locks    lockstore.Store
	quotes   *quote.Service
	notifier notification.Sink
	logger   *slog.Logger
	inflight singleflight.Group
}

// New creates a settlement executor.
func New(
	uow repository.UnitOfWork,
	locks lockstore.Store,
	quotes *quote.Service,
	notifier notification.Sink,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		uow:      uow,
		locks:    locks,
		quotes:   quotes,
		notifier: notifier,
		logger:   logger,
	}
}

// Execute settles one swap. Steps run strictly in sequence:
// resolve the preview, reject duplicates, check the source balance,
// consume the lock, then commit atomically. Validation failures leave
// both the ledger and the rate lock untouched; once the lock is consumed
// any commit error is fatal for the attempt and the caller must re-quote.
//
// Concurrent calls sharing an idempotency key are collapsed in-process;
// the durable uniqueness check and the transaction table's unique
// reference index guard across processes.
func (s *Service) Execute(ctx context.Context, req Request) (*domain.SettlementResult, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	v, err, _ := s.inflight.Do(inflightKey(req), func() (any, error) {
		return s.execute(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.SettlementResult), nil
}

// inflightKey namespaces the in-process collapse by every parameter that
// defines the swap. Idempotency keys are client-supplied, so two requests
// sharing a key may still differ in user, pair or amount; those must not
// share a result but fall through to the durable duplicate check instead.
func inflightKey(req Request) string {
	return strings.Join([]string{
		req.IdempotencyKey,
		req.UserID.String(),
		string(req.FromCurrency),
		string(req.ToCurrency),
		req.Amount.String(),
	}, "|")
}

func (s *Service) validate(req Request) error {
	if !req.FromCurrency.IsValid() || !req.ToCurrency.IsValid() {
		return fmt.Errorf("%w: %q/%q",
			currency.ErrInvalidCode, req.FromCurrency, req.ToCurrency)
	}
	if req.FromCurrency == req.ToCurrency {
		return domain.ErrSameCurrency
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, req.Amount)
	}
	if req.IdempotencyKey == "" {
		return domain.ErrMissingIdempotencyKey
	}
	return nil
}

func (s *Service) execute(ctx context.Context, req Request) (*domain.SettlementResult, error) {
	logger := s.logger.With(
		"user_id", req.UserID,
		"from", req.FromCurrency,
		"to", req.ToCurrency,
		"amount", req.Amount,
		"idempotency_key", req.IdempotencyKey,
	)

	// 1. Resolve the preview. A held lock is only peeked here; it stays
	// redeemable until every validation has passed.
	preview, err := s.resolvePreview(ctx, req)
	if err != nil {
		return nil, err
	}

	// 2. Idempotency: an existing transaction with this key means the swap
	// already happened.
	txRepo, err := s.uow.TransactionRepository()
	if err != nil {
		return nil, err
	}
	exists, err := txRepo.ExistsByReference(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if exists {
		logger.Info("duplicate settlement request rejected")
		return nil, domain.ErrDuplicateRequest
	}

	// 3. Balance check. The atomic commit re-validates with a guarded
	// decrement; this early check exists to fail fast without consuming
	// the caller's rate lock.
	walletRepo, err := s.uow.WalletRepository()
	if err != nil {
		return nil, err
	}
	source, err := walletRepo.GetByUserAndCurrency(ctx, req.UserID, req.FromCurrency)
	if err != nil {
		return nil, fmt.Errorf("loading source wallet: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrWalletNotFound, req.FromCurrency)
	}
	if source.Frozen {
		return nil, fmt.Errorf("%w: %s", domain.ErrWalletFrozen, req.FromCurrency)
	}
	if source.AvailableBalance.LessThan(req.Amount) {
		return nil, fmt.Errorf("%w: available %s, requested %s",
			domain.ErrInsufficientBalance, source.AvailableBalance, req.Amount)
	}

	// 4. Consume the lock. From here on the quote cannot be replayed.
	if req.LockID != uuid.Nil {
		taken, err := s.locks.Take(ctx, req.LockID)
		if err != nil {
			return nil, fmt.Errorf("consuming rate lock: %w", err)
		}
		if taken == nil {
			return nil, domain.ErrLockExpired
		}
		preview = taken
	}

	// 5. Atomic commit.
	result, outTxID, err := s.commit(ctx, req, preview, source)
	if err != nil {
		logger.Error("atomic swap commit failed",
			"amount_in", req.Amount,
			"amount_out", preview.AmountOut,
			"error", err,
		)
		return nil, domain.ErrSettlementFailed
	}

	// 6. Best-effort notification; failure is logged and swallowed so it
	// can never roll back a settled swap.
	if err := s.notifier.Notify(ctx, req.UserID,
		notification.KindSwapCompleted,
		"Swap completed",
		fmt.Sprintf("Swapped %s %s for %s %s",
			req.Amount.StringFixed(req.FromCurrency.Decimals()), req.FromCurrency,
			preview.AmountOut.StringFixed(req.ToCurrency.Decimals()), req.ToCurrency),
		"/transactions/"+outTxID.String(),
	); err != nil {
		logger.Warn("swap notification failed, suppressed", "error", err)
	}

	logger.Info("swap settled",
		"transaction_id", outTxID,
		"amount_out", preview.AmountOut,
		"rate", preview.FinalPrice,
	)
	return result, nil
}

// resolvePreview peeks the caller's rate lock and verifies its parameters,
// or falls back to a synchronous quote when no lock was supplied. The
// fallback path is not protected against feed movement between request
// and commit, but still settles deterministically.
func (s *Service) resolvePreview(ctx context.Context, req Request) (*domain.SwapPreview, error) {
	if req.LockID == uuid.Nil {
		return s.quotes.Quote(ctx,
			req.UserID, req.FromCurrency, req.ToCurrency, req.Amount, req.Tier)
	}

	preview, err := s.locks.Peek(ctx, req.LockID)
	if err != nil {
		return nil, fmt.Errorf("reading rate lock: %w", err)
	}
	if preview == nil || preview.UserID != req.UserID {
		return nil, domain.ErrLockExpired
	}
	if preview.FromCurrency != req.FromCurrency || preview.ToCurrency != req.ToCurrency {
		return nil, fmt.Errorf("%w: locked pair %s/%s",
			domain.ErrLockMismatch, preview.FromCurrency, preview.ToCurrency)
	}
	if preview.AmountIn.Sub(req.Amount).Abs().GreaterThan(amountEpsilon) {
		return nil, fmt.Errorf("%w: locked amount %s, requested %s",
			domain.ErrLockMismatch, preview.AmountIn, req.Amount)
	}
	return preview, nil
}

// commit performs the all-or-nothing ledger mutation: guarded debit of the
// source wallet, credit of the destination (created lazily if absent), the
// linked OUT/IN transaction pair, and the revenue entries. Either every
// write lands or none do.
func (s *Service) commit(
	ctx context.Context,
	req Request,
	preview *domain.SwapPreview,
	source *domain.Wallet,
) (*domain.SettlementResult, uuid.UUID, error) {
	var outTxID uuid.UUID

	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
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

		dest, err := wallets.GetByUserAndCurrency(ctx, req.UserID, req.ToCurrency)
		if err != nil {
			return err
		}
		if dest == nil {
			dest = domain.NewWallet(req.UserID, req.ToCurrency)
			if err := wallets.Create(ctx, dest); err != nil {
				return err
			}
		}

		if err := wallets.Debit(ctx, source.ID, req.Amount); err != nil {
			return err
		}
		if err := wallets.Credit(ctx, dest.ID, preview.AmountOut); err != nil {
			return err
		}

		swapMeta := domain.SwapMetadata{
			MarketPrice:      preview.MarketPrice,
			FinalPrice:       preview.FinalPrice,
			SpreadAmount:     preview.SpreadAmount,
			SpreadPercentage: preview.SpreadPercentage,
			CommissionRate:   preview.CommissionRate,
		}

		outMeta := swapMeta
		outMeta.CounterpartCurrency = req.ToCurrency
		outTx := &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    source.ID,
			UserID:      req.UserID,
			Category:    domain.TxSwap,
			Direction:   domain.TxOut,
			Amount:      req.Amount,
			Currency:    req.FromCurrency,
			Fee:         preview.CommissionAmount,
			Status:      domain.TxCompleted,
			ReferenceID: req.IdempotencyKey,
			Swap:        &outMeta,
		}
		if err := txs.Create(ctx, outTx); err != nil {
			return err
		}

		inMeta := swapMeta
		inMeta.CounterpartCurrency = req.FromCurrency
		inTx := &domain.Transaction{
			ID:          uuid.New(),
			WalletID:    dest.ID,
			UserID:      req.UserID,
			Category:    domain.TxSwap,
			Direction:   domain.TxIn,
			Amount:      preview.AmountOut,
			Currency:    req.ToCurrency,
			Fee:         decimal.Zero,
			Status:      domain.TxCompleted,
			ReferenceID: req.IdempotencyKey,
			Swap:        &inMeta,
		}
		if err := txs.Create(ctx, inTx); err != nil {
			return err
		}

		// Commission revenue is the fee, kept in the source currency.
		if err := revenue.Create(ctx, &domain.RevenueEntry{
			ID:                  uuid.New(),
			UserID:              req.UserID,
			Kind:                domain.RevenueCommission,
			Amount:              preview.CommissionAmount,
			Currency:            req.FromCurrency,
			SourceTransactionID: outTx.ID,
		}); err != nil {
			return err
		}

		// Spread revenue is the per-unit spread applied to the
		// fee-adjusted amount actually swapped, denominated in the
		// destination currency.
		amountToSwap := preview.AmountIn.Sub(preview.CommissionAmount)
		spreadRevenue := money.Round8(preview.SpreadAmount.Mul(amountToSwap))
		if err := revenue.Create(ctx, &domain.RevenueEntry{
			ID:                  uuid.New(),
			UserID:              req.UserID,
			Kind:                domain.RevenueSpread,
			Amount:              spreadRevenue,
			Currency:            req.ToCurrency,
			SourceTransactionID: outTx.ID,
		}); err != nil {
			return err
		}

		outTxID = outTx.ID
		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}

	return &domain.SettlementResult{
		TransactionID: outTxID,
		FromCurrency:  req.FromCurrency,
		ToCurrency:    req.ToCurrency,
		AmountIn:      req.Amount,
		AmountOut:     preview.AmountOut,
		Fee:           preview.CommissionAmount,
		Rate:          preview.FinalPrice,
	}, outTxID, nil
}
