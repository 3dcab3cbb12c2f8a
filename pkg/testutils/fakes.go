// Package testutils provides in-memory fakes of the repository contracts
// for service and handler tests.
package testutils

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/shopspring/decimal"
)

// FakeUow is an in-memory repository.UnitOfWork. Do runs the function
// against the same store; writes are not rolled back on error, so tests
// asserting rollback behavior should assert on the error instead.
type FakeUow struct {
	mu       sync.Mutex
	Wallets  *FakeWalletRepo
	Txs      *FakeTransactionRepo
	Revenues *FakeRevenueRepo
	Fees     *FakeFeePolicyRepo

	// DoErr, when set, fails Do before running the function.
	DoErr error
}

// NewFakeUow creates an empty in-memory unit of work.
func NewFakeUow() *FakeUow {
	u := &FakeUow{
		Wallets:  &FakeWalletRepo{byID: map[uuid.UUID]*domain.Wallet{}},
		Txs:      &FakeTransactionRepo{byID: map[uuid.UUID]*domain.Transaction{}},
		Revenues: &FakeRevenueRepo{},
		Fees:     &FakeFeePolicyRepo{},
	}
	return u
}

// Do implements repository.UnitOfWork.
func (u *FakeUow) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.DoErr != nil {
		return u.DoErr
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return fn(u)
}

// WalletRepository implements repository.UnitOfWork.
func (u *FakeUow) WalletRepository() (repository.WalletRepository, error) {
	return u.Wallets, nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *FakeUow) TransactionRepository() (repository.TransactionRepository, error) {
	return u.Txs, nil
}

// RevenueRepository implements repository.UnitOfWork.
func (u *FakeUow) RevenueRepository() (repository.RevenueRepository, error) {
	return u.Revenues, nil
}

// FeePolicyRepository implements repository.UnitOfWork.
func (u *FakeUow) FeePolicyRepository() (repository.FeePolicyRepository, error) {
	return u.Fees, nil
}

// SeedWallet installs a wallet with the given available balance and
// returns it.
func (u *FakeUow) SeedWallet(
	userID uuid.UUID,
	code currency.Code,
	balance decimal.Decimal,
) *domain.Wallet {
	w := domain.NewWallet(userID, code)
	w.Balance = balance
	w.AvailableBalance = balance
	u.Wallets.mu.Lock()
	defer u.Wallets.mu.Unlock()
	u.Wallets.byID[w.ID] = w
	return w
}

// FakeWalletRepo is an in-memory repository.WalletRepository with the same
// guarded-debit semantics as the SQL implementation.
type FakeWalletRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Wallet

	// DebitErr, when set, fails every Debit call.
	DebitErr error
	// CreditErr, when set, fails every Credit call.
	CreditErr error
}

// Get implements repository.WalletRepository.
func (r *FakeWalletRepo) Get(_ context.Context, id uuid.UUID) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.byID[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

// GetByUserAndCurrency implements repository.WalletRepository.
func (r *FakeWalletRepo) GetByUserAndCurrency(
	_ context.Context,
	userID uuid.UUID,
	code currency.Code,
) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range r.byID {
		if w.UserID == userID && w.Currency == code {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

// ListByUser implements repository.WalletRepository.
func (r *FakeWalletRepo) ListByUser(
	_ context.Context,
	userID uuid.UUID,
) ([]*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Wallet
	for _, w := range r.byID {
		if w.UserID == userID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Create implements repository.WalletRepository.
func (r *FakeWalletRepo) Create(_ context.Context, w *domain.Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *w
	r.byID[w.ID] = &cp
	return nil
}

// Debit implements repository.WalletRepository. It re-validates the
// available balance under the lock, like the conditional UPDATE does.
func (r *FakeWalletRepo) Debit(
	_ context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) error {
	if r.DebitErr != nil {
		return r.DebitErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[walletID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	if w.Frozen || w.AvailableBalance.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	w.Balance = w.Balance.Sub(amount)
	w.AvailableBalance = w.AvailableBalance.Sub(amount)
	return nil
}

// Credit implements repository.WalletRepository.
func (r *FakeWalletRepo) Credit(
	_ context.Context,
	walletID uuid.UUID,
	amount decimal.Decimal,
) error {
	if r.CreditErr != nil {
		return r.CreditErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[walletID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	w.Balance = w.Balance.Add(amount)
	w.AvailableBalance = w.AvailableBalance.Add(amount)
	return nil
}

// FakeTransactionRepo is an in-memory repository.TransactionRepository.
type FakeTransactionRepo struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*domain.Transaction

	// CreateErr, when set, fails every Create call.
	CreateErr error
}

// Create implements repository.TransactionRepository.
func (r *FakeTransactionRepo) Create(_ context.Context, tx *domain.Transaction) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tx
	r.byID[tx.ID] = &cp
	return nil
}

// Get implements repository.TransactionRepository.
func (r *FakeTransactionRepo) Get(
	_ context.Context,
	id uuid.UUID,
) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tx, ok := r.byID[id]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, nil
}

// ListByWallet implements repository.TransactionRepository.
func (r *FakeTransactionRepo) ListByWallet(
	_ context.Context,
	walletID uuid.UUID,
) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for _, tx := range r.byID {
		if tx.WalletID == walletID {
			cp := *tx
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ExistsByReference implements repository.TransactionRepository.
func (r *FakeTransactionRepo) ExistsByReference(
	_ context.Context,
	referenceID string,
) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tx := range r.byID {
		if tx.ReferenceID == referenceID {
			return true, nil
		}
	}
	return false, nil
}

// All returns a snapshot of every stored transaction.
func (r *FakeTransactionRepo) All() []*domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Transaction, 0, len(r.byID))
	for _, tx := range r.byID {
		cp := *tx
		out = append(out, &cp)
	}
	return out
}

// FakeRevenueRepo is an in-memory repository.RevenueRepository.
type FakeRevenueRepo struct {
	mu      sync.Mutex
	Entries []*domain.RevenueEntry
}

// Create implements repository.RevenueRepository.
func (r *FakeRevenueRepo) Create(_ context.Context, entry *domain.RevenueEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.Entries = append(r.Entries, &cp)
	return nil
}

// All returns a snapshot of every recorded revenue entry.
func (r *FakeRevenueRepo) All() []*domain.RevenueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.RevenueEntry, len(r.Entries))
	copy(out, r.Entries)
	return out
}

// FakeFeePolicyRepo is an in-memory repository.FeePolicyRepository. With
// no policies installed every lookup resolves to a zero-fee policy,
// matching the SQL implementation's missing-row behavior.
type FakeFeePolicyRepo struct {
	mu       sync.Mutex
	policies map[string]*repository.FeePolicy
}

// Set installs a policy for the operation and currency.
func (r *FakeFeePolicyRepo) Set(op string, code currency.Code, p repository.FeePolicy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.policies == nil {
		r.policies = map[string]*repository.FeePolicy{}
	}
	p.OperationType = op
	p.Currency = code
	r.policies[op+"/"+string(code)] = &p
}

// Get implements repository.FeePolicyRepository.
func (r *FakeFeePolicyRepo) Get(
	_ context.Context,
	operationType string,
	code currency.Code,
) (*repository.FeePolicy, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.policies[operationType+"/"+string(code)]; ok {
		cp := *p
		return &cp, nil
	}
	return &repository.FeePolicy{
		OperationType: operationType,
		Currency:      code,
		Rate:          decimal.Zero,
		FlatFee:       decimal.Zero,
		MinFee:        decimal.Zero,
		MaxFee:        decimal.Zero,
	}, nil
}
