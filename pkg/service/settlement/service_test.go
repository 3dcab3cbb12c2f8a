package settlement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/obohaghogho/fxwallet/pkg/lockstore"
	"github.com/obohaghogho/fxwallet/pkg/pricing"
	"github.com/obohaghogho/fxwallet/pkg/provider"
	"github.com/obohaghogho/fxwallet/pkg/repository"
	"github.com/obohaghogho/fxwallet/pkg/service/quote"
	"github.com/obohaghogho/fxwallet/pkg/service/settlement"
	"github.com/obohaghogho/fxwallet/pkg/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixedRateSource struct {
	price decimal.Decimal
}

func (f *fixedRateSource) GetRate(
	_ context.Context,
	base, quote currency.Code,
) (*provider.RateInfo, error) {
	return &provider.RateInfo{
		Base: base, Quote: quote, Price: f.price,
		Source: f.Name(), Timestamp: time.Now(),
	}, nil
}

func (f *fixedRateSource) Name() string    { return "fixed" }
func (f *fixedRateSource) IsHealthy() bool { return true }

// countingSink records notifications and optionally fails.
type countingSink struct {
	mu    sync.Mutex
	count int
	err   error
}

func (s *countingSink) Notify(
	_ context.Context, _ uuid.UUID, _, _, _, _ string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	return s.err
}

func (s *countingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

type fixture struct {
	uow    *testutils.FakeUow
	locks  *lockstore.Memory
	quotes *quote.Service
	sink   *countingSink
	svc    *settlement.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	uow := testutils.NewFakeUow()
	uow.Fees.Set(pricing.OpSwap, currency.BTC, repository.FeePolicy{Rate: dec("0.0025")})
	locks := lockstore.NewMemory(0, nil)
	t.Cleanup(locks.Close)
	policy := pricing.New(uow.Fees, nil, nil)
	quotes := quote.New(&fixedRateSource{price: dec("95000")}, policy, locks, nil)
	sink := &countingSink{}
	svc := settlement.New(uow, locks, quotes, sink, nil)
	return &fixture{uow: uow, locks: locks, quotes: quotes, sink: sink, svc: svc}
}

func (f *fixture) preview(t *testing.T, userID uuid.UUID, amount decimal.Decimal) *domain.SwapPreview {
	t.Helper()
	p, err := f.quotes.Preview(
		context.Background(), userID, currency.BTC, currency.USD, amount, domain.TierStandard)
	require.NoError(t, err)
	return p
}

func TestExecute_WithLock_Settles(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	source := f.uow.SeedWallet(userID, currency.BTC, dec("2"))
	p := f.preview(t, userID, dec("1"))

	res, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "swap-1",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	// Locked terms are the executed terms.
	assert.True(t, res.AmountOut.Equal(p.AmountOut))
	assert.True(t, res.Rate.Equal(p.FinalPrice))

	// Source debited by exactly the input, destination credited by exactly
	// the quoted output.
	src, err := f.uow.Wallets.Get(context.Background(), source.ID)
	require.NoError(t, err)
	assert.True(t, src.AvailableBalance.Equal(dec("1")), "source balance %s", src.AvailableBalance)

	dest, err := f.uow.Wallets.GetByUserAndCurrency(context.Background(), userID, currency.USD)
	require.NoError(t, err)
	require.NotNil(t, dest, "destination wallet must be created lazily")
	assert.True(t, dest.AvailableBalance.Equal(p.AmountOut))

	// Exactly two transaction rows share the reference id: one OUT against
	// the source wallet, one IN against the destination wallet.
	all := f.uow.Txs.All()
	require.Len(t, all, 2)
	var out, in *domain.Transaction
	for _, tx := range all {
		require.Equal(t, "swap-1", tx.ReferenceID)
		require.Equal(t, domain.TxSwap, tx.Category)
		require.Equal(t, domain.TxCompleted, tx.Status)
		require.NotNil(t, tx.Swap)
		switch tx.Direction {
		case domain.TxOut:
			out = tx
		case domain.TxIn:
			in = tx
		}
	}
	require.NotNil(t, out)
	require.NotNil(t, in)
	assert.Equal(t, out.ID, res.TransactionID)
	assert.Equal(t, source.ID, out.WalletID)
	assert.Equal(t, dest.ID, in.WalletID)
	assert.True(t, out.Amount.Equal(dec("1")))
	assert.True(t, out.Fee.Equal(p.CommissionAmount))
	assert.True(t, in.Amount.Equal(p.AmountOut))

	// Commission and spread revenue both recorded against the OUT row.
	entries := f.uow.Revenues.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, out.ID, e.SourceTransactionID)
	}

	assert.Equal(t, 1, f.sink.Count())

	// The lock is consumed; replaying it fails.
	_, err = f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "swap-2",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrLockExpired)
}

func TestExecute_DuplicateIdempotencyKey(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("5"))
	p1 := f.preview(t, userID, dec("1"))

	req := settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "dup-key",
		Tier:           domain.TierStandard,
		LockID:         p1.LockID,
	}
	_, err := f.svc.Execute(context.Background(), req)
	require.NoError(t, err)

	// A fresh lock does not help; the idempotency key already settled.
	p2 := f.preview(t, userID, dec("1"))
	req.LockID = p2.LockID
	_, err = f.svc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
}

// gateSink parks the first notification until released, holding a settled
// call open so a concurrent request can race it.
type gateSink struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *gateSink) Notify(
	_ context.Context, _ uuid.UUID, _, _, _, _ string,
) error {
	first := false
	s.once.Do(func() { first = true })
	if first {
		close(s.entered)
		<-s.release
	}
	return nil
}

func TestExecute_ConcurrentReusedKey_DifferentRequest(t *testing.T) {
	f := newFixture(t)
	gate := &gateSink{entered: make(chan struct{}), release: make(chan struct{})}
	svc := settlement.New(f.uow, f.locks, f.quotes, gate, nil)

	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("5"))
	p1 := f.preview(t, userID, dec("1"))
	p2 := f.preview(t, userID, dec("2"))

	firstDone := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background(), settlement.Request{
			UserID:         userID,
			FromCurrency:   currency.BTC,
			ToCurrency:     currency.USD,
			Amount:         dec("1"),
			IdempotencyKey: "shared-key",
			Tier:           domain.TierStandard,
			LockID:         p1.LockID,
		})
		firstDone <- err
	}()
	<-gate.entered // first call has committed and is parked in its notification

	// A different request reusing the key must not receive the first
	// call's result; it is a duplicate, and its own lock stays intact.
	_, err := svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("2"),
		IdempotencyKey: "shared-key",
		Tier:           domain.TierStandard,
		LockID:         p2.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	held, err := f.locks.Peek(context.Background(), p2.LockID)
	require.NoError(t, err)
	assert.NotNil(t, held, "rejected duplicate must not consume its lock")

	close(gate.release)
	require.NoError(t, <-firstDone)
}

func TestExecute_UnknownLockID(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("5"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "garbage-lock",
		Tier:           domain.TierStandard,
		LockID:         uuid.New(),
	})
	assert.ErrorIs(t, err, domain.ErrLockExpired)
}

func TestExecute_ForeignLockRejected(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	attacker := uuid.New()
	f.uow.SeedWallet(attacker, currency.BTC, dec("5"))
	p := f.preview(t, owner, dec("1"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         attacker,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "foreign-lock",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrLockExpired)
}

func TestExecute_LockParameterMismatch(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("5"))
	p := f.preview(t, userID, dec("1"))

	// Amount differs beyond tolerance.
	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("2"),
		IdempotencyKey: "mismatch-amount",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrLockMismatch)

	// Pair differs.
	_, err = f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.EUR,
		Amount:         dec("1"),
		IdempotencyKey: "mismatch-pair",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrLockMismatch)

	// The mismatches must not have consumed the lock.
	held, err := f.locks.Peek(context.Background(), p.LockID)
	require.NoError(t, err)
	assert.NotNil(t, held)
}

func TestExecute_AmountWithinTolerance(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("5"))
	p := f.preview(t, userID, dec("1"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1.00005"),
		IdempotencyKey: "within-tolerance",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.NoError(t, err)
}

func TestExecute_InsufficientBalance_LeavesLockValid(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("0.5"))
	p := f.preview(t, userID, dec("1"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "poor-wallet",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The failed balance check must not burn the lock; the user can top up
	// and retry inside the lock window.
	held, lockErr := f.locks.Peek(context.Background(), p.LockID)
	require.NoError(t, lockErr)
	assert.NotNil(t, held)
}

func TestExecute_MissingSourceWallet(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	p := f.preview(t, userID, dec("1"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "no-wallet",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestExecute_FrozenSourceWallet(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	w := f.uow.SeedWallet(userID, currency.BTC, dec("5"))
	w.Frozen = true
	require.NoError(t, f.uow.Wallets.Create(context.Background(), w))
	p := f.preview(t, userID, dec("1"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "frozen",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrWalletFrozen)
}

func TestExecute_WithoutLock_QuotesSynchronously(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("2"))

	res, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "no-lock",
		Tier:           domain.TierStandard,
	})
	require.NoError(t, err)
	// 1 BTC at 95000 market, 0.5% spread, 0.25% fee.
	assert.True(t, res.AmountOut.Equal(dec("94288.6875")), "amount out %s", res.AmountOut)
}

func TestExecute_CommitFailure(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	source := f.uow.SeedWallet(userID, currency.BTC, dec("2"))
	p := f.preview(t, userID, dec("1"))

	f.uow.Txs.CreateErr = errors.New("constraint violation")

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "commit-fail",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.ErrorIs(t, err, domain.ErrSettlementFailed)

	// No transaction rows were written and no notification was sent.
	assert.Empty(t, f.uow.Txs.All())
	assert.Equal(t, 0, f.sink.Count())
	_ = source
}

func TestExecute_NotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("notification service down")
	userID := uuid.New()
	f.uow.SeedWallet(userID, currency.BTC, dec("2"))
	p := f.preview(t, userID, dec("1"))

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         dec("1"),
		IdempotencyKey: "notify-fail",
		Tier:           domain.TierStandard,
		LockID:         p.LockID,
	})
	assert.NoError(t, err, "notification failure must not fail a settled swap")
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	_, err := f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.BTC,
		Amount:         dec("1"),
		IdempotencyKey: "same-currency",
	})
	assert.ErrorIs(t, err, domain.ErrSameCurrency)

	_, err = f.svc.Execute(context.Background(), settlement.Request{
		UserID:         userID,
		FromCurrency:   currency.BTC,
		ToCurrency:     currency.USD,
		Amount:         decimal.Zero,
		IdempotencyKey: "zero-amount",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Execute(context.Background(), settlement.Request{
		UserID:       userID,
		FromCurrency: currency.BTC,
		ToCurrency:   currency.USD,
		Amount:       dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrMissingIdempotencyKey)
}
