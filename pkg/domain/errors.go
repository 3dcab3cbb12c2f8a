package domain

import "errors"

// Swap/settlement error taxonomy. Errors up to ErrInsufficientBalance are
// validation-class: nothing has been mutated and the caller may correct the
// request and retry. ErrSettlementFailed is fatal for the attempt; the rate
// lock is consumed and the caller must request a fresh preview.
var (
	// ErrRateUnavailable is returned when the market price feed cannot
	// produce a price for the requested pair.
	ErrRateUnavailable = errors.New("exchange rate unavailable")

	// ErrInsufficientAmount is returned when the commission would consume
	// the entire input amount.
	ErrInsufficientAmount = errors.New("amount too small to cover fees")

	// ErrLockExpired is returned on execution with an unknown, already
	// consumed, or expired rate lock.
	ErrLockExpired = errors.New("rate lock expired or invalid")

	// ErrLockMismatch is returned when a rate lock's recorded parameters do
	// not match the execution request.
	ErrLockMismatch = errors.New("rate lock parameters do not match request")

	// ErrDuplicateRequest is returned when a transaction with the same
	// idempotency key already exists. The swap already happened; callers
	// should treat this as success-adjacent.
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrWalletNotFound is returned when no wallet exists for the
	// user and currency.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrWalletFrozen is returned when an operation touches a frozen wallet.
	ErrWalletFrozen = errors.New("wallet is frozen")

	// ErrInsufficientBalance is returned when the source wallet's available
	// balance cannot cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrSettlementFailed wraps any failure of the atomic ledger commit.
	// Storage details are logged, never surfaced.
	ErrSettlementFailed = errors.New("settlement failed")

	// ErrSameCurrency is returned when a swap names the same source and
	// destination currency.
	ErrSameCurrency = errors.New("source and destination currency are the same")

	// ErrInvalidAmount is returned when a request amount is zero or negative.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingIdempotencyKey is returned when a mutating request carries
	// no idempotency key.
	ErrMissingIdempotencyKey = errors.New("missing idempotency key")

	// ErrTransferToSelf is returned when a transfer names the sender as
	// the recipient.
	ErrTransferToSelf = errors.New("cannot transfer to own wallet")

	// ErrWalletExists is returned when creating a wallet for a currency
	// the user already holds.
	ErrWalletExists = errors.New("wallet already exists for currency")
)
