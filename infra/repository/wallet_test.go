package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/obohaghogho/fxwallet/pkg/currency"
	"github.com/obohaghogho/fxwallet/pkg/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDb.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDb,
		DriverName: "postgres",
	})
	db, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestWalletRepository_Debit_Guarded(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}
	walletID := uuid.New()
	amount := decimal.RequireFromString("25.5")

	// The guard must live in the WHERE clause of the same UPDATE.
	mock.ExpectExec(`UPDATE "wallets" SET .+ WHERE id = .+ AND frozen = false AND available_balance >= .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Debit(context.Background(), walletID, amount)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_Debit_GuardFails(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}

	// Zero rows affected means the balance guard rejected the decrement.
	mock.ExpectExec(`UPDATE "wallets" SET .+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Debit(context.Background(), uuid.New(), decimal.NewFromInt(100))
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestWalletRepository_Debit_NonPositiveAmount(t *testing.T) {
	db, _ := newMockDB(t)
	repo := walletRepository{db: db}

	err := repo.Debit(context.Background(), uuid.New(), decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestWalletRepository_Credit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}

	mock.ExpectExec(`UPDATE "wallets" SET .+ WHERE id = .+`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Credit(context.Background(), uuid.New(), decimal.NewFromInt(10))
	require.NoError(t, err)
}

func TestWalletRepository_Credit_MissingWallet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}

	mock.ExpectExec(`UPDATE "wallets" SET .+`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Credit(context.Background(), uuid.New(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestWalletRepository_GetByUserAndCurrency_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}

	mock.ExpectQuery(`SELECT .+ FROM "wallets"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	w, err := repo.GetByUserAndCurrency(context.Background(), uuid.New(), currency.USD)
	require.NoError(t, err, "a missing wallet is not an error")
	assert.Nil(t, w)
}

func TestWalletRepository_Get(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}
	walletID := uuid.New()
	userID := uuid.New()
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "currency", "balance", "available_balance",
		"frozen", "address", "created_at", "updated_at",
	}).AddRow(walletID, userID, "BTC", "1.5", "1.25", false, "BTC-addr", now, now)
	mock.ExpectQuery(`SELECT .+ FROM "wallets"`).WillReturnRows(rows)

	w, err := repo.Get(context.Background(), walletID)
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, currency.BTC, w.Currency)
	assert.True(t, w.Balance.Equal(decimal.RequireFromString("1.5")))
	assert.True(t, w.AvailableBalance.Equal(decimal.RequireFromString("1.25")))
}

func TestWalletRepository_Create_Error(t *testing.T) {
	db, mock := newMockDB(t)
	repo := walletRepository{db: db}

	mock.ExpectExec(`INSERT INTO "wallets" .+`).
		WillReturnError(errors.New("unique violation"))

	err := repo.Create(context.Background(), domain.NewWallet(uuid.New(), currency.USD))
	assert.Error(t, err)
}
