package repository

import (
	"context"

	repo "github.com/obohaghogho/fxwallet/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides the transaction boundary and repository access in one
// abstraction. Every repository handed out inside Do is bound to the same
// database transaction, so the atomic swap commit either lands every
// write or none.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs fn in a transaction boundary, providing a UoW whose
// repositories share the transaction session.
func (u *UoW) Do(ctx context.Context, fn func(uow repo.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// session returns the transaction when inside Do, otherwise the base
// connection for plain validation reads.
func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

// WalletRepository implements repository.UnitOfWork.
func (u *UoW) WalletRepository() (repo.WalletRepository, error) {
	return NewWalletRepository(u.session()), nil
}

// TransactionRepository implements repository.UnitOfWork.
func (u *UoW) TransactionRepository() (repo.TransactionRepository, error) {
	return NewTransactionRepository(u.session()), nil
}

// RevenueRepository implements repository.UnitOfWork.
func (u *UoW) RevenueRepository() (repo.RevenueRepository, error) {
	return NewRevenueRepository(u.session()), nil
}

// FeePolicyRepository implements repository.UnitOfWork.
func (u *UoW) FeePolicyRepository() (repo.FeePolicyRepository, error) {
	return NewFeePolicyRepository(u.session()), nil
}
