package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "swapslot/backend/pkg/errors"
)

// Repository aggregate entry point of the record store
type Repository struct {
	User        UserRepository
	Slot        SlotRepository
	SwapRequest SwapRequestRepository
	Tx          TxRunner
}

// TxRunner runs fn as one atomic unit of work. fn receives a Repository bound
// to that unit; returning an error rolls every write back.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(tx *Repository) error) error
}

// NewRepository builds the GORM-backed repositories
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:        NewUserRepo(db),
		Slot:        NewSlotRepo(db),
		SwapRequest: NewSwapRequestRepo(db),
		Tx:          &gormTxRunner{db: db},
	}
}

// Transaction shorthand for r.Tx.RunInTx
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.Tx.RunInTx(ctx, fn)
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g *gormTxRunner) RunInTx(ctx context.Context, fn func(tx *Repository) error) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
	return translateError(err)
}

// PostgreSQL codes raised when two units of work contend for the same rows
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
)

// translateError maps store contention to ErrConcurrentUpdate; anything else passes through
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pkgerrors.ErrOptimisticLock) {
		return pkgerrors.Wrap(pkgerrors.ErrConcurrentUpdate, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected, pgLockNotAvailable:
			return pkgerrors.Wrap(pkgerrors.ErrConcurrentUpdate, err)
		}
	}
	return err
}
