package database

import (
	"context"
	"fmt"
)

// TxRunner executes a function inside one atomic unit of work. Services
// depend on this interface so tests can substitute an in-memory runner.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// InTx runs fn inside a transaction. The transaction is carried in the
// context, so repositories called from fn automatically participate.
// If the context already carries a transaction, fn joins it — the outer
// caller owns the commit/rollback decision.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFrom(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op after a successful commit.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(WithTx(ctx, tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Ensure DB implements TxRunner at compile time.
var _ TxRunner = (*DB)(nil)
