package postgres

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type txKey struct{}

// WithTx runs fn inside a transaction on the write connection. The transaction
// is carried through the context so that nested repository calls join it
// instead of opening their own.
func (c *Connection) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := c.Write.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// WithoutTx returns a context that no longer carries a transaction. Work
// detached from a transactional call path, such as a goroutine that outlives
// the commit, must use it so that Reader and Writer fall back to the plain
// connections instead of a transaction that may already be finished.
func WithoutTx(ctx context.Context) context.Context {
	if TxFromContext(ctx) == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, nil)
}

// TxFromContext returns the transaction carried by ctx, or nil.
func TxFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

// Writer returns the transaction carried by ctx when present, otherwise the
// plain write connection.
func (c *Connection) Writer(ctx context.Context) sqlx.ExtContext {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.Write
}

// Reader returns the transaction carried by ctx when present (reads inside a
// transaction must see its uncommitted writes), otherwise the read connection.
func (c *Connection) Reader(ctx context.Context) sqlx.ExtContext {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return c.Read
}

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
