package postgres

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestTxContext(t *testing.T) {
	read := &sqlx.DB{}
	write := &sqlx.DB{}
	conn := &Connection{Read: read, Write: write}
	ctx := context.Background()

	t.Run("no transaction falls through to the connections", func(t *testing.T) {
		assert.Nil(t, TxFromContext(ctx))
		assert.Same(t, read, conn.Reader(ctx))
		assert.Same(t, write, conn.Writer(ctx))
	})

	t.Run("transaction in context is preferred", func(t *testing.T) {
		tx := &sqlx.Tx{}
		txCtx := context.WithValue(ctx, txKey{}, tx)

		assert.Same(t, tx, TxFromContext(txCtx))
		assert.Same(t, tx, conn.Reader(txCtx))
		assert.Same(t, tx, conn.Writer(txCtx))
	})

	t.Run("WithoutTx strips the transaction", func(t *testing.T) {
		tx := &sqlx.Tx{}
		txCtx := context.WithValue(ctx, txKey{}, tx)

		detached := WithoutTx(txCtx)
		assert.Nil(t, TxFromContext(detached))
		assert.Same(t, read, conn.Reader(detached))
		assert.Same(t, write, conn.Writer(detached))
	})

	t.Run("WithoutTx without a transaction returns the context unchanged", func(t *testing.T) {
		assert.Equal(t, ctx, WithoutTx(ctx))
	})
}
