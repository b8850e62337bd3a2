// Package db holds the gorm helpers shared by the SQL catalog: context-carried
// transactions and per-catalog query scopes.
package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// RunInTransaction runs fn in a transaction on conn. Nested calls join the
// transaction already carried by ctx instead of opening a new one, so a bulk
// write built from single-row operations commits or rolls back as a whole.
func RunInTransaction(ctx context.Context, conn *gorm.DB, fn func(ctx context.Context) error) error {
	if InTransaction(ctx) {
		return fn(ctx)
	}
	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// Conn returns the transaction carried by ctx, or conn bound to ctx.
func Conn(ctx context.Context, conn *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return conn.WithContext(ctx)
}

// InTransaction reports whether ctx carries a transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*gorm.DB)
	return ok
}
