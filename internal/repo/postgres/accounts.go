package postgres

import (
	"context"
	"fmt"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{pool: pool, prom: prom}
}

func (r *AccountsRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.pool.BeginTx(ctx, pgx.TxOptions{})
}

// WithinTx commits once fn succeeds; any error (or panic) rolls back.
func (r *AccountsRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accounts.Tx) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &accountTx{tx: tx, prom: r.prom}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

type accountTx struct {
	tx   pgx.Tx
	prom *observability.Prom
}

func (a *accountTx) DeleteTodosByOwner(ctx context.Context, userID string) (int64, error) {
	var n int64

	err := a.prom.ObserveDB("accounts.delete_todos", func() error {
		tag, e := a.tx.Exec(ctx, `DELETE FROM todos WHERE user_id = $1`, userID)
		n = tag.RowsAffected()
		return e
	})

	return n, err
}

func (a *accountTx) DeleteUser(ctx context.Context, userID string) error {
	var affected int64

	err := a.prom.ObserveDB("accounts.delete_user", func() error {
		tag, e := a.tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return user.ErrNotFound
	}

	return nil
}
