package accounts_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/auth"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

func seed(t *testing.T, store *memory.Store, email string, todos int) user.User {
	t.Helper()
	ctx := context.Background()

	u, err := store.Create(ctx, email, "hash")
	require.NoError(t, err)

	for i := 0; i < todos; i++ {
		_, err := store.CreateTodo(ctx, u.ID, todo.CreateFields{Title: "t"})
		require.NoError(t, err)
	}
	return u
}

func TestDeleteSelf(t *testing.T) {
	store := memory.NewStore()
	alice := seed(t, store, "alice@example.com", 3)
	bob := seed(t, store, "bob@example.com", 2)

	svc := accounts.NewService(store, quietLog)

	d, err := svc.DeleteSelf(context.Background(), alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, accounts.Deletion{UserID: alice.ID, TodosDeleted: 3}, d)

	_, err = store.GetByID(context.Background(), alice.ID)
	assert.ErrorIs(t, err, user.ErrNotFound)
	assert.Equal(t, 0, store.CountTodos(alice.ID))
	assert.Equal(t, 2, store.CountTodos(bob.ID))
}

func TestDeleteSelf_ForbiddenTouchesNothing(t *testing.T) {
	store := memory.NewStore()
	alice := seed(t, store, "alice@example.com", 0)
	bob := seed(t, store, "bob@example.com", 2)

	runner := &recordingRunner{inner: store}
	svc := accounts.NewService(runner, quietLog)

	_, err := svc.DeleteSelf(context.Background(), alice.ID, bob.ID)
	require.ErrorIs(t, err, auth.ErrForbidden)

	assert.Zero(t, runner.calls, "no transaction should be opened")
	assert.Equal(t, 2, store.CountTodos(bob.ID))
}

func TestDeleteSelf_ActorMustMatchAuthenticatedUser(t *testing.T) {
	store := memory.NewStore()
	alice := seed(t, store, "alice@example.com", 1)
	bob := seed(t, store, "bob@example.com", 1)

	svc := accounts.NewService(store, quietLog)

	// authenticated as alice, but asking to act as bob on bob's account
	ctx := actorctx.WithUserID(context.Background(), alice.ID)

	_, err := svc.DeleteSelf(ctx, bob.ID, bob.ID)
	require.ErrorIs(t, err, auth.ErrForbidden)
	assert.Equal(t, 1, store.CountTodos(bob.ID))

	_, err = svc.DeleteSelf(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, store.CountTodos(alice.ID))
}

func TestDeleteSelf_RollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name string
		tx   func(accounts.Tx) accounts.Tx
	}{
		{
			name: "user_delete_fails",
			tx:   func(tx accounts.Tx) accounts.Tx { return failingTx{Tx: tx, failUser: true} },
		},
		{
			name: "todo_delete_fails",
			tx:   func(tx accounts.Tx) accounts.Tx { return failingTx{Tx: tx, failTodos: true} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			alice := seed(t, store, "alice@example.com", 2)

			svc := accounts.NewService(wrapRunner{inner: store, wrap: tt.tx}, quietLog)

			_, err := svc.DeleteSelf(context.Background(), alice.ID, alice.ID)
			require.ErrorIs(t, err, errBoom)

			_, err = store.GetByID(context.Background(), alice.ID)
			assert.NoError(t, err)
			assert.Equal(t, 2, store.CountTodos(alice.ID))
		})
	}
}

var errBoom = errors.New("boom")

type recordingRunner struct {
	inner accounts.TxRunner
	calls int
}

func (r *recordingRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accounts.Tx) error) error {
	r.calls++
	return r.inner.WithinTx(ctx, fn)
}

type wrapRunner struct {
	inner accounts.TxRunner
	wrap  func(accounts.Tx) accounts.Tx
}

func (w wrapRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accounts.Tx) error) error {
	return w.inner.WithinTx(ctx, func(ctx context.Context, tx accounts.Tx) error {
		return fn(ctx, w.wrap(tx))
	})
}

type failingTx struct {
	accounts.Tx
	failTodos bool
	failUser  bool
}

func (f failingTx) DeleteTodosByOwner(ctx context.Context, userID string) (int64, error) {
	if f.failTodos {
		return 0, errBoom
	}
	return f.Tx.DeleteTodosByOwner(ctx, userID)
}

func (f failingTx) DeleteUser(ctx context.Context, userID string) error {
	if f.failUser {
		return errBoom
	}
	return f.Tx.DeleteUser(ctx, userID)
}
