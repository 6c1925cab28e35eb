// Package accounts owns the account lifecycle operations that span more than
// one table and therefore need a single transaction.
package accounts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/geocoder89/todohub/internal/actorctx"
	"github.com/geocoder89/todohub/internal/auth"
)

// Tx is the set of writes available inside one account transaction.
type Tx interface {
	DeleteTodosByOwner(ctx context.Context, userID string) (int64, error)
	DeleteUser(ctx context.Context, userID string) error
}

// TxRunner commits when fn returns nil and rolls everything back otherwise.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Deletion struct {
	UserID       string
	TodosDeleted int64
}

type Service struct {
	runner TxRunner
	log    *slog.Logger
}

func NewService(runner TxRunner, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{runner: runner, log: log}
}

// DeleteSelf removes the actor's todos and then the actor, atomically.
// A targetID other than the actor's own id yields auth.ErrForbidden and
// touches nothing. When ctx carries an authenticated user, actorID must be
// that user.
func (s *Service) DeleteSelf(ctx context.Context, actorID, targetID string) (Deletion, error) {
	if authed, ok := actorctx.UserIDFrom(ctx); ok && authed != actorID {
		s.log.WarnContext(ctx, "account deletion actor mismatch", "user_id", authed, "actor_id", actorID)
		return Deletion{}, auth.ErrForbidden
	}

	if err := auth.AuthorizeSelf(actorID, targetID); err != nil {
		s.log.InfoContext(ctx, "account deletion refused", "user_id", actorID, "target_id", targetID)
		return Deletion{}, err
	}

	d := Deletion{UserID: actorID}

	err := s.runner.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		n, err := tx.DeleteTodosByOwner(ctx, actorID)
		if err != nil {
			return fmt.Errorf("delete todos: %w", err)
		}

		if err := tx.DeleteUser(ctx, actorID); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}

		d.TodosDeleted = n
		return nil
	})

	if err != nil {
		s.log.ErrorContext(ctx, "account deletion rolled back", "user_id", actorID, "err", err)
		return Deletion{}, err
	}

	s.log.InfoContext(ctx, "account deleted", "user_id", actorID, "todos_deleted", d.TodosDeleted)

	return d, nil
}
