package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TodosRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewTodosRepo(pool *pgxpool.Pool, prom *observability.Prom) *TodosRepo {
	return &TodosRepo{pool: pool, prom: prom}
}

func (r *TodosRepo) ListByUser(ctx context.Context, userID string) ([]todo.Todo, error) {
	output := make([]todo.Todo, 0)

	err := r.prom.ObserveDB("todos.list_by_user", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, title, completed, user_id, created_at, updated_at
			 FROM todos
			 WHERE user_id = $1
			 ORDER BY created_at ASC, id ASC`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t todo.Todo
			if err := rows.Scan(&t.ID, &t.Title, &t.Completed, &t.UserID, &t.CreatedAt, &t.UpdatedAt); err != nil {
				return err
			}
			output = append(output, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *TodosRepo) GetTodo(ctx context.Context, id string) (todo.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return todo.Todo{}, todo.ErrNotFound
	}

	var t todo.Todo

	err := r.prom.ObserveDB("todos.get", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, title, completed, user_id, created_at, updated_at FROM todos WHERE id = $1`,
			id,
		).Scan(&t.ID, &t.Title, &t.Completed, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.Todo{}, todo.ErrNotFound
		}
		return todo.Todo{}, err
	}

	return t, nil
}

func (r *TodosRepo) CreateTodo(ctx context.Context, userID string, f todo.CreateFields) (todo.Todo, error) {
	now := time.Now().UTC()

	t := todo.Todo{
		ID:        uuid.NewString(),
		Title:     f.Title,
		Completed: f.Completed,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.prom.ObserveDB("todos.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO todos (id, user_id, title, completed, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			t.ID, t.UserID, t.Title, t.Completed, t.CreatedAt, t.UpdatedAt,
		)
		return e
	})

	if err != nil {
		var pgErr *pgconn.PgError
		// owner vanished between auth and insert
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return todo.Todo{}, user.ErrNotFound
		}
		return todo.Todo{}, err
	}

	return t, nil
}

// UpdateTodo applies only the non-nil fields. The owner is part of the
// predicate, so another user's id behaves exactly like a missing one.
func (r *TodosRepo) UpdateTodo(ctx context.Context, id, userID string, f todo.UpdateFields) (todo.Todo, error) {
	if _, err := uuid.Parse(id); err != nil {
		return todo.Todo{}, todo.ErrNotFound
	}

	var t todo.Todo

	err := r.prom.ObserveDB("todos.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE todos
				SET title = COALESCE($3, title),
						completed = COALESCE($4, completed),
						updated_at = NOW()
			WHERE id = $1 AND user_id = $2
			RETURNING id, title, completed, user_id, created_at, updated_at`,
			id, userID, f.Title, f.Completed,
		).Scan(&t.ID, &t.Title, &t.Completed, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.Todo{}, todo.ErrNotFound
		}
		return todo.Todo{}, err
	}

	return t, nil
}

func (r *TodosRepo) DeleteTodo(ctx context.Context, id, userID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return todo.ErrNotFound
	}

	var affected int64

	err := r.prom.ObserveDB("todos.delete", func() error {
		tag, e := r.pool.Exec(ctx, `DELETE FROM todos WHERE id = $1 AND user_id = $2`, id, userID)
		affected = tag.RowsAffected()
		return e
	})

	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return todo.ErrNotFound
	}

	return nil
}
