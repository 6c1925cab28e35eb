// Package memory is an in-process implementation of the user, todo and
// account stores. It backs DB_DRIVER=memory and the handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/accounts"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/google/uuid"
)

type todoRow struct {
	todo.Todo
	seq uint64
}

type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	seq   uint64
	users map[string]user.User // keyed by id
	todos map[string]todoRow   // keyed by id
}

func NewStore() *Store {
	return &Store{
		now:   func() time.Time { return time.Now().UTC() },
		users: make(map[string]user.User),
		todos: make(map[string]todoRow),
	}
}

// users

func (s *Store) Create(_ context.Context, email, passwordHash string) (user.User, error) {
	email = user.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findByEmailLocked(email); ok {
		return user.User{}, user.ErrEmailTaken
	}

	now := s.now()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u

	return u, nil
}

func (s *Store) GetByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.findByEmailLocked(user.NormalizeEmail(email))
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetByID(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (s *Store) UpdateEmail(_ context.Context, id, email string) (user.User, error) {
	email = user.NormalizeEmail(email)

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if other, taken := s.findByEmailLocked(email); taken && other.ID != id {
		return user.User{}, user.ErrEmailTaken
	}

	u.Email = email
	u.UpdatedAt = s.now()
	s.users[id] = u

	return u, nil
}

func (s *Store) findByEmailLocked(email string) (user.User, bool) {
	for _, u := range s.users {
		if u.Email == email {
			return u, true
		}
	}
	return user.User{}, false
}

// todos

func (s *Store) ListByUser(_ context.Context, userID string) ([]todo.Todo, error) {
	s.mu.RLock()
	rows := make([]todoRow, 0)
	for _, r := range s.todos {
		if r.UserID == userID {
			rows = append(rows, r)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	out := make([]todo.Todo, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Todo)
	}
	return out, nil
}

func (s *Store) GetTodo(_ context.Context, id string) (todo.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.todos[id]
	if !ok {
		return todo.Todo{}, todo.ErrNotFound
	}
	return r.Todo, nil
}

func (s *Store) CreateTodo(_ context.Context, userID string, f todo.CreateFields) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return todo.Todo{}, user.ErrNotFound
	}

	now := s.now()
	s.seq++
	t := todo.Todo{
		ID:        uuid.NewString(),
		Title:     f.Title,
		Completed: f.Completed,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.todos[t.ID] = todoRow{Todo: t, seq: s.seq}

	return t, nil
}

func (s *Store) UpdateTodo(_ context.Context, id, userID string, f todo.UpdateFields) (todo.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.todos[id]
	if !ok || r.UserID != userID {
		return todo.Todo{}, todo.ErrNotFound
	}

	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.Completed != nil {
		r.Completed = *f.Completed
	}
	r.UpdatedAt = s.now()
	s.todos[id] = r

	return r.Todo, nil
}

func (s *Store) DeleteTodo(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.todos[id]
	if !ok || r.UserID != userID {
		return todo.ErrNotFound
	}
	delete(s.todos, id)
	return nil
}

// CountTodos is used by tests to observe side effects.
func (s *Store) CountTodos(userID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.todos {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

// accounts

// WithinTx runs fn against copies of the tables and swaps them in only when
// fn succeeds. Writers are serialized for the duration.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx accounts.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{
		users: make(map[string]user.User, len(s.users)),
		todos: make(map[string]todoRow, len(s.todos)),
	}
	for k, v := range s.users {
		tx.users[k] = v
	}
	for k, v := range s.todos {
		tx.todos[k] = v
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.users = tx.users
	s.todos = tx.todos
	return nil
}

type memTx struct {
	users map[string]user.User
	todos map[string]todoRow
}

func (tx *memTx) DeleteTodosByOwner(_ context.Context, userID string) (int64, error) {
	var n int64
	for id, r := range tx.todos {
		if r.UserID == userID {
			delete(tx.todos, id)
			n++
		}
	}
	return n, nil
}

func (tx *memTx) DeleteUser(_ context.Context, userID string) error {
	if _, ok := tx.users[userID]; !ok {
		return user.ErrNotFound
	}
	delete(tx.users, userID)
	return nil
}
