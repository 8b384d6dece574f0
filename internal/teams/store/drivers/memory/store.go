// Package memory is the default, process-local store driver. A single mutex
// serialises every operation; transactions work on a private copy of the
// state that replaces the live state on commit.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

var (
	ErrClosed = errors.New("memory: store closed")
	ErrTxDone = errors.New("memory: transaction already committed or rolled back")
)

type state struct {
	teams       map[string]domain.Team
	members     map[string][]domain.Member // team id -> members in join order
	invitations map[string]domain.Invitation
}

func newState() *state {
	return &state{
		teams:       make(map[string]domain.Team),
		members:     make(map[string][]domain.Member),
		invitations: make(map[string]domain.Invitation),
	}
}

func (s *state) clone() *state {
	c := &state{
		teams:       make(map[string]domain.Team, len(s.teams)),
		members:     make(map[string][]domain.Member, len(s.members)),
		invitations: make(map[string]domain.Invitation, len(s.invitations)),
	}
	for k, v := range s.teams {
		c.teams[k] = v
	}
	for k, v := range s.members {
		ms := make([]domain.Member, len(v))
		for i, m := range v {
			ms[i] = cloneMember(m)
		}
		c.members[k] = ms
	}
	for k, v := range s.invitations {
		c.invitations[k] = v
	}
	return c
}

func cloneMember(m domain.Member) domain.Member {
	m.Permissions = slices.Clone(m.Permissions)
	return m
}

// view is what the repositories operate on. Outside a transaction mu is the
// store mutex; inside one it is nil because the transaction already holds it.
type view struct {
	mu     *sync.Mutex
	st     *state
	closed func() bool
}

func (v view) do(fn func(st *state) error) error {
	if v.mu != nil {
		v.mu.Lock()
		defer v.mu.Unlock()
	}
	if v.closed() {
		return ErrClosed
	}
	return fn(v.st)
}

type Store struct {
	mu     sync.Mutex
	st     *state
	closed bool
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) live() view {
	return view{mu: &s.mu, st: s.st, closed: func() bool { return s.closed }}
}

func (s *Store) Teams() store.Teams             { return &teamsRepo{v: s.live()} }
func (s *Store) Members() store.Members         { return &membersRepo{v: s.live()} }
func (s *Store) Invitations() store.Invitations { return &invitationsRepo{v: s.live()} }

// ApplyMigrations is a no-op; there is no schema.
func (s *Store) ApplyMigrations() error { return nil }

// Tx takes the store lock for the lifetime of the transaction.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	return &txStore{parent: s, st: s.st.clone()}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return ctx.Err()
}

type txStore struct {
	parent *Store
	st     *state
	done   bool
}

func (t *txStore) view() view {
	return view{st: t.st, closed: func() bool { return t.done }}
}

func (t *txStore) Teams() store.Teams             { return &teamsRepo{v: t.view()} }
func (t *txStore) Members() store.Members         { return &membersRepo{v: t.view()} }
func (t *txStore) Invitations() store.Invitations { return &invitationsRepo{v: t.view()} }

func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, store.ErrNestedTx }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error {
	return store.ErrNestedTx
}

func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(ctx context.Context) error { return ctx.Err() }

func (t *txStore) Commit() error {
	if t.done {
		return ErrTxDone
	}
	*t.parent.st = *t.st
	t.done = true
	t.parent.mu.Unlock()
	return nil
}

func (t *txStore) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	t.parent.mu.Unlock()
	return nil
}
