package service_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/obs"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store/drivers/memory"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store/drivers/sqlite"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	ctx      context.Context
	store    store.Store
	clock    *clock
	reg      *prometheus.Registry
	registry *service.Registry
	teams    *service.TeamService
}

type driver struct {
	name string
	open func(t *testing.T) store.Store
}

var drivers = []driver{
	{"memory", func(*testing.T) store.Store { return memory.NewStore() }},
	{"sqlite", func(t *testing.T) store.Store {
		s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "console.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		require.NoError(t, s.ApplyMigrations())
		return s
	}},
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, memory.NewStore())
}

func newFixtureWith(t *testing.T, st store.Store) *fixture {
	t.Helper()

	c := &clock{t: start}
	reg := prometheus.NewRegistry()
	registry := &service.Registry{
		Store:   st,
		Metrics: obs.NewMetrics(reg),
		Now:     c.Now,
	}
	return &fixture{
		ctx:      slogx.WithContext(context.Background(), slogx.Discard()),
		store:    st,
		clock:    c,
		reg:      reg,
		registry: registry,
		teams:    &service.TeamService{Store: st, Registry: registry, Now: c.Now},
	}
}

// seedTeam stores a bare team without any members.
func (f *fixture) seedTeam(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, f.store.Teams().CreateTeam(f.ctx, domain.Team{
		ID:        id,
		Name:      name,
		CreatedAt: start,
		UpdatedAt: start,
	}))
}

// team is a team owned by "owner" with "admin" and "dev" already joined.
type team struct {
	id string
}

func (f *fixture) newTeam(t *testing.T) team {
	t.Helper()

	created, err := f.teams.CreateTeam(f.ctx, "owner", "owner@x.com", "Team One")
	require.NoError(t, err)

	for _, seat := range []struct {
		user string
		role domain.Role
	}{
		{"admin", domain.RoleAdmin},
		{"dev", domain.RoleMember},
		{"dev2", domain.RoleMember},
	} {
		inv, err := f.teams.Invite(f.ctx, "owner", created.ID, seat.user+"@x.com", seat.role)
		require.NoError(t, err)
		_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, seat.user)
		require.NoError(t, err)
	}
	return team{id: created.ID}
}

func (f *fixture) member(t *testing.T, teamID, userID string) domain.Member {
	t.Helper()
	m, err := f.store.Members().GetMember(f.ctx, teamID, userID)
	require.NoError(t, err)
	return m
}
