package service_test

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCreateInvitationTokensAreUnique(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	seen := make(map[string]struct{})
	for range 100 {
		inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
		require.NoError(t, err)
		require.NotEmpty(t, inv.Token)
		_, dup := seen[inv.Token]
		require.False(t, dup, "token %q issued twice", inv.Token)
		seen[inv.Token] = struct{}{}
	}
}

func TestExpiryIsExactlyThirtyDays(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")
	f.clock.Set(start.Add(1500 * time.Millisecond))

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	require.Equal(t, start.Add(time.Second), inv.CreatedAt)
	require.Equal(t, 30*24*time.Hour, inv.ExpiresAt.Sub(inv.CreatedAt))
	require.True(t, inv.ExpiresAt.After(inv.CreatedAt))
}

func TestCreateInvitationValidation(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	tests := []struct {
		name   string
		teamID string
		email  string
		role   domain.Role
		want   error
	}{
		{"missing team id", "", "a@x.com", domain.RoleMember, domain.ErrInvalidInput},
		{"missing role", "t1", "a@x.com", "", domain.ErrInvalidInput},
		{"owner role", "t1", "a@x.com", domain.RoleOwner, domain.ErrInvalidInput},
		{"unknown role", "t1", "a@x.com", domain.Role("boss"), domain.ErrInvalidInput},
		{"missing email", "t1", "  ", domain.RoleMember, domain.ErrInvalidInput},
		{"malformed email", "t1", "not-an-email", domain.RoleMember, domain.ErrInvalidInput},
		{"display name form", "t1", "Alice <a@x.com>", domain.RoleMember, domain.ErrInvalidInput},
		{"unknown team", "t9", "a@x.com", domain.RoleMember, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.registry.CreateInvitation(f.ctx, tt.teamID, "Team", tt.email, tt.role, "owner@x.com")
			require.ErrorIs(t, err, tt.want)
		})
	}

	invs, err := f.registry.GetTeamInvitations(f.ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, invs)
}

func TestCreateInvitationNormalisesAndFillsTeamName(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "", " Alice@X.com ", domain.RoleAdmin, "owner@x.com")
	require.NoError(t, err)
	require.Equal(t, "alice@x.com", inv.Email)
	require.Equal(t, "Team One", inv.TeamName)
	require.Equal(t, domain.RoleAdmin, inv.Role)
}

func TestInvitationEndToEnd(t *testing.T) {
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			f := newFixtureWith(t, d.open(t))
			f.seedTeam(t, "t1", "Team One")

			inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
			require.NoError(t, err)

			got, err := f.registry.VerifyInviteToken(f.ctx, inv.Token)
			require.NoError(t, err)
			require.Equal(t, inv, got)
			require.Equal(t, "a@x.com", got.Email)

			res, err := f.registry.AcceptInvitation(f.ctx, inv.Token, "u123")
			require.NoError(t, err)
			require.Equal(t, domain.AcceptResult{Success: true, TeamID: "t1", TeamName: "Team One"}, res)

			_, err = f.registry.VerifyInviteToken(f.ctx, inv.Token)
			require.ErrorIs(t, err, domain.ErrNotFound)

			m := f.member(t, "t1", "u123")
			require.Equal(t, domain.RoleMember, m.Role)
			require.Equal(t, domain.MemberActive, m.Status)
			require.Equal(t, "a@x.com", m.Email)
			require.Equal(t, permission.PackageDeveloper, service.MemberPackage(m))
		})
	}
}

func TestAcceptIsSingleUse(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, "u1")
	require.NoError(t, err)

	_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, "u2")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.store.Members().GetMember(f.ctx, "t1", "u2")
	require.Error(t, err)
}

func TestAcceptExpiredDoesNotMutate(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	f.clock.Set(inv.ExpiresAt.Add(time.Second))
	_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, "u1")
	require.ErrorIs(t, err, domain.ErrExpired)

	got, err := f.registry.VerifyInviteToken(f.ctx, inv.Token)
	require.NoError(t, err, "expired invitation stays retrievable")
	require.True(t, got.IsExpired(f.clock.Now()))

	members, err := f.store.Members().ListMembers(f.ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, members)

	cancelled, err := f.registry.CancelInvitation(f.ctx, inv.Token)
	require.NoError(t, err)
	require.True(t, cancelled)
}

func TestAcceptAtExpiryInstantSucceeds(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	f.clock.Set(inv.ExpiresAt)
	_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, "u1")
	require.NoError(t, err)
}

func TestAcceptByExistingMemberKeepsToken(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	first, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)
	second, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "b@x.com", domain.RoleAdmin, "owner@x.com")
	require.NoError(t, err)

	_, err = f.registry.AcceptInvitation(f.ctx, first.Token, "u1")
	require.NoError(t, err)

	_, err = f.registry.AcceptInvitation(f.ctx, second.Token, "u1")
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.registry.VerifyInviteToken(f.ctx, second.Token)
	require.NoError(t, err)
	require.Equal(t, domain.RoleMember, f.member(t, "t1", "u1").Role)
}

func TestAcceptRequiresUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.registry.AcceptInvitation(f.ctx, "whatever", " ")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.registry.AcceptInvitation(f.ctx, "", "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.registry.AcceptInvitation(f.ctx, "unknown", "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelInvitation(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	ok, err := f.registry.CancelInvitation(f.ctx, inv.Token)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.registry.CancelInvitation(f.ctx, inv.Token)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.registry.CancelInvitation(f.ctx, "")
	require.NoError(t, err)
	require.False(t, ok)

	members, err := f.store.Members().ListMembers(f.ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, members)
}

func TestGetTeamInvitationsFiltersByTeamAndKeepsExpired(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")
	f.seedTeam(t, "t2", "Team Two")

	old, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	f.clock.Set(start.Add(40 * 24 * time.Hour))
	fresh, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "b@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)
	_, err = f.registry.CreateInvitation(f.ctx, "t2", "Team Two", "c@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	invs, err := f.registry.GetTeamInvitations(f.ctx, "t1")
	require.NoError(t, err)
	require.Len(t, invs, 2)
	require.Equal(t, []string{old.Token, fresh.Token}, []string{invs[0].Token, invs[1].Token})
	require.True(t, invs[0].IsExpired(f.clock.Now()))
}

func TestDuplicateInvitationPolicy(t *testing.T) {
	t.Run("permissive by default", func(t *testing.T) {
		f := newFixture(t)
		f.seedTeam(t, "t1", "Team One")

		a, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
		require.NoError(t, err)
		b, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
		require.NoError(t, err)
		require.NotEqual(t, a.Token, b.Token)

		invs, err := f.registry.GetTeamInvitations(f.ctx, "t1")
		require.NoError(t, err)
		require.Len(t, invs, 2)
	})

	t.Run("supersede replaces earlier invitations", func(t *testing.T) {
		f := newFixture(t)
		f.registry.Supersede = true
		f.seedTeam(t, "t1", "Team One")

		a, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
		require.NoError(t, err)
		other, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "b@x.com", domain.RoleMember, "owner@x.com")
		require.NoError(t, err)
		b, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "A@x.com", domain.RoleAdmin, "owner@x.com")
		require.NoError(t, err)

		_, err = f.registry.VerifyInviteToken(f.ctx, a.Token)
		require.ErrorIs(t, err, domain.ErrNotFound)

		invs, err := f.registry.GetTeamInvitations(f.ctx, "t1")
		require.NoError(t, err)
		require.Len(t, invs, 2)
		require.ElementsMatch(t, []string{other.Token, b.Token}, []string{invs[0].Token, invs[1].Token})
	})
}

func TestConcurrentAcceptHasOneWinner(t *testing.T) {
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			f := newFixtureWith(t, d.open(t))
			f.seedTeam(t, "t1", "Team One")

			inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
			require.NoError(t, err)

			const racers = 10
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				errs []error
			)
			for i := range racers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := f.registry.AcceptInvitation(f.ctx, inv.Token, "u"+strings.Repeat("x", i))
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}()
			}
			wg.Wait()

			var wins, notFound int
			for _, err := range errs {
				switch {
				case err == nil:
					wins++
				case errors.Is(err, domain.ErrNotFound):
					notFound++
				}
			}
			require.Equal(t, 1, wins)
			require.Equal(t, racers-1, notFound)

			members, err := f.store.Members().ListMembers(f.ctx, "t1")
			require.NoError(t, err)
			require.Len(t, members, 1)
		})
	}
}

func TestRegistryMetrics(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	inv, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)
	_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, "u1")
	require.NoError(t, err)
	_, err = f.registry.AcceptInvitation(f.ctx, inv.Token, "u1")
	require.ErrorIs(t, err, domain.ErrNotFound)

	expected := `
# HELP console_invitations_accepted_total Invitations accepted.
# TYPE console_invitations_accepted_total counter
console_invitations_accepted_total 1
# HELP console_invitations_rejected_total Failed acceptance attempts by reason.
# TYPE console_invitations_rejected_total counter
console_invitations_rejected_total{reason="not_found"} 1
`
	require.NoError(t, testutil.GatherAndCompare(f.reg, strings.NewReader(expected),
		"console_invitations_accepted_total",
		"console_invitations_rejected_total",
	))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	got, err := service.NormalizeEmail("Bob.Smith@Example.COM")
	require.NoError(t, err)
	require.Equal(t, "bob.smith@example.com", got)

	_, err = service.NormalizeEmail("bob@")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
