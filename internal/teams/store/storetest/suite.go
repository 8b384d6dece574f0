// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/stretchr/testify/require"
)

// Epoch is the fixed creation time used by the fixtures.
var Epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// Factory returns a fresh, migrated store.
type Factory func(t *testing.T) store.Store

func Team(id, name string) domain.Team {
	return domain.Team{ID: id, Name: name, CreatedAt: Epoch, UpdatedAt: Epoch}
}

func Member(teamID, userID string, role domain.Role, perms ...string) domain.Member {
	return domain.Member{
		TeamID:      teamID,
		UserID:      userID,
		Email:       userID + "@x.com",
		Role:        role,
		Status:      domain.MemberActive,
		Permissions: perms,
		JoinedAt:    Epoch,
		UpdatedAt:   Epoch,
	}
}

func Invitation(token, teamID, email string, createdAt time.Time) domain.Invitation {
	return domain.Invitation{
		Token:     token,
		TeamID:    teamID,
		TeamName:  "Team " + teamID,
		Email:     email,
		Role:      domain.RoleMember,
		InvitedBy: "owner@x.com",
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(domain.InvitationTTL),
	}
}

// Run exercises a driver against the shared contract.
func Run(t *testing.T, newStore Factory) {
	t.Run("teams", func(t *testing.T) { testTeams(t, newStore(t)) })
	t.Run("members", func(t *testing.T) { testMembers(t, newStore(t)) })
	t.Run("invitations", func(t *testing.T) { testInvitations(t, newStore(t)) })
	t.Run("invitations for email", func(t *testing.T) { testInvitationsForEmail(t, newStore(t)) })
	t.Run("delete team cascades", func(t *testing.T) { testCascade(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("single delete wins", func(t *testing.T) { testConcurrentDelete(t, newStore(t)) })
}

func testTeams(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))
	require.ErrorIs(t, s.Teams().CreateTeam(ctx, Team("t1", "Again")), store.ErrAlreadyExists)

	got, err := s.Teams().GetTeam(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, Team("t1", "Team One"), got)

	_, err = s.Teams().GetTeam(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Teams().DeleteTeam(ctx, "missing"), store.ErrNotFound)
}

func testMembers(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))

	owner := Member("t1", "u-owner", domain.RoleOwner, "a", "b")
	dev := Member("t1", "u-dev", domain.RoleMember, "a")
	dev.JoinedAt = Epoch.Add(time.Minute)
	dev.UpdatedAt = dev.JoinedAt

	require.NoError(t, s.Members().AddMember(ctx, owner))
	require.NoError(t, s.Members().AddMember(ctx, dev))
	require.ErrorIs(t, s.Members().AddMember(ctx, dev), store.ErrAlreadyExists)
	require.ErrorIs(t, s.Members().AddMember(ctx, Member("nope", "u1", domain.RoleMember)), store.ErrNotFound)

	list, err := s.Members().ListMembers(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, []domain.Member{owner, dev}, list)

	edited := Epoch.Add(time.Hour)
	require.NoError(t, s.Members().UpdateMemberPermissions(ctx, "t1", "u-dev", []string{"a", "c"}, edited))
	got, err := s.Members().GetMember(ctx, "t1", "u-dev")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "c"}, got.Permissions)
	require.Equal(t, edited, got.UpdatedAt)
	require.Equal(t, dev.JoinedAt, got.JoinedAt)

	promoted := edited.Add(time.Hour)
	require.NoError(t, s.Members().UpdateMemberRole(ctx, "t1", "u-dev", domain.RoleAdmin, []string{"z"}, promoted))
	got, err = s.Members().GetMember(ctx, "t1", "u-dev")
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.Equal(t, []string{"z"}, got.Permissions)
	require.Equal(t, promoted, got.UpdatedAt)

	require.ErrorIs(t, s.Members().UpdateMemberPermissions(ctx, "t1", "nobody", nil, edited), store.ErrNotFound)
	require.ErrorIs(t, s.Members().UpdateMemberRole(ctx, "t1", "nobody", domain.RoleAdmin, nil, edited), store.ErrNotFound)

	require.NoError(t, s.Members().RemoveMember(ctx, "t1", "u-dev"))
	require.ErrorIs(t, s.Members().RemoveMember(ctx, "t1", "u-dev"), store.ErrNotFound)
	_, err = s.Members().GetMember(ctx, "t1", "u-dev")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testInvitations(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t2", "Team Two")))

	first := Invitation("tok-1", "t1", "a@x.com", Epoch)
	second := Invitation("tok-2", "t1", "a@x.com", Epoch.Add(time.Hour))
	other := Invitation("tok-3", "t2", "b@x.com", Epoch)

	for _, inv := range []domain.Invitation{second, first, other} {
		require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))
	}
	require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, first), store.ErrAlreadyExists)
	require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, Invitation("tok-x", "nope", "a@x.com", Epoch)), store.ErrNotFound)

	got, err := s.Invitations().GetInvitation(ctx, "tok-1")
	require.NoError(t, err)
	require.Equal(t, first, got)

	list, err := s.Invitations().ListTeamInvitations(ctx, "t1")
	require.NoError(t, err)
	require.Equal(t, []domain.Invitation{first, second}, list)

	counts, err := s.Invitations().CountInvitations(ctx, Epoch.Add(domain.InvitationTTL).Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, store.InvitationCounts{Pending: 1, Expired: 2}, counts)

	require.NoError(t, s.Invitations().DeleteInvitation(ctx, "tok-1"))
	require.ErrorIs(t, s.Invitations().DeleteInvitation(ctx, "tok-1"), store.ErrNotFound)
	_, err = s.Invitations().GetInvitation(ctx, "tok-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testInvitationsForEmail(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t2", "Team Two")))

	// Created far enough apart that old has expired by the time recent is sent.
	old := Invitation("tok-old", "t1", "a@x.com", Epoch)
	recent := Invitation("tok-new", "t1", "a@x.com", Epoch.Add(domain.InvitationTTL+time.Hour))
	otherEmail := Invitation("tok-b", "t1", "b@x.com", Epoch)
	otherTeam := Invitation("tok-t2", "t2", "a@x.com", Epoch)

	for _, inv := range []domain.Invitation{recent, otherTeam, old, otherEmail} {
		require.NoError(t, s.Invitations().CreateInvitation(ctx, inv))
	}
	require.True(t, old.IsExpired(recent.CreatedAt))

	got, err := s.Invitations().ListForEmail(ctx, "t1", "a@x.com")
	require.NoError(t, err)
	require.Equal(t, []domain.Invitation{old, recent}, got)

	none, err := s.Invitations().ListForEmail(ctx, "t2", "b@x.com")
	require.NoError(t, err)
	require.Empty(t, none)
}

func testCascade(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))
	require.NoError(t, s.Members().AddMember(ctx, Member("t1", "u1", domain.RoleOwner)))
	require.NoError(t, s.Invitations().CreateInvitation(ctx, Invitation("tok", "t1", "a@x.com", Epoch)))

	require.NoError(t, s.Teams().DeleteTeam(ctx, "t1"))

	members, err := s.Members().ListMembers(ctx, "t1")
	require.NoError(t, err)
	require.Empty(t, members)

	_, err = s.Invitations().GetInvitation(ctx, "tok")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Members().AddMember(ctx, Member("t1", "u1", domain.RoleOwner)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Members().GetMember(ctx, "t1", "u1")
	require.ErrorIs(t, err, store.ErrNotFound, "rolled back write must not be visible")

	err = s.WithTx(ctx, func(tx store.Tx) error {
		require.ErrorIs(t, tx.WithTx(ctx, func(store.Tx) error { return nil }), store.ErrNestedTx)
		return tx.Members().AddMember(ctx, Member("t1", "u1", domain.RoleOwner))
	})
	require.NoError(t, err)

	_, err = s.Members().GetMember(ctx, "t1", "u1")
	require.NoError(t, err)
}

// testConcurrentDelete races transactional deletes of one invitation; only
// one of them may observe it.
func testConcurrentDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Teams().CreateTeam(ctx, Team("t1", "Team One")))
	require.NoError(t, s.Invitations().CreateInvitation(ctx, Invitation("tok", "t1", "a@x.com", Epoch)))

	const racers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		notFound int
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithTx(ctx, func(tx store.Tx) error {
				return tx.Invitations().DeleteInvitation(ctx, "tok")
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrNotFound):
				notFound++
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, wins)
	require.Equal(t, racers-1, notFound)
}
