package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

type invitationsRepo struct {
	v view
}

func (r *invitationsRepo) CreateInvitation(_ context.Context, inv domain.Invitation) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.teams[inv.TeamID]; !ok {
			return store.ErrNotFound
		}
		if _, ok := st.invitations[inv.Token]; ok {
			return store.ErrAlreadyExists
		}
		st.invitations[inv.Token] = inv
		return nil
	})
}

func (r *invitationsRepo) GetInvitation(_ context.Context, token string) (domain.Invitation, error) {
	var out domain.Invitation
	err := r.v.do(func(st *state) error {
		inv, ok := st.invitations[token]
		if !ok {
			return store.ErrNotFound
		}
		out = inv
		return nil
	})
	return out, err
}

func (r *invitationsRepo) DeleteInvitation(_ context.Context, token string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.invitations[token]; !ok {
			return store.ErrNotFound
		}
		delete(st.invitations, token)
		return nil
	})
}

func (r *invitationsRepo) filter(keep func(domain.Invitation) bool) ([]domain.Invitation, error) {
	var out []domain.Invitation
	err := r.v.do(func(st *state) error {
		for _, inv := range st.invitations {
			if keep(inv) {
				out = append(out, inv)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b domain.Invitation) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Token, b.Token)
	})
	return out, err
}

func (r *invitationsRepo) ListTeamInvitations(_ context.Context, teamID string) ([]domain.Invitation, error) {
	return r.filter(func(inv domain.Invitation) bool { return inv.TeamID == teamID })
}

func (r *invitationsRepo) ListForEmail(_ context.Context, teamID, email string) ([]domain.Invitation, error) {
	return r.filter(func(inv domain.Invitation) bool {
		return inv.TeamID == teamID && inv.Email == email
	})
}

func (r *invitationsRepo) CountInvitations(_ context.Context, now time.Time) (store.InvitationCounts, error) {
	var counts store.InvitationCounts
	err := r.v.do(func(st *state) error {
		for _, inv := range st.invitations {
			if inv.IsExpired(now) {
				counts.Expired++
			} else {
				counts.Pending++
			}
		}
		return nil
	})
	return counts, err
}
