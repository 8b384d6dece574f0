package memory

import (
	"context"
	"slices"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

type membersRepo struct {
	v view
}

func indexOf(ms []domain.Member, userID string) int {
	return slices.IndexFunc(ms, func(m domain.Member) bool { return m.UserID == userID })
}

func (r *membersRepo) AddMember(_ context.Context, m domain.Member) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.teams[m.TeamID]; !ok {
			return store.ErrNotFound
		}
		if indexOf(st.members[m.TeamID], m.UserID) >= 0 {
			return store.ErrAlreadyExists
		}
		st.members[m.TeamID] = append(st.members[m.TeamID], cloneMember(m))
		return nil
	})
}

func (r *membersRepo) GetMember(_ context.Context, teamID, userID string) (domain.Member, error) {
	var out domain.Member
	err := r.v.do(func(st *state) error {
		i := indexOf(st.members[teamID], userID)
		if i < 0 {
			return store.ErrNotFound
		}
		out = cloneMember(st.members[teamID][i])
		return nil
	})
	return out, err
}

func (r *membersRepo) ListMembers(_ context.Context, teamID string) ([]domain.Member, error) {
	var out []domain.Member
	err := r.v.do(func(st *state) error {
		for _, m := range st.members[teamID] {
			out = append(out, cloneMember(m))
		}
		return nil
	})
	return out, err
}

func (r *membersRepo) update(teamID, userID string, at time.Time, fn func(m *domain.Member)) error {
	return r.v.do(func(st *state) error {
		ms := st.members[teamID]
		i := indexOf(ms, userID)
		if i < 0 {
			return store.ErrNotFound
		}
		fn(&ms[i])
		ms[i].UpdatedAt = at.UTC()
		return nil
	})
}

func (r *membersRepo) UpdateMemberRole(
	ctx context.Context,
	teamID, userID string,
	role domain.Role,
	perms []string,
	at time.Time,
) error {
	return r.update(teamID, userID, at, func(m *domain.Member) {
		m.Role = role
		m.Permissions = slices.Clone(perms)
	})
}

func (r *membersRepo) UpdateMemberPermissions(
	ctx context.Context,
	teamID, userID string,
	perms []string,
	at time.Time,
) error {
	return r.update(teamID, userID, at, func(m *domain.Member) {
		m.Permissions = slices.Clone(perms)
	})
}

func (r *membersRepo) RemoveMember(_ context.Context, teamID, userID string) error {
	return r.v.do(func(st *state) error {
		ms := st.members[teamID]
		i := indexOf(ms, userID)
		if i < 0 {
			return store.ErrNotFound
		}
		st.members[teamID] = slices.Delete(ms, i, i+1)
		return nil
	})
}
