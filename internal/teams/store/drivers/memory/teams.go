package memory

import (
	"context"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

type teamsRepo struct {
	v view
}

func (r *teamsRepo) CreateTeam(_ context.Context, t domain.Team) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.teams[t.ID]; ok {
			return store.ErrAlreadyExists
		}
		st.teams[t.ID] = t
		return nil
	})
}

func (r *teamsRepo) GetTeam(_ context.Context, id string) (domain.Team, error) {
	var out domain.Team
	err := r.v.do(func(st *state) error {
		t, ok := st.teams[id]
		if !ok {
			return store.ErrNotFound
		}
		out = t
		return nil
	})
	return out, err
}

func (r *teamsRepo) DeleteTeam(_ context.Context, id string) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.teams[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.teams, id)
		delete(st.members, id)
		for token, inv := range st.invitations {
			if inv.TeamID == id {
				delete(st.invitations, token)
			}
		}
		return nil
	})
}
