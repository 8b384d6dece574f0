package sqlite

import (
	"context"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
)

type teamsRepo struct {
	q dbtx
}

const createTeam = `INSERT INTO teams (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`

func (r *teamsRepo) CreateTeam(ctx context.Context, t domain.Team) error {
	_, err := r.q.ExecContext(ctx, createTeam, t.ID, t.Name, toUnix(t.CreatedAt), toUnix(t.UpdatedAt))
	return mapConstraint(err)
}

const getTeam = `SELECT id, name, created_at, updated_at FROM teams WHERE id = ?`

func (r *teamsRepo) GetTeam(ctx context.Context, id string) (domain.Team, error) {
	var t domain.Team
	var created, updated int64
	err := r.q.QueryRowContext(ctx, getTeam, id).Scan(&t.ID, &t.Name, &created, &updated)
	if err != nil {
		return domain.Team{}, mapNotFound(err)
	}
	t.CreatedAt = fromUnix(created)
	t.UpdatedAt = fromUnix(updated)
	return t, nil
}

const deleteTeam = `DELETE FROM teams WHERE id = ?`

// DeleteTeam relies on ON DELETE CASCADE for members and invitations.
func (r *teamsRepo) DeleteTeam(ctx context.Context, id string) error {
	return requireAffected(r.q.ExecContext(ctx, deleteTeam, id))
}
