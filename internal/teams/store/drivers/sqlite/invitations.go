package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
)

type invitationsRepo struct {
	q dbtx
}

const invitationColumns = `token, team_id, team_name, email, role, invited_by, created_at, expires_at`

func scanInvitation(row rowScanner) (domain.Invitation, error) {
	var inv domain.Invitation
	var role string
	var created, expires int64
	if err := row.Scan(&inv.Token, &inv.TeamID, &inv.TeamName, &inv.Email, &role, &inv.InvitedBy, &created, &expires); err != nil {
		return domain.Invitation{}, err
	}
	inv.Role = domain.Role(role)
	inv.CreatedAt = fromUnix(created)
	inv.ExpiresAt = fromUnix(expires)
	return inv, nil
}

const createInvitation = `INSERT INTO team_invitations (` + invitationColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (r *invitationsRepo) CreateInvitation(ctx context.Context, inv domain.Invitation) error {
	_, err := r.q.ExecContext(ctx, createInvitation,
		inv.Token,
		inv.TeamID,
		inv.TeamName,
		inv.Email,
		string(inv.Role),
		inv.InvitedBy,
		toUnix(inv.CreatedAt),
		toUnix(inv.ExpiresAt),
	)
	return mapConstraint(err)
}

const getInvitation = `SELECT ` + invitationColumns + ` FROM team_invitations WHERE token = ?`

func (r *invitationsRepo) GetInvitation(ctx context.Context, token string) (domain.Invitation, error) {
	inv, err := scanInvitation(r.q.QueryRowContext(ctx, getInvitation, token))
	if err != nil {
		return domain.Invitation{}, mapNotFound(err)
	}
	return inv, nil
}

const deleteInvitation = `DELETE FROM team_invitations WHERE token = ?`

func (r *invitationsRepo) DeleteInvitation(ctx context.Context, token string) error {
	return requireAffected(r.q.ExecContext(ctx, deleteInvitation, token))
}

func (r *invitationsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Invitation, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

const listTeamInvitations = `SELECT ` + invitationColumns + ` FROM team_invitations
WHERE team_id = ? ORDER BY created_at, token`

func (r *invitationsRepo) ListTeamInvitations(ctx context.Context, teamID string) ([]domain.Invitation, error) {
	return r.list(ctx, listTeamInvitations, teamID)
}

const listForEmail = `SELECT ` + invitationColumns + ` FROM team_invitations
WHERE team_id = ? AND email = ? ORDER BY created_at, token`

func (r *invitationsRepo) ListForEmail(ctx context.Context, teamID, email string) ([]domain.Invitation, error) {
	return r.list(ctx, listForEmail, teamID, email)
}

// An invitation is expired when expires_at < cutoff.
const countInvitations = `SELECT
    COALESCE(SUM(CASE WHEN expires_at >= ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN expires_at <  ? THEN 1 ELSE 0 END), 0)
FROM team_invitations`

func (r *invitationsRepo) CountInvitations(ctx context.Context, now time.Time) (store.InvitationCounts, error) {
	// expires_at is whole seconds, so any fraction of a second past it
	// already counts as expired.
	cutoff := toUnix(now)
	if now.Nanosecond() > 0 {
		cutoff++
	}

	var counts store.InvitationCounts
	err := r.q.QueryRowContext(ctx, countInvitations, cutoff, cutoff).Scan(&counts.Pending, &counts.Expired)
	return counts, err
}
