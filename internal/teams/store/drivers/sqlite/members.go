package sqlite

import (
	"context"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
)

type membersRepo struct {
	q dbtx
}

const memberColumns = `team_id, user_id, email, name, role, status, permissions, joined_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (domain.Member, error) {
	var m domain.Member
	var role, status, perms string
	var joined, updated int64
	if err := row.Scan(&m.TeamID, &m.UserID, &m.Email, &m.Name, &role, &status, &perms, &joined, &updated); err != nil {
		return domain.Member{}, err
	}
	m.Role = domain.Role(role)
	m.Status = domain.MemberStatus(status)
	m.Permissions = splitList(perms)
	m.JoinedAt = fromUnix(joined)
	m.UpdatedAt = fromUnix(updated)
	return m, nil
}

const addMember = `INSERT INTO team_members (` + memberColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *membersRepo) AddMember(ctx context.Context, m domain.Member) error {
	_, err := r.q.ExecContext(ctx, addMember,
		m.TeamID,
		m.UserID,
		m.Email,
		m.Name,
		string(m.Role),
		string(m.Status),
		joinList(m.Permissions),
		toUnix(m.JoinedAt),
		toUnix(m.UpdatedAt),
	)
	return mapConstraint(err)
}

const getMember = `SELECT ` + memberColumns + ` FROM team_members WHERE team_id = ? AND user_id = ?`

func (r *membersRepo) GetMember(ctx context.Context, teamID, userID string) (domain.Member, error) {
	m, err := scanMember(r.q.QueryRowContext(ctx, getMember, teamID, userID))
	if err != nil {
		return domain.Member{}, mapNotFound(err)
	}
	return m, nil
}

const listMembers = `SELECT ` + memberColumns + ` FROM team_members WHERE team_id = ? ORDER BY joined_at, rowid`

func (r *membersRepo) ListMembers(ctx context.Context, teamID string) ([]domain.Member, error) {
	rows, err := r.q.QueryContext(ctx, listMembers, teamID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const updateMemberRole = `UPDATE team_members SET role = ?, permissions = ?, updated_at = ? WHERE team_id = ? AND user_id = ?`

func (r *membersRepo) UpdateMemberRole(
	ctx context.Context,
	teamID, userID string,
	role domain.Role,
	perms []string,
	at time.Time,
) error {
	return requireAffected(r.q.ExecContext(ctx, updateMemberRole,
		string(role), joinList(perms), toUnix(at), teamID, userID))
}

const updateMemberPermissions = `UPDATE team_members SET permissions = ?, updated_at = ? WHERE team_id = ? AND user_id = ?`

func (r *membersRepo) UpdateMemberPermissions(
	ctx context.Context,
	teamID, userID string,
	perms []string,
	at time.Time,
) error {
	return requireAffected(r.q.ExecContext(ctx, updateMemberPermissions,
		joinList(perms), toUnix(at), teamID, userID))
}

const removeMember = `DELETE FROM team_members WHERE team_id = ? AND user_id = ?`

func (r *membersRepo) RemoveMember(ctx context.Context, teamID, userID string) error {
	return requireAffected(r.q.ExecContext(ctx, removeMember, teamID, userID))
}
