package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/authz"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/pkg/idx"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
)

// TeamService runs the member management actions. Every mutation is decided
// by the authz gate using the actor's stored role.
type TeamService struct {
	Store    store.Store
	Registry *Registry

	// Now defaults to time.Now.
	Now func() time.Time
}

func (s *TeamService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC().Truncate(time.Second)
	}
	return time.Now().UTC().Truncate(time.Second)
}

// membership loads userID's seat in teamID. A missing or malformed team id is
// ErrNotFound; an existing team the user does not belong to is ErrUnauthorized.
func membership(ctx context.Context, st store.Store, teamID, userID string) (domain.Member, error) {
	if _, err := idx.Parse(teamID); err != nil {
		return domain.Member{}, fmt.Errorf("%w: team %s", domain.ErrNotFound, teamID)
	}
	m, err := st.Members().GetMember(ctx, teamID, userID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.Member{}, err
	}
	if _, err := st.Teams().GetTeam(ctx, teamID); err != nil {
		return domain.Member{}, mapStoreError(err, "team "+teamID)
	}
	return domain.Member{}, fmt.Errorf("%w: not a member of team %s", domain.ErrUnauthorized, teamID)
}

// target loads a member the actor wants to act on.
func target(ctx context.Context, st store.Store, teamID, userID string) (domain.Member, error) {
	m, err := st.Members().GetMember(ctx, teamID, userID)
	if err != nil {
		return domain.Member{}, mapStoreError(err, "member "+userID)
	}
	return m, nil
}

// CreateTeam creates a team with the actor as its only owner.
func (s *TeamService) CreateTeam(ctx context.Context, actorID, actorEmail, name string) (domain.Team, error) {
	log := slogx.FromContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Team{}, fmt.Errorf("%w: team name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(actorID) == "" {
		return domain.Team{}, fmt.Errorf("%w: actor id is required", domain.ErrInvalidInput)
	}
	email, err := NormalizeEmail(actorEmail)
	if err != nil {
		return domain.Team{}, err
	}

	perms, err := permission.PermissionsForPackage(permission.PackageOwner)
	if err != nil {
		return domain.Team{}, err
	}

	now := s.now()
	team := domain.Team{
		ID:        idx.NewAt(now).String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := domain.Member{
		TeamID:      team.ID,
		UserID:      actorID,
		Email:       email,
		Role:        domain.RoleOwner,
		Status:      domain.MemberActive,
		Permissions: perms,
		JoinedAt:    now,
		UpdatedAt:   now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Teams().CreateTeam(ctx, team); err != nil {
			return err
		}
		return tx.Members().AddMember(ctx, owner)
	})
	if err != nil {
		log.Error("failed to create team", slog.String("name", name), slog.Any("error", err))
		return domain.Team{}, mapStoreError(err, "team")
	}

	log.Info("team created", slog.String("team_id", team.ID), slog.String("owner_id", actorID))
	return team, nil
}

// GetTeam returns the team to any of its members.
func (s *TeamService) GetTeam(ctx context.Context, actorID, teamID string) (domain.Team, error) {
	if _, err := membership(ctx, s.Store, teamID, actorID); err != nil {
		return domain.Team{}, err
	}
	team, err := s.Store.Teams().GetTeam(ctx, teamID)
	if err != nil {
		return domain.Team{}, mapStoreError(err, "team "+teamID)
	}
	return team, nil
}

// DeleteTeam removes the team with all members and invitations.
func (s *TeamService) DeleteTeam(ctx context.Context, actorID, teamID string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := membership(ctx, tx, teamID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Require(authz.CanDeleteTeam(actor.Role), "delete the team"); err != nil {
			log.Warn("team deletion denied", slog.String("team_id", teamID), slog.String("actor_id", actorID))
			return err
		}
		return tx.Teams().DeleteTeam(ctx, teamID)
	})
	if err != nil {
		return mapStoreError(err, "team "+teamID)
	}
	log.Info("team deleted", slog.String("team_id", teamID), slog.String("actor_id", actorID))
	return nil
}

// Invite creates an invitation on behalf of the actor. Admins may only invite
// plain members.
func (s *TeamService) Invite(
	ctx context.Context,
	actorID string,
	teamID string,
	email string,
	role domain.Role,
) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	if role == "" {
		return domain.Invitation{}, fmt.Errorf("%w: role is required", domain.ErrInvalidInput)
	}
	if !role.Invitable() {
		return domain.Invitation{}, fmt.Errorf("%w: role %q cannot be invited", domain.ErrInvalidInput, role)
	}

	actor, err := membership(ctx, s.Store, teamID, actorID)
	if err != nil {
		return domain.Invitation{}, err
	}
	if err := authz.Require(authz.CanInvite(actor.Role, role), "invite with role "+string(role)); err != nil {
		log.Warn("invitation denied",
			slog.String("team_id", teamID),
			slog.String("actor_id", actorID),
			slog.String("actor_role", string(actor.Role)),
			slog.String("role", string(role)),
		)
		return domain.Invitation{}, err
	}

	team, err := s.Store.Teams().GetTeam(ctx, teamID)
	if err != nil {
		return domain.Invitation{}, mapStoreError(err, "team "+teamID)
	}
	return s.Registry.CreateInvitation(ctx, team.ID, team.Name, email, role, actor.Email)
}

// CancelInvite withdraws a pending invitation of a team the actor manages.
func (s *TeamService) CancelInvite(ctx context.Context, actorID, token string) (bool, error) {
	inv, err := s.Registry.VerifyInviteToken(ctx, token)
	if err != nil {
		return false, err
	}

	actor, err := membership(ctx, s.Store, inv.TeamID, actorID)
	if err != nil {
		return false, err
	}
	if err := authz.Require(authz.CanManageMembers(actor.Role), "cancel invitations"); err != nil {
		slogx.FromContext(ctx).Warn("invitation cancel denied",
			slog.String("team_id", inv.TeamID),
			slog.String("actor_id", actorID),
		)
		return false, err
	}
	return s.Registry.CancelInvitation(ctx, token)
}

// ListInvitations returns the team's invitations to any member.
func (s *TeamService) ListInvitations(ctx context.Context, actorID, teamID string) ([]domain.Invitation, error) {
	if _, err := membership(ctx, s.Store, teamID, actorID); err != nil {
		return nil, err
	}
	return s.Registry.GetTeamInvitations(ctx, teamID)
}

// Roster lists active members in join order followed by one pending entry
// per invitation that can still be accepted.
func (s *TeamService) Roster(ctx context.Context, actorID, teamID string) ([]domain.Member, error) {
	if _, err := membership(ctx, s.Store, teamID, actorID); err != nil {
		return nil, err
	}

	members, err := s.Store.Members().ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	invs, err := s.Registry.GetTeamInvitations(ctx, teamID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	for _, inv := range invs {
		if inv.IsExpired(now) {
			continue
		}
		members = append(members, inv.PendingMember())
	}
	return members, nil
}

// AssignPackage replaces the target's permissions with a built-in package.
func (s *TeamService) AssignPackage(ctx context.Context, actorID, teamID, targetID, pkg string) (domain.Member, error) {
	if pkg == permission.PackageCustom {
		return domain.Member{}, fmt.Errorf("%w: the custom package has no fixed permissions", domain.ErrInvalidInput)
	}
	perms, err := permission.PermissionsForPackage(pkg)
	if err != nil {
		return domain.Member{}, err
	}
	return s.setPermissions(ctx, actorID, teamID, targetID, pkg, perms)
}

// SetPermissions gives the target an explicit permission set. A set equal to
// a built-in package is treated as that package.
func (s *TeamService) SetPermissions(
	ctx context.Context,
	actorID, teamID, targetID string,
	perms []string,
) (domain.Member, error) {
	perms, err := permission.Default.Validate(perms)
	if err != nil {
		return domain.Member{}, err
	}
	return s.setPermissions(ctx, actorID, teamID, targetID, permission.PackageForPermissions(perms), perms)
}

func (s *TeamService) setPermissions(
	ctx context.Context,
	actorID, teamID, targetID string,
	pkg string,
	perms []string,
) (domain.Member, error) {
	log := slogx.FromContext(ctx)

	var updated domain.Member
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := membership(ctx, tx, teamID, actorID)
		if err != nil {
			return err
		}
		tgt, err := target(ctx, tx, teamID, targetID)
		if err != nil {
			return err
		}
		if tgt.Role == domain.RoleOwner {
			return fmt.Errorf("%w: the owner always holds the owner package", domain.ErrInvalidInput)
		}
		if err := authz.Require(authz.CanAssignPackage(actor.Role, tgt.Role, pkg), "assign package "+pkg); err != nil {
			log.Warn("permission change denied",
				slog.String("team_id", teamID),
				slog.String("actor_id", actorID),
				slog.String("target_id", targetID),
				slog.String("package", pkg),
			)
			return err
		}

		if err := tx.Members().UpdateMemberPermissions(ctx, teamID, targetID, perms, s.now()); err != nil {
			return err
		}
		updated, err = target(ctx, tx, teamID, targetID)
		return err
	})
	if err != nil {
		return domain.Member{}, mapStoreError(err, "member "+targetID)
	}
	log.Info("member permissions updated",
		slog.String("team_id", teamID),
		slog.String("target_id", targetID),
		slog.String("package", pkg),
	)
	return updated, nil
}

// ChangeRole moves a member between admin and member. Their permissions are
// reset to the new role's package.
func (s *TeamService) ChangeRole(
	ctx context.Context,
	actorID, teamID, targetID string,
	role domain.Role,
) (domain.Member, error) {
	log := slogx.FromContext(ctx)

	if !role.Invitable() {
		return domain.Member{}, fmt.Errorf("%w: role must be admin or member, ownership moves by transfer", domain.ErrInvalidInput)
	}
	perms, err := permission.PermissionsForPackage(permission.PackageForRole(role))
	if err != nil {
		return domain.Member{}, err
	}

	var from domain.Role
	var updated domain.Member
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := membership(ctx, tx, teamID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Require(authz.CanChangeRole(actor.Role), "change roles"); err != nil {
			log.Warn("role change denied", slog.String("team_id", teamID), slog.String("actor_id", actorID))
			return err
		}
		tgt, err := target(ctx, tx, teamID, targetID)
		if err != nil {
			return err
		}
		if tgt.Role == domain.RoleOwner {
			return fmt.Errorf("%w: the owner's role changes only by transfer", domain.ErrInvalidInput)
		}
		from = tgt.Role

		if err := tx.Members().UpdateMemberRole(ctx, teamID, targetID, role, perms, s.now()); err != nil {
			return err
		}
		updated, err = target(ctx, tx, teamID, targetID)
		return err
	})
	if err != nil {
		return domain.Member{}, mapStoreError(err, "member "+targetID)
	}
	log.Info("member role changed",
		slog.String("team_id", teamID),
		slog.String("target_id", targetID),
		slog.String("from", string(from)),
		slog.String("to", string(role)),
	)
	return updated, nil
}

// RemoveMember takes the target out of the team.
func (s *TeamService) RemoveMember(ctx context.Context, actorID, teamID, targetID string) error {
	log := slogx.FromContext(ctx)

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := membership(ctx, tx, teamID, actorID)
		if err != nil {
			return err
		}
		tgt, err := target(ctx, tx, teamID, targetID)
		if err != nil {
			return err
		}
		if err := authz.Require(authz.CanRemoveMember(actor.Role, tgt.Role), "remove this member"); err != nil {
			log.Warn("member removal denied",
				slog.String("team_id", teamID),
				slog.String("actor_id", actorID),
				slog.String("target_id", targetID),
			)
			return err
		}
		return tx.Members().RemoveMember(ctx, teamID, targetID)
	})
	if err != nil {
		return mapStoreError(err, "member "+targetID)
	}
	log.Info("member removed", slog.String("team_id", teamID), slog.String("target_id", targetID))
	return nil
}

// TransferOwnership hands the team to another active member in one
// transaction. The previous owner stays on as an admin, so a team always has
// exactly one owner.
func (s *TeamService) TransferOwnership(ctx context.Context, actorID, teamID, newOwnerID string) error {
	log := slogx.FromContext(ctx)

	if actorID == newOwnerID {
		return fmt.Errorf("%w: already the owner", domain.ErrInvalidInput)
	}
	ownerPerms, err := permission.PermissionsForPackage(permission.PackageOwner)
	if err != nil {
		return err
	}
	adminPerms, err := permission.PermissionsForPackage(permission.PackageAdmin)
	if err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		actor, err := membership(ctx, tx, teamID, actorID)
		if err != nil {
			return err
		}
		if err := authz.Require(authz.CanTransferOwnership(actor.Role), "transfer ownership"); err != nil {
			return err
		}
		next, err := target(ctx, tx, teamID, newOwnerID)
		if err != nil {
			return err
		}
		if next.Status != domain.MemberActive {
			return fmt.Errorf("%w: member %s is not active", domain.ErrInvalidInput, newOwnerID)
		}

		now := s.now()
		if err := tx.Members().UpdateMemberRole(ctx, teamID, actorID, domain.RoleAdmin, adminPerms, now); err != nil {
			return err
		}
		return tx.Members().UpdateMemberRole(ctx, teamID, newOwnerID, domain.RoleOwner, ownerPerms, now)
	})
	if err != nil {
		err = mapStoreError(err, "member "+newOwnerID)
		if errors.Is(err, domain.ErrUnauthorized) {
			log.Warn("ownership transfer denied", slog.String("team_id", teamID), slog.String("actor_id", actorID))
		}
		return err
	}

	log.Info("ownership transferred",
		slog.String("team_id", teamID),
		slog.String("from", actorID),
		slog.String("to", newOwnerID),
	)
	return nil
}

// MemberPackage names the package a member's permissions match.
func MemberPackage(m domain.Member) string {
	return permission.PackageForPermissions(m.Permissions)
}
