package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/obs"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/pkg/cryptox"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
)

// tokenAttempts bounds how often a colliding token is regenerated.
const tokenAttempts = 3

// Registry owns the lifecycle of invitations: creation, verification,
// single-use acceptance and cancellation.
type Registry struct {
	Store   store.Store
	Metrics *obs.Metrics

	// Now defaults to time.Now.
	Now func() time.Time

	// Supersede makes a new invitation replace every earlier one for the
	// same team and email. Off by default, so several may be pending.
	Supersede bool
}

func (r *Registry) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateInvitation stores a new invitation valid for domain.InvitationTTL.
// An empty teamName is filled in from the stored team.
func (r *Registry) CreateInvitation(
	ctx context.Context,
	teamID string,
	teamName string,
	email string,
	role domain.Role,
	invitedBy string,
) (domain.Invitation, error) {
	log := slogx.FromContext(ctx)

	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return domain.Invitation{}, fmt.Errorf("%w: team id is required", domain.ErrInvalidInput)
	}
	if role == "" {
		return domain.Invitation{}, fmt.Errorf("%w: role is required", domain.ErrInvalidInput)
	}
	if !role.Invitable() {
		log.Warn("invitation rejected for role", slog.String("team_id", teamID), slog.String("role", string(role)))
		return domain.Invitation{}, fmt.Errorf("%w: role %q cannot be invited", domain.ErrInvalidInput, role)
	}
	email, err := NormalizeEmail(email)
	if err != nil {
		return domain.Invitation{}, err
	}

	if strings.TrimSpace(teamName) == "" {
		team, err := r.Store.Teams().GetTeam(ctx, teamID)
		if err != nil {
			return domain.Invitation{}, mapStoreError(err, "team "+teamID)
		}
		teamName = team.Name
	}

	createdAt := r.now().Truncate(time.Second)
	inv := domain.Invitation{
		TeamID:    teamID,
		TeamName:  teamName,
		Email:     email,
		Role:      role,
		InvitedBy: invitedBy,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(domain.InvitationTTL),
	}

	var superseded int
	err = r.Store.WithTx(ctx, func(tx store.Tx) error {
		if r.Supersede {
			prior, err := tx.Invitations().ListForEmail(ctx, teamID, email)
			if err != nil {
				return err
			}
			for _, p := range prior {
				if err := tx.Invitations().DeleteInvitation(ctx, p.Token); err != nil {
					return err
				}
			}
			superseded = len(prior)
		}

		for attempt := 1; ; attempt++ {
			token, err := cryptox.GenerateToken(cryptox.TokenSize256)
			if err != nil {
				return err
			}
			inv.Token = token

			err = tx.Invitations().CreateInvitation(ctx, inv)
			if !errors.Is(err, store.ErrAlreadyExists) {
				return err
			}
			if attempt == tokenAttempts {
				return fmt.Errorf("%w: no unique invitation token after %d attempts", domain.ErrConflict, attempt)
			}
			log.Warn("invitation token collision, regenerating", slog.Int("attempt", attempt))
		}
	})
	if err != nil {
		err = mapStoreError(err, "team "+teamID)
		if !isTaxonomy(err) {
			log.Error("failed to create invitation", slog.String("team_id", teamID), slog.Any("error", err))
		}
		return domain.Invitation{}, err
	}

	r.Metrics.InvitationCreated()
	log.Info("invitation created",
		slog.String("team_id", teamID),
		slog.String("invitation", cryptox.Fingerprint(inv.Token)),
		slog.String("role", string(role)),
		slog.String("invited_by", invitedBy),
		slog.Int("superseded", superseded),
		slog.Time("expires_at", inv.ExpiresAt),
	)
	return inv, nil
}

// VerifyInviteToken returns the stored invitation as is. Whether it has
// expired is for the caller to decide with Invitation.IsExpired.
func (r *Registry) VerifyInviteToken(ctx context.Context, token string) (domain.Invitation, error) {
	if token == "" {
		return domain.Invitation{}, fmt.Errorf("%w: invitation", domain.ErrNotFound)
	}
	inv, err := r.Store.Invitations().GetInvitation(ctx, token)
	if err != nil {
		return domain.Invitation{}, mapStoreError(err, "invitation")
	}
	return inv, nil
}

// AcceptInvitation adds userID to the invitation's team with the invited role
// and consumes the token. Deleting the token is what makes acceptance single
// use: of two racing calls only one finds it.
func (r *Registry) AcceptInvitation(ctx context.Context, token, userID string) (domain.AcceptResult, error) {
	log := slogx.FromContext(ctx)

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.AcceptResult{}, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if token == "" {
		r.Metrics.InvitationRejected(obs.ReasonNotFound)
		return domain.AcceptResult{}, fmt.Errorf("%w: invitation", domain.ErrNotFound)
	}

	now := r.now()
	var inv domain.Invitation
	err := r.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		inv, err = tx.Invitations().GetInvitation(ctx, token)
		if err != nil {
			return err
		}
		if inv.IsExpired(now) {
			return fmt.Errorf("%w: invitation expired at %s", domain.ErrExpired, inv.ExpiresAt.Format(time.RFC3339))
		}

		perms, err := permission.PermissionsForPackage(permission.PackageForRole(inv.Role))
		if err != nil {
			return err
		}
		joined := now.Truncate(time.Second)
		member := domain.Member{
			TeamID:      inv.TeamID,
			UserID:      userID,
			Email:       inv.Email,
			Role:        inv.Role,
			Status:      domain.MemberActive,
			Permissions: perms,
			JoinedAt:    joined,
			UpdatedAt:   joined,
		}
		if err := tx.Members().AddMember(ctx, member); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return fmt.Errorf("%w: user %s is already a member of team %s", domain.ErrConflict, userID, inv.TeamID)
			}
			return err
		}

		return tx.Invitations().DeleteInvitation(ctx, token)
	})

	attrs := []any{slog.String("invitation", cryptox.Fingerprint(token)), slog.String("user_id", userID)}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrExpired):
		r.Metrics.InvitationRejected(obs.ReasonExpired)
		log.Warn("expired invitation presented", append(attrs, slog.String("team_id", inv.TeamID))...)
		return domain.AcceptResult{}, err
	case errors.Is(err, domain.ErrConflict):
		r.Metrics.InvitationRejected(obs.ReasonConflict)
		log.Warn("invitation accepted by existing member", append(attrs, slog.String("team_id", inv.TeamID))...)
		return domain.AcceptResult{}, err
	case errors.Is(err, store.ErrNotFound):
		r.Metrics.InvitationRejected(obs.ReasonNotFound)
		log.Warn("unknown invitation presented", attrs...)
		return domain.AcceptResult{}, mapStoreError(err, "invitation")
	default:
		log.Error("failed to accept invitation", append(attrs, slog.Any("error", err))...)
		return domain.AcceptResult{}, err
	}

	r.Metrics.InvitationAccepted()
	log.Info("invitation accepted",
		append(attrs, slog.String("team_id", inv.TeamID), slog.String("role", string(inv.Role)))...)
	return domain.AcceptResult{Success: true, TeamID: inv.TeamID, TeamName: inv.TeamName}, nil
}

// CancelInvitation deletes the invitation and reports whether it existed.
func (r *Registry) CancelInvitation(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	err := r.Store.Invitations().DeleteInvitation(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		slogx.FromContext(ctx).Error("failed to cancel invitation", slog.Any("error", err))
		return false, err
	}

	r.Metrics.InvitationCancelled()
	slogx.FromContext(ctx).Info("invitation cancelled", slog.String("invitation", cryptox.Fingerprint(token)))
	return true, nil
}

// GetTeamInvitations lists every stored invitation of the team, expired ones
// included.
func (r *Registry) GetTeamInvitations(ctx context.Context, teamID string) ([]domain.Invitation, error) {
	invs, err := r.Store.Invitations().ListTeamInvitations(ctx, teamID)
	if err != nil {
		return nil, mapStoreError(err, "team "+teamID)
	}
	return invs, nil
}

// NormalizeEmail accepts a bare address and returns it lower-cased.
func NormalizeEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", fmt.Errorf("%w: malformed email %q", domain.ErrInvalidInput, s)
	}
	return strings.ToLower(addr.Address), nil
}
