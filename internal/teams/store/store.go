package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrNestedTx      = errors.New("store: nested transactions are not supported")
)

// Store is the root data access interface implemented by the memory and
// sqlite drivers. Repositories are handed out per call so a Tx can return
// its own transaction-scoped copies.
type Store interface {
	Teams() Teams
	Members() Members
	Invitations() Invitations

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST call Commit or
	// Rollback on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Starting another transaction from it fails
// with ErrNestedTx.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Teams interface {
	CreateTeam(ctx context.Context, t domain.Team) error
	GetTeam(ctx context.Context, id string) (domain.Team, error)

	// DeleteTeam removes the team together with its members and invitations.
	DeleteTeam(ctx context.Context, id string) error
}

type Members interface {
	// AddMember fails with ErrAlreadyExists when the user is already in the
	// team and with ErrNotFound when the team does not exist.
	AddMember(ctx context.Context, m domain.Member) error
	GetMember(ctx context.Context, teamID, userID string) (domain.Member, error)

	// ListMembers returns the team's members in join order.
	ListMembers(ctx context.Context, teamID string) ([]domain.Member, error)

	// UpdateMemberRole and UpdateMemberPermissions stamp UpdatedAt with at.
	UpdateMemberRole(ctx context.Context, teamID, userID string, role domain.Role, perms []string, at time.Time) error
	UpdateMemberPermissions(ctx context.Context, teamID, userID string, perms []string, at time.Time) error
	RemoveMember(ctx context.Context, teamID, userID string) error
}

// InvitationCounts splits the stored invitations by validity at a point in time.
type InvitationCounts struct {
	Pending int
	Expired int
}

type Invitations interface {
	// CreateInvitation fails with ErrAlreadyExists on a token collision and
	// with ErrNotFound when the team does not exist.
	CreateInvitation(ctx context.Context, inv domain.Invitation) error

	// GetInvitation returns the invitation whether or not it has expired.
	GetInvitation(ctx context.Context, token string) (domain.Invitation, error)

	// DeleteInvitation fails with ErrNotFound when nothing was deleted.
	DeleteInvitation(ctx context.Context, token string) error

	// ListTeamInvitations returns every stored invitation of the team,
	// expired ones included, oldest first.
	ListTeamInvitations(ctx context.Context, teamID string) ([]domain.Invitation, error)

	// ListForEmail returns every invitation of the team addressed to email,
	// expired ones included, oldest first.
	ListForEmail(ctx context.Context, teamID, email string) ([]domain.Invitation, error)

	CountInvitations(ctx context.Context, now time.Time) (InvitationCounts, error)
}
