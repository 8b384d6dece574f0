package authz_test

import (
	"testing"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/authz"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
	"github.com/stretchr/testify/require"
)

const (
	owner  = domain.RoleOwner
	admin  = domain.RoleAdmin
	member = domain.RoleMember
)

func TestAuthorizationMatrix(t *testing.T) {
	t.Parallel()

	t.Run("owner assigns admin package", func(t *testing.T) {
		require.True(t, authz.CanAssignPackage(owner, member, permission.PackageAdmin))
	})
	t.Run("admin assigns admin package", func(t *testing.T) {
		require.False(t, authz.CanAssignPackage(admin, member, permission.PackageAdmin))
	})
	t.Run("admin assigns developer package to member", func(t *testing.T) {
		require.True(t, authz.CanAssignPackage(admin, member, permission.PackageDeveloper))
	})
	t.Run("member removes a member", func(t *testing.T) {
		require.False(t, authz.CanRemoveMember(member, member))
		require.False(t, authz.CanManageMembers(member))
	})
	t.Run("admin edits another admin", func(t *testing.T) {
		require.False(t, authz.CanManageMemberPermissions(admin, true))
		require.True(t, authz.CanManageMemberPermissions(admin, false))
	})
}

func TestCanManageMembers(t *testing.T) {
	t.Parallel()

	require.True(t, authz.CanManageMembers(owner))
	require.True(t, authz.CanManageMembers(admin))
	require.False(t, authz.CanManageMembers(member))
	require.False(t, authz.CanManageMembers(domain.Role("")))
}

func TestCanManageMemberPermissions(t *testing.T) {
	t.Parallel()

	require.True(t, authz.CanManageMemberPermissions(owner, true))
	require.True(t, authz.CanManageMemberPermissions(owner, false))
	require.False(t, authz.CanManageMemberPermissions(member, false))
}

func TestOwnerOnlyActions(t *testing.T) {
	t.Parallel()

	for _, role := range []domain.Role{owner, admin, member} {
		want := role == owner
		require.Equal(t, want, authz.CanDeleteTeam(role), role)
		require.Equal(t, want, authz.CanTransferOwnership(role), role)
		require.Equal(t, want, authz.CanChangeRole(role), role)
	}
}

func TestCanInvite(t *testing.T) {
	t.Parallel()

	require.True(t, authz.CanInvite(owner, admin))
	require.True(t, authz.CanInvite(owner, member))
	require.False(t, authz.CanInvite(owner, owner))
	require.False(t, authz.CanInvite(admin, admin))
	require.True(t, authz.CanInvite(admin, member))
	require.False(t, authz.CanInvite(member, member))
}

func TestCanRemoveMember(t *testing.T) {
	t.Parallel()

	require.True(t, authz.CanRemoveMember(owner, admin))
	require.True(t, authz.CanRemoveMember(owner, member))
	require.False(t, authz.CanRemoveMember(owner, owner))
	require.True(t, authz.CanRemoveMember(admin, member))
	require.False(t, authz.CanRemoveMember(admin, admin))
	require.False(t, authz.CanRemoveMember(admin, owner))
}

func TestRequire(t *testing.T) {
	t.Parallel()

	require.NoError(t, authz.Require(true, "delete team"))

	err := authz.Require(false, "delete team")
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Contains(t, err.Error(), "delete team")
}
