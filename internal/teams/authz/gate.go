// Package authz is the single place where management actions are allowed or
// denied. Every check is a pure function of the actor's role and, where it
// matters, the target's.
package authz

import (
	"fmt"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
)

// CanManageMembers covers inviting, cancelling invitations and removing
// members.
func CanManageMembers(actor domain.Role) bool {
	return actor == domain.RoleOwner || actor == domain.RoleAdmin
}

// CanManageMemberPermissions reports whether actor may edit the permissions of
// a target. Admins may not touch other admins (or the owner).
func CanManageMemberPermissions(actor domain.Role, targetIsAdmin bool) bool {
	switch actor {
	case domain.RoleOwner:
		return true
	case domain.RoleAdmin:
		return !targetIsAdmin
	default:
		return false
	}
}

func CanDeleteTeam(actor domain.Role) bool {
	return actor == domain.RoleOwner
}

func CanTransferOwnership(actor domain.Role) bool {
	return actor == domain.RoleOwner
}

// CanChangeRole reports whether actor may move a member between admin and
// member. Only the owner decides who is an admin.
func CanChangeRole(actor domain.Role) bool {
	return actor == domain.RoleOwner
}

// CanInvite reports whether actor may invite someone with role. Inviting an
// admin is the same decision as handing out the admin package.
func CanInvite(actor domain.Role, role domain.Role) bool {
	if !CanManageMembers(actor) || !role.Invitable() {
		return false
	}
	return permission.IsPackageAssignableBy(actor, permission.PackageForRole(role))
}

// CanRemoveMember reports whether actor may remove target from the team. The
// owner can never be removed; admins can only remove plain members.
func CanRemoveMember(actor domain.Role, target domain.Role) bool {
	if !CanManageMembers(actor) || target == domain.RoleOwner {
		return false
	}
	return CanManageMemberPermissions(actor, target.AtLeast(domain.RoleAdmin))
}

// CanAssignPackage combines the target check with the package rule.
func CanAssignPackage(actor domain.Role, target domain.Role, pkg string) bool {
	return CanManageMemberPermissions(actor, target.AtLeast(domain.RoleAdmin)) &&
		permission.IsPackageAssignableBy(actor, pkg)
}

// Require turns a denied decision into an ErrUnauthorized describing action.
func Require(allowed bool, action string) error {
	if allowed {
		return nil
	}
	return fmt.Errorf("%w: not allowed to %s", domain.ErrUnauthorized, action)
}
