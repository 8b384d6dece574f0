package permission

import (
	"fmt"
	"slices"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
)

// Built-in package keys.
const (
	PackageDeveloper = "developer"
	PackageAdmin     = "admin"
	PackageOwner     = "owner"

	// PackageCustom is the pseudo-package for any set that matches nothing.
	PackageCustom = "custom"
)

// PermissionsForPackage returns a copy of the package's permission set.
func (c *Catalog) PermissionsForPackage(key string) ([]string, error) {
	i, ok := c.byPkg[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown package %q", domain.ErrNotFound, key)
	}
	return slices.Clone(c.packages[i].Permissions), nil
}

// PackageForPermissions returns the first package, in declaration order,
// whose permission set equals perms. Order and duplicates in perms are
// ignored. The custom pseudo-package never matches; it is the fallback.
func (c *Catalog) PackageForPermissions(perms []string) string {
	have := toSet(perms)
	for _, p := range c.packages {
		if p.Key == PackageCustom {
			continue
		}
		if sameSet(have, toSet(p.Permissions)) {
			return p.Key
		}
	}
	return PackageCustom
}

// IsPackageAssignableBy reports whether an actor with the given role may
// hand the package to another member. Owners may assign anything, admins
// only developer and custom sets, members nothing.
func (c *Catalog) IsPackageAssignableBy(actor domain.Role, key string) bool {
	if _, ok := c.byPkg[key]; !ok {
		return false
	}
	switch actor {
	case domain.RoleOwner:
		return true
	case domain.RoleAdmin:
		return key != PackageAdmin && key != PackageOwner
	default:
		return false
	}
}

// PackageForRole is the package a member starts with when joining with role.
func PackageForRole(role domain.Role) string {
	switch role {
	case domain.RoleOwner:
		return PackageOwner
	case domain.RoleAdmin:
		return PackageAdmin
	default:
		return PackageDeveloper
	}
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// sameSet checks inclusion both ways.
func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return false
		}
	}
	return true
}
