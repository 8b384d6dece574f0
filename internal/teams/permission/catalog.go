// Package permission defines the console's permission catalog and the named
// packages (role presets) built from it.
package permission

import (
	"fmt"
	"slices"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
)

// Definition is one grantable permission.
type Definition struct {
	Key         string
	Label       string
	Description string
	Group       string
}

// Group is a functional area of the console with its permissions in display
// order.
type Group struct {
	Key         string
	Label       string
	Permissions []Definition
}

// Package is a named, fixed permission set.
type Package struct {
	Key         string
	Label       string
	Description string
	Permissions []string
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	groups   []Group
	packages []Package
	byKey    map[string]Definition
	byPkg    map[string]int
}

// NewCatalog validates and indexes the given groups and packages. Permission
// keys must be unique across groups, package keys unique, and every package
// may only reference known permissions. Package order is kept: it decides
// which package wins when two share the same permission set.
func NewCatalog(groups []Group, packages []Package) (*Catalog, error) {
	c := &Catalog{
		byKey: make(map[string]Definition),
		byPkg: make(map[string]int, len(packages)),
	}

	for _, g := range groups {
		defs := make([]Definition, 0, len(g.Permissions))
		for _, d := range g.Permissions {
			if d.Key == "" {
				return nil, fmt.Errorf("%w: empty permission key in group %q", domain.ErrInvalidInput, g.Key)
			}
			if _, dup := c.byKey[d.Key]; dup {
				return nil, fmt.Errorf("%w: duplicate permission %q", domain.ErrInvalidInput, d.Key)
			}
			d.Group = g.Key
			c.byKey[d.Key] = d
			defs = append(defs, d)
		}
		g.Permissions = defs
		c.groups = append(c.groups, g)
	}

	for _, p := range packages {
		if _, dup := c.byPkg[p.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate package %q", domain.ErrInvalidInput, p.Key)
		}
		for _, key := range p.Permissions {
			if _, ok := c.byKey[key]; !ok {
				return nil, fmt.Errorf("%w: package %q references unknown permission %q", domain.ErrInvalidInput, p.Key, key)
			}
		}
		p.Permissions = slices.Clone(p.Permissions)
		c.byPkg[p.Key] = len(c.packages)
		c.packages = append(c.packages, p)
	}

	return c, nil
}

// MustNewCatalog is NewCatalog for static declarations.
func MustNewCatalog(groups []Group, packages []Package) *Catalog {
	c, err := NewCatalog(groups, packages)
	if err != nil {
		panic(err)
	}
	return c
}

// Groups returns a copy of the catalog groups in declaration order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	for i, g := range c.groups {
		g.Permissions = slices.Clone(g.Permissions)
		out[i] = g
	}
	return out
}

// Packages returns a copy of the packages in declaration order.
func (c *Catalog) Packages() []Package {
	out := make([]Package, len(c.packages))
	for i, p := range c.packages {
		p.Permissions = slices.Clone(p.Permissions)
		out[i] = p
	}
	return out
}

// Lookup returns the definition for a permission key.
func (c *Catalog) Lookup(key string) (Definition, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

// Validate checks that every key is in the catalog and returns the keys
// de-duplicated and sorted.
func (c *Catalog) Validate(perms []string) ([]string, error) {
	out := make([]string, 0, len(perms))
	for _, key := range perms {
		if _, ok := c.byKey[key]; !ok {
			return nil, fmt.Errorf("%w: unknown permission %q", domain.ErrInvalidInput, key)
		}
		out = append(out, key)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}
