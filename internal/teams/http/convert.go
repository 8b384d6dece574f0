package http

import (
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
)

func toTeam(t domain.Team) consolesdk.Team {
	return consolesdk.Team{ID: t.ID, Name: t.Name, CreatedAt: t.CreatedAt.Unix()}
}

func toMember(m domain.Member) consolesdk.Member {
	out := consolesdk.Member{
		UserID:      m.UserID,
		Email:       m.Email,
		Name:        m.Name,
		Role:        string(m.Role),
		Status:      string(m.Status),
		Permissions: m.Permissions,
		JoinedAt:    m.JoinedAt.Unix(),
	}
	if out.Permissions == nil {
		out.Permissions = []string{}
	}
	if m.Status == domain.MemberActive {
		out.Package = service.MemberPackage(m)
	}
	return out
}

func toInvitation(inv domain.Invitation, now time.Time) consolesdk.Invitation {
	return consolesdk.Invitation{
		Token:     inv.Token,
		TeamID:    inv.TeamID,
		TeamName:  inv.TeamName,
		Email:     inv.Email,
		Role:      string(inv.Role),
		InvitedBy: inv.InvitedBy,
		CreatedAt: inv.CreatedAt.Unix(),
		ExpiresAt: inv.ExpiresAt.Unix(),
		Status:    string(inv.Status(now)),
	}
}

func toCatalog(c *permission.Catalog) consolesdk.PermissionCatalogResponse {
	var out consolesdk.PermissionCatalogResponse
	for _, g := range c.Groups() {
		group := consolesdk.PermissionGroup{Key: g.Key, Label: g.Label}
		for _, d := range g.Permissions {
			group.Permissions = append(group.Permissions, consolesdk.PermissionDefinition{
				Key:         d.Key,
				Label:       d.Label,
				Description: d.Description,
				Group:       d.Group,
			})
		}
		out.Groups = append(out.Groups, group)
	}
	for _, p := range c.Packages() {
		perms := p.Permissions
		if perms == nil {
			perms = []string{}
		}
		out.Packages = append(out.Packages, consolesdk.PermissionPackage{
			Key:         p.Key,
			Label:       p.Label,
			Description: p.Description,
			Permissions: perms,
		})
	}
	return out
}
