package domain

import "time"

type Team struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberPending MemberStatus = "pending"
)

// Member is a user's seat in a team. Permissions only matter for active
// members; pending entries are synthesised from invitations.
type Member struct {
	TeamID      string
	UserID      string
	Email       string
	Name        string
	Role        Role
	Status      MemberStatus
	Permissions []string
	JoinedAt    time.Time
	UpdatedAt   time.Time
}

// IsAdmin reports whether the member holds admin rights or better.
func (m Member) IsAdmin() bool { return m.Role.AtLeast(RoleAdmin) }
