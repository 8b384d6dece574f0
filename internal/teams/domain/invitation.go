package domain

import "time"

// InvitationTTL is the fixed validity window of every invitation.
const InvitationTTL = 30 * 24 * time.Hour

type Invitation struct {
	Token     string
	TeamID    string
	TeamName  string
	Email     string
	Role      Role
	InvitedBy string
	CreatedAt time.Time
	ExpiresAt time.Time
}

type InvitationStatus string

const (
	InvitationPending InvitationStatus = "pending"
	InvitationExpired InvitationStatus = "expired"
)

// IsExpired reports whether now is past the validity window. The boundary
// instant itself is still valid.
func (i Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

func (i Invitation) Status(now time.Time) InvitationStatus {
	if i.IsExpired(now) {
		return InvitationExpired
	}
	return InvitationPending
}

// PendingMember renders the invitation as a roster entry.
func (i Invitation) PendingMember() Member {
	return Member{
		TeamID:   i.TeamID,
		Email:    i.Email,
		Role:     i.Role,
		Status:   MemberPending,
		JoinedAt: i.CreatedAt,
	}
}

// AcceptResult is what a successful acceptance reports back.
type AcceptResult struct {
	Success  bool
	TeamID   string
	TeamName string
}
