package consolesdk

// ErrorResponse is the error envelope of every failed request.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type HealthChecks struct {
	Store string `json:"store"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ============================================================================
// Teams and members
// ============================================================================

type CreateTeamRequest struct {
	Name string `json:"name"`
}

type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"created_at"`
}

// Member is a roster entry. Pending entries stand for open invitations and
// have no user id.
type Member struct {
	UserID      string   `json:"user_id,omitempty"`
	Email       string   `json:"email"`
	Name        string   `json:"name,omitempty"`
	Role        string   `json:"role"`
	Status      string   `json:"status"`
	Permissions []string `json:"permissions"`
	Package     string   `json:"package,omitempty"`
	JoinedAt    int64    `json:"joined_at"`
}

const (
	MemberStatusActive  = "active"
	MemberStatusPending = "pending"
)

type MembersResponse struct {
	Members []Member `json:"members"`
}

type AssignPackageRequest struct {
	Package string `json:"package"`
}

type SetPermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

// ============================================================================
// Invitations
// ============================================================================

type CreateInvitationRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

const (
	InvitationStatusPending = "pending"
	InvitationStatusExpired = "expired"
)

type Invitation struct {
	Token     string `json:"token"`
	TeamID    string `json:"team_id"`
	TeamName  string `json:"team_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	InvitedBy string `json:"invited_by"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`

	// Status is evaluated by the server at response time.
	Status string `json:"status"`
}

type InvitationsResponse struct {
	Invitations []Invitation `json:"invitations"`
}

type AcceptInvitationResponse struct {
	Success  bool   `json:"success"`
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
}

// ============================================================================
// Permission catalog
// ============================================================================

type PermissionDefinition struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Group       string `json:"group"`
}

type PermissionGroup struct {
	Key         string                 `json:"key"`
	Label       string                 `json:"label"`
	Permissions []PermissionDefinition `json:"permissions"`
}

type PermissionPackage struct {
	Key         string   `json:"key"`
	Label       string   `json:"label"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type PermissionCatalogResponse struct {
	Groups   []PermissionGroup   `json:"groups"`
	Packages []PermissionPackage `json:"packages"`
}
