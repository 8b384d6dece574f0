package http

import (
	"net/http"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
)

type MembersHandler struct {
	TeamService *service.TeamService
}

// HandleList returns the roster: active members, then pending invitations.
func (h *MembersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	members, err := h.TeamService.Roster(r.Context(), actor.UserID, r.PathValue("teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := consolesdk.MembersResponse{Members: make([]consolesdk.Member, 0, len(members))}
	for _, m := range members {
		resp.Members = append(resp.Members, toMember(m))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *MembersHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	err := h.TeamService.RemoveMember(r.Context(), actor.UserID, r.PathValue("teamID"), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MembersHandler) HandleAssignPackage(w http.ResponseWriter, r *http.Request) {
	var req consolesdk.AssignPackageRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}
	h.update(w, r, func(actorID, teamID, userID string) (domain.Member, error) {
		return h.TeamService.AssignPackage(r.Context(), actorID, teamID, userID, req.Package)
	})
}

func (h *MembersHandler) HandleSetPermissions(w http.ResponseWriter, r *http.Request) {
	var req consolesdk.SetPermissionsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}
	h.update(w, r, func(actorID, teamID, userID string) (domain.Member, error) {
		return h.TeamService.SetPermissions(r.Context(), actorID, teamID, userID, req.Permissions)
	})
}

func (h *MembersHandler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	var req consolesdk.ChangeRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}
	role, _ := domain.ParseRole(req.Role)
	h.update(w, r, func(actorID, teamID, userID string) (domain.Member, error) {
		return h.TeamService.ChangeRole(r.Context(), actorID, teamID, userID, role)
	})
}

func (h *MembersHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	fn func(actorID, teamID, userID string) (domain.Member, error),
) {
	actor, _ := httpx.ActorFromContext(r.Context())

	m, err := fn(actor.UserID, r.PathValue("teamID"), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toMember(m))
}
