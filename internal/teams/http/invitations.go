package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
)

type InvitationsHandler struct {
	TeamService *service.TeamService
	Registry    *service.Registry
	Now         func() time.Time
}

// HandleCreate invites an email address into the team. The response carries
// the token; delivering it to the invitee is up to the caller.
func (h *InvitationsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	var req consolesdk.CreateInvitationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}
	role, _ := domain.ParseRole(req.Role)

	inv, err := h.TeamService.Invite(r.Context(), actor.UserID, r.PathValue("teamID"), req.Email, role)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toInvitation(inv, h.Now()))
}

// HandleList returns every stored invitation of the team with its status.
func (h *InvitationsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	invs, err := h.TeamService.ListInvitations(r.Context(), actor.UserID, r.PathValue("teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	now := h.Now()
	resp := consolesdk.InvitationsResponse{Invitations: make([]consolesdk.Invitation, 0, len(invs))}
	for _, inv := range invs {
		resp.Invitations = append(resp.Invitations, toInvitation(inv, now))
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleVerify lets an invitee inspect an invitation before accepting it.
// Expired invitations are still returned, flagged by their status.
func (h *InvitationsHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Registry.VerifyInviteToken(r.Context(), r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toInvitation(inv, h.Now()))
}

// HandleAccept joins the caller to the invitation's team.
func (h *InvitationsHandler) HandleAccept(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	res, err := h.Registry.AcceptInvitation(r.Context(), r.PathValue("token"), actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, consolesdk.AcceptInvitationResponse{
		Success:  res.Success,
		TeamID:   res.TeamID,
		TeamName: res.TeamName,
	})
}

func (h *InvitationsHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	ok, err := h.TeamService.CancelInvite(r.Context(), actor.UserID, r.PathValue("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		consolesdk.NewAPIError(http.StatusNotFound, consolesdk.ErrorCodeNotFound, "invitation not found").WriteError(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
