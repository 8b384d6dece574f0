package http

import (
	"net/http"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
)

type TeamsHandler struct {
	TeamService *service.TeamService
}

// HandleCreate creates a team owned by the caller.
func (h *TeamsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	var req consolesdk.CreateTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	team, err := h.TeamService.CreateTeam(r.Context(), actor.UserID, actor.Email, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toTeam(team))
}

func (h *TeamsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	team, err := h.TeamService.GetTeam(r.Context(), actor.UserID, r.PathValue("teamID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toTeam(team))
}

func (h *TeamsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	if err := h.TeamService.DeleteTeam(r.Context(), actor.UserID, r.PathValue("teamID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTransfer hands ownership to another active member.
func (h *TeamsHandler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	actor, _ := httpx.ActorFromContext(r.Context())

	var req consolesdk.TransferOwnershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadJSON(w)
		return
	}

	err := h.TeamService.TransferOwnership(r.Context(), actor.UserID, r.PathValue("teamID"), req.NewOwnerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
