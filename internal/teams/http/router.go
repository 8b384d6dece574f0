package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/obs"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
)

// RateLimits are the per-route profiles.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   httpx.StrictLimit,
		Moderate: httpx.ModerateLimit,
		Lenient:  httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	metrics  *obs.Metrics
	gatherer prometheus.Gatherer

	Limits      RateLimits
	TeamService *service.TeamService
	Registry    *service.Registry

	// Now stamps invitation status in responses. Defaults to time.Now.
	Now func() time.Time
}

func NewRouter(
	buildVersion string,
	st store.Store,
	metrics *obs.Metrics,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		store:        st,
		metrics:      metrics,
		gatherer:     gatherer,
		Limits:       DefaultRateLimits(),
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}
	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerPermissions()
	r.registerTeams()
	r.registerMembers()
	r.registerInvitations()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// handle registers h under pattern, instrumented with the pattern as its
// route label.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	r.Mux.Handle(pattern, r.metrics.Instrument(pattern, httpx.Chain(h, mws...)))
}

// actor chains identity extraction with a per-actor rate limit.
func (r *Router) actor(limit httpx.RateLimitConfig) []httpx.Middleware {
	return []httpx.Middleware{
		httpx.ActorMiddleware(),
		httpx.RateLimitByActor(limit),
	}
}

func (r *Router) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Router) registerSystem() {
	// Probes may poll often, so they get the lenient profile.
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion), httpx.RateLimitByIP(r.Limits.Lenient))
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store), httpx.RateLimitByIP(r.Limits.Lenient))

	if r.gatherer != nil {
		r.Mux.Handle("GET /metrics", obs.Handler(r.gatherer))
	}
}

func (r *Router) registerPermissions() {
	r.handle("GET /v1/permissions", PermissionsHandler(), httpx.RateLimitByIP(r.Limits.Lenient))
}

func (r *Router) registerTeams() {
	h := &TeamsHandler{TeamService: r.TeamService}

	r.handle("POST /v1/teams", http.HandlerFunc(h.HandleCreate), r.actor(r.Limits.Moderate)...)
	r.handle("GET /v1/teams/{teamID}", http.HandlerFunc(h.HandleGet), r.actor(r.Limits.Lenient)...)
	r.handle("DELETE /v1/teams/{teamID}", http.HandlerFunc(h.HandleDelete), r.actor(r.Limits.Moderate)...)
	r.handle("POST /v1/teams/{teamID}/transfer", http.HandlerFunc(h.HandleTransfer), r.actor(r.Limits.Moderate)...)
}

func (r *Router) registerMembers() {
	h := &MembersHandler{TeamService: r.TeamService}

	r.handle("GET /v1/teams/{teamID}/members", http.HandlerFunc(h.HandleList), r.actor(r.Limits.Lenient)...)
	r.handle("DELETE /v1/teams/{teamID}/members/{userID}", http.HandlerFunc(h.HandleRemove), r.actor(r.Limits.Moderate)...)
	r.handle("PUT /v1/teams/{teamID}/members/{userID}/package",
		http.HandlerFunc(h.HandleAssignPackage), r.actor(r.Limits.Moderate)...)
	r.handle("PUT /v1/teams/{teamID}/members/{userID}/permissions",
		http.HandlerFunc(h.HandleSetPermissions), r.actor(r.Limits.Moderate)...)
	r.handle("PUT /v1/teams/{teamID}/members/{userID}/role",
		http.HandlerFunc(h.HandleChangeRole), r.actor(r.Limits.Moderate)...)
}

func (r *Router) registerInvitations() {
	h := &InvitationsHandler{
		TeamService: r.TeamService,
		Registry:    r.Registry,
		Now:         r.now,
	}

	r.handle("POST /v1/teams/{teamID}/invitations", http.HandlerFunc(h.HandleCreate), r.actor(r.Limits.Moderate)...)
	r.handle("GET /v1/teams/{teamID}/invitations", http.HandlerFunc(h.HandleList), r.actor(r.Limits.Lenient)...)

	// The token is the credential here, so lookups and acceptance are limited
	// strictly by IP to slow down guessing.
	r.handle("GET /v1/invitations/{token}", http.HandlerFunc(h.HandleVerify), httpx.RateLimitByIP(r.Limits.Strict))
	r.handle("POST /v1/invitations/{token}/accept", http.HandlerFunc(h.HandleAccept),
		httpx.RateLimitByIP(r.Limits.Strict), httpx.ActorMiddleware())
	r.handle("DELETE /v1/invitations/{token}", http.HandlerFunc(h.HandleCancel), r.actor(r.Limits.Moderate)...)
}
