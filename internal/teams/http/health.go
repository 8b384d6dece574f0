package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/permission"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
	"github.com/aussiebroadwan/gpuconsole/pkg/httpx"
)

// LivezHandler always answers 200 while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, consolesdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler reports degraded with 503 when the store does not answer.
func ReadyzHandler(startTime time.Time, version string, st store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &consolesdk.HealthChecks{Store: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, statusCode, consolesdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}

// PermissionsHandler serves the permission catalog. It is static, so the
// response body is built once.
func PermissionsHandler() http.HandlerFunc {
	body := toCatalog(permission.Default)
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, body)
	}
}
