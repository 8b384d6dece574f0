package obs_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/obs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestInvitationCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	m.InvitationCreated()
	m.InvitationCreated()
	m.InvitationAccepted()
	m.InvitationRejected(obs.ReasonExpired)
	m.InvitationCancelled()
	m.SetInvitationCounts(3, 1)

	expected := `
# HELP console_invitations_created_total Invitations created.
# TYPE console_invitations_created_total counter
console_invitations_created_total 2
# HELP console_invitations_rejected_total Failed acceptance attempts by reason.
# TYPE console_invitations_rejected_total counter
console_invitations_rejected_total{reason="expired"} 1
# HELP console_invitations_pending Stored invitations that can still be accepted.
# TYPE console_invitations_pending gauge
console_invitations_pending 3
# HELP console_invitations_expired Stored invitations past their validity window.
# TYPE console_invitations_expired gauge
console_invitations_expired 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"console_invitations_created_total",
		"console_invitations_rejected_total",
		"console_invitations_pending",
		"console_invitations_expired",
	))
}

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *obs.Metrics
	m.InvitationCreated()
	m.InvitationRejected(obs.ReasonNotFound)
	m.SetInvitationCounts(1, 1)

	h := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	require.NotNil(t, m.Instrument("/x", h))
}

func TestInstrumentRecordsRouteAndStatus(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)

	h := m.Instrument("GET /v1/invitations/{token}", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/invitations/abc", nil))
	require.Equal(t, http.StatusGone, rec.Code)

	expected := `
# HELP http_requests_total Total number of HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="GET",route="GET /v1/invitations/{token}",status="410"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))
}

func TestHandlerServesRegistry(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := obs.NewMetrics(reg)
	m.SetBuildInfo("v1.2.3", "test")

	rec := httptest.NewRecorder()
	obs.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `build_info{env="test",version="v1.2.3"} 1`)
}
