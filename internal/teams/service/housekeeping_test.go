package service_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/obs"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/service"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingSampleCountsWithoutPurging(t *testing.T) {
	f := newFixture(t)
	f.seedTeam(t, "t1", "Team One")

	_, err := f.registry.CreateInvitation(f.ctx, "t1", "Team One", "a@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)
	f.clock.Set(start.Add(20 * 24 * time.Hour))
	_, err = f.registry.CreateInvitation(f.ctx, "t1", "Team One", "b@x.com", domain.RoleMember, "owner@x.com")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	hk := service.NewHousekeepingService(f.store, obs.NewMetrics(reg), slogx.Discard(), time.Hour)
	hk.Now = func() time.Time { return start.Add(35 * 24 * time.Hour) }

	counts, err := hk.Sample(f.ctx)
	require.NoError(t, err)
	require.Equal(t, store.InvitationCounts{Pending: 1, Expired: 1}, counts)

	expected := `
# HELP console_invitations_pending Stored invitations that can still be accepted.
# TYPE console_invitations_pending gauge
console_invitations_pending 1
# HELP console_invitations_expired Stored invitations past their validity window.
# TYPE console_invitations_expired gauge
console_invitations_expired 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"console_invitations_pending", "console_invitations_expired"))

	invs, err := f.registry.GetTeamInvitations(f.ctx, "t1")
	require.NoError(t, err)
	require.Len(t, invs, 2)
}

func TestHousekeepingStartStop(t *testing.T) {
	f := newFixture(t)

	hk := service.NewHousekeepingService(f.store, nil, slogx.Discard(), 0)
	require.Equal(t, time.Minute, hk.Interval)

	hk.Start()
	hk.Stop()
	hk.Stop()
}
