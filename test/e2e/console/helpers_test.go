package console_test

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/aussiebroadwan/gpuconsole/internal/teams/app"
	"github.com/aussiebroadwan/gpuconsole/pkg/consolesdk"
	"github.com/aussiebroadwan/gpuconsole/pkg/slogx"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end tests drive the fully wired console service through the SDK.
 * Each test gets its own application and store.
 */

// relaxed raises every rate limit so tests can make rapid requests.
func relaxed(t *testing.T, cfg *app.Config) {
	t.Helper()
	cfg.RateLimitStrict.Requests, cfg.RateLimitStrict.Burst = 10000, 10000
	cfg.RateLimitModerate.Requests, cfg.RateLimitModerate.Burst = 10000, 10000
	cfg.RateLimitLenient.Requests, cfg.RateLimitLenient.Burst = 10000, 10000
}

// setupConsole starts the service with the given driver and returns an
// anonymous client for it.
func setupConsole(t *testing.T, driver string, opts ...func(*testing.T, *app.Config)) *consolesdk.Client {
	t.Helper()

	t.Setenv("CONSOLE_STORE_DRIVER", driver)
	t.Setenv("CONSOLE_DATABASE_FILE", filepath.Join(t.TempDir(), "console.db"))
	t.Setenv("ENV", "test")

	cfg, err := app.LoadConfig()
	require.NoError(t, err)
	for _, opt := range opts {
		opt(t, &cfg)
	}

	application, err := app.NewWithLogger(cfg, slogx.Discard())
	require.NoError(t, err)

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		require.NoError(t, application.Shutdown())
	})

	return consolesdk.NewClient(srv.URL)
}

// forEachDriver runs fn against both store drivers.
func forEachDriver(t *testing.T, fn func(t *testing.T, client *consolesdk.Client)) {
	for _, driver := range []string{app.DriverMemory, app.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			fn(t, setupConsole(t, driver, relaxed))
		})
	}
}

func as(client *consolesdk.Client, userID string) *consolesdk.Client {
	return client.WithActor(userID, userID+"@example.com")
}

// createTeam creates a team owned by "owner".
func createTeam(t *testing.T, client *consolesdk.Client) *consolesdk.Team {
	t.Helper()

	team, err := as(client, "owner").CreateTeam(t.Context(), consolesdk.CreateTeamRequest{Name: "Render Farm"})
	require.NoError(t, err)
	require.NotEmpty(t, team.ID)
	return team
}

// join invites userID with role and accepts as that user.
func join(t *testing.T, client *consolesdk.Client, teamID, userID, role string) {
	t.Helper()

	inv, err := as(client, "owner").CreateInvitation(t.Context(), teamID, consolesdk.CreateInvitationRequest{
		Email: userID + "@example.com",
		Role:  role,
	})
	require.NoError(t, err)

	res, err := as(client, userID).AcceptInvitation(t.Context(), inv.Token)
	require.NoError(t, err)
	require.True(t, res.Success)
}

func findMember(t *testing.T, members []consolesdk.Member, userID string) consolesdk.Member {
	t.Helper()
	for _, m := range members {
		if m.UserID == userID {
			return m
		}
	}
	t.Fatalf("member %q not found", userID)
	return consolesdk.Member{}
}
