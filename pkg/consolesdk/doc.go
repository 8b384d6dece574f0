/*
Package consolesdk is the Go client for the console team service.

Requests that act on a team carry the caller's identity in the X-User-ID and
X-User-Email headers. The service trusts these headers, so it must sit
behind a gateway that sets them. Bind an identity once with WithActor:

	client := consolesdk.NewClient("http://localhost:8080")
	alice := client.WithActor("u-alice", "alice@example.com")

	team, err := alice.CreateTeam(ctx, consolesdk.CreateTeamRequest{Name: "Render Farm"})
	inv, err := alice.CreateInvitation(ctx, team.ID, consolesdk.CreateInvitationRequest{
		Email: "bob@example.com",
		Role:  "member",
	})

The invitee looks the token up without any identity and accepts it with theirs:

	got, err := client.VerifyInvitation(ctx, inv.Token)
	if got.Status == consolesdk.InvitationStatusExpired {
		// ask for a new invitation
	}
	res, err := client.WithActor("u-bob", "bob@example.com").AcceptInvitation(ctx, inv.Token)

# Errors

Failed calls return *APIError carrying the HTTP status and an error code.
IsNotFound, IsExpired, IsUnauthorized and IsConflict classify them.
*/
package consolesdk
