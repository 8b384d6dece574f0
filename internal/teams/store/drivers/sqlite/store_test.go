package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/domain"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store/drivers/sqlite"
	"github.com/aussiebroadwan/gpuconsole/internal/teams/store/storetest"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	s, err := sqlite.NewStore(filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, newTestStore)
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestPermissionsRoundTripEmpty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Teams().CreateTeam(ctx, storetest.Team("t1", "Team One")))
	require.NoError(t, s.Members().AddMember(ctx, storetest.Member("t1", "u1", domain.RoleMember)))

	m, err := s.Members().GetMember(ctx, "t1", "u1")
	require.NoError(t, err)
	require.Nil(t, m.Permissions)
}

func TestWithTxRollsBackOnExecFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	failure := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM team_invitations").WithArgs("tok").WillReturnError(failure)
	mock.ExpectRollback()

	s := sqlite.NewStoreFromDB(db)
	err = s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Invitations().DeleteInvitation(context.Background(), "tok")
	})
	require.ErrorIs(t, err, failure)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM team_invitations").WithArgs("tok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	s := sqlite.NewStoreFromDB(db)
	err = s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Invitations().DeleteInvitation(context.Background(), "tok")
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInvitationNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM team_invitations").WithArgs("gone").WillReturnResult(sqlmock.NewResult(0, 0))

	s := sqlite.NewStoreFromDB(db)
	err = s.Invitations().DeleteInvitation(context.Background(), "gone")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	failure := errors.New("database is locked")
	mock.ExpectBegin().WillReturnError(failure)

	s := sqlite.NewStoreFromDB(db)
	called := false
	err = s.WithTx(context.Background(), func(store.Tx) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, failure)
	require.False(t, called)
	require.NoError(t, mock.ExpectationsWereMet())
}
