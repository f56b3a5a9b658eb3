package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	sqlitestore "github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/sqlite"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

func TestDirectoryStore_UsersForRoom(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDirectoryStore(conn, newTestWriter(t, conn))

	seedUser(t, conn, "u-1", "student", "active", "CARD-1", "room-101")
	seedUser(t, conn, "u-2", "teacher", "active", "CARD-2", "room-101", "room-202")
	seedUser(t, conn, "u-3", "student", "suspended", "CARD-3", "room-101")
	seedUser(t, conn, "u-4", "student", "active", "", "room-101")
	seedUser(t, conn, "u-5", "staff", "active", "CARD-5", "room-202")

	users, err := ds.UsersForRoom(context.Background(), "room-101")
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, "u-1", users[0].ID)
	assert.Equal(t, "u-2", users[1].ID)
	assert.Equal(t, types.RoleTeacher, users[1].Role)
	assert.ElementsMatch(t, []string{"room-101", "room-202"}, users[1].AllowedRooms)
}

func TestDirectoryStore_UserByCard(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDirectoryStore(conn, newTestWriter(t, conn))
	seedUser(t, conn, "u-1", "student", "active", "CARD-1")

	u, err := ds.UserByCard(context.Background(), "CARD-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)

	_, err = ds.UserByCard(context.Background(), "CARD-404")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = ds.UserByCard(context.Background(), "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectoryStore_BindUserDevice_OnlyOnce(t *testing.T) {
	conn := openTestDB(t)
	ds := sqlitestore.NewDirectoryStore(conn, newTestWriter(t, conn))
	ctx := context.Background()
	seedUser(t, conn, "u-1", "student", "active", "")

	bound, err := ds.BindUserDevice(ctx, "u-1", "install-a")
	require.NoError(t, err)
	assert.Equal(t, "install-a", bound)

	bound, err = ds.BindUserDevice(ctx, "u-1", "install-b")
	require.NoError(t, err)
	assert.Equal(t, "install-a", bound, "an existing binding is never replaced")

	_, err = ds.BindUserDevice(ctx, "ghost", "install-a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
