package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store/memory"
)

// newTestRegistry returns a registry over an in-memory device store with a
// cheap bcrypt cost.
func newTestRegistry() (*service.DeviceRegistry, *memory.DeviceStore) {
	ds := memory.NewDeviceStore()
	reg := service.NewDeviceRegistry(ds)
	reg.SetTokenCost(bcrypt.MinCost)
	return reg, ds
}

// commission registers chipID, binds it to roomID and returns its token.
func commission(t *testing.T, reg *service.DeviceRegistry, chipID, roomID string) string {
	t.Helper()
	ctx := context.Background()

	_, err := reg.Register(ctx, chipID)
	require.NoError(t, err)
	if roomID != "" {
		require.NoError(t, reg.BindRoom(ctx, chipID, roomID))
	}
	token, err := reg.ProvisionToken(ctx, chipID)
	require.NoError(t, err)
	return token
}
