package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/service"
)

func TestAuthenticate_ValidToken(t *testing.T) {
	reg, ds := newTestRegistry()
	token := commission(t, reg, "chip-001", "room-101")
	auth := service.NewAuthenticator(ds)

	rec, err := auth.Authenticate(context.Background(), "chip-001", token)
	require.NoError(t, err)
	assert.Equal(t, "chip-001", rec.ChipID)
	assert.Equal(t, "room-101", rec.RoomID)
}

func TestAuthenticate_FailuresAllWrapUnauthorized(t *testing.T) {
	reg, ds := newTestRegistry()
	token := commission(t, reg, "chip-001", "room-101")
	_, err := reg.Register(context.Background(), "chip-unprovisioned")
	require.NoError(t, err)
	revokedToken := commission(t, reg, "chip-revoked", "room-101")
	require.NoError(t, reg.Revoke(context.Background(), "chip-revoked"))

	auth := service.NewAuthenticator(ds)

	cases := []struct {
		name, chip, token string
	}{
		{"missing chip", "", token},
		{"missing token", "chip-001", ""},
		{"unknown chip", "chip-404", token},
		{"wrong token", "chip-001", "not-the-token"},
		{"not provisioned", "chip-unprovisioned", token},
		{"revoked", "chip-revoked", revokedToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := auth.Authenticate(context.Background(), tc.chip, tc.token)
			assert.ErrorIs(t, err, service.ErrUnauthorized)
		})
	}
}

func TestAuthenticate_ReprovisionInvalidatesOldToken(t *testing.T) {
	reg, ds := newTestRegistry()
	old := commission(t, reg, "chip-001", "")
	fresh, err := reg.ProvisionToken(context.Background(), "chip-001")
	require.NoError(t, err)

	auth := service.NewAuthenticator(ds)
	_, err = auth.Authenticate(context.Background(), "chip-001", old)
	assert.ErrorIs(t, err, service.ErrUnauthorized)
	_, err = auth.Authenticate(context.Background(), "chip-001", fresh)
	assert.NoError(t, err)
}
