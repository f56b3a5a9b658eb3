package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
)

// ErrUnauthorized wraps every authentication failure. Callers facing
// hardware must not look past it.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator checks a (chipId, token) pair against the device table.
type Authenticator struct {
	devices store.DeviceStore

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthenticator(devices store.DeviceStore) *Authenticator {
	return &Authenticator{devices: devices}
}

// Authenticate returns the device record when token matches the stored
// hash and the device has not been revoked. Unknown chips still pay for a
// bcrypt comparison so response timing does not reveal which chips exist.
func (a *Authenticator) Authenticate(ctx context.Context, chipID, token string) (store.DeviceRecord, error) {
	chipID, err := normalizeChipID(chipID)
	if err != nil || token == "" {
		return store.DeviceRecord{}, fmt.Errorf("%w: missing credentials", ErrUnauthorized)
	}

	rec, err := a.devices.GetDevice(ctx, chipID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.burn(token)
		return store.DeviceRecord{}, fmt.Errorf("%w: unknown device", ErrUnauthorized)
	case err != nil:
		return store.DeviceRecord{}, fmt.Errorf("%w: lookup: %v", ErrUnauthorized, err)
	}

	if len(rec.TokenHash) == 0 {
		a.burn(token)
		return store.DeviceRecord{}, fmt.Errorf("%w: device not provisioned", ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword(rec.TokenHash, []byte(token)); err != nil {
		return store.DeviceRecord{}, fmt.Errorf("%w: token mismatch", ErrUnauthorized)
	}
	if rec.Revoked() {
		return store.DeviceRecord{}, fmt.Errorf("%w: device revoked", ErrUnauthorized)
	}
	return rec, nil
}

func (a *Authenticator) burn(token string) {
	a.dummyOnce.Do(func() {
		a.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("campus-dummy-token"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(token))
}
