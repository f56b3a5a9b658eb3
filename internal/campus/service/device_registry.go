package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// maxChipIDLen bounds chip ids so a hostile caller cannot bloat the
// devices table through the unauthenticated register path.
const maxChipIDLen = 128

var (
	ErrInvalidChipID = errors.New("chipId is required")
	ErrUnknownDevice = errors.New("unknown device")
)

type DeviceRegistry struct {
	store     store.DeviceStore
	tokenCost int
}

func NewDeviceRegistry(st store.DeviceStore) *DeviceRegistry {
	return &DeviceRegistry{store: st, tokenCost: bcrypt.DefaultCost}
}

// SetTokenCost overrides the bcrypt cost used for new device tokens.
// Tests lower it to bcrypt.MinCost.
func (r *DeviceRegistry) SetTokenCost(cost int) {
	r.tokenCost = cost
}

// Register creates a pending device for chipID, or returns the existing
// record when the chip has registered before.
func (r *DeviceRegistry) Register(ctx context.Context, chipID string) (types.Device, error) {
	chipID, err := normalizeChipID(chipID)
	if err != nil {
		return types.Device{}, err
	}

	rec, _, err := r.store.RegisterDevice(ctx, chipID, uuid.NewString(), time.Now().UTC())
	if err != nil {
		return types.Device{}, err
	}
	return DeviceView(rec), nil
}

func (r *DeviceRegistry) Lookup(ctx context.Context, chipID string) (store.DeviceRecord, error) {
	chipID, err := normalizeChipID(chipID)
	if err != nil {
		return store.DeviceRecord{}, err
	}
	rec, err := r.store.GetDevice(ctx, chipID)
	if errors.Is(err, store.ErrNotFound) {
		return store.DeviceRecord{}, ErrUnknownDevice
	}
	return rec, err
}

// ProvisionToken issues a fresh bearer token for a registered device and
// stores only its bcrypt hash. The plaintext is returned once.
func (r *DeviceRegistry) ProvisionToken(ctx context.Context, chipID string) (string, error) {
	rec, err := r.Lookup(ctx, chipID)
	if err != nil {
		return "", err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), r.tokenCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	if err := r.store.SetTokenHash(ctx, rec.ChipID, hash); err != nil {
		return "", err
	}
	return token, nil
}

func (r *DeviceRegistry) BindRoom(ctx context.Context, chipID, roomID string) error {
	rec, err := r.Lookup(ctx, chipID)
	if err != nil {
		return err
	}
	return r.store.BindRoom(ctx, rec.ChipID, strings.TrimSpace(roomID))
}

func (r *DeviceRegistry) Revoke(ctx context.Context, chipID string) error {
	rec, err := r.Lookup(ctx, chipID)
	if err != nil {
		return err
	}
	return r.store.Revoke(ctx, rec.ChipID, time.Now().UTC())
}

// DeviceView converts a stored device into its wire shape. The token hash
// never leaves the server.
func DeviceView(rec store.DeviceRecord) types.Device {
	d := types.Device{
		ID:              rec.ID,
		ChipID:          rec.ChipID,
		RoomID:          rec.RoomID,
		FirmwareVersion: rec.FirmwareVersion,
		Status:          rec.Status,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !rec.LastSeen.IsZero() {
		d.LastSeen = rec.LastSeen.UTC().Format(time.RFC3339Nano)
	}
	return d
}

func normalizeChipID(chipID string) (string, error) {
	chipID = strings.TrimSpace(chipID)
	if chipID == "" || len(chipID) > maxChipIDLen {
		return "", ErrInvalidChipID
	}
	return chipID, nil
}
