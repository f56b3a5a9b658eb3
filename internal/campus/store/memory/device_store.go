package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// DeviceStore is an in-memory DeviceStore for tests and ephemeral runs.
type DeviceStore struct {
	mu      sync.RWMutex
	devices map[string]store.DeviceRecord
}

func NewDeviceStore() *DeviceStore {
	return &DeviceStore{devices: make(map[string]store.DeviceRecord)}
}

func (s *DeviceStore) RegisterDevice(_ context.Context, chipID, newID string, t time.Time) (store.DeviceRecord, bool, error) {
	chipID = strings.TrimSpace(chipID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.devices[chipID]; ok {
		return cloneDevice(d), false, nil
	}
	d := store.DeviceRecord{
		ChipID:    chipID,
		ID:        newID,
		Status:    types.DevicePending,
		CreatedAt: t.UTC(),
	}
	s.devices[chipID] = d
	return cloneDevice(d), true, nil
}

func (s *DeviceStore) GetDevice(_ context.Context, chipID string) (store.DeviceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[chipID]
	if !ok {
		return store.DeviceRecord{}, store.ErrNotFound
	}
	return cloneDevice(d), nil
}

func (s *DeviceStore) MarkHeartbeat(_ context.Context, chipID, firmware string, t time.Time) error {
	return s.update(chipID, func(d *store.DeviceRecord) {
		d.LastSeen = t.UTC()
		d.Status = types.DeviceOnline
		if firmware != "" {
			d.FirmwareVersion = firmware
		}
	})
}

func (s *DeviceStore) SetTokenHash(_ context.Context, chipID string, hash []byte) error {
	return s.update(chipID, func(d *store.DeviceRecord) {
		d.TokenHash = append([]byte(nil), hash...)
		d.RevokedAt = nil
	})
}

func (s *DeviceStore) BindRoom(_ context.Context, chipID, roomID string) error {
	return s.update(chipID, func(d *store.DeviceRecord) { d.RoomID = roomID })
}

func (s *DeviceStore) Revoke(_ context.Context, chipID string, t time.Time) error {
	return s.update(chipID, func(d *store.DeviceRecord) {
		u := t.UTC()
		d.RevokedAt = &u
	})
}

// Count returns how many devices are stored. Test-only helper.
func (s *DeviceStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices)
}

func (s *DeviceStore) update(chipID string, fn func(*store.DeviceRecord)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[chipID]
	if !ok {
		return store.ErrNotFound
	}
	fn(&d)
	s.devices[chipID] = d
	return nil
}

func cloneDevice(d store.DeviceRecord) store.DeviceRecord {
	d.TokenHash = append([]byte(nil), d.TokenHash...)
	if d.RevokedAt != nil {
		t := *d.RevokedAt
		d.RevokedAt = &t
	}
	return d
}
