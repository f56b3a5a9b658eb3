package attendance

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/BrandonDHaskell/Portunus/campus/internal/kv"
)

const (
	IdentityKey = "campus.identity"
	DeviceIDKey = "campus.device_id"
	QueueKey    = "campus.attendance_queue"
)

var ErrNotSignedIn = errors.New("no signed-in user")

// IdentityStore holds the server-known user id of whoever is signed in on
// this installation.
type IdentityStore struct {
	store kv.Store
}

func NewIdentityStore(store kv.Store) *IdentityStore {
	return &IdentityStore{store: store}
}

func (s *IdentityStore) Get(ctx context.Context) (string, error) {
	b, err := s.store.Get(ctx, IdentityKey)
	if errors.Is(err, kv.ErrNotFound) {
		return "", ErrNotSignedIn
	}
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(b))
	if id == "" {
		return "", ErrNotSignedIn
	}
	return id, nil
}

func (s *IdentityStore) Set(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return errors.New("user id is required")
	}
	return s.store.Set(ctx, IdentityKey, []byte(userID))
}

// Clear signs the user out. The device id and the queue are untouched.
func (s *IdentityStore) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, IdentityKey)
}

// DeviceIDProvider hands out the Local Device Identifier: a uuid v7
// created on first use and persisted, then reused for the lifetime of the
// installation.
type DeviceIDProvider struct {
	store kv.Store

	mu     sync.Mutex
	cached string
}

func NewDeviceIDProvider(store kv.Store) *DeviceIDProvider {
	return &DeviceIDProvider{store: store}
}

func (p *DeviceIDProvider) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached, nil
	}

	b, err := p.store.Get(ctx, DeviceIDKey)
	switch {
	case err == nil && len(b) > 0:
		p.cached = string(b)
		return p.cached, nil
	case err != nil && !errors.Is(err, kv.ErrNotFound):
		return "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	if err := p.store.Set(ctx, DeviceIDKey, []byte(id.String())); err != nil {
		return "", err
	}
	p.cached = id.String()
	return p.cached, nil
}

// Reset drops the in-memory copy only; the persisted id survives.
func (p *DeviceIDProvider) Reset() {
	p.mu.Lock()
	p.cached = ""
	p.mu.Unlock()
}
