package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
)

type DirectoryStore struct {
	mu    sync.RWMutex
	users map[string]store.UserRecord
}

func NewDirectoryStore(users ...store.UserRecord) *DirectoryStore {
	s := &DirectoryStore{users: make(map[string]store.UserRecord, len(users))}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// PutUser inserts or replaces a user.
func (s *DirectoryStore) PutUser(u store.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *DirectoryStore) GetUser(_ context.Context, userID string) (store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return store.UserRecord{}, store.ErrNotFound
	}
	return u, nil
}

func (s *DirectoryStore) UserByCard(_ context.Context, cardUID string) (store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if cardUID != "" && u.CardUID == cardUID {
			return u, nil
		}
	}
	return store.UserRecord{}, store.ErrNotFound
}

func (s *DirectoryStore) UsersForRoom(_ context.Context, roomID string) ([]store.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []store.UserRecord
	for _, u := range s.users {
		if u.Status != "active" || u.CardUID == "" {
			continue
		}
		if slices.Contains(u.AllowedRooms, roomID) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DirectoryStore) BindUserDevice(_ context.Context, userID, deviceID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return "", store.ErrNotFound
	}
	if u.DeviceID == "" {
		u.DeviceID = deviceID
		s.users[userID] = u
	}
	return u.DeviceID, nil
}
