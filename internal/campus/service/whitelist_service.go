package service

import (
	"context"
	"errors"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

var ErrNoRoom = errors.New("device is not bound to a room")

// WhitelistService resolves which credentials a node should honour. Who
// may enter which room is decided by the directory; this service only
// shapes the answer for the device.
type WhitelistService struct {
	directory store.DirectoryStore
}

func NewWhitelistService(dir store.DirectoryStore) *WhitelistService {
	return &WhitelistService{directory: dir}
}

func (s *WhitelistService) ForDevice(ctx context.Context, dev store.DeviceRecord) (types.WhitelistResponse, error) {
	if dev.RoomID == "" {
		return types.WhitelistResponse{}, ErrNoRoom
	}

	users, err := s.directory.UsersForRoom(ctx, dev.RoomID)
	if err != nil {
		return types.WhitelistResponse{}, err
	}

	creds := make([]types.Credential, 0, len(users))
	for _, u := range users {
		creds = append(creds, types.Credential{CardUID: u.CardUID, UserID: u.ID, Role: u.Role})
	}

	return types.WhitelistResponse{
		ChipID:      dev.ChipID,
		RoomID:      dev.RoomID,
		Credentials: creds,
		ServerTime:  time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
