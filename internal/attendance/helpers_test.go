package attendance_test

import (
	"context"
	"errors"
	"sync"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
	"github.com/BrandonDHaskell/Portunus/campus/internal/kv"
)

var errOffline = errors.New("network unreachable")

type fakeBiometric struct {
	ok    bool
	err   error
	calls int
}

func (b *fakeBiometric) Authenticate(context.Context, string) (bool, error) {
	b.calls++
	return b.ok, b.err
}

type fakeLocator struct {
	granted bool
	gps     *types.GPS
	err     error
}

func (l fakeLocator) RequestPermission(context.Context) (bool, error) { return l.granted, nil }
func (l fakeLocator) Current(context.Context) (*types.GPS, error)     { return l.gps, l.err }

// fakeBackend fails every submission whose room is in failRooms, or all
// of them when fail is set.
type fakeBackend struct {
	mu        sync.Mutex
	fail      bool
	failRooms map[string]bool
	calls     []types.AttendanceRequest

	// block, when non-nil, holds each call until closed or ctx ends.
	block   chan struct{}
	entered chan struct{}
}

func (b *fakeBackend) SubmitAttendance(ctx context.Context, req types.AttendanceRequest) (types.AttendanceResponse, error) {
	b.mu.Lock()
	b.calls = append(b.calls, req)
	fail := b.fail || b.failRooms[req.RoomID]
	block, entered := b.block, b.entered
	b.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return types.AttendanceResponse{}, ctx.Err()
		}
	}
	if fail {
		return types.AttendanceResponse{}, errOffline
	}
	return types.AttendanceResponse{OK: true, TimestampType: types.TimestampServer}, nil
}

func (b *fakeBackend) Calls() []types.AttendanceRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]types.AttendanceRequest(nil), b.calls...)
}

type recordingNotifier struct {
	mu                        sync.Mutex
	successes, warnings, errs []string
}

func (n *recordingNotifier) Success(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, m)
}

func (n *recordingNotifier) Warning(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.warnings = append(n.warnings, m)
}

func (n *recordingNotifier) Error(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, m)
}

// failingStore is a kv.Store whose writes fail.
type failingStore struct {
	kv.Store
}

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }
