package memory

import (
	"context"
	"sync"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
)

// AccessLogStore is an in-memory append-only access log.
type AccessLogStore struct {
	mu          sync.Mutex
	logs        []store.AccessLogRecord
	submissions map[string]struct{}
	deviceLogs  map[[2]string]struct{}
}

func NewAccessLogStore() *AccessLogStore {
	return &AccessLogStore{
		submissions: make(map[string]struct{}),
		deviceLogs:  make(map[[2]string]struct{}),
	}
}

func (s *AccessLogStore) AppendLog(_ context.Context, rec store.AccessLogRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.SubmissionID != "" {
		if _, dup := s.submissions[rec.SubmissionID]; dup {
			return false, nil
		}
		s.submissions[rec.SubmissionID] = struct{}{}
	}
	if rec.DeviceLogID != "" {
		key := [2]string{rec.ChipID, rec.DeviceLogID}
		if _, dup := s.deviceLogs[key]; dup {
			return false, nil
		}
		s.deviceLogs[key] = struct{}{}
	}
	s.logs = append(s.logs, rec)
	return true, nil
}

// Logs returns a copy of all recorded logs. Test-only helper.
func (s *AccessLogStore) Logs() []store.AccessLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AccessLogRecord, len(s.logs))
	copy(out, s.logs)
	return out
}
