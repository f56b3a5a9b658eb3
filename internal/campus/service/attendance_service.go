package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/store"
	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

var (
	ErrInvalidAttendance = errors.New("invalid attendance submission")
	ErrUnknownUser       = errors.New("unknown user")
)

const (
	ResultRecorded       = "recorded"
	ResultDeviceMismatch = "device_mismatch"
)

// AttendanceService is the backend mutation behind both immediate
// delivery and queue replay from the mobile client.
type AttendanceService struct {
	logs      store.AccessLogStore
	directory store.DirectoryStore
}

func NewAttendanceService(logs store.AccessLogStore, dir store.DirectoryStore) *AttendanceService {
	return &AttendanceService{logs: logs, directory: dir}
}

// Record appends one attendance fact. Replaying a submission id that was
// already stored is a successful no-op reported as Duplicate.
func (s *AttendanceService) Record(ctx context.Context, req types.AttendanceRequest) (types.AttendanceResponse, error) {
	now := time.Now().UTC()

	if err := validateAttendance(&req); err != nil {
		return types.AttendanceResponse{}, err
	}

	user, err := s.directory.GetUser(ctx, req.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return types.AttendanceResponse{}, ErrUnknownUser
	}
	if err != nil {
		return types.AttendanceResponse{}, err
	}

	// First submission from an installation binds it to the user.
	bound, err := s.directory.BindUserDevice(ctx, user.ID, req.Evidence.DeviceID)
	if err != nil {
		return types.AttendanceResponse{}, err
	}
	result := ResultRecorded
	if bound != req.Evidence.DeviceID {
		result = ResultDeviceMismatch
	}

	// A live submission is stamped by the server. A queued one keeps the
	// capture time from the client, flagged as untrusted.
	ts, tsType := now, types.TimestampServer
	if !req.Evidence.HasInternet {
		t := parseDeviceTimestamp(req.Timestamp)
		if t == nil {
			t = parseDeviceTimestamp(req.Evidence.DeviceTime)
		}
		if t == nil {
			return types.AttendanceResponse{}, fmt.Errorf("%w: timestamp", ErrInvalidAttendance)
		}
		ts, tsType = *t, types.TimestampLocal
	}

	evidence, err := json.Marshal(req.Evidence)
	if err != nil {
		return types.AttendanceResponse{}, fmt.Errorf("encode evidence: %w", err)
	}

	rec := store.AccessLogRecord{
		UserID:        user.ID,
		RoomID:        req.RoomID,
		Method:        req.Method,
		Action:        types.ActionAttendance,
		Result:        result,
		Timestamp:     ts,
		TimestampType: tsType,
		SubmissionID:  req.SubmissionID,
		EvidenceJSON:  string(evidence),
		ReceivedAt:    now,
	}
	if g := req.Evidence.GPS; g != nil {
		lat, lng := g.Lat, g.Lng
		rec.Lat, rec.Lng = &lat, &lng
	}

	inserted, err := s.logs.AppendLog(ctx, rec)
	if err != nil {
		return types.AttendanceResponse{}, err
	}

	return types.AttendanceResponse{
		OK:            true,
		Duplicate:     !inserted,
		TimestampType: tsType,
		ServerTime:    now.Format(time.RFC3339Nano),
	}, nil
}

func validateAttendance(req *types.AttendanceRequest) error {
	req.SubmissionID = strings.TrimSpace(req.SubmissionID)
	req.UserID = strings.TrimSpace(req.UserID)
	req.RoomID = strings.TrimSpace(req.RoomID)
	req.Evidence.DeviceID = strings.TrimSpace(req.Evidence.DeviceID)
	if req.Method == "" {
		req.Method = types.MethodPhone
	}

	switch {
	case req.SubmissionID == "":
		return fmt.Errorf("%w: submissionId", ErrInvalidAttendance)
	case req.UserID == "":
		return fmt.Errorf("%w: userId", ErrInvalidAttendance)
	case req.RoomID == "":
		return fmt.Errorf("%w: roomId", ErrInvalidAttendance)
	case !req.Method.Valid():
		return fmt.Errorf("%w: method", ErrInvalidAttendance)
	case req.Evidence.DeviceID == "":
		return fmt.Errorf("%w: evidence.deviceId", ErrInvalidAttendance)
	}
	return nil
}
