package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
)

// DefaultSubmitTimeout bounds one delivery attempt so a hung connection
// turns into a queued record instead of a stuck submit.
const DefaultSubmitTimeout = 10 * time.Second

var (
	ErrNotConfigured     = errors.New("attendance: no signed-in user or device id")
	ErrBiometricDeclined = errors.New("attendance: biometric check declined")
)

// Biometric is the device's local authentication sensor.
type Biometric interface {
	Authenticate(ctx context.Context, reason string) (bool, error)
}

// Locator captures the current position. Both calls may fail; location
// is corroborating evidence only.
type Locator interface {
	RequestPermission(ctx context.Context) (bool, error)
	Current(ctx context.Context) (*types.GPS, error)
}

// Backend is the attendance mutation, shared by live delivery and replay.
type Backend interface {
	SubmitAttendance(ctx context.Context, req types.AttendanceRequest) (types.AttendanceResponse, error)
}

// Notifier is the user-facing acknowledgment (haptics, toasts, console).
type Notifier interface {
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

type Outcome string

const (
	OutcomeDelivered       Outcome = "delivered"
	OutcomeQueued          Outcome = "queued"
	OutcomeBiometricFailed Outcome = "biometric_failed"
)

type SubmitRequest struct {
	RoomID string
	Method types.Method
}

type Result struct {
	Outcome      Outcome
	SubmissionID string
	Evidence     types.Evidence

	// Response is set when the backend accepted the submission live.
	Response *types.AttendanceResponse
	// DeliveryErr is why a queued submission was not delivered live.
	DeliveryErr error
}

type Dependencies struct {
	Identity  *IdentityStore
	DeviceIDs *DeviceIDProvider
	Biometric Biometric
	Locator   Locator
	Backend   Backend
	Notifier  Notifier
	Queue     *Queue
	Clock     Clock
	Logger    *zap.Logger
	Timeout   time.Duration
}

// Pipeline runs one attendance attempt end to end: biometric gate,
// evidence capture, live delivery, queue fallback.
type Pipeline struct {
	d Dependencies

	inflight atomic.Int32
	group    singleflight.Group
}

func NewPipeline(d Dependencies) *Pipeline {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = NewOffsetClock()
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultSubmitTimeout
	}
	if d.Notifier == nil {
		d.Notifier = nopNotifier{}
	}
	return &Pipeline{d: d}
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Warning(string) {}
func (nopNotifier) Error(string)   {}

// Busy reports whether a submission is in flight. UIs use it to ignore
// repeated taps.
func (p *Pipeline) Busy() bool { return p.inflight.Load() > 0 }

// Submit runs one attempt. A caller repeating an in-flight request for the
// same room and method gets that attempt's result rather than starting a
// second one. Requests for anything else run on their own.
func (p *Pipeline) Submit(ctx context.Context, req SubmitRequest) (Result, error) {
	req.RoomID = strings.TrimSpace(req.RoomID)
	if req.Method == "" {
		req.Method = types.MethodPhone
	}

	v, err, _ := p.group.Do(req.RoomID+"|"+string(req.Method), func() (any, error) {
		p.inflight.Add(1)
		defer p.inflight.Add(-1)
		return p.submit(ctx, req)
	})
	res, _ := v.(Result)
	return res, err
}

func (p *Pipeline) submit(ctx context.Context, req SubmitRequest) (Result, error) {
	roomID, method := req.RoomID, req.Method
	if roomID == "" {
		return Result{}, errors.New("attendance: room id is required")
	}

	userID, err := p.d.Identity.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}
	deviceID, err := p.d.DeviceIDs.Get(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrNotConfigured, err)
	}

	log := p.d.Logger.With(zap.String("room_id", roomID))
	log.Debug("attendance state", zap.String("state", "capturing"))

	ok, err := p.d.Biometric.Authenticate(ctx, "Confirm attendance for "+roomID)
	if err != nil || !ok {
		log.Info("attendance state", zap.String("state", string(OutcomeBiometricFailed)), zap.Error(err))
		p.d.Notifier.Error("Biometric check failed; attendance not recorded.")
		return Result{Outcome: OutcomeBiometricFailed}, ErrBiometricDeclined
	}

	log.Debug("attendance state", zap.String("state", "constructing_evidence"))
	gps := p.locate(ctx, log)
	evidence := NewEvidence(Immediate, p.d.Clock, deviceID, gps)

	submissionID := uuid.NewString()
	areq := types.AttendanceRequest{
		SubmissionID: submissionID,
		UserID:       userID,
		RoomID:       roomID,
		Timestamp:    evidence.DeviceTime,
		Method:       method,
		Evidence:     evidence,
	}

	log.Debug("attendance state", zap.String("state", "delivering"), zap.String("submission_id", submissionID))
	resp, derr := p.deliver(ctx, areq)
	if derr == nil {
		log.Info("attendance state", zap.String("state", string(OutcomeDelivered)), zap.String("submission_id", submissionID))
		p.d.Notifier.Success("Attendance recorded.")
		return Result{Outcome: OutcomeDelivered, SubmissionID: submissionID, Evidence: evidence, Response: &resp}, nil
	}

	rec := QueuedRecord{
		SubmissionID: submissionID,
		UserID:       userID,
		RoomID:       roomID,
		Timestamp:    areq.Timestamp,
		Method:       method,
		Evidence:     evidence.ForQueue(),
	}
	if err := p.d.Queue.Append(ctx, rec); err != nil {
		log.Error("attendance could not be queued", zap.String("submission_id", submissionID), zap.Error(err))
		p.d.Notifier.Error("Attendance could not be saved.")
		return Result{}, fmt.Errorf("queue attendance: %w", err)
	}

	log.Info("attendance state",
		zap.String("state", string(OutcomeQueued)),
		zap.String("submission_id", submissionID),
		zap.NamedError("delivery_error", derr),
	)
	p.d.Notifier.Warning("Offline: attendance saved and will be sent later.")
	return Result{Outcome: OutcomeQueued, SubmissionID: submissionID, Evidence: rec.Evidence, DeliveryErr: derr}, nil
}

func (p *Pipeline) locate(ctx context.Context, log *zap.Logger) *types.GPS {
	if p.d.Locator == nil {
		return nil
	}
	granted, err := p.d.Locator.RequestPermission(ctx)
	if err != nil || !granted {
		log.Debug("location unavailable", zap.Bool("granted", granted), zap.Error(err))
		return nil
	}
	gps, err := p.d.Locator.Current(ctx)
	if err != nil {
		log.Debug("location capture failed", zap.Error(err))
		return nil
	}
	return gps
}

func (p *Pipeline) deliver(ctx context.Context, req types.AttendanceRequest) (types.AttendanceResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.d.Timeout)
	defer cancel()
	return p.d.Backend.SubmitAttendance(ctx, req)
}

// Deliverer adapts a Backend for Queue.Process with the same per-attempt
// timeout live delivery uses.
func Deliverer(b Backend, timeout time.Duration) DeliverFunc {
	if timeout <= 0 {
		timeout = DefaultSubmitTimeout
	}
	return func(ctx context.Context, rec QueuedRecord) error {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		_, err := b.SubmitAttendance(ctx, rec.Request())
		return err
	}
}
