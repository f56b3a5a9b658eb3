package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/BrandonDHaskell/Portunus/campus/internal/campus/types"
	"github.com/BrandonDHaskell/Portunus/campus/internal/kv"
)

// DefaultQueueLimit bounds the queue; beyond it the oldest record goes.
const DefaultQueueLimit = 500

// QueuedRecord is an attendance submission captured offline.
type QueuedRecord struct {
	SubmissionID string         `json:"submissionId"`
	UserID       string         `json:"userId"`
	RoomID       string         `json:"roomId"`
	Timestamp    string         `json:"timestamp"`
	Method       types.Method   `json:"method"`
	Evidence     types.Evidence `json:"evidence"`
}

func (r QueuedRecord) Request() types.AttendanceRequest {
	return types.AttendanceRequest{
		SubmissionID: r.SubmissionID,
		UserID:       r.UserID,
		RoomID:       r.RoomID,
		Timestamp:    r.Timestamp,
		Method:       r.Method,
		Evidence:     r.Evidence,
	}
}

type ReplayReport struct {
	Attempted int
	Delivered int
	// Rejected counts records the gateway refused outright. They are
	// dropped rather than replayed forever.
	Rejected  int
	Remaining int
}

// DeliverFunc sends one queued record to the backend. Returning an error
// wrapping ErrRejected drops the record; any other error keeps it.
type DeliverFunc func(ctx context.Context, rec QueuedRecord) error

// entry pairs a record with a sequence number that is unique for the life
// of the Queue. Replay reconciles on seq, so records sharing a submission
// id are still told apart.
type entry struct {
	seq uint64
	rec QueuedRecord
}

// Queue is the write-through local queue. Every mutation persists the
// full list under QueueKey before returning.
type Queue struct {
	store  kv.Store
	limit  int
	logger *zap.Logger

	mu      sync.Mutex
	entries []entry
	nextSeq uint64
	loaded  bool
}

func NewQueue(store kv.Store, limit int, logger *zap.Logger) *Queue {
	if limit <= 0 {
		limit = DefaultQueueLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{store: store, limit: limit, logger: logger}
}

// Load reads the persisted list. A missing or unreadable list is treated
// as empty; only a failing store is an error.
func (q *Queue) Load(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loadLocked(ctx)
}

func (q *Queue) loadLocked(ctx context.Context) error {
	b, err := q.store.Get(ctx, QueueKey)
	var recs []QueuedRecord
	switch {
	case errors.Is(err, kv.ErrNotFound):
	case err != nil:
		return fmt.Errorf("load queue: %w", err)
	default:
		if err := json.Unmarshal(b, &recs); err != nil {
			q.logger.Warn("attendance queue is corrupt; starting empty", zap.Error(err))
			recs = nil
		}
	}

	q.entries = make([]entry, 0, len(recs))
	for _, r := range recs {
		q.entries = append(q.entries, q.newEntry(r))
	}
	q.loaded = true
	return nil
}

func (q *Queue) newEntry(rec QueuedRecord) entry {
	q.nextSeq++
	return entry{seq: q.nextSeq, rec: rec}
}

func (q *Queue) ensureLoaded(ctx context.Context) error {
	if q.loaded {
		return nil
	}
	return q.loadLocked(ctx)
}

// Append adds rec and persists. The evidence is rewritten to its queued
// form whatever the caller passed in.
func (q *Queue) Append(ctx context.Context, rec QueuedRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.ensureLoaded(ctx); err != nil {
		return err
	}

	rec.Evidence = rec.Evidence.ForQueue()
	next := append(slices.Clone(q.entries), q.newEntry(rec))
	if over := len(next) - q.limit; over > 0 {
		for _, dropped := range next[:over] {
			q.logger.Warn("attendance queue full; evicting oldest record",
				zap.String("submission_id", dropped.rec.SubmissionID),
				zap.Int("limit", q.limit),
			)
		}
		next = next[over:]
	}

	if err := q.persist(ctx, next); err != nil {
		return err
	}
	q.entries = next
	return nil
}

func (q *Queue) Records(ctx context.Context) ([]QueuedRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return recordsOf(q.entries), nil
}

func (q *Queue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := q.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(q.entries), nil
}

// Process tries every queued record once, in order. Delivered records are
// dropped, and so are records the gateway rejected; failed ones stay in
// their original relative order. A failure never stops the pass. The
// remaining list is persisted once at the end.
//
// Delivery runs without the lock, so Append from a live submission is not
// held up by a slow replay; records appended meanwhile are kept.
func (q *Queue) Process(ctx context.Context, deliver DeliverFunc) (ReplayReport, error) {
	q.mu.Lock()
	if err := q.ensureLoaded(ctx); err != nil {
		q.mu.Unlock()
		return ReplayReport{}, err
	}
	snapshot := slices.Clone(q.entries)
	q.mu.Unlock()

	report := ReplayReport{Attempted: len(snapshot)}
	done := make(map[uint64]struct{}, len(snapshot))
	for _, e := range snapshot {
		err := deliver(ctx, e.rec)
		switch {
		case err == nil:
			report.Delivered++
		case errors.Is(err, ErrRejected):
			q.logger.Warn("replay rejected by gateway; dropping record",
				zap.String("submission_id", e.rec.SubmissionID),
				zap.String("room_id", e.rec.RoomID),
				zap.Error(err),
			)
			report.Rejected++
		default:
			q.logger.Warn("replay failed; keeping record",
				zap.String("submission_id", e.rec.SubmissionID),
				zap.Error(err),
			)
			continue
		}
		done[e.seq] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	remaining := make([]entry, 0, len(q.entries))
	for _, e := range q.entries {
		if _, ok := done[e.seq]; !ok {
			remaining = append(remaining, e)
		}
	}
	report.Remaining = len(remaining)

	if len(done) == 0 {
		return report, nil
	}
	if err := q.persist(ctx, remaining); err != nil {
		return report, err
	}
	q.entries = remaining
	return report, nil
}

func (q *Queue) persist(ctx context.Context, entries []entry) error {
	b, err := json.Marshal(recordsOf(entries))
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := q.store.Set(ctx, QueueKey, b); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

func recordsOf(entries []entry) []QueuedRecord {
	out := make([]QueuedRecord, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.rec)
	}
	return out
}
