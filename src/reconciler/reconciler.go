package reconciler

import (
	"context"
	"fmt"
	"log"
	"sitbook/src/clock"
	"sitbook/src/models"
	"sitbook/src/types"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence the reconciler needs.
type Store interface {
	// PendingRequests returns every request whose status is pending, including those
	// without an expiration time.
	PendingRequests(ctx context.Context) ([]models.BookingRequest, error)
	// Commit applies the write set atomically.
	Commit(ctx context.Context, ws WriteSet) error
}

// Notifier delivers best-effort push notifications after a commit.
type Notifier interface {
	NotifyParticipants(ctx context.Context, userID, sitterID, bookingID string, kind types.NotificationType)
}

type Reconciler struct {
	store    Store
	notifier Notifier
	clock    clock.Clock
	policy   types.ExpirationPolicy
	maxBatch int
}

type Option func(*Reconciler)

func WithClock(c clock.Clock) Option {
	return func(r *Reconciler) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithPolicy fixes the expiration policy for every run of this reconciler. It panics on an
// unknown policy.
func WithPolicy(p types.ExpirationPolicy) Option {
	if !p.Valid() {
		panic(fmt.Sprintf("reconciler: unknown expiration policy %q", p))
	}
	return func(r *Reconciler) {
		r.policy = p
	}
}

// WithMaxBatch caps how many requests one run commits. Zero means no cap.
func WithMaxBatch(n int) Option {
	return func(r *Reconciler) {
		if n >= 0 {
			r.maxBatch = n
		}
	}
}

// New builds a reconciler. notifier may be nil, in which case no push is attempted.
func New(store Store, notifier Notifier, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		notifier: notifier,
		clock:    clock.NewSystem(),
		policy:   types.POLICY_EXPIRE,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) Policy() types.ExpirationPolicy {
	return r.policy
}

type Result struct {
	RunID          string                 `json:"run_id"`
	StartedAt      time.Time              `json:"started_at"`
	Policy         types.ExpirationPolicy `json:"policy"`
	ProcessedCount int                    `json:"processed_count"`
	BookingIDs     []string               `json:"booking_ids,omitempty"`
	Anomalies      int                    `json:"anomalies"`
	Deferred       int                    `json:"deferred"`
}

// Reconcile runs one reconciliation pass. The clock is read once; every eligibility decision
// in the run uses that instant.
func (r *Reconciler) Reconcile(ctx context.Context) (Result, error) {
	now := r.clock.Now()
	result := Result{
		RunID:     uuid.NewString(),
		StartedAt: now,
		Policy:    r.policy,
	}

	pending, err := r.store.PendingRequests(ctx)
	if err != nil {
		return result, fmt.Errorf("query pending booking requests: %w", err)
	}
	eligible, anomalies := partition(pending, now)
	result.Anomalies = len(anomalies)
	for _, id := range anomalies {
		log.Printf("[reconciler] booking request %s is pending without expirationTime. Skipping\n", id)
	}
	if r.maxBatch > 0 && len(eligible) > r.maxBatch {
		result.Deferred = len(eligible) - r.maxBatch
		eligible = eligible[:r.maxBatch]
	}
	log.Printf("[reconciler] run=%s now=%s pending=%d eligible=%d deferred=%d\n",
		result.RunID, now.Format(time.RFC3339), len(pending), len(eligible), result.Deferred)
	if len(eligible) == 0 {
		return result, nil
	}

	ws, err := BuildWriteSet(eligible, r.policy, now)
	if err != nil {
		return result, err
	}
	if err := r.store.Commit(ctx, ws); err != nil {
		return result, fmt.Errorf("commit %d booking requests: %w", len(eligible), err)
	}

	result.ProcessedCount = len(eligible)
	result.BookingIDs = make([]string, 0, len(eligible))
	for _, req := range eligible {
		result.BookingIDs = append(result.BookingIDs, req.ID)
	}
	log.Printf("[reconciler] run=%s committed %d booking requests (%s)\n", result.RunID, result.ProcessedCount, r.policy)

	r.pushAll(ctx, eligible)
	return result, nil
}

func (r *Reconciler) pushAll(ctx context.Context, processed []models.BookingRequest) {
	if r.notifier == nil {
		return
	}
	kind := r.policy.NotificationType()
	var wg sync.WaitGroup
	for _, req := range processed {
		if req.UserID == "" || req.SitterID == "" {
			continue
		}
		wg.Add(1)
		go func(req models.BookingRequest) {
			defer wg.Done()
			r.notifier.NotifyParticipants(ctx, req.UserID, req.SitterID, req.ID, kind)
		}(req)
	}
	wg.Wait()
}

type PreviewEntry struct {
	ID             string    `json:"id"`
	ExpirationTime time.Time `json:"expiration_time"`
	UserID         string    `json:"user_id,omitempty"`
	SitterID       string    `json:"sitter_id,omitempty"`
	OverdueBy      string    `json:"overdue_by"`
}

type Preview struct {
	ServerTime   time.Time              `json:"server_time"`
	Policy       types.ExpirationPolicy `json:"policy"`
	PendingCount int                    `json:"pending_count"`
	Eligible     []PreviewEntry         `json:"eligible"`
	Anomalies    []string               `json:"anomalies"`
}

// Preview reports what a run at the current instant would process, without writing anything.
func (r *Reconciler) Preview(ctx context.Context) (Preview, error) {
	now := r.clock.Now()
	pending, err := r.store.PendingRequests(ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("query pending booking requests: %w", err)
	}
	eligible, anomalies := partition(pending, now)
	p := Preview{
		ServerTime:   now,
		Policy:       r.policy,
		PendingCount: len(pending),
		Eligible:     make([]PreviewEntry, 0, len(eligible)),
		Anomalies:    anomalies,
	}
	for _, req := range eligible {
		p.Eligible = append(p.Eligible, PreviewEntry{
			ID:             req.ID,
			ExpirationTime: *req.ExpirationTime,
			UserID:         req.UserID,
			SitterID:       req.SitterID,
			OverdueBy:      now.Sub(*req.ExpirationTime).Round(time.Second).String(),
		})
	}
	return p, nil
}

// Eligible reports whether req is due at now: pending, with an expiration strictly before now.
func Eligible(req models.BookingRequest, now time.Time) bool {
	return req.Eligible(now)
}

// partition splits pending requests into those eligible at now, oldest expiration first,
// and the ids of pending requests missing an expiration time.
func partition(pending []models.BookingRequest, now time.Time) ([]models.BookingRequest, []string) {
	var eligible []models.BookingRequest
	anomalies := []string{}
	for _, req := range pending {
		if req.Status != types.BOOKING_REQUEST_PENDING {
			continue
		}
		if req.ExpirationTime == nil {
			anomalies = append(anomalies, req.ID)
			continue
		}
		if Eligible(req, now) {
			eligible = append(eligible, req)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ExpirationTime.Before(*eligible[j].ExpirationTime)
	})
	return eligible, anomalies
}
