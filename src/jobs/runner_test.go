package jobs

import (
	"context"
	"errors"
	"sitbook/src/clock"
	"sitbook/src/models"
	"sitbook/src/reconciler"
	"sitbook/src/store/memstore"
	"sitbook/src/types"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu       sync.Mutex
	statuses []models.RunStatus
}

func (m *memRecorder) Record(ctx context.Context, s models.RunStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, s)
	return nil
}

func (m *memRecorder) Last(ctx context.Context) (*models.RunStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statuses) == 0 {
		return nil, nil
	}
	s := m.statuses[len(m.statuses)-1]
	return &s, nil
}

func newStore(now time.Time) *memstore.Store {
	st := memstore.New()
	exp := now.Add(-time.Minute)
	st.PutRequest(models.BookingRequest{
		ID:             "b1",
		Status:         types.BOOKING_REQUEST_PENDING,
		ExpirationTime: &exp,
		UserID:         "u1",
	})
	return st
}

func TestRunnerRecordsSuccess(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st := newStore(now)
	rec := &memRecorder{}
	runner := NewRunner(reconciler.New(st, nil, reconciler.WithClock(clock.NewManual(now))), rec, time.Second)

	result, err := runner.Run(context.Background(), SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)

	last, err := runner.LastStatus(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, types.RUN_SUCCEEDED, last.Outcome)
	assert.Equal(t, SourceManual, last.Source)
	assert.Equal(t, result.RunID, last.RunID)
	assert.Equal(t, 1, last.ProcessedCount)
	assert.Equal(t, string(types.POLICY_EXPIRE), last.Policy)
	assert.Empty(t, last.LastError)
}

func TestRunnerRecordsFailure(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st := newStore(now)
	st.FailCommits(errors.New("unavailable"))
	rec := &memRecorder{}
	runner := NewRunner(reconciler.New(st, nil, reconciler.WithClock(clock.NewManual(now))), rec, time.Second)

	_, err := runner.Run(context.Background(), SourceSchedule)
	require.Error(t, err)

	last, _ := runner.LastStatus(context.Background())
	require.NotNil(t, last)
	assert.Equal(t, types.RUN_FAILED, last.Outcome)
	assert.Contains(t, last.LastError, "unavailable")
	assert.Equal(t, 0, last.ProcessedCount)
}

type blockingReconciler struct {
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (b *blockingReconciler) Reconcile(ctx context.Context) (reconciler.Result, error) {
	b.calls.Add(1)
	close(b.started)
	<-b.release
	return reconciler.Result{RunID: "shared", ProcessedCount: 2}, nil
}

func (b *blockingReconciler) Policy() types.ExpirationPolicy {
	return types.POLICY_EXPIRE
}

func TestRunnerCollapsesConcurrentRuns(t *testing.T) {
	b := &blockingReconciler{started: make(chan struct{}), release: make(chan struct{})}
	runner := NewRunner(b, nil, 0)

	var wg sync.WaitGroup
	results := make([]reconciler.Result, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = runner.Run(context.Background(), SourceSchedule)
	}()
	<-b.started
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = runner.Run(context.Background(), SourceWake)
	}()
	time.Sleep(50 * time.Millisecond)
	close(b.release)
	wg.Wait()

	assert.Equal(t, int32(1), b.calls.Load())
	assert.Equal(t, "shared", results[0].RunID)
	assert.Equal(t, "shared", results[1].RunID)
}

func TestRunnerKick(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	st := newStore(now)
	rec := &memRecorder{}
	runner := NewRunner(reconciler.New(st, nil, reconciler.WithClock(clock.NewManual(now))), rec, time.Second)

	runner.Kick(SourceWake)
	runner.Wait()

	req, ok := st.Request("b1")
	require.True(t, ok)
	assert.Equal(t, types.BOOKING_REQUEST_EXPIRED, req.Status)
	last, _ := runner.LastStatus(context.Background())
	require.NotNil(t, last)
	assert.Equal(t, SourceWake, last.Source)
}

func TestRunnerKickAfterWaitIsDropped(t *testing.T) {
	b := &blockingReconciler{started: make(chan struct{}), release: make(chan struct{})}
	runner := NewRunner(b, nil, 0)

	runner.Kick(SourceChange)
	<-b.started

	waited := make(chan struct{})
	go func() {
		runner.Wait()
		close(waited)
	}()
	time.Sleep(20 * time.Millisecond)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runner.Kick(SourceWake)
		}()
	}
	wg.Wait()
	close(b.release)
	<-waited

	assert.Equal(t, int32(1), b.calls.Load())
	runner.Kick(SourceWake)
	runner.Wait()
	assert.Equal(t, int32(1), b.calls.Load())
}

func TestRunnerTimeout(t *testing.T) {
	st := newStore(time.Now().UTC())
	rec := &memRecorder{}
	runner := NewRunner(reconciler.New(st, nil), rec, time.Nanosecond)

	_, err := runner.Run(context.Background(), SourceSchedule)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	req, _ := st.Request("b1")
	assert.Equal(t, types.BOOKING_REQUEST_PENDING, req.Status)
	last, _ := runner.LastStatus(context.Background())
	require.NotNil(t, last)
	assert.Equal(t, types.RUN_FAILED, last.Outcome)
}

func TestRunnerIgnoresCallerCancel(t *testing.T) {
	st := newStore(time.Now().UTC())
	runner := NewRunner(reconciler.New(st, nil), nil, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := runner.Run(ctx, SourceManual)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
}
