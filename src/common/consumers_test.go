package common

import (
	"context"
	"sitbook/src/clock"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingKicker struct {
	mu      sync.Mutex
	sources []string
}

func (r *recordingKicker) Kick(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

type recordingWakes struct {
	ids []string
	ats []time.Time
}

func (r *recordingWakes) Name() string { return "recording" }

func (r *recordingWakes) ScheduleWake(ctx context.Context, bookingID string, at time.Time) (string, error) {
	r.ids = append(r.ids, bookingID)
	r.ats = append(r.ats, at)
	return "job-" + bookingID, nil
}

var now = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestWakeHandlerSNSEnvelope(t *testing.T) {
	k := &recordingKicker{}
	h := WakeHandler(k)

	h(`{"Type":"Notification","MessageId":"m1","Message":"{\"bookingId\":\"b1\",\"expirationTime\":\"2025-03-01T09:00:00Z\"}"}`)
	h(`{"bookingId":"b2"}`)
	h(`not json`)

	assert.Equal(t, []string{"wake", "wake"}, k.sources)
}

func TestClassifyChange(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		action  ChangeAction
		id      string
	}{
		{"overdue pending", `{"op":"update","after":{"id":"b1","status":"pending","expirationTime":"2025-03-01T08:59:00Z"}}`, ChangeKick, "b1"},
		{"future pending", `{"id":"b2","status":"pending","expirationTime":"2025-03-01T10:00:00Z"}`, ChangeWake, "b2"},
		{"confirmed", `{"id":"b3","status":"confirmed","expirationTime":"2025-03-01T08:00:00Z"}`, ChangeIgnore, "b3"},
		{"no expiration", `{"id":"b4","status":"pending"}`, ChangeIgnore, "b4"},
		{"deleted", `{"op":"delete","before":{"id":"b5","status":"pending"}}`, ChangeIgnore, ""},
		{"bad time", `{"id":"b6","status":"pending","expirationTime":"tomorrow"}`, ChangeIgnore, "b6"},
		{"exactly now", `{"id":"b7","status":"pending","expirationTime":"2025-03-01T09:00:00Z"}`, ChangeWake, "b7"},
		{"invalid", `{`, ChangeIgnore, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			action, id, _ := ClassifyChange([]byte(tc.payload), now)
			assert.Equal(t, tc.action, action)
			assert.Equal(t, tc.id, id)
		})
	}
}

func TestChangeHandler(t *testing.T) {
	k := &recordingKicker{}
	w := &recordingWakes{}
	h := ChangeHandler(k, w, clock.NewManual(now))

	h(context.Background(), []byte(`{"id":"b1","status":"pending","expirationTime":"2025-03-01T08:59:00Z"}`))
	h(context.Background(), []byte(`{"id":"b2","status":"pending","expirationTime":"2025-03-01T10:00:00Z"}`))
	h(context.Background(), []byte(`{"id":"b3","status":"expired","expirationTime":"2025-03-01T08:00:00Z"}`))

	assert.Equal(t, []string{"change"}, k.sources)
	assert.Equal(t, []string{"b2"}, w.ids)
	assert.True(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC).Equal(w.ats[0]))
}

func TestChangeHandlerWithoutWakes(t *testing.T) {
	k := &recordingKicker{}
	h := ChangeHandler(k, nil, clock.NewManual(now))

	h(context.Background(), []byte(`{"id":"b2","status":"pending","expirationTime":"2025-03-01T10:00:00Z"}`))
	assert.Empty(t, k.sources)
}
