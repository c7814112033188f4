package notifier

import (
	"context"
	"errors"
	"fmt"
	"sitbook/src/models"
	"sitbook/src/types"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParticipants struct {
	users map[string]models.User
	err   error
}

func (f *fakeParticipants) GetParticipant(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	return &u, nil
}

type sentMessage struct {
	token string
	title string
	body  string
	data  map[string]string
}

type fakeChannel struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[string]error
}

func (f *fakeChannel) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[token]; ok {
		return err
	}
	f.sent = append(f.sent, sentMessage{token: token, title: title, body: body, data: data})
	return nil
}

func (f *fakeChannel) tokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, m := range f.sent {
		out = append(out, m.token)
	}
	return out
}

func TestNotifyParticipants(t *testing.T) {
	participants := func() *fakeParticipants {
		return &fakeParticipants{users: map[string]models.User{
			"u1": {ID: "u1", FCMToken: "tok-u1"},
			"s1": {ID: "s1", FCMToken: "tok-s1"},
			"s2": {ID: "s2"},
		}}
	}

	t.Run("sends one push to each side", func(t *testing.T) {
		ch := &fakeChannel{}
		New(participants(), ch).NotifyParticipants(context.Background(), "u1", "s1", "b1", types.NOTIFICATION_BOOKING_EXPIRED)

		require.Len(t, ch.sent, 2)
		assert.ElementsMatch(t, []string{"tok-u1", "tok-s1"}, ch.tokens())
		for _, m := range ch.sent {
			assert.Equal(t, "booking_expired", m.data["type"])
			assert.Equal(t, "b1", m.data["bookingId"])
			assert.Equal(t, "Booking request expired", m.title)
		}
	})

	t.Run("user failure does not affect sitter", func(t *testing.T) {
		ch := &fakeChannel{failFor: map[string]error{"tok-u1": errors.New("invalid registration token")}}
		New(participants(), ch).NotifyParticipants(context.Background(), "u1", "s1", "b1", types.NOTIFICATION_BOOKING_EXPIRED)

		assert.Equal(t, []string{"tok-s1"}, ch.tokens())
	})

	t.Run("missing participant is skipped", func(t *testing.T) {
		ch := &fakeChannel{}
		New(participants(), ch).NotifyParticipants(context.Background(), "ghost", "s1", "b1", types.NOTIFICATION_BOOKING_DELETED)

		require.Len(t, ch.sent, 1)
		assert.Equal(t, "tok-s1", ch.sent[0].token)
		assert.Equal(t, "booking_deleted", ch.sent[0].data["type"])
		assert.Equal(t, "Booking request removed", ch.sent[0].title)
	})

	t.Run("participant without token is skipped", func(t *testing.T) {
		ch := &fakeChannel{}
		New(participants(), ch).NotifyParticipants(context.Background(), "u1", "s2", "b1", types.NOTIFICATION_BOOKING_EXPIRED)

		assert.Equal(t, []string{"tok-u1"}, ch.tokens())
	})

	t.Run("lookup errors are absorbed", func(t *testing.T) {
		ch := &fakeChannel{}
		store := &fakeParticipants{err: errors.New("unavailable")}
		assert.NotPanics(t, func() {
			New(store, ch).NotifyParticipants(context.Background(), "u1", "s1", "b1", types.NOTIFICATION_BOOKING_EXPIRED)
		})
		assert.Empty(t, ch.sent)
	})

	t.Run("missing sitter id skips everything", func(t *testing.T) {
		ch := &fakeChannel{}
		New(participants(), ch).NotifyParticipants(context.Background(), "u1", "", "b1", types.NOTIFICATION_BOOKING_EXPIRED)

		assert.Empty(t, ch.sent)
	})
}
