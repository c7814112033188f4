package notifier

import (
	"context"
	"errors"
	"log"
	"sitbook/src/models"
	"sitbook/src/types"
	"sync"
)

// ParticipantStore looks up users and sitters by id. Missing records return types.ErrNotFound.
type ParticipantStore interface {
	GetParticipant(ctx context.Context, id string) (*models.User, error)
}

// PushChannel sends one push message to a delivery token.
type PushChannel interface {
	Send(ctx context.Context, token, title, body string, data map[string]string) error
}

type Notifier struct {
	store   ParticipantStore
	channel PushChannel
}

func New(store ParticipantStore, channel PushChannel) *Notifier {
	return &Notifier{store: store, channel: channel}
}

// NotifyParticipants attempts one push to the user and one to the sitter. Every failure is
// logged and swallowed; nothing is retried.
func (n *Notifier) NotifyParticipants(ctx context.Context, userID, sitterID, bookingID string, kind types.NotificationType) {
	if userID == "" || sitterID == "" {
		log.Printf("[notifier] booking %s: missing userId or sitterId, skipping push\n", bookingID)
		return
	}
	var (
		wg              sync.WaitGroup
		user, sitter    *models.User
		userErr, sitErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = n.store.GetParticipant(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		sitter, sitErr = n.store.GetParticipant(ctx, sitterID)
	}()
	wg.Wait()

	n.notifySide(ctx, types.AUDIENCE_USER, userID, user, userErr, bookingID, kind)
	n.notifySide(ctx, types.AUDIENCE_SITTER, sitterID, sitter, sitErr, bookingID, kind)
}

func (n *Notifier) notifySide(ctx context.Context, audience types.NotificationAudience, id string, u *models.User, lookupErr error, bookingID string, kind types.NotificationType) {
	if lookupErr != nil {
		if errors.Is(lookupErr, types.ErrNotFound) {
			log.Printf("[notifier] %s %s not found, skipping push for booking %s\n", audience, id, bookingID)
		} else {
			log.Printf("[notifier] Error retrieving %s %s: %s\n", audience, id, lookupErr.Error())
		}
		return
	}
	if u == nil || u.FCMToken == "" {
		log.Printf("[notifier] %s %s has no delivery token, skipping push for booking %s\n", audience, id, bookingID)
		return
	}
	title, body := types.MessageFor(kind, audience, bookingID)
	data := map[string]string{
		"type":      string(kind),
		"bookingId": bookingID,
	}
	if err := n.channel.Send(ctx, u.FCMToken, title, body, data); err != nil {
		log.Printf("[notifier] Failed to send push to %s %s: %s\n", audience, id, err.Error())
		return
	}
	log.Printf("[notifier] Sent push to %s %s for booking %s\n", audience, id, bookingID)
}
