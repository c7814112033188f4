// Package push delivers push notifications to participant devices.
package push

import (
	"context"
	"log"

	"firebase.google.com/go/v4/messaging"
)

// MessagingClient is the part of *messaging.Client used here.
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMChannel sends one notification per token through Firebase Cloud Messaging.
type FCMChannel struct {
	client MessagingClient
}

func NewFCMChannel(client MessagingClient) *FCMChannel {
	return &FCMChannel{client: client}
}

func (f *FCMChannel) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	res, err := f.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	if err != nil {
		if messaging.IsUnregistered(err) {
			log.Printf("[FCM] token is no longer registered: %s\n", err.Error())
		}
		return err
	}
	log.Printf("[FCM] notification sent: %s\n", res)
	return nil
}

// LogChannel only logs. Used when no messaging credentials are configured.
type LogChannel struct{}

func (LogChannel) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	log.Printf("[push] %s: %s %v\n", title, body, data)
	return nil
}
