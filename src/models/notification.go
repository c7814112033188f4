package models

import (
	"sitbook/src/types"
	"time"

	"github.com/google/uuid"
)

// Notification is an append-only fact addressed to a user, a sitter or the admin feed.
type Notification struct {
	ID          uuid.UUID                  `gorm:"primarykey;type:uuid" json:"id" firestore:"-"`
	Audience    types.NotificationAudience `gorm:"index" json:"audience" firestore:"audience"`
	RecipientID string                     `gorm:"index" json:"recipientId,omitempty" firestore:"recipientId,omitempty"`
	Title       string                     `json:"title" firestore:"title"`
	Message     string                     `json:"message" firestore:"message"`
	Type        types.NotificationType     `json:"type" firestore:"type"`
	BookingID   string                     `gorm:"index" json:"bookingId" firestore:"bookingId"`
	Timestamp   time.Time                  `json:"timestamp" firestore:"timestamp"`
	IsRead      bool                       `json:"isRead" firestore:"isRead"`
}
