package models

import (
	"sitbook/src/types"
	"time"
)

type BookingRequest struct {
	ID             string                     `gorm:"primarykey" json:"id" firestore:"-"`
	Status         types.BookingRequestStatus `gorm:"index" json:"status"`
	ExpirationTime *time.Time                 `gorm:"index" json:"expirationTime,omitempty"`
	UserID         string                     `gorm:"index" json:"userId,omitempty"`
	SitterID       string                     `gorm:"index" json:"sitterId,omitempty"`
	CancelReason   string                     `json:"cancelReason,omitempty"`
	// Attributes holds the domain fields this service does not interpret. They are carried
	// verbatim into the archive.
	Attributes types.JSONB `gorm:"type:jsonb" json:"attributes,omitempty"`
	CreatedAt  time.Time   `json:"createdAt,omitempty"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
}

// Eligible reports whether the request is due for reconciliation at now.
func (b *BookingRequest) Eligible(now time.Time) bool {
	return b.Status == types.BOOKING_REQUEST_PENDING &&
		b.ExpirationTime != nil &&
		b.ExpirationTime.Before(now)
}

// Fields flattens the record into the document shape used by document stores.
func (b *BookingRequest) Fields() map[string]any {
	fields := make(map[string]any, len(b.Attributes)+8)
	for k, v := range b.Attributes {
		fields[k] = v
	}
	fields["status"] = string(b.Status)
	if b.ExpirationTime != nil {
		fields["expirationTime"] = *b.ExpirationTime
	}
	if b.UserID != "" {
		fields["userId"] = b.UserID
	}
	if b.SitterID != "" {
		fields["sitterId"] = b.SitterID
	}
	if b.CancelReason != "" {
		fields["cancelReason"] = b.CancelReason
	}
	if !b.CreatedAt.IsZero() {
		fields["createdAt"] = b.CreatedAt
	}
	if !b.UpdatedAt.IsZero() {
		fields["updatedAt"] = b.UpdatedAt
	}
	return fields
}

// ArchivedBookingRequest is the full copy of a removed request.
type ArchivedBookingRequest struct {
	BookingRequest
	DeletedAt time.Time `gorm:"index" json:"deletedAt"`
	Reason    string    `json:"reason"`
}

func (ArchivedBookingRequest) TableName() string {
	return "archived_booking_requests"
}

// Fields returns the archived document: the original fields plus deletedAt and reason.
func (a *ArchivedBookingRequest) Fields() map[string]any {
	fields := a.BookingRequest.Fields()
	fields["deletedAt"] = a.DeletedAt
	fields["reason"] = a.Reason
	return fields
}
