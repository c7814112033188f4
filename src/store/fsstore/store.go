// Package fsstore keeps booking requests in Cloud Firestore.
//
// Layout:
//
//	booking_requests/{id}
//	archived_booking_requests/{id}
//	users/{id}
//	users/{id}/notifications/{notificationId}
//	admin_notifications/{notificationId}
package fsstore

import (
	"context"
	"fmt"
	"log"
	"sitbook/src/models"
	"sitbook/src/reconciler"
	"sitbook/src/types"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	BookingRequests         = "booking_requests"
	ArchivedBookingRequests = "archived_booking_requests"
	Users                   = "users"
	UserNotifications       = "notifications"
	AdminNotifications      = "admin_notifications"
)

// Firestore rejects commits with more writes than this.
const maxWrites = 500

var knownFields = map[string]bool{
	"status":         true,
	"expirationTime": true,
	"userId":         true,
	"sitterId":       true,
	"cancelReason":   true,
	"createdAt":      true,
	"updatedAt":      true,
}

type Store struct {
	client *firestore.Client
}

func New(client *firestore.Client) *Store {
	return &Store{client: client}
}

// PendingRequests queries on status alone; expirationTime is compared by the caller so
// that documents missing the field are still seen.
func (s *Store) PendingRequests(ctx context.Context) ([]models.BookingRequest, error) {
	snaps, err := s.client.
		Collection(BookingRequests).
		Where("status", "==", string(types.BOOKING_REQUEST_PENDING)).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, err
	}
	out := make([]models.BookingRequest, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, decodeBookingRequest(snap.Ref.ID, snap.Data()))
	}
	return out, nil
}

// Commit applies the write set in one transaction. Every request is re-read inside the
// transaction and must still be pending.
func (s *Store) Commit(ctx context.Context, ws reconciler.WriteSet) error {
	if err := ws.Validate(); err != nil {
		return err
	}
	if n := ws.Writes(); n > maxWrites {
		return fmt.Errorf("write set has %d writes, firestore allows %d", n, maxWrites)
	}
	requests := s.client.Collection(BookingRequests)
	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, t := range ws.Transitions {
			snap, err := tx.Get(requests.Doc(t.Request.ID))
			if status.Code(err) == codes.NotFound {
				return fmt.Errorf("%w: %s", types.ErrConflict, t.Request.ID)
			}
			if err != nil {
				return err
			}
			if st, _ := snap.Data()["status"].(string); st != string(types.BOOKING_REQUEST_PENDING) {
				return fmt.Errorf("%w: %s", types.ErrConflict, t.Request.ID)
			}
		}
		for _, t := range ws.Transitions {
			ref := requests.Doc(t.Request.ID)
			if t.Update != nil {
				err := tx.Update(ref, []firestore.Update{
					{Path: "status", Value: string(t.Update.Status)},
					{Path: "cancelReason", Value: t.Update.CancelReason},
					{Path: "updatedAt", Value: t.Update.UpdatedAt},
				})
				if err != nil {
					return err
				}
				continue
			}
			if err := tx.Set(s.client.Collection(ArchivedBookingRequests).Doc(t.Archive.ID), t.Archive.Fields()); err != nil {
				return err
			}
			if err := tx.Delete(ref); err != nil {
				return err
			}
		}
		for _, n := range ws.Notifications {
			if err := tx.Create(s.notificationRef(n), n); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) notificationRef(n models.Notification) *firestore.DocumentRef {
	if n.Audience == types.AUDIENCE_ADMIN {
		return s.client.Collection(AdminNotifications).Doc(n.ID.String())
	}
	return s.client.Collection(Users).Doc(n.RecipientID).Collection(UserNotifications).Doc(n.ID.String())
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*models.User, error) {
	snap, err := s.client.Collection(Users).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := snap.DataTo(&user); err != nil {
		return nil, err
	}
	user.ID = snap.Ref.ID
	return &user, nil
}

// Seed writes a booking request document. The booking flow owns creation; this is used by
// local tooling and tests.
func (s *Store) Seed(ctx context.Context, req models.BookingRequest) error {
	_, err := s.client.Collection(BookingRequests).Doc(req.ID).Set(ctx, req.Fields())
	return err
}

func decodeBookingRequest(id string, data map[string]any) models.BookingRequest {
	req := models.BookingRequest{ID: id}
	if v, ok := data["status"].(string); ok {
		req.Status = types.BookingRequestStatus(v)
	}
	switch v := data["expirationTime"].(type) {
	case time.Time:
		exp := v.UTC()
		req.ExpirationTime = &exp
	case nil:
	default:
		log.Printf("[firestore] booking request %s has expirationTime of type %T. Ignoring\n", id, v)
	}
	req.UserID, _ = data["userId"].(string)
	req.SitterID, _ = data["sitterId"].(string)
	req.CancelReason, _ = data["cancelReason"].(string)
	if v, ok := data["createdAt"].(time.Time); ok {
		req.CreatedAt = v
	}
	if v, ok := data["updatedAt"].(time.Time); ok {
		req.UpdatedAt = v
	}
	for k, v := range data {
		if knownFields[k] {
			continue
		}
		if req.Attributes == nil {
			req.Attributes = types.JSONB{}
		}
		req.Attributes[k] = v
	}
	return req
}
