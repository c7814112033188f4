package reconciler

import (
	"fmt"
	"sitbook/src/models"
	"sitbook/src/types"
	"time"

	"github.com/google/uuid"
)

// StatusUpdate is the in-place transition applied under the expire policy.
type StatusUpdate struct {
	Status       types.BookingRequestStatus
	CancelReason string
	UpdatedAt    time.Time
}

// Transition moves one pending request to its terminal state. Exactly one of Update and
// Archive is set, matching the write set's policy.
type Transition struct {
	Request models.BookingRequest
	Update  *StatusUpdate
	Archive *models.ArchivedBookingRequest
}

// WriteSet is everything one run commits. Stores must apply it all-or-nothing and must
// reject it with types.ErrConflict if any transitioned request is no longer pending.
type WriteSet struct {
	Policy        types.ExpirationPolicy
	Transitions   []Transition
	Notifications []models.Notification
}

// Validate checks the write set is non-empty and uses a single policy throughout.
func (w *WriteSet) Validate() error {
	if len(w.Transitions) == 0 {
		return types.ErrEmptyBatch
	}
	if !w.Policy.Valid() {
		return fmt.Errorf("unknown expiration policy %q", w.Policy)
	}
	for _, t := range w.Transitions {
		switch w.Policy {
		case types.POLICY_EXPIRE:
			if t.Update == nil || t.Archive != nil {
				return fmt.Errorf("%w: booking request %s", types.ErrMixedPolicy, t.Request.ID)
			}
		case types.POLICY_ARCHIVE:
			if t.Archive == nil || t.Update != nil {
				return fmt.Errorf("%w: booking request %s", types.ErrMixedPolicy, t.Request.ID)
			}
		}
	}
	return nil
}

// Writes counts the individual document writes in the set.
func (w *WriteSet) Writes() int {
	n := len(w.Notifications)
	for _, t := range w.Transitions {
		if t.Archive != nil {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// BuildWriteSet computes the transitions and notifications for the eligible requests.
func BuildWriteSet(eligible []models.BookingRequest, policy types.ExpirationPolicy, now time.Time) (WriteSet, error) {
	if !policy.Valid() {
		return WriteSet{}, fmt.Errorf("unknown expiration policy %q", policy)
	}
	ws := WriteSet{
		Policy:        policy,
		Transitions:   make([]Transition, 0, len(eligible)),
		Notifications: make([]models.Notification, 0, len(eligible)*3),
	}
	kind := policy.NotificationType()
	for _, req := range eligible {
		t := Transition{Request: req}
		switch policy {
		case types.POLICY_EXPIRE:
			t.Update = &StatusUpdate{
				Status:       types.BOOKING_REQUEST_EXPIRED,
				CancelReason: types.EXPIRED_CANCEL_REASON,
				UpdatedAt:    now,
			}
		case types.POLICY_ARCHIVE:
			t.Archive = &models.ArchivedBookingRequest{
				BookingRequest: req,
				DeletedAt:      now,
				Reason:         types.ARCHIVED_DELETE_REASON,
			}
		}
		ws.Transitions = append(ws.Transitions, t)
		ws.Notifications = append(ws.Notifications, notificationsFor(req, kind, now)...)
	}
	return ws, nil
}

func notificationsFor(req models.BookingRequest, kind types.NotificationType, now time.Time) []models.Notification {
	var out []models.Notification
	if req.UserID != "" {
		out = append(out, newNotification(req.ID, kind, types.AUDIENCE_USER, req.UserID, now))
	}
	if req.SitterID != "" {
		out = append(out, newNotification(req.ID, kind, types.AUDIENCE_SITTER, req.SitterID, now))
	}
	out = append(out, newNotification(req.ID, kind, types.AUDIENCE_ADMIN, "", now))
	return out
}

func newNotification(bookingID string, kind types.NotificationType, audience types.NotificationAudience, recipient string, now time.Time) models.Notification {
	title, body := types.MessageFor(kind, audience, bookingID)
	return models.Notification{
		ID:          uuid.New(),
		Audience:    audience,
		RecipientID: recipient,
		Title:       title,
		Message:     body,
		Type:        kind,
		BookingID:   bookingID,
		Timestamp:   now,
		IsRead:      false,
	}
}
