package types

import "fmt"

const (
	EXPIRED_CANCEL_REASON  = "Booking request expired automatically"
	ARCHIVED_DELETE_REASON = "Booking request expired and was removed automatically"
)

// MessageFor returns the title and body shown to audience for a booking handled as kind.
func MessageFor(kind NotificationType, audience NotificationAudience, bookingID string) (title string, body string) {
	switch kind {
	case NOTIFICATION_BOOKING_DELETED:
		title = "Booking request removed"
		switch audience {
		case AUDIENCE_USER:
			body = "Your booking request expired and has been removed. Please submit a new request."
		case AUDIENCE_SITTER:
			body = "An expired booking request has been removed."
		default:
			body = fmt.Sprintf("Booking request %s expired and was removed automatically", bookingID)
		}
	default:
		title = "Booking request expired"
		switch audience {
		case AUDIENCE_USER:
			body = "Your booking request has expired. Please submit a new request."
		case AUDIENCE_SITTER:
			body = "A booking request has expired."
		default:
			body = fmt.Sprintf("Booking request %s expired and was cancelled automatically", bookingID)
		}
	}
	return title, body
}
