package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type Timestamps struct {
	CreatedAt time.Time `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Environment string

const (
	Local      Environment = "local"
	Test       Environment = "test"
	Production Environment = "production"
)

type BookingRequestStatus string

const (
	BOOKING_REQUEST_PENDING   BookingRequestStatus = "pending"
	BOOKING_REQUEST_CONFIRMED BookingRequestStatus = "confirmed"
	BOOKING_REQUEST_EXPIRED   BookingRequestStatus = "expired"
	BOOKING_REQUEST_DELETED   BookingRequestStatus = "deleted"
)

// ExpirationPolicy decides what happens to an eligible request. A deployment picks one.
type ExpirationPolicy string

const (
	// POLICY_EXPIRE keeps the record and marks it expired.
	POLICY_EXPIRE ExpirationPolicy = "expire"
	// POLICY_ARCHIVE copies the record into the archive and removes it.
	POLICY_ARCHIVE ExpirationPolicy = "archive"
)

func (p ExpirationPolicy) Valid() bool {
	return p == POLICY_EXPIRE || p == POLICY_ARCHIVE
}

// NotificationType returns the notification tag for records handled under p.
func (p ExpirationPolicy) NotificationType() NotificationType {
	if p == POLICY_ARCHIVE {
		return NOTIFICATION_BOOKING_DELETED
	}
	return NOTIFICATION_BOOKING_EXPIRED
}

type NotificationType string

const (
	NOTIFICATION_BOOKING_EXPIRED NotificationType = "booking_expired"
	NOTIFICATION_BOOKING_DELETED NotificationType = "booking_deleted"
)

type NotificationAudience string

const (
	AUDIENCE_USER   NotificationAudience = "user"
	AUDIENCE_SITTER NotificationAudience = "sitter"
	AUDIENCE_ADMIN  NotificationAudience = "admin"
)

type RunOutcome string

const (
	RUN_SUCCEEDED RunOutcome = "succeeded"
	RUN_FAILED    RunOutcome = "failed"
)

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required"`
}

type WakeRequestBody struct {
	ExpirationTime string `json:"expiration_time" binding:"required,futuretime"`
}

// WakeMessage is the payload a wake schedule publishes to the wake topic.
type WakeMessage struct {
	BookingID      string    `json:"bookingId"`
	ExpirationTime time.Time `json:"expirationTime"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type Handler func(payload string)
