package models

import (
	"sitbook/src/types"
)

// User is a participant record: either the requesting user or the sitter.
type User struct {
	ID       string `gorm:"primarykey" json:"id" firestore:"-"`
	Name     string `json:"name,omitempty" firestore:"name,omitempty"`
	Email    string `json:"email,omitempty" firestore:"email,omitempty"`
	Role     string `json:"role,omitempty" firestore:"role,omitempty"`
	FCMToken string `json:"fcmToken,omitempty" firestore:"fcmToken,omitempty"`

	types.Timestamps `firestore:"-"`
}
