package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sitbook/src/models"
	"sitbook/src/models/scopes"
	"sitbook/src/reconciler"
	"sitbook/src/types"

	"gorm.io/gorm"
)

// Store keeps booking requests in postgres through gorm.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Models lists the tables this store owns, for AutoMigrate and schema loaders.
func Models() []any {
	return []any{
		&models.BookingRequest{},
		&models.ArchivedBookingRequest{},
		&models.Notification{},
		&models.User{},
	}
}

func (s *Store) PendingRequests(ctx context.Context) ([]models.BookingRequest, error) {
	var requests []models.BookingRequest
	err := s.db.
		WithContext(ctx).
		Model(&models.BookingRequest{}).
		Scopes(scopes.WithPendingStatus).
		Order("id asc").
		Find(&requests).
		Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

// Commit applies the write set in one transaction. Each transition only matches a row that
// is still pending, so a row claimed by a concurrent run rolls the whole set back.
func (s *Store) Commit(ctx context.Context, ws reconciler.WriteSet) error {
	if err := ws.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range ws.Transitions {
			if err := applyTransition(tx, t); err != nil {
				return err
			}
		}
		if len(ws.Notifications) > 0 {
			if err := tx.Create(&ws.Notifications).Error; err != nil {
				log.Printf("Failed to create notifications: %s\n", err.Error())
				return err
			}
		}
		return nil
	})
}

func applyTransition(tx *gorm.DB, t reconciler.Transition) error {
	id := t.Request.ID
	var res *gorm.DB
	if t.Update != nil {
		res = tx.
			Model(&models.BookingRequest{}).
			Scopes(scopes.WithID(id), scopes.WithPendingStatus).
			Updates(map[string]any{
				"status":        t.Update.Status,
				"cancel_reason": t.Update.CancelReason,
				"updated_at":    t.Update.UpdatedAt,
			})
	} else {
		res = tx.
			Scopes(scopes.WithID(id), scopes.WithPendingStatus).
			Delete(&models.BookingRequest{})
	}
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("%w: %s", types.ErrConflict, id)
	}
	if t.Archive != nil {
		if err := tx.Create(t.Archive).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.
		WithContext(ctx).
		Scopes(scopes.WithID(id)).
		First(&user).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
