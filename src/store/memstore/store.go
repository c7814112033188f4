// Package memstore keeps booking requests, participants and notifications in process memory.
// It backs the tests and STORE_DRIVER=memory local runs.
package memstore

import (
	"context"
	"fmt"
	"sitbook/src/models"
	"sitbook/src/reconciler"
	"sitbook/src/types"
	"sort"
	"sync"
)

type Store struct {
	mu            sync.Mutex
	requests      map[string]models.BookingRequest
	archive       map[string]models.ArchivedBookingRequest
	users         map[string]models.User
	notifications []models.Notification
	commitErr     error
	queryErr      error
	commits       int
}

func New() *Store {
	return &Store{
		requests: map[string]models.BookingRequest{},
		archive:  map[string]models.ArchivedBookingRequest{},
		users:    map[string]models.User{},
	}
}

func (s *Store) PutRequest(req models.BookingRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
}

func (s *Store) PutUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) Request(id string) (models.BookingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[id]
	return req, ok
}

func (s *Store) Archived(id string) (models.ArchivedBookingRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.archive[id]
	return a, ok
}

func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

func (s *Store) NotificationsFor(bookingID string) []models.Notification {
	var out []models.Notification
	for _, n := range s.Notifications() {
		if n.BookingID == bookingID {
			out = append(out, n)
		}
	}
	return out
}

// Commits returns how many write sets were applied.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// FailCommits makes every later Commit return err. A nil err restores normal behaviour.
func (s *Store) FailCommits(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitErr = err
}

// FailQueries makes every later PendingRequests return err.
func (s *Store) FailQueries(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queryErr = err
}

func (s *Store) PendingRequests(ctx context.Context) ([]models.BookingRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []models.BookingRequest
	for _, req := range s.requests {
		if req.Status == types.BOOKING_REQUEST_PENDING {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Commit(ctx context.Context, ws reconciler.WriteSet) error {
	if err := ws.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}
	for _, t := range ws.Transitions {
		cur, ok := s.requests[t.Request.ID]
		if !ok || cur.Status != types.BOOKING_REQUEST_PENDING {
			return fmt.Errorf("%w: %s", types.ErrConflict, t.Request.ID)
		}
	}
	for _, t := range ws.Transitions {
		if t.Update != nil {
			cur := s.requests[t.Request.ID]
			cur.Status = t.Update.Status
			cur.CancelReason = t.Update.CancelReason
			cur.UpdatedAt = t.Update.UpdatedAt
			s.requests[cur.ID] = cur
			continue
		}
		s.archive[t.Archive.ID] = *t.Archive
		delete(s.requests, t.Request.ID)
	}
	s.notifications = append(s.notifications, ws.Notifications...)
	s.commits++
	return nil
}

func (s *Store) GetParticipant(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, types.ErrNotFound)
	}
	return &u, nil
}
